package handlers

import (
	"net/http"

	"github.com/esportium/esports-arena/middleware"
	"github.com/esportium/esports-arena/services"
	"github.com/go-chi/chi/v5"
)

type NewsHandler struct {
	newsService services.NewsService
}

func NewNewsHandler(newsService services.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	authorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateNewsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.newsService.Create(r.Context(), authorID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"news": post}, nil)
}

func (h *NewsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.newsService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"news": post}, nil)
}

func (h *NewsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	if slugValue == "" {
		badRequestResponse(w, r, errMissingSlug)
		return
	}

	post, err := h.newsService.GetBySlug(r.Context(), slugValue)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"news": post}, nil)
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	posts, err := h.newsService.List(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"news": posts}, nil)
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, actorRole, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.UpdateNewsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.newsService.Update(r.Context(), id, actorID, actorRole, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"news": post}, nil)
}

func (h *NewsHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, actorRole, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	file, contentType, err := formFile(r, "cover")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	post, err := h.newsService.UploadCover(r.Context(), id, actorID, actorRole, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"news": post}, nil)
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, actorRole, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.newsService.Delete(r.Context(), id, actorID, actorRole); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NewsHandler) RegisterView(w http.ResponseWriter, r *http.Request) {
	h.registerCounter(w, r, h.newsService.RegisterView, "views")
}

func (h *NewsHandler) RegisterLike(w http.ResponseWriter, r *http.Request) {
	h.registerCounter(w, r, h.newsService.RegisterLike, "likes")
}

func (h *NewsHandler) RegisterShare(w http.ResponseWriter, r *http.Request) {
	h.registerCounter(w, r, h.newsService.RegisterShare, "shares")
}

func (h *NewsHandler) registerCounter(w http.ResponseWriter, r *http.Request, op counterOp, field string) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	value, err := op(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{field: value}, nil)
}

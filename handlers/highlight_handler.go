package handlers

import (
	"net/http"

	"github.com/esportium/esports-arena/middleware"
	"github.com/esportium/esports-arena/services"
)

type HighlightHandler struct {
	highlightService services.HighlightService
}

func NewHighlightHandler(highlightService services.HighlightService) *HighlightHandler {
	return &HighlightHandler{highlightService: highlightService}
}

func (h *HighlightHandler) Create(w http.ResponseWriter, r *http.Request) {
	uploaderID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateHighlightInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	highlight, err := h.highlightService.Create(r.Context(), uploaderID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"highlight": highlight}, nil)
}

func (h *HighlightHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	highlight, err := h.highlightService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"highlight": highlight}, nil)
}

func (h *HighlightHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	highlights, err := h.highlightService.List(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"highlights": highlights}, nil)
}

func (h *HighlightHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	highlights, err := h.highlightService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"highlights": highlights}, nil)
}

func (h *HighlightHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
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

	file, contentType, err := formFile(r, "video")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	highlight, err := h.highlightService.UploadVideo(r.Context(), id, actorID, actorRole, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"highlight": highlight}, nil)
}

func (h *HighlightHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.highlightService.Delete(r.Context(), id, actorID, actorRole); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HighlightHandler) RegisterView(w http.ResponseWriter, r *http.Request) {
	h.registerCounter(w, r, h.highlightService.RegisterView, "views")
}

func (h *HighlightHandler) RegisterLike(w http.ResponseWriter, r *http.Request) {
	h.registerCounter(w, r, h.highlightService.RegisterLike, "likes")
}

func (h *HighlightHandler) registerCounter(w http.ResponseWriter, r *http.Request, op counterOp, field string) {
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

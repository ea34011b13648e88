package routes

import (
	"net/http"

	"github.com/esportium/esports-arena/handlers"
	"github.com/esportium/esports-arena/middleware"
	"github.com/esportium/esports-arena/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Tournament *handlers.TournamentHandler
	Competitor *handlers.CompetitorHandler
	Match      *handlers.MatchHandler
	News       *handlers.NewsHandler
	Highlight  *handlers.HighlightHandler
	WebSocket  *handlers.WebSocketHandler
}

func New(h Handlers, jwtSecret []byte, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticated := middleware.Authenticate(jwtSecret)
	organizersOnly := middleware.RequireRole(models.RoleAdmin, models.RoleOrganizer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", h.User.GetByID)
			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Patch("/{id}", h.User.UpdateProfile)
				r.With(middleware.RequireRole(models.RoleAdmin)).Delete("/{id}", h.User.Delete)
			})
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.List)
			r.Get("/{id}", h.Tournament.GetByID)
			r.Get("/{id}/competitors", h.Competitor.ListByTournament)
			r.Get("/{id}/matches", h.Match.ListByTournament)
			r.Get("/{id}/highlights", h.Highlight.ListByTournament)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.With(organizersOnly).Post("/", h.Tournament.Create)
				r.With(organizersOnly).Patch("/{id}", h.Tournament.Update)
				r.With(organizersOnly).Patch("/{id}/status", h.Tournament.UpdateStatus)
				r.With(organizersOnly).Post("/{id}/logo", h.Tournament.UploadLogo)
				r.With(organizersOnly).Delete("/{id}", h.Tournament.Delete)
				r.With(organizersOnly).Post("/{id}/matches/generate", h.Tournament.GenerateFixtures)
				r.Post("/{id}/competitors", h.Competitor.Register)
			})
		})

		r.Route("/competitors", func(r chi.Router) {
			r.Get("/{id}", h.Competitor.GetByID)
			r.Get("/{id}/matches", h.Match.ListByCompetitor)
			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/{id}/logo", h.Competitor.UploadLogo)
				r.Delete("/{id}", h.Competitor.Remove)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/upcoming", h.Match.ListUpcoming)
			r.Get("/ongoing", h.Match.ListOngoing)
			r.Get("/{id}", h.Match.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticated, organizersOnly)
				r.Post("/", h.Match.Schedule)
				r.Post("/{id}/start", h.Match.Start)
				r.Post("/{id}/result", h.Match.RecordResult)
				r.Post("/{id}/games", h.Match.AddGame)
				r.Post("/{id}/reschedule", h.Match.Reschedule)
				r.Post("/{id}/cancel", h.Match.Cancel)
				r.Post("/{id}/postpone", h.Match.Postpone)
				r.Delete("/{id}", h.Match.Delete)
			})
		})

		r.Route("/news", func(r chi.Router) {
			r.Get("/", h.News.List)
			r.Get("/{id}", h.News.GetByID)
			r.Get("/slug/{slug}", h.News.GetBySlug)
			r.Post("/{id}/views", h.News.RegisterView)
			r.Post("/{id}/likes", h.News.RegisterLike)
			r.Post("/{id}/shares", h.News.RegisterShare)

			r.Group(func(r chi.Router) {
				r.Use(authenticated, organizersOnly)
				r.Post("/", h.News.Create)
				r.Patch("/{id}", h.News.Update)
				r.Post("/{id}/cover", h.News.UploadCover)
				r.Delete("/{id}", h.News.Delete)
			})
		})

		r.Route("/highlights", func(r chi.Router) {
			r.Get("/", h.Highlight.List)
			r.Get("/{id}", h.Highlight.GetByID)
			r.Post("/{id}/views", h.Highlight.RegisterView)
			r.Post("/{id}/likes", h.Highlight.RegisterLike)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/", h.Highlight.Create)
				r.Post("/{id}/video", h.Highlight.UploadVideo)
				r.Delete("/{id}", h.Highlight.Delete)
			})
		})
	})

	r.Get("/ws/tournaments/{id}", h.WebSocket.ServeTournament)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/oggyb/elite-matchmaking/internal/config"
	"github.com/oggyb/elite-matchmaking/internal/middleware"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/service/chat"
	"github.com/oggyb/elite-matchmaking/internal/service/explore"
	"github.com/oggyb/elite-matchmaking/internal/service/premium"
	"github.com/oggyb/elite-matchmaking/internal/service/profile"
	"github.com/oggyb/elite-matchmaking/internal/service/session"
)

// Services are the collaborators behind the HTTP surface.
type Services struct {
	Sessions *session.Service
	Profiles *profile.Service
	Explore  *explore.Service
	Chat     *chat.Service
	Premium  *premium.Service
	Notifier *realtime.Notifier
}

// NewRouter builds the full HTTP surface: JSON API under /api/v1, the realtime
// stream at /ws and the gate at /.
func NewRouter(cfg *config.Config, log *slog.Logger, s Services) http.Handler {
	authHandler := NewAuthHandler(s.Sessions)
	profileHandler := NewProfileHandler(s.Profiles)
	discoverHandler := NewDiscoverHandler(s.Explore)
	chatHandler := NewChatHandler(s.Chat)
	premiumHandler := NewPremiumHandler(s.Premium)
	wsHandler := NewWebSocketHandler(s.Sessions, s.Notifier, cfg.Auth.AllowedOrigins)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Session(s.Sessions))

	r.Get("/", authHandler.Gate)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/session", authHandler.Gate)
		r.Get("/countries", profileHandler.Countries)
		r.Post("/auth/magic-link", authHandler.RequestMagicLink)
		r.Post("/auth/callback", authHandler.Callback)

		// Signed in, onboarding allowed
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireViewer)
			r.Get("/auth/session", authHandler.Session)
			r.Post("/auth/sign-out", authHandler.SignOut)
			r.Post("/profile", profileHandler.Create)
			r.Post("/profile/photo-upload", profileHandler.PhotoUpload)
		})

		// Signed in with a profile
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireProfile)
			r.Get("/profile", profileHandler.Get)

			r.Get("/discover", discoverHandler.Candidates)
			r.Post("/discover/decisions", discoverHandler.Decide)
			r.Delete("/discover/decisions", discoverHandler.Reset)

			r.Get("/conversations", chatHandler.Conversations)
			r.Get("/conversations/{id}/messages", chatHandler.Messages)
			r.Post("/conversations/{id}/messages", chatHandler.Send)
			r.Post("/conversations/{id}/attachments", chatHandler.Attachment)

			r.Get("/premium", premiumHandler.Offer)
			r.Post("/premium/orders", premiumHandler.CreateOrder)
			r.Post("/premium/confirm", premiumHandler.Confirm)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	r.NotFound(notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
	})

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.Auth.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

// notFound answers unknown API paths with JSON and sends everything else home.
func notFound(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/charsheet-be/internal/api/handlers"
	"github.com/isdelr/charsheet-be/internal/auth"
	"github.com/isdelr/charsheet-be/internal/services"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Options carries the transport policy for the router.
type Options struct {
	AllowedOrigins []string
	Tokens         *auth.TokenCodec
	Cookies        auth.CookiePolicy
}

// NewRouter creates and configures a new Chi router.
func NewRouter(opts Options, db handlers.Pinger, userService services.UserServiceProvider, characterService services.CharacterServiceProvider, eventService services.EventServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	// Credentialed CORS so the browser client can send the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, opts.Tokens, opts.Cookies)
	characterHandler := handlers.NewCharacterHandler(characterService)
	eventHandler := handlers.NewEventHandler(eventService)
	healthHandler := handlers.NewHealthHandler(db)

	protect := auth.Middleware(opts.Tokens, opts.Cookies.Name, userService)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Check)

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/logout", userHandler.Logout) // No auth needed to drop a cookie
			r.With(protect).Get("/profile", userHandler.Profile)
		})

		r.Group(func(r chi.Router) {
			r.Use(protect)

			r.Get("/events", eventHandler.GetRecent)

			r.Route("/characters", func(r chi.Router) {
				r.Get("/", characterHandler.GetAll)
				r.Post("/", characterHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", characterHandler.Get)
					r.Put("/", characterHandler.Update)
					r.Delete("/", characterHandler.Delete)
					r.Post("/levelup", characterHandler.LevelUp)
				})
			})
		})
	})

	return r
}

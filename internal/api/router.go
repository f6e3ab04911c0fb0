package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/taskboard-be/internal/api/handlers"
	"github.com/isdelr/taskboard-be/internal/auth"
	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/isdelr/taskboard-be/internal/websocket"
)

// Dependencies groups everything the router wires into handlers.
type Dependencies struct {
	Users       services.UserServiceProvider
	Tasks       services.TaskServiceProvider
	Events      services.EventServiceProvider
	Tokens      *auth.TokenManager
	Hub         *websocket.Hub
	DB          handlers.Pinger
	Stats       handlers.StatsSource
	Environment string
	CORSOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(securityHeaders()...)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Stats, deps.Environment)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens)
	userHandler := handlers.NewUserHandler(deps.Users)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	eventHandler := handlers.NewEventHandler(deps.Events)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, originChecker(origins))

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Browsers cannot set headers on a websocket upgrade.
		r.With(auth.QueryTokenMiddleware(deps.Tokens)).Get("/ws", wsHandler.Serve)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(deps.Tokens))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Get("/me", userHandler.GetMe)
				r.Get("/{id}", userHandler.Get)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.GetAll)
				r.Post("/", taskHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Delete("/", taskHandler.Delete)
				})
			})

			r.Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}

// originChecker mirrors the CORS allow-list for websocket upgrades.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/auth"
	"github.com/ignite/mailing-admin/internal/pkg/metrics"
)

// Deps wires the router to its services and infrastructure.
type Deps struct {
	Clients    ClientService
	Messages   MessageService
	Mailings   MailingService
	Dispatcher Dispatcher
	Stats      StatsService
	Profiles   ProfileService

	Tokens  *auth.TokenManager
	Health  *HealthChecker
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer

	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter configures all routes. Everything under /api except /api/stats
// requires a valid bearer token.
func NewRouter(d Deps) *chi.Mux {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handlers{
		clients:    d.Clients,
		messages:   d.Messages,
		mailings:   d.Mailings,
		dispatcher: d.Dispatcher,
		stats:      d.Stats,
		profiles:   d.Profiles,
		log:        log.Named("api"),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observe(log.Named("http"), d.Metrics))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics (no auth required)
	if d.Health != nil {
		r.Get("/health", d.Health.HandleHealth)
		r.Get("/health/live", d.Health.HandleLiveness)
		r.Get("/health/ready", d.Health.HandleReadiness)
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if d.Tokens != nil {
			r.Use(d.Tokens.Middleware)
		}

		r.Get("/stats", h.HandleStats)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.HandleListClients)
				r.Post("/", h.HandleCreateClient)
				r.Get("/{id}", h.HandleGetClient)
				r.Put("/{id}", h.HandleUpdateClient)
				r.Delete("/{id}", h.HandleDeleteClient)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", h.HandleListMessages)
				r.Post("/", h.HandleCreateMessage)
				r.Get("/{id}", h.HandleGetMessage)
				r.Put("/{id}", h.HandleUpdateMessage)
				r.Delete("/{id}", h.HandleDeleteMessage)
			})

			r.Route("/mailings", func(r chi.Router) {
				r.Get("/", h.HandleListMailings)
				r.Post("/", h.HandleCreateMailing)
				r.Get("/choices", h.HandleMailingChoices)
				r.Get("/{id}", h.HandleGetMailing)
				r.Put("/{id}", h.HandleUpdateMailing)
				r.Delete("/{id}", h.HandleDeleteMailing)
				r.Post("/{id}/send", h.HandleSendMailing)
				r.Get("/{id}/attempts", h.HandleListAttempts)
			})

			r.Get("/profile", h.HandleGetProfile)
			r.Put("/profile", h.HandleUpdateProfile)
			r.Put("/profile/avatar", h.HandleUploadAvatar)
		})
	})

	return r
}

// observe logs each request and counts it by route pattern.
func observe(log *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			if m != nil {
				m.ObserveRequest(route, status)
			}
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

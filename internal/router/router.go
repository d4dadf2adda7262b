package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackstuend/Daily-Lesson-Review/internal/handlers"
	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/middleware"
	"github.com/blackstuend/Daily-Lesson-Review/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	mutationLimiter *middleware.RateLimiter,
	m *metrics.Metrics,
	healthHandler *handlers.HealthHandler,
	lessonHandler *handlers.LessonHandler,
	reviewHandler *handlers.ReviewHandler,
	waitingHandler *handlers.WaitingHandler,
	dashboardHandler *handlers.DashboardHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))
	r.Use(middleware.Metrics(m))

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// WebSocket authenticates with ?token= itself.
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(mutationLimiter.MutationsOnly)

			// ──── Lesson Routes ────
			r.Route("/lessons", func(r chi.Router) {
				r.Post("/", lessonHandler.Create)
				r.Get("/", lessonHandler.List)
				r.Get("/links", lessonHandler.ListLinks)
				r.Post("/import", lessonHandler.Import)
				r.Get("/{id}", lessonHandler.Get)
				r.Put("/{id}", lessonHandler.Update)
				r.Delete("/{id}", lessonHandler.Delete)
			})

			// ──── Review Routes ────
			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", reviewHandler.Overview)
				r.Get("/today", reviewHandler.Today)
				r.Get("/calendar", reviewHandler.Calendar)
				r.Get("/day/{date}", reviewHandler.Day)
				r.Patch("/{id}", reviewHandler.Update)
				r.Post("/{id}/complete", reviewHandler.Complete)
				r.Post("/{id}/incomplete", reviewHandler.Incomplete)
				r.Post("/{id}/move-tomorrow", reviewHandler.MoveToTomorrow)
				r.Delete("/{id}", reviewHandler.Delete)
			})

			// ──── Waiting List Routes ────
			r.Route("/waiting-lessons", func(r chi.Router) {
				r.Post("/", waitingHandler.Create)
				r.Get("/", waitingHandler.List)
				r.Put("/{id}", waitingHandler.Update)
				r.Delete("/{id}", waitingHandler.Delete)
				r.Post("/{id}/promote", waitingHandler.Promote)
			})

			// ──── Dashboard Routes ────
			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", dashboardHandler.Summary)
				r.Get("/contributions", dashboardHandler.Contributions)
			})
		})
	})

	return r
}

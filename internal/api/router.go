package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/wx-dash/internal/config"
	"github.com/yegors/wx-dash/internal/dashboard"
	"github.com/yegors/wx-dash/internal/templating"
	"github.com/yegors/wx-dash/internal/websocket"
	"github.com/yegors/wx-dash/pkg/logger"
)

// Router wires the HTTP handlers
type Router struct {
	handler *Handler
	static  http.Handler
	logger  *logger.Logger
}

// NewRouter creates the router. storage may be nil.
func NewRouter(manager *dashboard.Manager, templates *templating.Service, wsServer *websocket.Server, storage Pinger, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler: NewHandler(manager, templates, wsServer, storage, cfg.Dashboard.SessionCookieName, log),
		static:  NewStaticFileHandler(cfg.Server.StaticFilesDir, cfg.Server.StaticMaxAgeSecs, log),
		logger:  log.Named("http"),
	}
}

// Routes returns the HTTP handler for all endpoints
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)

	h := rt.handler

	r.Get("/", h.GetDashboardPage)
	r.Get("/health", h.GetHealth)
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)
		r.Post("/search", h.Search)
		r.Get("/calendar", h.GetCalendar)
		r.Post("/calendar/{action}", h.CalendarAction)
	})

	r.Handle("/static/*", http.StripPrefix("/static", rt.static))
	// Icon paths written by the renderer are relative to the page
	r.Handle("/images/*", rt.static)

	return r
}

// requestLogger logs every request once it completes
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Debug("Request handled",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
			logger.String("request_id", middleware.GetReqID(r.Context())))
	})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/wx-dash/internal/dashboard"
	"github.com/yegors/wx-dash/internal/templating"
	"github.com/yegors/wx-dash/internal/weather"
	"github.com/yegors/wx-dash/internal/websocket"
	"github.com/yegors/wx-dash/pkg/logger"
)

// Session cookies outlive in-memory sessions so the saved search is found again
const sessionCookieMaxAge = 365 * 24 * 60 * 60

// Pinger reports storage health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains the API handlers
type Handler struct {
	manager    *dashboard.Manager
	templates  *templating.Service
	wsServer   *websocket.Server
	storage    Pinger
	cookieName string
	startedAt  time.Time
	logger     *logger.Logger
}

// NewHandler creates a new API handler. storage may be nil.
func NewHandler(manager *dashboard.Manager, templates *templating.Service, wsServer *websocket.Server, storage Pinger, cookieName string, log *logger.Logger) *Handler {
	if cookieName == "" {
		cookieName = "wxdash_session"
	}
	return &Handler{
		manager:    manager,
		templates:  templates,
		wsServer:   wsServer,
		storage:    storage,
		cookieName: cookieName,
		startedAt:  time.Now(),
		logger:     log.Named("api-handler"),
	}
}

// SearchRequest is the body of POST /api/v1/search
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse reports a search outcome and the resulting page
type SearchResponse struct {
	OK    bool               `json:"ok"`
	Alert string             `json:"alert,omitempty"`
	Page  dashboard.Snapshot `json:"page"`
}

// CalendarRequest is the optional body of POST /api/v1/calendar/{action}
type CalendarRequest struct {
	Day int `json:"day"`
}

// session returns the caller's session, creating it and setting the cookie
// when needed
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	id := ""
	if c, err := r.Cookie(h.cookieName); err == nil {
		id = c.Value
	}

	s, _ := h.manager.GetOrCreate(id)
	if s.ID() != id {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    s.ID(),
			Path:     "/",
			MaxAge:   sessionCookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}

// GetDashboardPage runs the page-load sequence and renders the dashboard
func (h *Handler) GetDashboardPage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s := h.session(w, r)

	if err := s.Load(r.Context()); err != nil {
		h.logger.Error("Dashboard load failed", logger.Error(err))
	}

	page, err := h.templates.RenderDashboard(s)
	if err != nil {
		h.logger.Error("Failed to render dashboard", logger.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Dashboard served",
		logger.String("session_id", s.ID()),
		logger.Duration("duration", time.Since(start)))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// GetDashboard returns the session page as JSON
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	WriteJSON(w, http.StatusOK, map[string]any{
		"session_id": s.ID(),
		"page":       s.Page().Snapshot(),
		"calendar":   s.Calendar().State(),
	})
}

// Search runs a primary search for the session
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.Search(r.Context(), req.Query)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, SearchResponse{OK: true, Page: s.Page().Snapshot()})
	case errors.Is(err, dashboard.ErrEmptyQuery):
		WriteError(w, http.StatusBadRequest, "query is empty")
	default:
		status := http.StatusBadGateway
		if errors.Is(err, weather.ErrNotFound) {
			status = http.StatusNotFound
		}
		h.logger.Debug("Search failed", logger.Error(err))
		WriteJSON(w, status, SearchResponse{
			Alert: dashboard.AlertMessage(err),
			Page:  s.Page().Snapshot(),
		})
	}
}

// GetCalendar returns the calendar state
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	WriteJSON(w, http.StatusOK, s.Calendar().State())
}

// CalendarAction applies toggle, prev, next, dismiss or pick
func (h *Handler) CalendarAction(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	action := chi.URLParam(r, "action")

	var req CalendarRequest
	if action == dashboard.CalendarPick {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	state, err := s.CalendarAction(action, req.Day)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := map[string]any{"state": state}
	if action == dashboard.CalendarPick {
		resp["selected"] = time.Date(state.Year, time.Month(state.Month+1), req.Day, 0, 0, 0, 0, time.Local).Format("2006-01-02")
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetHealth returns the health status of the service
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	storage := "ok"
	if h.storage != nil {
		if err := h.storage.Ping(r.Context()); err != nil {
			h.logger.Warn("Storage health check failed", logger.Error(err))
			status, storage = "degraded", err.Error()
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, map[string]any{
		"status":            status,
		"storage":           storage,
		"sessions":          h.manager.Count(),
		"websocket_clients": h.wsServer.ClientCount(""),
		"uptime_seconds":    int(time.Since(h.startedAt).Seconds()),
	})
}

// HandleWebSocket upgrades the connection and binds it to the caller's session
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.wsServer.HandleConnection(w, r, s.ID())
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error body
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{"ok": false, "error": message})
}

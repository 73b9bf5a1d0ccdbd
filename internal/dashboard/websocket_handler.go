package dashboard

import (
	"errors"
	"fmt"

	"github.com/yegors/wx-dash/internal/websocket"
	"github.com/yegors/wx-dash/pkg/logger"
)

// WebSocketHandler handles search and calendar requests sent over the socket
type WebSocketHandler struct {
	manager *Manager
	logger  *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket message handler
func NewWebSocketHandler(manager *Manager, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		logger:  log.Named("dashboard-ws-handler"),
	}
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	session, ok := h.manager.Get(client.SessionID())
	if !ok {
		return fmt.Errorf("unknown session %q", client.SessionID())
	}

	switch messageType {
	case websocket.MessageTypeSearch:
		return h.handleSearch(session, data)
	case websocket.MessageTypeCalendar:
		return h.handleCalendar(session, data)
	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		return nil
	}
}

// handleSearch runs a search; the outcome reaches the browser as writes or an alert
func (h *WebSocketHandler) handleSearch(session *Session, data map[string]any) error {
	query, _ := data["query"].(string)

	err := session.Search(h.manager.Context(), query)
	if errors.Is(err, ErrEmptyQuery) {
		return nil
	}
	if err != nil {
		h.logger.Debug("Search failed", logger.Error(err))
	}
	return nil
}

// handleCalendar applies a calendar action; the new state is published by the session
func (h *WebSocketHandler) handleCalendar(session *Session, data map[string]any) error {
	action, _ := data["action"].(string)

	day := 0
	if v, ok := data["day"].(float64); ok {
		day = int(v)
	}

	_, err := session.CalendarAction(action, day)
	return err
}

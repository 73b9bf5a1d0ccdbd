package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yegors/wx-dash/pkg/logger"
)

// Message types exchanged with the dashboard page
const (
	MessageTypeWrites   = "writes"   // Server pushes field writes
	MessageTypeAlert    = "alert"    // Server pushes a user-facing alert
	MessageTypeCalendar = "calendar" // Calendar state; also a client action request
	MessageTypeSearch   = "search"   // Client requests a search
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// Message represents a WebSocket message
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// MessageHandler defines the interface for handling incoming WebSocket messages
type MessageHandler interface {
	HandleMessage(client *Client, messageType string, data map[string]any) error
}

// Client is one browser connection bound to a dashboard session
type Client struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	sessionID string
	mu        sync.Mutex
	closed    bool
	closeChan chan struct{}
}

// delivery targets a single session, or every client when sessionID is empty
type delivery struct {
	sessionID string
	message   *Message
}

// Server is the connection hub
type Server struct {
	clients        map[*Client]bool
	register       chan *Client
	unregister     chan *Client
	broadcast      chan delivery
	done           chan struct{}
	stopOnce       sync.Once
	upgrader       websocket.Upgrader
	logger         *logger.Logger
	mu             sync.RWMutex
	messageHandler MessageHandler
}

// NewServer creates a new WebSocket server
func NewServer(log *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan delivery),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger: log.Named("web-socket"),
	}
}

// SetMessageHandler sets the message handler for incoming WebSocket messages
func (s *Server) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}

// Run processes registrations and deliveries until Stop is called
func (s *Server) Run() {
	s.logger.Info("Starting WebSocket server")

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client registered",
				logger.String("session_id", client.sessionID),
				logger.Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			s.removeLocked(client)
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client unregistered",
				logger.String("session_id", client.sessionID),
				logger.Int("client_count", clientCount))

		case d := <-s.broadcast:
			s.deliver(d)

		case <-s.done:
			s.mu.Lock()
			for client := range s.clients {
				s.removeLocked(client)
			}
			s.mu.Unlock()
			s.logger.Info("WebSocket server stopped")
			return
		}
	}
}

// Stop terminates Run and closes every client
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// deliver sends a message to the matching clients, dropping the slow ones
func (s *Server) deliver(d delivery) {
	s.mu.RLock()
	clientsToRemove := make([]*Client, 0)
	for client := range s.clients {
		if d.sessionID != "" && client.sessionID != d.sessionID {
			continue
		}
		if !client.SendMessage(d.message) {
			// Closed or channel full, mark for removal
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.mu.RUnlock()

	if len(clientsToRemove) > 0 {
		s.mu.Lock()
		for _, client := range clientsToRemove {
			s.removeLocked(client)
		}
		s.mu.Unlock()
	}
}

// removeLocked drops a client and closes its connection, which ends both pumps
func (s *Server) removeLocked(client *Client) {
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	client.Close()
}

// HandleConnection upgrades the request and binds the connection to sessionID
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.logger.Info("Handling new WebSocket connection request",
		logger.String("remote_addr", r.RemoteAddr),
		logger.String("session_id", sessionID))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan *Message, sendBuffer),
		server:    s,
		sessionID: sessionID,
		closeChan: make(chan struct{}),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(message *Message) {
	s.enqueue(delivery{message: message})
}

// SendToSession sends a message to every connection of one session
func (s *Server) SendToSession(sessionID string, message *Message) {
	if sessionID == "" {
		return
	}
	s.enqueue(delivery{sessionID: sessionID, message: message})
}

func (s *Server) enqueue(d delivery) {
	s.logger.Debug("Queueing message",
		logger.String("message_type", d.message.Type),
		logger.String("session_id", d.sessionID))

	select {
	case s.broadcast <- d:
	case <-s.done:
	}
}

// ClientCount returns the number of connections of a session, or of all
// sessions when sessionID is empty
func (s *Server) ClientCount(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID == "" {
		return len(s.clients)
	}
	n := 0
	for client := range s.clients {
		if client.sessionID == sessionID {
			n++
		}
	}
	return n
}

// SessionID returns the dashboard session the client belongs to
func (c *Client) SessionID() string {
	return c.sessionID
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
	}()

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.server.logger.Error("Failed to parse WebSocket message", logger.Error(err))
			continue
		}

		c.server.logger.Debug("Received WebSocket message",
			logger.String("type", message.Type),
			logger.String("session_id", c.sessionID))

		if c.server.messageHandler != nil {
			if err := c.server.messageHandler.HandleMessage(c, message.Type, message.Data); err != nil {
				c.server.logger.Error("Failed to handle WebSocket message",
					logger.Error(err),
					logger.String("type", message.Type))
			}
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(message)
			if err != nil {
				c.server.logger.Error("Failed to marshal message", logger.Error(err))
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.closeChan:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Close stops the write pump, which sends a close frame and closes the
// connection. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeChan)
}

// SendMessage sends a message to this specific client without blocking
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

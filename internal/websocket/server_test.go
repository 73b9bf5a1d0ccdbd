package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yegors/wx-dash/pkg/logger"
)

type recordingHandler struct {
	mu       sync.Mutex
	received []string
	sessions []string
	got      chan struct{}
}

func (h *recordingHandler) HandleMessage(client *Client, messageType string, data map[string]any) error {
	h.mu.Lock()
	h.received = append(h.received, messageType)
	h.sessions = append(h.sessions, client.SessionID())
	h.mu.Unlock()
	h.got <- struct{}{}
	return nil
}

func startServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(logger.NewNop())
	go s.Run()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.HandleConnection(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(func() {
		ts.Close()
		s.Stop()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, session string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.ClientCount("") == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, have %d", want, s.ClientCount(""))
}

func TestSendToSessionTargetsOnlyThatSession(t *testing.T) {
	s, ts := startServer(t)

	a := dial(t, ts, "session-a")
	b := dial(t, ts, "session-b")
	waitForClients(t, s, 2)

	if n := s.ClientCount("session-a"); n != 1 {
		t.Fatalf("expected 1 client for session-a, got %d", n)
	}

	s.SendToSession("session-a", &Message{Type: MessageTypeAlert, Data: map[string]any{"message": "hello"}})
	s.Broadcast(&Message{Type: MessageTypeCalendar, Data: map[string]any{"open": false}})

	var first Message
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := a.ReadJSON(&first); err != nil {
		t.Fatalf("session-a read failed: %v", err)
	}
	if first.Type != MessageTypeAlert || first.Data["message"] != "hello" {
		t.Errorf("unexpected first message for session-a: %+v", first)
	}

	var onlyB Message
	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := b.ReadJSON(&onlyB); err != nil {
		t.Fatalf("session-b read failed: %v", err)
	}
	if onlyB.Type != MessageTypeCalendar {
		t.Errorf("session-b should only see the broadcast, got %+v", onlyB)
	}
}

func TestIncomingMessagesReachHandler(t *testing.T) {
	s, ts := startServer(t)
	h := &recordingHandler{got: make(chan struct{}, 1)}
	s.SetMessageHandler(h)

	conn := dial(t, ts, "session-a")
	if err := conn.WriteJSON(Message{Type: MessageTypeSearch, Data: map[string]any{"query": "York"}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case <-h.got:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.received[0] != MessageTypeSearch || h.sessions[0] != "session-a" {
		t.Errorf("unexpected handler input: %v %v", h.received, h.sessions)
	}
}

func TestStopUnblocksSenders(t *testing.T) {
	s := NewServer(logger.NewNop())
	go s.Run()
	s.Stop()

	done := make(chan struct{})
	go func() {
		s.SendToSession("session-a", &Message{Type: MessageTypeAlert})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendToSession blocked after Stop")
	}
}

func TestStopClosesClients(t *testing.T) {
	s, ts := startServer(t)
	conn := dial(t, ts, "session-a")
	waitForClients(t, s, 1)

	s.Stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("expected a close frame, got %v", err)
	}
}

func TestDisconnectedClientIsRemoved(t *testing.T) {
	s, ts := startServer(t)
	conn := dial(t, ts, "session-a")
	waitForClients(t, s, 1)

	conn.Close()
	waitForClients(t, s, 0)

	done := make(chan struct{})
	go func() {
		s.SendToSession("session-a", &Message{Type: MessageTypeAlert})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendToSession blocked after the client left")
	}
}

func TestClientSendMessage(t *testing.T) {
	c := &Client{send: make(chan *Message, 1), closeChan: make(chan struct{})}

	if !c.SendMessage(&Message{Type: MessageTypeWrites}) {
		t.Fatal("first message should be queued")
	}
	if c.SendMessage(&Message{Type: MessageTypeWrites}) {
		t.Error("full buffer should refuse the message")
	}

	<-c.send
	c.Close()
	c.Close()

	select {
	case <-c.closeChan:
	default:
		t.Error("Close should signal the write pump")
	}
	if c.SendMessage(&Message{Type: MessageTypeWrites}) {
		t.Error("closed client should refuse messages")
	}
}

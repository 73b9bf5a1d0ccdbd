package dashboard

import (
	"sync"
	"time"

	"github.com/yegors/wx-dash/internal/calendar"
	"github.com/yegors/wx-dash/internal/render"
	"github.com/yegors/wx-dash/internal/websocket"
)

// Alerts older than the newest maxAlerts are dropped
const maxAlerts = 20

// Publisher pushes messages to the browser connections of a session
type Publisher interface {
	SendToSession(sessionID string, message *websocket.Message)
}

// Alert is a notification raised to the user
type Alert struct {
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raised_at"`
}

// Snapshot is a copy of the page state
type Snapshot struct {
	Query  string                       `json:"query"`
	Fields map[string]map[string]string `json:"fields"` // slot id -> field -> value
	Alerts []Alert                      `json:"alerts"`
}

// Value returns the value of a slot field, or "" if never written
func (s Snapshot) Value(slot render.Slot, field render.Field) string {
	return s.Fields[slot.ID()][string(field)]
}

// Page is the server-side model of one session's dashboard. It keeps the
// latest value of every written field and mirrors changes to the browser.
type Page struct {
	sessionID string
	query     string
	fields    map[string]map[string]string
	alerts    []Alert
	pending   []Alert // Deferred until the next rendered page
	publisher Publisher
	now       func() time.Time
	mu        sync.RWMutex

	// Held across store and publish so the browser sees changes in the
	// order they were stored
	order sync.Mutex
}

// NewPage creates an empty page; publisher may be nil
func NewPage(sessionID string, publisher Publisher) *Page {
	return &Page{
		sessionID: sessionID,
		fields:    make(map[string]map[string]string),
		publisher: publisher,
		now:       time.Now,
	}
}

// Apply stores a batch of writes and publishes it
func (p *Page) Apply(writes []render.Write) {
	if len(writes) == 0 {
		return
	}

	p.order.Lock()
	defer p.order.Unlock()

	p.mu.Lock()
	for _, w := range writes {
		id := w.Slot.ID()
		if p.fields[id] == nil {
			p.fields[id] = make(map[string]string)
		}
		p.fields[id][string(w.Field)] = w.Value
	}
	p.mu.Unlock()

	p.publish(websocket.MessageTypeWrites, map[string]any{"writes": writes})
}

// Alert records a notification and publishes it
func (p *Page) Alert(message string) {
	p.order.Lock()
	defer p.order.Unlock()

	alert := p.record(message, false)
	p.publish(websocket.MessageTypeAlert, map[string]any{"message": alert.Message})
}

// DeferAlert records a notification without publishing it. The alert is
// handed to the next rendered page through TakePending, for the page load
// where no browser connection exists yet.
func (p *Page) DeferAlert(message string) {
	p.record(message, true)
}

// TakePending returns the deferred alerts and clears them
func (p *Page) TakePending() []Alert {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.pending
	p.pending = nil
	return pending
}

func (p *Page) record(message string, deferred bool) Alert {
	alert := Alert{Message: message, RaisedAt: p.now()}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.alerts = append(p.alerts, alert)
	if len(p.alerts) > maxAlerts {
		p.alerts = p.alerts[len(p.alerts)-maxAlerts:]
	}
	if deferred {
		p.pending = append(p.pending, alert)
		if len(p.pending) > maxAlerts {
			p.pending = p.pending[len(p.pending)-maxAlerts:]
		}
	}
	return alert
}

// SetQuery records the text shown in the search box
func (p *Page) SetQuery(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = query
}

// PublishCalendar pushes a calendar state. selected is set when a day was picked.
func (p *Page) PublishCalendar(state calendar.State, selected *time.Time) {
	data := map[string]any{"state": state}
	if selected != nil {
		data["selected"] = selected.Format("2006-01-02")
	}

	p.order.Lock()
	defer p.order.Unlock()
	p.publish(websocket.MessageTypeCalendar, data)
}

// Snapshot returns a deep copy of the page state
func (p *Page) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		Query:  p.query,
		Fields: make(map[string]map[string]string, len(p.fields)),
		Alerts: append([]Alert(nil), p.alerts...),
	}
	for id, fields := range p.fields {
		copied := make(map[string]string, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		snap.Fields[id] = copied
	}
	return snap
}

func (p *Page) publish(messageType string, data map[string]any) {
	if p.publisher == nil {
		return
	}
	p.publisher.SendToSession(p.sessionID, &websocket.Message{Type: messageType, Data: data})
}

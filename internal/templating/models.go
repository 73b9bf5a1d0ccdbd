package templating

import (
	"time"

	"github.com/yegors/wx-dash/internal/calendar"
)

// FieldView is one writable element of a slot
type FieldView struct {
	Name  string
	Value string
}

// SlotView is one display region with its current field values
type SlotView struct {
	ID     string
	Kind   string
	Index  int
	Label  string // Caption for highlight cards
	Fields []FieldView
}

// Value returns the current value of a field, or ""
func (s SlotView) Value(name string) string {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Has reports whether the slot carries the field
func (s SlotView) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// PageData is the data passed to the dashboard template
type PageData struct {
	Title       string
	Query       string
	Main        SlotView
	Cities      []SlotView
	Forecast    []SlotView
	Highlights  []SlotView
	Calendar    calendar.State
	Alerts      []string // Shown by the browser once the page has loaded
	GeneratedAt time.Time
}

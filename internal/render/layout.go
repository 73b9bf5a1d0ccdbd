package render

import (
	"fmt"
	"slices"
)

// SlotKind identifies a display region
type SlotKind string

const (
	SlotMain      SlotKind = "main"
	SlotCity      SlotKind = "city"
	SlotForecast  SlotKind = "forecast"
	SlotHighlight SlotKind = "highlight"
)

// Slot is one display region instance, e.g. city card 2
type Slot struct {
	Kind  SlotKind `json:"kind"`
	Index int      `json:"index"`
}

// ID returns the stable identifier used by the browser adapter ("city-2")
func (s Slot) ID() string {
	return fmt.Sprintf("%s-%d", s.Kind, s.Index)
}

// Field is a writable sub-element of a slot
type Field string

const (
	FieldLocation      Field = "location"
	FieldLocationInner Field = "location-inner"
	FieldTemp          Field = "temp"
	FieldCondition     Field = "condition"
	FieldIcon          Field = "icon"
	FieldDay           Field = "day"
	FieldValue         Field = "value"
)

// Standard sub-fields per slot kind
var kindFields = map[SlotKind][]Field{
	SlotMain:      {FieldLocation, FieldLocationInner, FieldTemp, FieldCondition, FieldIcon},
	SlotCity:      {FieldTemp, FieldCondition, FieldIcon},
	SlotForecast:  {FieldDay, FieldTemp, FieldIcon},
	SlotHighlight: {FieldValue},
}

// Fields returns the standard sub-fields of a slot kind
func Fields(kind SlotKind) []Field {
	return kindFields[kind]
}

// Layout describes the fixed, pre-existing regions of the dashboard and which
// sub-fields each of them has. Render functions never write to a slot or
// field the layout does not contain.
type Layout struct {
	counts map[SlotKind]int
	absent map[Slot]map[Field]bool
}

// NewLayout creates a layout with one main panel and the given number of
// city, forecast and highlight cards, each with all standard sub-fields
func NewLayout(cityCards, forecastCards, highlightCards int) *Layout {
	return &Layout{
		counts: map[SlotKind]int{
			SlotMain:      1,
			SlotCity:      max(cityCards, 0),
			SlotForecast:  max(forecastCards, 0),
			SlotHighlight: max(highlightCards, 0),
		},
		absent: make(map[Slot]map[Field]bool),
	}
}

// DefaultLayout matches the stock dashboard page
func DefaultLayout() *Layout {
	return NewLayout(4, 5, 6)
}

// Without marks a sub-field of a slot as missing and returns the layout
func (l *Layout) Without(slot Slot, field Field) *Layout {
	if l.absent[slot] == nil {
		l.absent[slot] = make(map[Field]bool)
	}
	l.absent[slot][field] = true
	return l
}

// Count returns the number of slots of a kind
func (l *Layout) Count(kind SlotKind) int {
	return l.counts[kind]
}

// HasSlot reports whether the slot exists
func (l *Layout) HasSlot(slot Slot) bool {
	return slot.Index >= 0 && slot.Index < l.counts[slot.Kind]
}

// Has reports whether the slot exists and carries the field
func (l *Layout) Has(slot Slot, field Field) bool {
	if !l.HasSlot(slot) || !slices.Contains(kindFields[slot.Kind], field) {
		return false
	}
	return !l.absent[slot][field]
}

// Slots lists every slot of a kind in order
func (l *Layout) Slots(kind SlotKind) []Slot {
	slots := make([]Slot, 0, l.counts[kind])
	for i := 0; i < l.counts[kind]; i++ {
		slots = append(slots, Slot{Kind: kind, Index: i})
	}
	return slots
}

package templating

import (
	"html/template"
	"time"

	"github.com/yegors/wx-dash/internal/calendar"
	"github.com/yegors/wx-dash/internal/dashboard"
	"github.com/yegors/wx-dash/internal/render"
)

// Captions of the six highlight cards, in render order
var highlightLabels = []string{"Feels Like", "Clouds", "Rain", "Humidity", "UV Index", "Wind"}

var funcMap = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Format("Mon Jan 02 2006 15:04")
	},
	"cellClass": func(c calendar.Cell) string {
		switch {
		case c.OtherMonth():
			return "day other-month"
		case c.Current:
			return "day current"
		default:
			return "day"
		}
	},
	"weekdays": func() []string {
		return []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	},
}

// FormatSlot builds the view of one slot from the layout and a page snapshot.
// Fields the layout lacks are left out so the page never renders them.
func FormatSlot(layout *render.Layout, snap dashboard.Snapshot, slot render.Slot) SlotView {
	view := SlotView{
		ID:    slot.ID(),
		Kind:  string(slot.Kind),
		Index: slot.Index,
	}
	for _, field := range render.Fields(slot.Kind) {
		if !layout.Has(slot, field) {
			continue
		}
		view.Fields = append(view.Fields, FieldView{
			Name:  string(field),
			Value: snap.Value(slot, field),
		})
	}
	if slot.Kind == render.SlotHighlight && slot.Index < len(highlightLabels) {
		view.Label = highlightLabels[slot.Index]
	}
	return view
}

// FormatSlots builds the views of every slot of a kind
func FormatSlots(layout *render.Layout, snap dashboard.Snapshot, kind render.SlotKind) []SlotView {
	slots := layout.Slots(kind)
	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, FormatSlot(layout, snap, slot))
	}
	return views
}

// FormatPage builds the full page data
func FormatPage(layout *render.Layout, snap dashboard.Snapshot, cal calendar.State, now time.Time) PageData {
	return PageData{
		Title:       "Weather Dashboard",
		Query:       snap.Query,
		Main:        FormatSlot(layout, snap, render.Slot{Kind: render.SlotMain}),
		Cities:      FormatSlots(layout, snap, render.SlotCity),
		Forecast:    FormatSlots(layout, snap, render.SlotForecast),
		Highlights:  FormatSlots(layout, snap, render.SlotHighlight),
		Calendar:    cal,
		GeneratedAt: now,
	}
}

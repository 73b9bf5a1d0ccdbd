package calendar

import (
	"fmt"
	"sync"
	"time"

	"github.com/yegors/wx-dash/pkg/logger"
)

// CellKind distinguishes days of the displayed month from filler days
type CellKind string

const (
	CellPrevMonth CellKind = "prev"
	CellDay       CellKind = "day"
	CellNextMonth CellKind = "next"
)

// Cell is one day square of the grid
type Cell struct {
	Day     int      `json:"day"`
	Kind    CellKind `json:"kind"`
	Current bool     `json:"current,omitempty"` // Today's real date
}

// OtherMonth reports whether the cell is filler from a neighbouring month
func (c Cell) OtherMonth() bool {
	return c.Kind != CellDay
}

// Grid is the rendered month view
type Grid struct {
	Month int    `json:"month"` // 0-11
	Year  int    `json:"year"`
	Title string `json:"title"` // e.g. "December 2024"
	Cells []Cell `json:"cells"`
}

// DaysIn returns the number of days in month (0-11) of year
func DaysIn(month, year int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// Generate builds the grid for month (0-11) and year. Leading cells come from
// the end of the previous month, trailing cells from the start of the next
// so that the cell count is a multiple of 7.
func Generate(month, year int, today time.Time) Grid {
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	month, year = int(first.Month())-1, first.Year()

	leading := int(first.Weekday())
	days := DaysIn(month, year)
	prevDays := DaysIn(month-1, year)

	grid := Grid{
		Month: month,
		Year:  year,
		Title: fmt.Sprintf("%s %d", first.Month(), year),
		Cells: make([]Cell, 0, 42),
	}

	for i := leading - 1; i >= 0; i-- {
		grid.Cells = append(grid.Cells, Cell{Day: prevDays - i, Kind: CellPrevMonth})
	}

	for d := 1; d <= days; d++ {
		grid.Cells = append(grid.Cells, Cell{
			Day:     d,
			Kind:    CellDay,
			Current: d == today.Day() && time.Month(month+1) == today.Month() && year == today.Year(),
		})
	}

	if rem := (leading + days) % 7; rem != 0 {
		for d := 1; d <= 7-rem; d++ {
			grid.Cells = append(grid.Cells, Cell{Day: d, Kind: CellNextMonth})
		}
	}

	return grid
}

// State is a snapshot of the widget
type State struct {
	Open  bool  `json:"open"`
	Month int   `json:"month"`
	Year  int   `json:"year"`
	Grid  *Grid `json:"grid,omitempty"` // Present while open
}

// Widget is the date picker state machine. It shares no data with the
// weather path.
type Widget struct {
	month int
	year  int
	open  bool

	now    func() time.Time
	onPick func(time.Time)
	logger *logger.Logger
	mu     sync.Mutex
}

// NewWidget creates a widget showing the current month
func NewWidget(now func() time.Time, log *logger.Logger) *Widget {
	if now == nil {
		now = time.Now
	}
	w := &Widget{
		now:    now,
		logger: log.Named("calendar"),
	}
	w.Reset()
	return w
}

// OnPick registers a callback receiving each selected date
func (w *Widget) OnPick(fn func(time.Time)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onPick = fn
}

// Reset closes the widget and returns it to the real current month
func (w *Widget) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := w.now()
	w.month, w.year = int(today.Month())-1, today.Year()
	w.open = false
}

// Toggle flips visibility; opening regenerates the grid
func (w *Widget) Toggle() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.open = !w.open
	return w.stateLocked()
}

// Prev moves one month back, rolling the year below January
func (w *Widget) Prev() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.month--
	if w.month < 0 {
		w.month = 11
		w.year--
	}
	return w.stateLocked()
}

// Next moves one month forward, rolling the year after December
func (w *Widget) Next() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.month++
	if w.month > 11 {
		w.month = 0
		w.year++
	}
	return w.stateLocked()
}

// Pick selects a day of the displayed month, emits it and closes the widget
func (w *Widget) Pick(day int) (time.Time, error) {
	w.mu.Lock()
	if day < 1 || day > DaysIn(w.month, w.year) {
		w.mu.Unlock()
		return time.Time{}, fmt.Errorf("day %d out of range for %s %d", day, time.Month(w.month+1), w.year)
	}

	selected := time.Date(w.year, time.Month(w.month+1), day, 0, 0, 0, 0, time.Local)
	w.open = false
	onPick := w.onPick
	w.mu.Unlock()

	w.logger.Info("Selected date", logger.String("date", selected.Format("Mon Jan 02 2006")))
	if onPick != nil {
		onPick(selected)
	}
	return selected, nil
}

// Dismiss closes the widget (click outside the popup and its trigger)
func (w *Widget) Dismiss() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.open = false
	return w.stateLocked()
}

// State returns the current state
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Widget) stateLocked() State {
	s := State{Open: w.open, Month: w.month, Year: w.year}
	if w.open {
		grid := Generate(w.month, w.year, w.now())
		s.Grid = &grid
	}
	return s
}

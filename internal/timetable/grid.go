package timetable

import (
	"fmt"
	"sort"
)

// GridConfig describes the schedulable week: active days, the school day and the session length.
type GridConfig struct {
	Days           []Weekday
	DayStart       Clock
	DayEnd         Clock
	SessionMinutes int
	// Breaks are skipped; a session that would overlap a break starts when the break ends.
	Breaks []Interval
	// MorningEnd bounds the MORNING block: a slot is a morning slot when it ends at or before it.
	MorningEnd Clock
	// AfternoonStart opens the AFTERNOON block: a slot is an afternoon slot when it starts at or after it.
	AfternoonStart Clock
}

// DefaultGridConfig is Monday to Friday, 08:00-17:00, sixty minute sessions.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Days:           []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday},
		DayStart:       MustClock("08:00"),
		DayEnd:         MustClock("17:00"),
		SessionMinutes: 60,
		MorningEnd:     MustClock("12:00"),
		AfternoonStart: MustClock("12:00"),
	}
}

// Slot is a fixed (weekday, start) pair of the grid.
type Slot struct {
	Day   Weekday
	Start Clock
	End   Clock
	// Index is the position of the slot within its day, starting at 0.
	Index int
}

// Interval returns the slot's time range.
func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s", s.Day, s.Interval())
}

// Grid is the immutable set of weekday x time slots.
type Grid struct {
	cfg   GridConfig
	days  []Weekday
	times []Interval
}

// NewGrid validates the configuration and enumerates the daily sessions.
func NewGrid(cfg GridConfig) (*Grid, error) {
	if cfg.SessionMinutes <= 0 {
		return nil, fmt.Errorf("%w: session length must be positive", ErrInvalidInput)
	}
	if cfg.DayEnd <= cfg.DayStart {
		return nil, fmt.Errorf("%w: day end %s must be after day start %s", ErrInvalidInput, cfg.DayEnd, cfg.DayStart)
	}
	seen := make(map[Weekday]bool, len(cfg.Days))
	days := make([]Weekday, 0, len(cfg.Days))
	for _, day := range cfg.Days {
		if !day.Valid() {
			return nil, fmt.Errorf("%w: invalid weekday %d", ErrInvalidInput, int(day))
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: grid needs at least one weekday", ErrInvalidInput)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	breaks := make([]Interval, len(cfg.Breaks))
	copy(breaks, cfg.Breaks)
	for _, b := range breaks {
		if !b.Valid() {
			return nil, fmt.Errorf("%w: invalid break %s", ErrInvalidInput, b)
		}
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })

	var times []Interval
	cursor := cfg.DayStart
	for {
		session := Interval{Start: cursor, End: cursor.Add(cfg.SessionMinutes)}
		if session.End > cfg.DayEnd {
			break
		}
		if blocking, ok := overlappingBreak(session, breaks); ok {
			cursor = blocking.End
			continue
		}
		times = append(times, session)
		cursor = session.End
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: school day %s-%s holds no %d minute session", ErrInvalidInput, cfg.DayStart, cfg.DayEnd, cfg.SessionMinutes)
	}

	if cfg.MorningEnd == 0 {
		cfg.MorningEnd = MustClock("12:00")
	}
	if cfg.AfternoonStart == 0 {
		cfg.AfternoonStart = cfg.MorningEnd
	}
	cfg.Days = days
	cfg.Breaks = breaks
	return &Grid{cfg: cfg, days: days, times: times}, nil
}

func overlappingBreak(session Interval, breaks []Interval) (Interval, bool) {
	for _, b := range breaks {
		if b.Overlaps(session) {
			return b, true
		}
	}
	return Interval{}, false
}

// Config returns the normalised configuration.
func (g *Grid) Config() GridConfig {
	return g.cfg
}

// Days returns the active weekdays in ascending order.
func (g *Grid) Days() []Weekday {
	out := make([]Weekday, len(g.days))
	copy(out, g.days)
	return out
}

// SessionMinutes returns the uniform session length.
func (g *Grid) SessionMinutes() int {
	return g.cfg.SessionMinutes
}

// SlotsPerDay returns the number of sessions in one day.
func (g *Grid) SlotsPerDay() int {
	return len(g.times)
}

// Slots enumerates every slot in (day, then time) order.
func (g *Grid) Slots() []Slot {
	slots := make([]Slot, 0, len(g.days)*len(g.times))
	for _, day := range g.days {
		slots = append(slots, g.SlotsForDay(day)...)
	}
	return slots
}

// SlotsForDay enumerates the slots of one day; it is empty for inactive days.
func (g *Grid) SlotsForDay(day Weekday) []Slot {
	if !g.hasDay(day) {
		return nil
	}
	slots := make([]Slot, 0, len(g.times))
	for idx, iv := range g.times {
		slots = append(slots, Slot{Day: day, Start: iv.Start, End: iv.End, Index: idx})
	}
	return slots
}

// SlotAt returns the slot starting at the given time.
func (g *Grid) SlotAt(day Weekday, start Clock) (Slot, bool) {
	if !g.hasDay(day) {
		return Slot{}, false
	}
	for idx, iv := range g.times {
		if iv.Start == start {
			return Slot{Day: day, Start: iv.Start, End: iv.End, Index: idx}, true
		}
	}
	return Slot{}, false
}

// SlotAfter returns the slot that starts exactly when the given time ends.
// Sessions separated by a break are not contiguous.
func (g *Grid) SlotAfter(day Weekday, end Clock) (Slot, bool) {
	return g.SlotAt(day, end)
}

// Span returns the interval covered by units contiguous slots starting at start.
func (g *Grid) Span(day Weekday, start Clock, units int) (Interval, bool) {
	if units < 1 {
		return Interval{}, false
	}
	first, ok := g.SlotAt(day, start)
	if !ok {
		return Interval{}, false
	}
	end := first.End
	for i := 1; i < units; i++ {
		next, ok := g.SlotAfter(day, end)
		if !ok {
			return Interval{}, false
		}
		end = next.End
	}
	return Interval{Start: first.Start, End: end}, true
}

// Units converts an interval into a number of sessions, rounding up.
func (g *Grid) Units(iv Interval) int {
	minutes := iv.Minutes()
	if minutes <= 0 {
		return 1
	}
	units := (minutes + g.cfg.SessionMinutes - 1) / g.cfg.SessionMinutes
	if units < 1 {
		units = 1
	}
	return units
}

// IsMorning reports whether the slot lies in the morning block.
func (g *Grid) IsMorning(slot Slot) bool {
	return slot.End <= g.cfg.MorningEnd
}

// IsAfternoon reports whether the slot lies in the afternoon block.
func (g *Grid) IsAfternoon(slot Slot) bool {
	return slot.Start >= g.cfg.AfternoonStart
}

func (g *Grid) hasDay(day Weekday) bool {
	for _, d := range g.days {
		if d == day {
			return true
		}
	}
	return false
}

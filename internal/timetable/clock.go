package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday is an ISO weekday number, 1 = Monday through 7 = Sunday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// Valid reports whether d is one of the seven ISO weekdays.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// String returns the upper-case English weekday name.
func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday accepts an ISO number ("1".."7") or a weekday name, case-insensitive.
// Three-letter abbreviations such as "MON" are accepted too.
func ParseWeekday(raw string) (Weekday, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return 0, fmt.Errorf("weekday is empty")
	}
	if n, err := strconv.Atoi(value); err == nil {
		day := Weekday(n)
		if !day.Valid() {
			return 0, fmt.Errorf("weekday %d out of range 1-7", n)
		}
		return day, nil
	}
	for idx := 1; idx < len(weekdayNames); idx++ {
		name := weekdayNames[idx]
		if value == name || (len(value) == 3 && strings.HasPrefix(name, value)) {
			return Weekday(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" (or "HH:MM:SS" as returned by TIME columns).
func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock %q, expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid hour in clock %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in clock %q", raw)
	}
	clock := Clock(hours*60 + minutes)
	if clock > 24*60 {
		return 0, fmt.Errorf("clock %q beyond end of day", raw)
	}
	return clock, nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(raw string) Clock {
	clock, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return clock
}

// Add returns the clock shifted by the given number of minutes.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// String renders the clock as zero-padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a half-open [Start, End) range within one day.
type Interval struct {
	Start Clock
	End   Clock
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.End > i.Start
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Minutes returns the interval length.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// ParseInterval parses "HH:MM-HH:MM".
func ParseInterval(raw string) (Interval, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("invalid interval %q, expected HH:MM-HH:MM", raw)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: start, End: end}
	if !iv.Valid() {
		return Interval{}, fmt.Errorf("interval %q ends before it starts", raw)
	}
	return iv, nil
}

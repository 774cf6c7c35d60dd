package timetable

import "strings"

// TeacherConstraint is an unavailability window of a teacher on one weekday.
type TeacherConstraint struct {
	TeacherID string
	Day       Weekday
	Start     Clock
	End       Clock
	Reason    string
}

// Interval returns the blocked time range.
func (c TeacherConstraint) Interval() Interval {
	return Interval{Start: c.Start, End: c.End}
}

// TimePreference restricts a subject to a block of the day.
type TimePreference string

const (
	PreferAny       TimePreference = "ANY"
	PreferMorning   TimePreference = "MORNING"
	PreferAfternoon TimePreference = "AFTERNOON"
)

// ParseTimePreference maps free text onto a preference; unknown values mean ANY.
func ParseTimePreference(raw string) TimePreference {
	switch TimePreference(strings.ToUpper(strings.TrimSpace(raw))) {
	case PreferMorning:
		return PreferMorning
	case PreferAfternoon:
		return PreferAfternoon
	default:
		return PreferAny
	}
}

// SubjectRequirement pins a room or a room category and a time preference for a subject.
// An empty RoomID means any room.
type SubjectRequirement struct {
	SubjectID      string
	RoomID         string
	RoomCategory   string
	TimePreference TimePreference
}

// LessonRequirement overrides the weekly hours of a subject for one class.
type LessonRequirement struct {
	ClassID   string
	SubjectID string
	Hours     int
}

// Constraints is the mutable-between-runs rule set.
type Constraints struct {
	TeacherConstraints  []TeacherConstraint
	SubjectRequirements []SubjectRequirement
	LessonRequirements  []LessonRequirement
	// ReferenceClassID names the class whose lesson requirements other classes inherit
	// before falling back to the subject default.
	ReferenceClassID string
}

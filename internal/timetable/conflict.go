package timetable

import "fmt"

// Placement is a candidate occupation of a time range. Empty TeacherID, ClassID or RoomID skip the
// corresponding check; IgnoreLessonID excludes the lesson being edited from the occupancy scan.
type Placement struct {
	Day            Weekday
	Start          Clock
	End            Clock
	TeacherID      string
	ClassID        string
	RoomID         string
	IgnoreLessonID string
}

// PlacementAt builds a placement covering one grid slot.
func PlacementAt(slot Slot, teacherID, classID, roomID string) Placement {
	return Placement{
		Day:       slot.Day,
		Start:     slot.Start,
		End:       slot.End,
		TeacherID: teacherID,
		ClassID:   classID,
		RoomID:    roomID,
	}
}

// Interval returns the placement's time range.
func (p Placement) Interval() Interval {
	return Interval{Start: p.Start, End: p.End}
}

// Verdict is the outcome of CanPlace. LessonID names the blocking lesson; Constraint the blocking window.
type Verdict struct {
	OK         bool
	Reason     Reason
	Message    string
	LessonID   string
	Constraint *TeacherConstraint
}

// Err converts a negative verdict into a *Rejection and a positive one into nil.
func (v Verdict) Err() error {
	if v.OK {
		return nil
	}
	return &Rejection{Reason: v.Reason, Message: v.Message, LessonID: v.LessonID}
}

var okVerdict = Verdict{OK: true}

// CanPlace decides whether the placement is legal against the current lesson set and teacher
// availability. It never mutates state. Checks run in order: teacher busy, class busy, room occupied,
// teacher constrained.
func (s *Scheduler) CanPlace(p Placement) Verdict {
	iv := p.Interval()
	var teacherHit, classHit, roomHit *Lesson
	for i := range s.lessons.lessons {
		lesson := &s.lessons.lessons[i]
		if lesson.ID == p.IgnoreLessonID && p.IgnoreLessonID != "" {
			continue
		}
		if lesson.Day != p.Day || !lesson.Interval().Overlaps(iv) {
			continue
		}
		if teacherHit == nil && p.TeacherID != "" && lesson.TeacherID == p.TeacherID {
			teacherHit = lesson
		}
		if classHit == nil && p.ClassID != "" && lesson.ClassID == p.ClassID {
			classHit = lesson
		}
		if roomHit == nil && p.RoomID != "" && lesson.RoomID == p.RoomID {
			roomHit = lesson
		}
	}

	switch {
	case teacherHit != nil:
		return Verdict{
			Reason:   ReasonTeacherBusy,
			Message:  fmt.Sprintf("teacher %s already teaches class %s on %s %s", p.TeacherID, teacherHit.ClassID, p.Day, teacherHit.Interval()),
			LessonID: teacherHit.ID,
		}
	case classHit != nil:
		return Verdict{
			Reason:   ReasonClassBusy,
			Message:  fmt.Sprintf("class %s already has a lesson on %s %s", p.ClassID, p.Day, classHit.Interval()),
			LessonID: classHit.ID,
		}
	case roomHit != nil:
		return Verdict{
			Reason:   ReasonRoomOccupied,
			Message:  fmt.Sprintf("room %s is occupied by class %s on %s %s", p.RoomID, roomHit.ClassID, p.Day, roomHit.Interval()),
			LessonID: roomHit.ID,
		}
	}

	if p.TeacherID != "" {
		if window, blocked := s.blockingWindow(p.TeacherID, p.Day, iv); blocked {
			return Verdict{
				Reason:     ReasonTeacherConstrained,
				Message:    fmt.Sprintf("teacher %s is unavailable on %s %s", p.TeacherID, p.Day, window.Interval()),
				Constraint: &window,
			}
		}
	}
	return okVerdict
}

func (s *Scheduler) blockingWindow(teacherID string, day Weekday, iv Interval) (TeacherConstraint, bool) {
	for _, window := range s.windows[teacherID] {
		if window.Day == day && window.Interval().Overlaps(iv) {
			return window, true
		}
	}
	return TeacherConstraint{}, false
}

// TeacherAvailable reports whether the teacher has no unavailability window over the interval.
func (s *Scheduler) TeacherAvailable(teacherID string, day Weekday, iv Interval) bool {
	_, blocked := s.blockingWindow(teacherID, day, iv)
	return !blocked
}

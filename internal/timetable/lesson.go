package timetable

import "sort"

// Lesson is the atomic schedulable unit. An empty RoomID means no room.
type Lesson struct {
	ID        string
	Day       Weekday
	Start     Clock
	End       Clock
	SubjectID string
	ClassID   string
	TeacherID string
	RoomID    string
}

// Interval returns the lesson's time range.
func (l Lesson) Interval() Interval {
	return Interval{Start: l.Start, End: l.End}
}

// LessonSet is the ordered collection of lessons. Order is commit order.
type LessonSet struct {
	lessons []Lesson
	index   map[string]int
}

// NewLessonSet builds a set from existing lessons, keeping their order.
func NewLessonSet(lessons ...Lesson) *LessonSet {
	set := &LessonSet{
		lessons: make([]Lesson, 0, len(lessons)),
		index:   make(map[string]int, len(lessons)),
	}
	for _, lesson := range lessons {
		set.add(lesson)
	}
	return set
}

// Len returns the number of lessons.
func (s *LessonSet) Len() int {
	return len(s.lessons)
}

// All returns a copy of the lessons in commit order.
func (s *LessonSet) All() []Lesson {
	out := make([]Lesson, len(s.lessons))
	copy(out, s.lessons)
	return out
}

// Sorted returns a copy ordered by day, start time, then class.
func (s *LessonSet) Sorted() []Lesson {
	out := s.All()
	SortLessons(out)
	return out
}

// Get returns the lesson with the given id.
func (s *LessonSet) Get(id string) (Lesson, bool) {
	idx, ok := s.index[id]
	if !ok {
		return Lesson{}, false
	}
	return s.lessons[idx], true
}

// Clone returns an independent copy.
func (s *LessonSet) Clone() *LessonSet {
	return NewLessonSet(s.lessons...)
}

func (s *LessonSet) add(lesson Lesson) {
	if idx, exists := s.index[lesson.ID]; exists {
		s.lessons[idx] = lesson
		return
	}
	s.index[lesson.ID] = len(s.lessons)
	s.lessons = append(s.lessons, lesson)
}

func (s *LessonSet) replace(lesson Lesson) bool {
	idx, ok := s.index[lesson.ID]
	if !ok {
		return false
	}
	s.lessons[idx] = lesson
	return true
}

func (s *LessonSet) remove(id string) (Lesson, bool) {
	idx, ok := s.index[id]
	if !ok {
		return Lesson{}, false
	}
	removed := s.lessons[idx]
	s.lessons = append(s.lessons[:idx], s.lessons[idx+1:]...)
	delete(s.index, id)
	for i := idx; i < len(s.lessons); i++ {
		s.index[s.lessons[i].ID] = i
	}
	return removed, true
}

func (s *LessonSet) removeClass(classID string) {
	kept := s.lessons[:0]
	for _, lesson := range s.lessons {
		if lesson.ClassID != classID {
			kept = append(kept, lesson)
		}
	}
	s.lessons = kept
	s.index = make(map[string]int, len(kept))
	for i, lesson := range kept {
		s.index[lesson.ID] = i
	}
}

// SortLessons orders lessons by day, start time, class and id.
func SortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		a, b := lessons[i], lessons[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		return a.ID < b.ID
	})
}

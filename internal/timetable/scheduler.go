// Package timetable is the scheduling engine: it places lessons (subject, class, teacher, room) on a
// weekly slot grid, validates edits against teachers, classes, rooms and teacher availability, and
// generates complete timetables with a deterministic greedy search.
//
// A Scheduler is owned by one editing session and is not safe for concurrent use.
package timetable

import (
	"fmt"

	"github.com/google/uuid"
)

// Options tunes generation and editing.
type Options struct {
	// StrictQuota blocks AddLesson and ExtendLesson once a class/subject quota is met.
	StrictQuota bool
	// RequireRoom refuses placements when no room is free instead of placing them without a room.
	RequireRoom bool
	// MaxBacktracks bounds the repair swaps attempted per class after the greedy pass; 0 disables repair.
	MaxBacktracks int
	// NewID mints ids for interactively added lessons; defaults to random UUIDs.
	NewID func() string
}

type quotaKey struct {
	classID   string
	subjectID string
}

// Scheduler is the explicit scheduling context: catalog, constraints, grid and the lesson set.
type Scheduler struct {
	grid    *Grid
	catalog Catalog
	opts    Options
	lessons *LessonSet

	subjects map[string]int
	classes  map[string]int
	teachers map[string]int
	rooms    map[string]int

	teaches  map[string]map[string]bool
	assigned map[string]map[string]bool

	windows          map[string][]TeacherConstraint
	subjectRules     map[string]SubjectRequirement
	requirements     map[quotaKey]int
	referenceClassID string

	// units caches scheduled sessions per class/subject; kept in step by the commit helpers.
	units map[quotaKey]int
}

// NewScheduler indexes the inputs and validates every cross reference. Lessons may be nil.
// Malformed input is a caller bug and is reported as ErrInvalidInput.
func NewScheduler(catalog Catalog, constraints Constraints, grid *Grid, lessons *LessonSet, opts Options) (*Scheduler, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: grid is required", ErrInvalidInput)
	}
	if lessons == nil {
		lessons = NewLessonSet()
	} else {
		lessons = lessons.Clone()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	s := &Scheduler{
		grid:         grid,
		catalog:      catalog,
		opts:         opts,
		lessons:      lessons,
		subjects:     make(map[string]int, len(catalog.Subjects)),
		classes:      make(map[string]int, len(catalog.Classes)),
		teachers:     make(map[string]int, len(catalog.Teachers)),
		rooms:        make(map[string]int, len(catalog.Rooms)),
		teaches:      make(map[string]map[string]bool, len(catalog.Teachers)),
		assigned:     make(map[string]map[string]bool, len(catalog.Teachers)),
		windows:      make(map[string][]TeacherConstraint),
		subjectRules: make(map[string]SubjectRequirement),
		requirements: make(map[quotaKey]int),
	}
	if err := s.indexCatalog(); err != nil {
		return nil, err
	}
	if err := s.indexConstraints(constraints); err != nil {
		return nil, err
	}
	if err := s.validateLessons(); err != nil {
		return nil, err
	}
	s.recount()
	return s, nil
}

func (s *Scheduler) indexCatalog() error {
	for i, subject := range s.catalog.Subjects {
		if err := uniqueID(s.subjects, "subject", subject.ID, i); err != nil {
			return err
		}
		if subject.WeeklyHours < 0 {
			return fmt.Errorf("%w: subject %q has negative weekly hours", ErrInvalidInput, subject.ID)
		}
	}
	for i, class := range s.catalog.Classes {
		if err := uniqueID(s.classes, "class", class.ID, i); err != nil {
			return err
		}
	}
	for i, room := range s.catalog.Rooms {
		if err := uniqueID(s.rooms, "room", room.ID, i); err != nil {
			return err
		}
	}
	for i, teacher := range s.catalog.Teachers {
		if err := uniqueID(s.teachers, "teacher", teacher.ID, i); err != nil {
			return err
		}
		subjects := make(map[string]bool, len(teacher.SubjectIDs))
		for _, subjectID := range teacher.SubjectIDs {
			if _, ok := s.subjects[subjectID]; !ok {
				return fmt.Errorf("%w: teacher %q teaches unknown subject %q", ErrInvalidInput, teacher.ID, subjectID)
			}
			subjects[subjectID] = true
		}
		classes := make(map[string]bool, len(teacher.ClassIDs))
		for _, classID := range teacher.ClassIDs {
			if _, ok := s.classes[classID]; !ok {
				return fmt.Errorf("%w: teacher %q assigned to unknown class %q", ErrInvalidInput, teacher.ID, classID)
			}
			classes[classID] = true
		}
		s.teaches[teacher.ID] = subjects
		s.assigned[teacher.ID] = classes
	}
	return nil
}

func uniqueID(index map[string]int, kind, id string, position int) error {
	if id == "" {
		return fmt.Errorf("%w: %s at position %d has no id", ErrInvalidInput, kind, position)
	}
	if _, exists := index[id]; exists {
		return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidInput, kind, id)
	}
	index[id] = position
	return nil
}

func (s *Scheduler) indexConstraints(constraints Constraints) error {
	for _, window := range constraints.TeacherConstraints {
		if _, ok := s.teachers[window.TeacherID]; !ok {
			return fmt.Errorf("%w: constraint for unknown teacher %q", ErrInvalidInput, window.TeacherID)
		}
		if !window.Day.Valid() || !window.Interval().Valid() {
			return fmt.Errorf("%w: malformed constraint for teacher %q on %s %s", ErrInvalidInput, window.TeacherID, window.Day, window.Interval())
		}
		s.windows[window.TeacherID] = append(s.windows[window.TeacherID], window)
	}
	for _, rule := range constraints.SubjectRequirements {
		if _, ok := s.subjects[rule.SubjectID]; !ok {
			return fmt.Errorf("%w: requirement for unknown subject %q", ErrInvalidInput, rule.SubjectID)
		}
		if rule.RoomID != "" {
			if _, ok := s.rooms[rule.RoomID]; !ok {
				return fmt.Errorf("%w: subject %q requires unknown room %q", ErrInvalidInput, rule.SubjectID, rule.RoomID)
			}
		}
		if rule.TimePreference == "" {
			rule.TimePreference = PreferAny
		}
		s.subjectRules[rule.SubjectID] = rule
	}
	for _, req := range constraints.LessonRequirements {
		if _, ok := s.classes[req.ClassID]; !ok {
			return fmt.Errorf("%w: lesson requirement for unknown class %q", ErrInvalidInput, req.ClassID)
		}
		if _, ok := s.subjects[req.SubjectID]; !ok {
			return fmt.Errorf("%w: lesson requirement for unknown subject %q", ErrInvalidInput, req.SubjectID)
		}
		if req.Hours < 0 {
			return fmt.Errorf("%w: negative hours for class %q subject %q", ErrInvalidInput, req.ClassID, req.SubjectID)
		}
		s.requirements[quotaKey{classID: req.ClassID, subjectID: req.SubjectID}] = req.Hours
	}
	if constraints.ReferenceClassID != "" {
		if _, ok := s.classes[constraints.ReferenceClassID]; !ok {
			return fmt.Errorf("%w: unknown reference class %q", ErrInvalidInput, constraints.ReferenceClassID)
		}
	}
	s.referenceClassID = constraints.ReferenceClassID
	return nil
}

func (s *Scheduler) validateLessons() error {
	for _, lesson := range s.lessons.lessons {
		if lesson.ID == "" {
			return fmt.Errorf("%w: lesson without id", ErrInvalidInput)
		}
		if _, ok := s.subjects[lesson.SubjectID]; !ok {
			return fmt.Errorf("%w: lesson %q references unknown subject %q", ErrInvalidInput, lesson.ID, lesson.SubjectID)
		}
		if _, ok := s.classes[lesson.ClassID]; !ok {
			return fmt.Errorf("%w: lesson %q references unknown class %q", ErrInvalidInput, lesson.ID, lesson.ClassID)
		}
		if _, ok := s.teachers[lesson.TeacherID]; !ok {
			return fmt.Errorf("%w: lesson %q references unknown teacher %q", ErrInvalidInput, lesson.ID, lesson.TeacherID)
		}
		if lesson.RoomID != "" {
			if _, ok := s.rooms[lesson.RoomID]; !ok {
				return fmt.Errorf("%w: lesson %q references unknown room %q", ErrInvalidInput, lesson.ID, lesson.RoomID)
			}
		}
		if !lesson.Day.Valid() || !lesson.Interval().Valid() {
			return fmt.Errorf("%w: lesson %q has a malformed time %s %s", ErrInvalidInput, lesson.ID, lesson.Day, lesson.Interval())
		}
	}
	return nil
}

// Grid returns the slot grid.
func (s *Scheduler) Grid() *Grid {
	return s.grid
}

// Catalog returns the reference data the scheduler was built with.
func (s *Scheduler) Catalog() Catalog {
	return s.catalog
}

// Lessons returns a copy of the current lesson set in commit order.
func (s *Scheduler) Lessons() []Lesson {
	return s.lessons.All()
}

// LessonSet returns an independent copy of the current lesson set.
func (s *Scheduler) LessonSet() *LessonSet {
	return s.lessons.Clone()
}

// Lesson looks up one lesson by id.
func (s *Scheduler) Lesson(id string) (Lesson, bool) {
	return s.lessons.Get(id)
}

// Subject looks up a subject by id.
func (s *Scheduler) Subject(id string) (Subject, bool) {
	idx, ok := s.subjects[id]
	if !ok {
		return Subject{}, false
	}
	return s.catalog.Subjects[idx], true
}

// Class looks up a class by id.
func (s *Scheduler) Class(id string) (Class, bool) {
	idx, ok := s.classes[id]
	if !ok {
		return Class{}, false
	}
	return s.catalog.Classes[idx], true
}

// Teacher looks up a teacher by id.
func (s *Scheduler) Teacher(id string) (Teacher, bool) {
	idx, ok := s.teachers[id]
	if !ok {
		return Teacher{}, false
	}
	return s.catalog.Teachers[idx], true
}

// Room looks up a room by id.
func (s *Scheduler) Room(id string) (Room, bool) {
	idx, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	return s.catalog.Rooms[idx], true
}

// SubjectRequirement returns the room/time rule of a subject, defaulting to any room at any time.
func (s *Scheduler) SubjectRequirement(subjectID string) SubjectRequirement {
	if rule, ok := s.subjectRules[subjectID]; ok {
		return rule
	}
	return SubjectRequirement{SubjectID: subjectID, TimePreference: PreferAny}
}

// RequiredHours resolves the weekly quota of a class/subject pair: the class's own requirement,
// then the reference class's requirement, then the subject default.
func (s *Scheduler) RequiredHours(classID, subjectID string) int {
	if hours, ok := s.requirements[quotaKey{classID: classID, subjectID: subjectID}]; ok {
		return hours
	}
	if s.referenceClassID != "" && classID != s.referenceClassID {
		if hours, ok := s.requirements[quotaKey{classID: s.referenceClassID, subjectID: subjectID}]; ok {
			return hours
		}
	}
	subject, ok := s.Subject(subjectID)
	if !ok {
		return 0
	}
	return subject.WeeklyHours
}

// ScheduledUnits counts the sessions already placed for a class/subject pair.
// An extended lesson counts once per session it covers.
func (s *Scheduler) ScheduledUnits(classID, subjectID string) int {
	return s.units[quotaKey{classID: classID, subjectID: subjectID}]
}

// TotalRequiredHours sums the quotas of every subject for a class.
func (s *Scheduler) TotalRequiredHours(classID string) int {
	total := 0
	for _, subject := range s.catalog.Subjects {
		total += s.RequiredHours(classID, subject.ID)
	}
	return total
}

func (s *Scheduler) teacherQualified(teacherID, subjectID, classID string) bool {
	return s.teaches[teacherID][subjectID] && s.assigned[teacherID][classID]
}

func (s *Scheduler) recount() {
	s.units = make(map[quotaKey]int)
	for _, lesson := range s.lessons.lessons {
		s.units[quotaKey{classID: lesson.ClassID, subjectID: lesson.SubjectID}] += s.grid.Units(lesson.Interval())
	}
}

func (s *Scheduler) commitAdd(lesson Lesson) {
	s.lessons.add(lesson)
	s.units[quotaKey{classID: lesson.ClassID, subjectID: lesson.SubjectID}] += s.grid.Units(lesson.Interval())
}

func (s *Scheduler) commitRemove(id string) (Lesson, bool) {
	removed, ok := s.lessons.remove(id)
	if ok {
		s.units[quotaKey{classID: removed.ClassID, subjectID: removed.SubjectID}] -= s.grid.Units(removed.Interval())
	}
	return removed, ok
}

func (s *Scheduler) commitReplace(lesson Lesson) bool {
	previous, ok := s.lessons.Get(lesson.ID)
	if !ok || !s.lessons.replace(lesson) {
		return false
	}
	s.units[quotaKey{classID: previous.ClassID, subjectID: previous.SubjectID}] -= s.grid.Units(previous.Interval())
	s.units[quotaKey{classID: lesson.ClassID, subjectID: lesson.SubjectID}] += s.grid.Units(lesson.Interval())
	return true
}

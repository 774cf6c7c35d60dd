package timetable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T, cfg GridConfig) *Grid {
	t.Helper()
	grid, err := NewGrid(cfg)
	require.NoError(t, err)
	return grid
}

func newTestScheduler(t *testing.T, catalog Catalog, constraints Constraints, cfg GridConfig, opts Options, lessons ...Lesson) *Scheduler {
	t.Helper()
	if opts.NewID == nil {
		counter := 0
		opts.NewID = func() string {
			counter++
			return fmt.Sprintf("lesson-%d", counter)
		}
	}
	s, err := NewScheduler(catalog, constraints, newTestGrid(t, cfg), NewLessonSet(lessons...), opts)
	require.NoError(t, err)
	return s
}

func mondayMorningGrid() GridConfig {
	return GridConfig{
		Days:           []Weekday{Monday},
		DayStart:       MustClock("08:00"),
		DayEnd:         MustClock("10:00"),
		SessionMinutes: 60,
	}
}

// singleClassCatalog is one class, one subject and one qualified teacher.
func singleClassCatalog(hours int) Catalog {
	return Catalog{
		Subjects: []Subject{{ID: "math", Name: "Mathematics", WeeklyHours: hours}},
		Classes:  []Class{{ID: "10A", Name: "X IPA 1", Capacity: 25}},
		Teachers: []Teacher{{ID: "t-math", Name: "Budi", SubjectIDs: []string{"math"}, ClassIDs: []string{"10A"}}},
	}
}

// schoolCatalog is a small but realistic school: shared teachers, a physics lab and an afternoon-only subject.
func schoolCatalog() Catalog {
	all := []string{"10A", "10B", "11A"}
	return Catalog{
		Subjects: []Subject{
			{ID: "math", Name: "Mathematics", WeeklyHours: 3},
			{ID: "physics", Name: "Physics", WeeklyHours: 2},
			{ID: "english", Name: "English", WeeklyHours: 2},
			{ID: "sport", Name: "Sport", WeeklyHours: 1},
		},
		Classes: []Class{
			{ID: "10A", Name: "X IPA 1", Capacity: 30},
			{ID: "10B", Name: "X IPA 2", Capacity: 28},
			{ID: "11A", Name: "XI IPA 1", Capacity: 32},
		},
		Teachers: []Teacher{
			{ID: "t-math", SubjectIDs: []string{"math"}, ClassIDs: all},
			{ID: "t-phys", SubjectIDs: []string{"physics"}, ClassIDs: all},
			{ID: "t-eng", SubjectIDs: []string{"english"}, ClassIDs: []string{"10A", "10B"}},
			{ID: "t-eng2", SubjectIDs: []string{"english"}, ClassIDs: []string{"11A"}},
			{ID: "t-sport", SubjectIDs: []string{"sport"}, ClassIDs: all},
		},
		Rooms: []Room{
			{ID: "r-101", Capacity: 35},
			{ID: "r-102", Capacity: 35},
			{ID: "lab-phys", Capacity: 40, Category: "lab:physics"},
		},
	}
}

func schoolConstraints() Constraints {
	return Constraints{
		TeacherConstraints: []TeacherConstraint{
			{TeacherID: "t-math", Day: Monday, Start: MustClock("08:00"), End: MustClock("10:00"), Reason: "staff meeting"},
		},
		SubjectRequirements: []SubjectRequirement{
			{SubjectID: "physics", RoomCategory: "lab:physics"},
			{SubjectID: "sport", TimePreference: PreferAfternoon},
		},
		LessonRequirements: []LessonRequirement{
			{ClassID: "11A", SubjectID: "math", Hours: 4},
		},
	}
}

// assertInvariants checks the hard invariants of a lesson set.
func assertInvariants(t *testing.T, s *Scheduler) {
	t.Helper()
	lessons := s.Lessons()
	for i, lesson := range lessons {
		span, ok := s.grid.Span(lesson.Day, lesson.Start, s.grid.Units(lesson.Interval()))
		if assert.True(t, ok, "lesson %s off grid", lesson.ID) {
			assert.Equal(t, lesson.Interval(), span, "lesson %s not aligned to slots", lesson.ID)
		}
		assert.True(t, s.teacherQualified(lesson.TeacherID, lesson.SubjectID, lesson.ClassID), "lesson %s has unqualified teacher", lesson.ID)
		assert.True(t, s.TeacherAvailable(lesson.TeacherID, lesson.Day, lesson.Interval()), "lesson %s inside a teacher constraint", lesson.ID)
		for _, other := range lessons[i+1:] {
			if other.Day != lesson.Day || !other.Interval().Overlaps(lesson.Interval()) {
				continue
			}
			assert.NotEqual(t, lesson.TeacherID, other.TeacherID, "teacher double booked: %s %s", lesson.ID, other.ID)
			assert.NotEqual(t, lesson.ClassID, other.ClassID, "class double booked: %s %s", lesson.ID, other.ID)
			if lesson.RoomID != "" {
				assert.NotEqual(t, lesson.RoomID, other.RoomID, "room double booked: %s %s", lesson.ID, other.ID)
			}
		}
	}
}

func TestNewSchedulerRejectsMalformedInput(t *testing.T) {
	grid := newTestGrid(t, DefaultGridConfig())
	monday8 := MustClock("08:00")
	monday9 := MustClock("09:00")

	cases := map[string]struct {
		catalog     Catalog
		constraints Constraints
		lessons     []Lesson
	}{
		"duplicate subject": {
			catalog: Catalog{Subjects: []Subject{{ID: "math"}, {ID: "math"}}},
		},
		"teacher with unknown subject": {
			catalog: Catalog{Teachers: []Teacher{{ID: "t1", SubjectIDs: []string{"ghost"}}}},
		},
		"constraint for unknown teacher": {
			catalog:     singleClassCatalog(2),
			constraints: Constraints{TeacherConstraints: []TeacherConstraint{{TeacherID: "ghost", Day: Monday, Start: monday8, End: monday9}}},
		},
		"requirement pins unknown room": {
			catalog:     singleClassCatalog(2),
			constraints: Constraints{SubjectRequirements: []SubjectRequirement{{SubjectID: "math", RoomID: "ghost"}}},
		},
		"lesson references unknown teacher": {
			catalog: singleClassCatalog(2),
			lessons: []Lesson{{ID: "l1", Day: Monday, Start: monday8, End: monday9, SubjectID: "math", ClassID: "10A", TeacherID: "ghost"}},
		},
		"lesson with inverted time": {
			catalog: singleClassCatalog(2),
			lessons: []Lesson{{ID: "l1", Day: Monday, Start: monday9, End: monday8, SubjectID: "math", ClassID: "10A", TeacherID: "t-math"}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewScheduler(tc.catalog, tc.constraints, grid, NewLessonSet(tc.lessons...), Options{})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := NewScheduler(singleClassCatalog(2), Constraints{}, nil, nil, Options{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewSchedulerDoesNotAliasInputLessons(t *testing.T) {
	input := NewLessonSet(Lesson{ID: "l1", Day: Monday, Start: MustClock("08:00"), End: MustClock("09:00"), SubjectID: "math", ClassID: "10A", TeacherID: "t-math"})
	s := newTestScheduler(t, singleClassCatalog(2), Constraints{}, DefaultGridConfig(), Options{}, input.All()...)

	_, err := s.DeleteLesson("l1")
	require.NoError(t, err)
	assert.Equal(t, 1, input.Len())
	assert.Equal(t, 0, len(s.Lessons()))
}

func TestRequiredHoursFallbackChain(t *testing.T) {
	catalog := schoolCatalog()
	constraints := Constraints{
		LessonRequirements: []LessonRequirement{
			{ClassID: "10A", SubjectID: "math", Hours: 5},
			{ClassID: "10A", SubjectID: "english", Hours: 4},
			{ClassID: "10B", SubjectID: "english", Hours: 1},
		},
		ReferenceClassID: "10A",
	}
	s := newTestScheduler(t, catalog, constraints, DefaultGridConfig(), Options{})

	assert.Equal(t, 5, s.RequiredHours("10A", "math"))
	assert.Equal(t, 1, s.RequiredHours("10B", "english"), "own requirement wins over reference class")
	assert.Equal(t, 5, s.RequiredHours("11A", "math"), "reference class requirement")
	assert.Equal(t, 2, s.RequiredHours("11A", "physics"), "subject default")
	assert.Equal(t, 5+2+4+1, s.TotalRequiredHours("10A"))
}

func TestScheduledUnitsCountsExtendedLessons(t *testing.T) {
	s := newTestScheduler(t, singleClassCatalog(3), Constraints{}, DefaultGridConfig(), Options{},
		Lesson{ID: "l1", Day: Monday, Start: MustClock("08:00"), End: MustClock("10:00"), SubjectID: "math", ClassID: "10A", TeacherID: "t-math"},
		Lesson{ID: "l2", Day: Tuesday, Start: MustClock("08:00"), End: MustClock("09:00"), SubjectID: "math", ClassID: "10A", TeacherID: "t-math"},
	)
	assert.Equal(t, 3, s.ScheduledUnits("10A", "math"))
}

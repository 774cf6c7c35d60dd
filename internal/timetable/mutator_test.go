package timetable

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessonAt(id, subjectID, classID, teacherID, roomID string, day Weekday, start, end string) Lesson {
	return Lesson{
		ID:        id,
		Day:       day,
		Start:     MustClock(start),
		End:       MustClock(end),
		SubjectID: subjectID,
		ClassID:   classID,
		TeacherID: teacherID,
		RoomID:    roomID,
	}
}

func requireReason(t *testing.T, err error, reason Reason) {
	t.Helper()
	rejection, ok := AsRejection(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	assert.Equal(t, reason, rejection.Reason)
}

func TestAddLessonResolvesTeacherAndRoom(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{})

	lesson, err := s.AddLesson("english", "10A", Tuesday, MustClock("08:00"))
	require.NoError(t, err)
	assert.Equal(t, lessonAt("lesson-1", "english", "10A", "t-eng", "r-101", Tuesday, "08:00", "09:00"), lesson)

	physics, err := s.AddLesson("physics", "10B", Tuesday, MustClock("08:00"))
	require.NoError(t, err)
	assert.Equal(t, "lab-phys", physics.RoomID)
	assert.Len(t, s.Lessons(), 2)
}

func TestAddLessonPinnedRoomOccupied(t *testing.T) {
	constraints := Constraints{SubjectRequirements: []SubjectRequirement{{SubjectID: "math", RoomID: "r-102"}}}
	s := newTestScheduler(t, schoolCatalog(), constraints, DefaultGridConfig(), Options{},
		lessonAt("other", "english", "10B", "t-eng", "r-102", Tuesday, "08:00", "09:00"),
	)
	before := s.Lessons()

	_, err := s.AddLesson("math", "10A", Tuesday, MustClock("08:00"))
	requireReason(t, err, ReasonRoomRequiredUnavailable)
	assert.Equal(t, before, s.Lessons())
}

func TestAddLessonRejections(t *testing.T) {
	existing := []Lesson{
		lessonAt("a", "english", "10A", "t-eng", "r-101", Tuesday, "08:00", "09:00"),
		lessonAt("b", "sport", "10A", "t-sport", "r-102", Tuesday, "13:00", "14:00"),
	}

	cases := map[string]struct {
		subjectID string
		classID   string
		day       Weekday
		start     string
		opts      Options
		reason    Reason
	}{
		"class busy":               {subjectID: "math", classID: "10A", day: Tuesday, start: "08:00", reason: ReasonClassBusy},
		"only teacher busy":        {subjectID: "english", classID: "10B", day: Tuesday, start: "08:00", reason: ReasonNoAvailableTeacher},
		"only teacher constrained": {subjectID: "math", classID: "10B", day: Monday, start: "09:00", reason: ReasonNoAvailableTeacher},
		"strict quota":             {subjectID: "sport", classID: "10A", day: Wednesday, start: "13:00", opts: Options{StrictQuota: true}, reason: ReasonQuotaExceeded},
		"inactive day":             {subjectID: "math", classID: "10A", day: Saturday, start: "08:00", reason: ReasonOutOfGrid},
		"between slots":            {subjectID: "math", classID: "10A", day: Tuesday, start: "08:30", reason: ReasonOutOfGrid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), tc.opts, existing...)
			_, err := s.AddLesson(tc.subjectID, tc.classID, tc.day, MustClock(tc.start))
			requireReason(t, err, tc.reason)
			assert.Equal(t, existing, s.Lessons())
		})
	}
}

func TestAddLessonQuotaIsSoftByDefault(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{},
		lessonAt("b", "sport", "10A", "t-sport", "r-102", Tuesday, "13:00", "14:00"),
	)

	_, err := s.AddLesson("sport", "10A", Wednesday, MustClock("13:00"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.ScheduledUnits("10A", "sport"))
}

func TestAddLessonUnknownEntities(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{})

	_, err := s.AddLesson("ghost", "10A", Tuesday, MustClock("08:00"))
	assert.ErrorIs(t, err, ErrUnknownEntity)
	_, err = s.AddLesson("math", "ghost", Tuesday, MustClock("08:00"))
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestMoveLessonOntoOccupiedRoom(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{},
		lessonAt("l1", "english", "10A", "t-eng", "r-101", Tuesday, "08:00", "09:00"),
		lessonAt("l2", "math", "10B", "t-math", "r-101", Tuesday, "09:00", "10:00"),
	)
	before := s.Lessons()

	_, err := s.MoveLesson("l1", Tuesday, MustClock("09:00"))
	requireReason(t, err, ReasonRoomOccupied)
	assert.Equal(t, before, s.Lessons())
}

func TestMoveLessonChecksTeacherConstraint(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{},
		lessonAt("l1", "math", "10A", "t-math", "r-101", Tuesday, "08:00", "09:00"),
	)

	_, err := s.MoveLesson("l1", Monday, MustClock("09:00"))
	requireReason(t, err, ReasonTeacherConstrained)
}

func TestMoveLessonKeepsDurationAndResources(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{},
		lessonAt("l1", "english", "10A", "t-eng", "r-101", Tuesday, "08:00", "10:00"),
	)

	moved, err := s.MoveLesson("l1", Tuesday, MustClock("09:00"))
	require.NoError(t, err, "a lesson may overlap its own previous position")
	assert.Equal(t, lessonAt("l1", "english", "10A", "t-eng", "r-101", Tuesday, "09:00", "11:00"), moved)

	moved, err = s.MoveLesson("l1", Wednesday, MustClock("13:00"))
	require.NoError(t, err)
	assert.Equal(t, "15:00", moved.End.String())
	got, ok := s.Lesson("l1")
	require.True(t, ok)
	assert.Equal(t, moved, got)

	_, err = s.MoveLesson("l1", Wednesday, MustClock("16:00"))
	requireReason(t, err, ReasonOutOfGrid)
	_, err = s.MoveLesson("ghost", Wednesday, MustClock("08:00"))
	requireReason(t, err, ReasonLessonNotFound)
}

func TestDeleteLesson(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{},
		lessonAt("l1", "english", "10A", "t-eng", "r-101", Tuesday, "08:00", "09:00"),
		lessonAt("l2", "math", "10B", "t-math", "r-102", Tuesday, "08:00", "09:00"),
	)

	removed, err := s.DeleteLesson("l1")
	require.NoError(t, err)
	assert.Equal(t, "l1", removed.ID)
	assert.Len(t, s.Lessons(), 1)
	assert.Equal(t, 0, s.ScheduledUnits("10A", "english"))

	_, err = s.DeleteLesson("l1")
	requireReason(t, err, ReasonLessonNotFound)
}

func TestChangeRoom(t *testing.T) {
	fixture := func(opts Options) *Scheduler {
		return newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), opts,
			lessonAt("l1", "english", "10A", "t-eng", "r-101", Tuesday, "08:00", "09:00"),
			lessonAt("l2", "math", "10B", "t-math", "r-102", Tuesday, "08:00", "09:00"),
			lessonAt("l3", "physics", "11A", "t-phys", "lab-phys", Tuesday, "08:00", "09:00"),
		)
	}

	t.Run("occupied", func(t *testing.T) {
		s := fixture(Options{})
		_, err := s.ChangeRoom("l1", "r-102")
		requireReason(t, err, ReasonRoomOccupied)
	})
	t.Run("required category", func(t *testing.T) {
		s := fixture(Options{})
		_, err := s.ChangeRoom("l3", "r-101")
		requireReason(t, err, ReasonRoomRequiredUnavailable)
	})
	t.Run("unknown room", func(t *testing.T) {
		s := fixture(Options{})
		_, err := s.ChangeRoom("l1", "ghost")
		assert.ErrorIs(t, err, ErrUnknownEntity)
	})
	t.Run("free room", func(t *testing.T) {
		s := fixture(Options{})
		_, err := s.DeleteLesson("l2")
		require.NoError(t, err)
		changed, err := s.ChangeRoom("l1", "r-102")
		require.NoError(t, err)
		assert.Equal(t, "r-102", changed.RoomID)
	})
	t.Run("clear room", func(t *testing.T) {
		s := fixture(Options{})
		changed, err := s.ChangeRoom("l1", "")
		require.NoError(t, err)
		assert.Empty(t, changed.RoomID)

		_, err = fixture(Options{RequireRoom: true}).ChangeRoom("l1", "")
		requireReason(t, err, ReasonRoomRequiredUnavailable)
	})
	t.Run("missing lesson", func(t *testing.T) {
		_, err := fixture(Options{}).ChangeRoom("ghost", "r-101")
		requireReason(t, err, ReasonLessonNotFound)
	})
}

func TestExtendLesson(t *testing.T) {
	constraints := schoolConstraints()
	constraints.TeacherConstraints = append(constraints.TeacherConstraints,
		TeacherConstraint{TeacherID: "t-eng", Day: Wednesday, Start: MustClock("09:00"), End: MustClock("10:00")})
	fixture := func(opts Options, lessons ...Lesson) *Scheduler {
		return newTestScheduler(t, schoolCatalog(), constraints, DefaultGridConfig(), opts, lessons...)
	}
	english := lessonAt("l1", "english", "10A", "t-eng", "r-101", Tuesday, "08:00", "09:00")

	t.Run("extends into the next session", func(t *testing.T) {
		s := fixture(Options{}, english)
		extended, err := s.ExtendLesson("l1")
		require.NoError(t, err)
		assert.Equal(t, "10:00", extended.End.String())
		assert.Equal(t, 2, s.ScheduledUnits("10A", "english"))
	})
	t.Run("teacher busy next session", func(t *testing.T) {
		s := fixture(Options{}, english, lessonAt("l2", "english", "10B", "t-eng", "r-102", Tuesday, "09:00", "10:00"))
		_, err := s.ExtendLesson("l1")
		requireReason(t, err, ReasonTeacherBusy)
	})
	t.Run("room occupied next session", func(t *testing.T) {
		s := fixture(Options{}, english, lessonAt("l2", "math", "10B", "t-math", "r-101", Tuesday, "09:00", "10:00"))
		_, err := s.ExtendLesson("l1")
		requireReason(t, err, ReasonRoomOccupied)
	})
	t.Run("teacher constrained next session", func(t *testing.T) {
		s := fixture(Options{}, lessonAt("l1", "english", "10A", "t-eng", "r-101", Wednesday, "08:00", "09:00"))
		_, err := s.ExtendLesson("l1")
		requireReason(t, err, ReasonTeacherConstrained)
	})
	t.Run("end of day", func(t *testing.T) {
		s := fixture(Options{}, lessonAt("l1", "english", "10A", "t-eng", "r-101", Tuesday, "16:00", "17:00"))
		_, err := s.ExtendLesson("l1")
		requireReason(t, err, ReasonOutOfGrid)
	})
	t.Run("strict quota", func(t *testing.T) {
		s := fixture(Options{StrictQuota: true}, english, lessonAt("l2", "english", "10A", "t-eng", "r-101", Thursday, "08:00", "09:00"))
		_, err := s.ExtendLesson("l1")
		requireReason(t, err, ReasonQuotaExceeded)
	})
}

// TestRandomEditsPreserveInvariants drives seeded random edits over a generated timetable and checks
// that accepted edits keep the hard invariants and rejected edits change nothing.
func TestRandomEditsPreserveInvariants(t *testing.T) {
	s := newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{})
	_, err := s.Generate(context.Background())
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	slots := s.Grid().Slots()
	catalog := s.Catalog()
	rooms := []string{""}
	for _, room := range catalog.Rooms {
		rooms = append(rooms, room.ID)
	}
	pickLesson := func() string {
		lessons := s.Lessons()
		if len(lessons) == 0 {
			return "ghost"
		}
		return lessons[rng.Intn(len(lessons))].ID
	}

	for i := 0; i < 400; i++ {
		before := s.Lessons()
		slot := slots[rng.Intn(len(slots))]
		var err error
		switch rng.Intn(5) {
		case 0:
			subject := catalog.Subjects[rng.Intn(len(catalog.Subjects))]
			class := catalog.Classes[rng.Intn(len(catalog.Classes))]
			_, err = s.AddLesson(subject.ID, class.ID, slot.Day, slot.Start)
		case 1:
			_, err = s.MoveLesson(pickLesson(), slot.Day, slot.Start)
		case 2:
			if rng.Intn(3) == 0 {
				_, err = s.DeleteLesson(pickLesson())
			}
		case 3:
			_, err = s.ChangeRoom(pickLesson(), rooms[rng.Intn(len(rooms))])
		case 4:
			_, err = s.ExtendLesson(pickLesson())
		}
		if err != nil {
			require.Equal(t, before, s.Lessons(), "rejected edit %d mutated the lesson set: %v", i, err)
			continue
		}
		assertInvariants(t, s)
	}
}

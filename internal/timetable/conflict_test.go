package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conflictFixture(t *testing.T) *Scheduler {
	t.Helper()
	return newTestScheduler(t, schoolCatalog(), schoolConstraints(), DefaultGridConfig(), Options{},
		Lesson{ID: "busy", Day: Tuesday, Start: MustClock("08:00"), End: MustClock("10:00"), SubjectID: "english", ClassID: "10A", TeacherID: "t-eng", RoomID: "r-101"},
	)
}

func TestCanPlaceAcceptsFreeSlot(t *testing.T) {
	s := conflictFixture(t)
	slot, ok := s.Grid().SlotAt(Tuesday, MustClock("10:00"))
	require.True(t, ok)

	verdict := s.CanPlace(PlacementAt(slot, "t-eng", "10A", "r-101"))
	assert.True(t, verdict.OK)
	assert.NoError(t, verdict.Err())
}

func TestCanPlaceReasons(t *testing.T) {
	s := conflictFixture(t)
	nine := MustClock("09:00")
	ten := MustClock("10:00")

	cases := map[string]struct {
		placement Placement
		reason    Reason
	}{
		"teacher busy wins over class and room": {
			placement: Placement{Day: Tuesday, Start: nine, End: ten, TeacherID: "t-eng", ClassID: "10A", RoomID: "r-101"},
			reason:    ReasonTeacherBusy,
		},
		"class busy": {
			placement: Placement{Day: Tuesday, Start: nine, End: ten, TeacherID: "t-phys", ClassID: "10A", RoomID: "lab-phys"},
			reason:    ReasonClassBusy,
		},
		"room occupied": {
			placement: Placement{Day: Tuesday, Start: nine, End: ten, TeacherID: "t-phys", ClassID: "10B", RoomID: "r-101"},
			reason:    ReasonRoomOccupied,
		},
		"teacher constrained": {
			placement: Placement{Day: Monday, Start: nine, End: ten, TeacherID: "t-math", ClassID: "10B", RoomID: "r-102"},
			reason:    ReasonTeacherConstrained,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			verdict := s.CanPlace(tc.placement)
			assert.False(t, verdict.OK)
			assert.Equal(t, tc.reason, verdict.Reason)
			rejection, ok := AsRejection(verdict.Err())
			require.True(t, ok)
			assert.Equal(t, tc.reason, rejection.Reason)
		})
	}
}

func TestCanPlaceReportsBlockingLessonAndWindow(t *testing.T) {
	s := conflictFixture(t)

	verdict := s.CanPlace(Placement{Day: Tuesday, Start: MustClock("09:00"), End: MustClock("10:00"), RoomID: "r-101"})
	assert.Equal(t, "busy", verdict.LessonID)

	verdict = s.CanPlace(Placement{Day: Monday, Start: MustClock("08:00"), End: MustClock("09:00"), TeacherID: "t-math"})
	require.NotNil(t, verdict.Constraint)
	assert.Equal(t, "staff meeting", verdict.Constraint.Reason)
}

func TestCanPlaceIgnoresEditedLessonAndEmptyDimensions(t *testing.T) {
	s := conflictFixture(t)
	nine := MustClock("09:00")
	ten := MustClock("10:00")

	verdict := s.CanPlace(Placement{Day: Tuesday, Start: nine, End: ten, TeacherID: "t-eng", ClassID: "10A", RoomID: "r-101", IgnoreLessonID: "busy"})
	assert.True(t, verdict.OK)

	verdict = s.CanPlace(Placement{Day: Tuesday, Start: nine, End: ten, ClassID: "10B"})
	assert.True(t, verdict.OK, "no teacher or room means only the class is checked")

	verdict = s.CanPlace(Placement{Day: Tuesday, Start: ten, End: MustClock("11:00"), TeacherID: "t-eng", ClassID: "10A", RoomID: "r-101"})
	assert.True(t, verdict.OK, "adjacent sessions do not overlap")
}

func TestCanPlaceIsPure(t *testing.T) {
	s := conflictFixture(t)
	before := s.Lessons()

	s.CanPlace(Placement{Day: Tuesday, Start: MustClock("08:00"), End: MustClock("09:00"), TeacherID: "t-eng", ClassID: "10A"})
	assert.Equal(t, before, s.Lessons())
}

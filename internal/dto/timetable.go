package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// GenerateTimetableRequest instructs the engine to build a school-wide draft for a term.
// Nil overrides fall back to the configured defaults.
type GenerateTimetableRequest struct {
	TermID           string   `json:"termId" validate:"required"`
	ClassIDs         []string `json:"classIds" validate:"omitempty,dive,required"`
	Days             []string `json:"days" validate:"omitempty,min=1,max=7,dive,required"`
	ReferenceClassID string   `json:"referenceClassId"`
	StrictQuota      *bool    `json:"strictQuota"`
	MaxBacktracks    *int     `json:"maxBacktracks" validate:"omitempty,min=0,max=100000"`
}

// LessonView is a lesson as exposed over HTTP. Day is an upper-case weekday name and times are "HH:MM".
type LessonView struct {
	ID          string  `json:"id"`
	Day         string  `json:"day"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	SubjectID   string  `json:"subjectId"`
	SubjectName string  `json:"subjectName,omitempty"`
	ClassID     string  `json:"classId"`
	ClassName   string  `json:"className,omitempty"`
	TeacherID   string  `json:"teacherId"`
	TeacherName string  `json:"teacherName,omitempty"`
	RoomID      *string `json:"roomId,omitempty"`
	RoomName    string  `json:"roomName,omitempty"`
}

// ShortfallView reports a class/subject pair scheduled below its weekly requirement.
type ShortfallView struct {
	ClassID   string `json:"classId"`
	SubjectID string `json:"subjectId"`
	Required  int    `json:"required"`
	Scheduled int    `json:"scheduled"`
	Missing   int    `json:"missing"`
}

// GenerationStatsView summarises a generation run.
type GenerationStatsView struct {
	Classes       int   `json:"classes"`
	SlotsVisited  int   `json:"slotsVisited"`
	LessonsPlaced int   `json:"lessonsPlaced"`
	Backtracks    int   `json:"backtracks"`
	Interrupted   bool  `json:"interrupted"`
	DurationMs    int64 `json:"durationMs"`
}

// GridView describes the slot grid a draft is planned on.
type GridView struct {
	Days           []string `json:"days"`
	SessionMinutes int      `json:"sessionMinutes"`
	Sessions       []string `json:"sessions"`
}

// DraftResponse is the editable state of a timetable draft.
type DraftResponse struct {
	DraftID           string               `json:"draftId"`
	TermID            string               `json:"termId"`
	SourceTimetableID *string              `json:"sourceTimetableId,omitempty"`
	ExpiresAt         time.Time            `json:"expiresAt"`
	Grid              GridView             `json:"grid"`
	Lessons           []LessonView         `json:"lessons"`
	Shortfalls        []ShortfallView      `json:"shortfalls"`
	Stats             *GenerationStatsView `json:"stats,omitempty"`
}

// CanPlaceRequest asks whether a time range is free for the given resources. Empty ids skip that check.
// End defaults to one session after Start.
type CanPlaceRequest struct {
	Day            string `json:"day" validate:"required"`
	Start          string `json:"start" validate:"required"`
	End            string `json:"end"`
	TeacherID      string `json:"teacherId"`
	ClassID        string `json:"classId"`
	RoomID         string `json:"roomId"`
	IgnoreLessonID string `json:"ignoreLessonId"`
}

// ConstraintView is the teacher unavailability window that blocked a placement.
type ConstraintView struct {
	TeacherID string `json:"teacherId"`
	Day       string `json:"day"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Reason    string `json:"reason,omitempty"`
}

// VerdictResponse is the outcome of a placement check.
type VerdictResponse struct {
	OK         bool            `json:"ok"`
	Reason     string          `json:"reason,omitempty"`
	Message    string          `json:"message,omitempty"`
	LessonID   string          `json:"lessonId,omitempty"`
	Constraint *ConstraintView `json:"constraint,omitempty"`
}

// PlaceableSubjectsQuery selects the class and slot to list candidate subjects for.
type PlaceableSubjectsQuery struct {
	ClassID string `form:"classId" validate:"required"`
	Day     string `form:"day" validate:"required"`
	Start   string `form:"start" validate:"required"`
}

// SubjectView is a catalog subject together with its remaining weekly hours for a class.
type SubjectView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WeeklyHours int    `json:"weeklyHours"`
	Remaining   int    `json:"remaining"`
}

// AddLessonRequest places one session of a subject for a class.
type AddLessonRequest struct {
	SubjectID string `json:"subjectId" validate:"required"`
	ClassID   string `json:"classId" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Start     string `json:"start" validate:"required"`
}

// MoveLessonRequest moves a lesson keeping its duration.
type MoveLessonRequest struct {
	Day   string `json:"day" validate:"required"`
	Start string `json:"start" validate:"required"`
}

// ChangeRoomRequest assigns a room to a lesson; an empty RoomID removes the room.
type ChangeRoomRequest struct {
	RoomID string `json:"roomId"`
}

// SaveTimetableRequest persists a draft as a new timetable version.
type SaveTimetableRequest struct {
	Publish bool   `json:"publish"`
	Note    string `json:"note" validate:"omitempty,max=500"`
}

// TimetableQuery filters saved timetables.
type TimetableQuery struct {
	TermID string `form:"termId" validate:"required"`
}

// TimetableDetailResponse is a saved version together with its lessons.
type TimetableDetailResponse struct {
	Timetable models.Timetable `json:"timetable"`
	Lessons   []LessonView     `json:"lessons"`
}

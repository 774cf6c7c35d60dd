package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases of a saved timetable version.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable is a saved, versioned school-wide timetable of a term.
type Timetable struct {
	ID          string          `db:"id" json:"id"`
	TermID      string          `db:"term_id" json:"term_id"`
	Version     int             `db:"version" json:"version"`
	Status      TimetableStatus `db:"status" json:"status"`
	Meta        types.JSONText  `db:"meta" json:"meta"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	PublishedAt *time.Time      `db:"published_at" json:"published_at,omitempty"`
}

// TimetableMeta is the JSON document stored in timetables.meta. It keeps the grid the lessons were
// planned on so a saved version can be reopened for editing.
type TimetableMeta struct {
	Note             string   `json:"note,omitempty"`
	Days             []string `json:"days"`
	DayStart         string   `json:"dayStart"`
	DayEnd           string   `json:"dayEnd"`
	SessionMinutes   int      `json:"sessionMinutes"`
	Breaks           []string `json:"breaks,omitempty"`
	MorningEnd       string   `json:"morningEnd"`
	AfternoonStart   string   `json:"afternoonStart"`
	ReferenceClassID string   `json:"referenceClassId,omitempty"`
	LessonCount      int      `json:"lessonCount"`
	ShortfallCount   int      `json:"shortfallCount"`
}

// TimetableLesson is one persisted lesson of a timetable version.
type TimetableLesson struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	RoomID      *string   `db:"room_id" json:"room_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

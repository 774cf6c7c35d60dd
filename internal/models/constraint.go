package models

// TeacherConstraint blocks a teacher on one weekday between two clock times ("HH:MM").
type TeacherConstraint struct {
	ID        string  `db:"id" json:"id"`
	TermID    string  `db:"term_id" json:"term_id"`
	TeacherID string  `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int     `db:"day_of_week" json:"day_of_week"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
	Reason    *string `db:"reason" json:"reason,omitempty"`
}

// SubjectRequirement pins a room or room category and a time-of-day preference for a subject.
type SubjectRequirement struct {
	SubjectID      string  `db:"subject_id" json:"subject_id"`
	RoomID         *string `db:"room_id" json:"room_id,omitempty"`
	RoomCategory   *string `db:"room_category" json:"room_category,omitempty"`
	TimePreference string  `db:"time_preference" json:"time_preference"`
}

// LessonRequirement overrides the weekly hours of a subject for one class in a term.
type LessonRequirement struct {
	TermID    string `db:"term_id" json:"term_id"`
	ClassID   string `db:"class_id" json:"class_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
	Hours     int    `db:"hours" json:"hours"`
}

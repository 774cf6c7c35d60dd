package models

// Subject is a taught discipline with its default weekly load.
type Subject struct {
	ID          string  `db:"id" json:"id"`
	Code        string  `db:"code" json:"code"`
	Name        string  `db:"name" json:"name"`
	WeeklyHours int     `db:"weekly_hours" json:"weekly_hours"`
	Coefficient float64 `db:"coefficient" json:"coefficient"`
}

// Grade groups classes of the same level.
type Grade struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Level int    `db:"level" json:"level"`
}

// Class is a group of students scheduled as one unit. GradeLevel is joined from grades.
type Class struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Abbreviation string  `db:"abbreviation" json:"abbreviation"`
	GradeID      *string `db:"grade_id" json:"grade_id,omitempty"`
	GradeLevel   *int    `db:"grade_level" json:"grade_level,omitempty"`
	Capacity     int     `db:"capacity" json:"capacity"`
}

// Teacher is an instructor eligible for scheduling.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}

// TeacherSubject is a row of the teacher_subjects qualification table.
type TeacherSubject struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// TeacherClass is a row of the teacher_classes assignment table.
type TeacherClass struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	ClassID   string `db:"class_id" json:"class_id"`
}

// Room is a bookable location. Category tags specialised rooms such as "lab:physics".
type Room struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Capacity int     `db:"capacity" json:"capacity"`
	Category *string `db:"category" json:"category,omitempty"`
}

package timetable

// Subject is a taught discipline with its default weekly load.
type Subject struct {
	ID          string
	Name        string
	WeeklyHours int
	Coefficient float64
}

// Class is a group of students scheduled as one unit.
type Class struct {
	ID           string
	Name         string
	Capacity     int
	GradeID      string
	GradeLevel   int
	Abbreviation string
}

// Teacher lists the subjects taught and the classes the teacher may be scheduled for.
type Teacher struct {
	ID         string
	Name       string
	SubjectIDs []string
	ClassIDs   []string
}

// Room is a bookable location. Category tags specialised rooms such as "lab:physics".
type Room struct {
	ID       string
	Name     string
	Capacity int
	Category string
}

// Grade groups classes of the same level.
type Grade struct {
	ID    string
	Name  string
	Level int
}

// Catalog is the immutable-per-run reference data. Slice order is the catalog order used for tie-breaking.
type Catalog struct {
	Subjects []Subject
	Classes  []Class
	Teachers []Teacher
	Rooms    []Room
	Grades   []Grade
}

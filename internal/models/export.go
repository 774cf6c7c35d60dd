package models

// ExportFormat enumerates supported timetable export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportScope selects whose week an export shows.
type ExportScope string

const (
	ExportScopeClass   ExportScope = "class"
	ExportScopeTeacher ExportScope = "teacher"
)

package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ExportTimetableRequest selects the format and whose week to export. Exactly one of ClassID and
// TeacherID must be set.
type ExportTimetableRequest struct {
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ClassID   string              `json:"classId" validate:"required_without=TeacherID,excluded_with=TeacherID"`
	TeacherID string              `json:"teacherId" validate:"required_without=ClassID"`
}

// ExportResponse points at the rendered file through a signed download URL.
type ExportResponse struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

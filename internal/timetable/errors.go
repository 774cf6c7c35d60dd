package timetable

import (
	"errors"
	"fmt"
)

// Reason classifies why a placement or edit was refused.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonTeacherBusy             Reason = "TEACHER_BUSY"
	ReasonClassBusy               Reason = "CLASS_BUSY"
	ReasonRoomOccupied            Reason = "ROOM_OCCUPIED"
	ReasonTeacherConstrained      Reason = "TEACHER_CONSTRAINED"
	ReasonNoAvailableTeacher      Reason = "NO_AVAILABLE_TEACHER"
	ReasonRoomRequiredUnavailable Reason = "ROOM_REQUIRED_UNAVAILABLE"
	ReasonQuotaExceeded           Reason = "QUOTA_EXCEEDED"
	ReasonLessonNotFound          Reason = "LESSON_NOT_FOUND"
	ReasonOutOfGrid               Reason = "OUT_OF_GRID"
)

var (
	// ErrInvalidInput marks malformed catalog, constraint, grid or lesson data.
	ErrInvalidInput = errors.New("timetable: invalid input")
	// ErrUnknownEntity marks a reference to a subject, class, teacher or room missing from the catalog.
	ErrUnknownEntity = errors.New("timetable: unknown entity")
)

// Rejection is a recoverable refusal: the caller may pick another slot or resource.
type Rejection struct {
	Reason   Reason
	Message  string
	LessonID string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if r == nil {
		return "<nil>"
	}
	if r.Message == "" {
		return string(r.Reason)
	}
	return r.Message
}

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// AsRejection extracts a Rejection from an error chain.
func AsRejection(err error) (*Rejection, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}

func unknown(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownEntity, kind, id)
}

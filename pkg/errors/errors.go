package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so callers can test against the predefined values.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrTimeout            = New("TIMEOUT", http.StatusGatewayTimeout, "operation timed out")
)

// Scheduling rejections. They are recoverable: the client may retry with another slot or resource.
var (
	ErrTeacherBusy             = New("TEACHER_BUSY", http.StatusConflict, "teacher already teaches at this time")
	ErrClassBusy               = New("CLASS_BUSY", http.StatusConflict, "class already has a lesson at this time")
	ErrRoomOccupied            = New("ROOM_OCCUPIED", http.StatusConflict, "room is occupied at this time")
	ErrTeacherConstrained      = New("TEACHER_CONSTRAINED", http.StatusConflict, "teacher is unavailable at this time")
	ErrNoAvailableTeacher      = New("NO_AVAILABLE_TEACHER", http.StatusConflict, "no qualified teacher is free")
	ErrRoomRequiredUnavailable = New("ROOM_REQUIRED_UNAVAILABLE", http.StatusConflict, "required room is unavailable")
	ErrQuotaExceeded           = New("QUOTA_EXCEEDED", http.StatusConflict, "weekly hours already scheduled")
	ErrLessonNotFound          = New("LESSON_NOT_FOUND", http.StatusNotFound, "lesson not found")
	ErrOutOfGrid               = New("OUT_OF_GRID", http.StatusUnprocessableEntity, "position is outside the timetable grid")
	ErrDraftNotFound           = New("DRAFT_NOT_FOUND", http.StatusNotFound, "draft not found or expired")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy carrying structured details for the response body.
func WithDetails(err *Error, details interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}

package dto

import "github.com/noah-isme/sma-timetable/internal/models"

// GenerationJobResponse is returned after enqueueing an asynchronous generation.
type GenerationJobResponse struct {
	ID     string                     `json:"id"`
	Status models.GenerationJobStatus `json:"status"`
}

// GenerationJobStatusResponse exposes job progress metadata.
type GenerationJobStatusResponse struct {
	ID       string                     `json:"id"`
	TermID   string                     `json:"termId"`
	Status   models.GenerationJobStatus `json:"status"`
	Attempts int                        `json:"attempts"`
	DraftID  *string                    `json:"draftId,omitempty"`
	Error    *string                    `json:"error,omitempty"`
}

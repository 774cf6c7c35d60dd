package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenerationJobStatus captures background generation lifecycle states.
type GenerationJobStatus string

const (
	GenerationJobQueued     GenerationJobStatus = "QUEUED"
	GenerationJobProcessing GenerationJobStatus = "PROCESSING"
	GenerationJobFinished   GenerationJobStatus = "FINISHED"
	GenerationJobFailed     GenerationJobStatus = "FAILED"
)

// GenerationJob is a persisted asynchronous generation request. DraftID is set once finished.
type GenerationJob struct {
	ID           string              `db:"id" json:"id"`
	TermID       string              `db:"term_id" json:"term_id"`
	Params       GenerationJobParams `db:"params" json:"params"`
	Status       GenerationJobStatus `db:"status" json:"status"`
	DraftID      *string             `db:"draft_id" json:"draft_id,omitempty"`
	Attempts     int                 `db:"attempts" json:"attempts"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	StartedAt    *time.Time          `db:"started_at" json:"started_at,omitempty"`
	FinishedAt   *time.Time          `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string             `db:"error_message" json:"error_message,omitempty"`
}

// GenerationJobParams stores the generation overrides persisted as JSONB.
type GenerationJobParams struct {
	ClassIDs         []string `json:"classIds,omitempty"`
	Days             []string `json:"days,omitempty"`
	ReferenceClassID string   `json:"referenceClassId,omitempty"`
	StrictQuota      *bool    `json:"strictQuota,omitempty"`
	MaxBacktracks    *int     `json:"maxBacktracks,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p GenerationJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal generation job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *GenerationJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = GenerationJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for GenerationJobParams", value)
	}
	if len(data) == 0 {
		*p = GenerationJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal generation job params: %w", err)
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// RowError records one failed row of a bulk upload. The batch keeps going;
// the error carries the zero-based row index and a snapshot of the raw cells.
type RowError struct {
	Index   int               `json:"index"`
	Message string            `json:"message"`
	Raw     map[string]string `json:"raw,omitempty"`
}

// BulkJob tracks one bulk-upload batch. Every data row is counted exactly
// once in Processed; Status is "failed" only when zero rows succeeded.
type BulkJob struct {
	ID           uuid.UUID  `json:"id"`
	FileName     string     `json:"file_name"`
	Status       string     `json:"status"` // "processing" | "completed" | "failed"
	Processed    int        `json:"processed"`
	Successful   int        `json:"successful"`
	Failed       int        `json:"failed"`
	RowErrors    []RowError `json:"row_errors,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskInProgress TaskState = "in_progress"
	TaskSucceeded  TaskState = "succeeded"
	TaskFailed     TaskState = "failed"
)

// AttemptRecord is one strategy attempt in an acquisition task's log.
type AttemptRecord struct {
	Strategy string `json:"strategy"`
	Outcome  string `json:"outcome"`
}

// AcquisitionTask is a background fetch of one asset entry, keyed by
// (content id, slot). At most one task per key is ever in flight.
type AcquisitionTask struct {
	ContentID uuid.UUID       `json:"content_id"`
	Slot      AssetSlot       `json:"slot"`
	Entry     AssetEntry      `json:"entry"`
	Attempts  []AttemptRecord `json:"attempts,omitempty"`
	State     TaskState       `json:"state"`
}

func (t AcquisitionTask) Key() string {
	return t.ContentID.String() + ":" + string(t.Slot)
}

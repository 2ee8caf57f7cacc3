package ingest

import "fmt"

// BatchValidationError rejects a whole upload before any row is processed:
// required columns missing, no data rows, or an unreadable file.
type BatchValidationError struct {
	Reason string
}

func (e *BatchValidationError) Error() string {
	return "batch validation failed: " + e.Reason
}

// PersistenceError is a record-store failure. Inside the row loop it is
// recorded as a row error; outside the loop (job bookkeeping) it fails
// the whole job.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package acquire

import (
	"fmt"

	"sessionhub-backend/internal/models"
)

// StrategyError is a single acquisition strategy failing; the chain keeps
// going.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s failed: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// ExhaustedError means every strategy in the chain failed. It carries the
// last strategy's error plus one attempt record per strategy tried.
type ExhaustedError struct {
	Attempts []models.AttemptRecord
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d acquisition strategies failed, last error: %v", len(e.Attempts), e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

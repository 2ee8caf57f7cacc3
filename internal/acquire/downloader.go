package acquire

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"sessionhub-backend/internal/models"
)

// AssetRef is the unit of work handed to the downloader: one unresolved
// entry of one content record.
type AssetRef struct {
	ContentID uuid.UUID         `json:"content_id"`
	Entry     models.AssetEntry `json:"entry"`
}

// Artifact is a successfully fetched asset plus whatever metadata the
// winning strategy discovered along the way.
type Artifact struct {
	Data     []byte
	Name     string
	MimeType string
}

// Strategy is one independent way of acquiring an asset. Returning an
// empty artifact counts as failure; the chain moves on.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, ref AssetRef) (*Artifact, error)
}

// Downloader tries its strategies strictly in order and stops at the
// first non-empty artifact.
type Downloader struct {
	strategies []Strategy
}

func NewDownloader(strategies ...Strategy) *Downloader {
	return &Downloader{strategies: strategies}
}

// Fetch runs the chain. On success the returned attempts cover every
// strategy tried up to and including the winner; later strategies are
// never invoked. On exhaustion the error is an *ExhaustedError with one
// attempt record per strategy.
func (d *Downloader) Fetch(ctx context.Context, ref AssetRef) (*Artifact, []models.AttemptRecord, error) {
	var attempts []models.AttemptRecord
	var lastErr error

	for _, s := range d.strategies {
		artifact, err := s.Attempt(ctx, ref)
		if err == nil && (artifact == nil || len(artifact.Data) == 0) {
			err = errors.New("strategy produced an empty artifact")
		}
		if err != nil {
			lastErr = &StrategyError{Strategy: s.Name(), Err: err}
			attempts = append(attempts, models.AttemptRecord{Strategy: s.Name(), Outcome: err.Error()})
			log.Printf("Acquisition %s/%s: strategy %s failed: %v",
				ref.ContentID, ref.Entry.PresentationType, s.Name(), err)
			continue
		}

		attempts = append(attempts, models.AttemptRecord{Strategy: s.Name(), Outcome: "ok"})
		log.Printf("Acquisition %s/%s: strategy %s succeeded (%d bytes)",
			ref.ContentID, ref.Entry.PresentationType, s.Name(), len(artifact.Data))
		return artifact, attempts, nil
	}

	return nil, attempts, &ExhaustedError{Attempts: attempts, LastErr: lastErr}
}

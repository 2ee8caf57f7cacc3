package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"sessionhub-backend/internal/models"
)

// ContentStore is the slice of the content repository the updater needs.
type ContentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContentRecord, error)
	UpdateAssets(ctx context.Context, rec *models.ContentRecord) error
}

// Resolution is the outcome of one acquisition applied to a record.
type Resolution struct {
	Slot      models.AssetSlot
	GCSPath   string
	AccessURL string
	Name      string
	MimeType  string
	Size      int64
}

// ContentStoreUpdater writes acquisition outcomes back onto content
// records: the matching slot entry is replaced in place, appended if the
// record somehow lost it, and the legacy scalar URL fields are refreshed
// for deck slots. Applying the same resolution twice is a no-op in
// effect.
type ContentStoreUpdater struct {
	store ContentStore
}

func NewContentStoreUpdater(store ContentStore) *ContentStoreUpdater {
	return &ContentStoreUpdater{store: store}
}

// ApplyResolved marks one slot resolved.
func (u *ContentStoreUpdater) ApplyResolved(ctx context.Context, contentID uuid.UUID, res Resolution) error {
	rec, err := u.store.GetByID(ctx, contentID)
	if err != nil {
		return fmt.Errorf("failed to load content %s: %w", contentID, err)
	}

	entry := rec.AssetBySlot(res.Slot)
	if entry == nil {
		log.Printf("Content %s has no %s entry, appending one", contentID, res.Slot)
		rec.Assets = append(rec.Assets, models.AssetEntry{PresentationType: res.Slot})
		entry = &rec.Assets[len(rec.Assets)-1]
	}

	entry.GCSPath = &res.GCSPath
	entry.URL = &res.AccessURL
	entry.Type = models.ResolutionResolved
	entry.TooLargeToExport = false
	entry.ExportURL = nil
	if res.Name != "" {
		entry.Name = res.Name
	}
	if res.MimeType != "" {
		entry.ContentType = res.MimeType
	}
	if res.Size > 0 {
		entry.Size = res.Size
	}

	refreshLegacyURLs(rec, res.Slot, res.AccessURL)

	if err := u.store.UpdateAssets(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist resolution for %s/%s: %w", contentID, res.Slot, err)
	}
	return nil
}

// ApplyFailed marks one slot failed after every strategy was exhausted.
// An entry that resolved in the meantime is left untouched.
func (u *ContentStoreUpdater) ApplyFailed(ctx context.Context, contentID uuid.UUID, slot models.AssetSlot, attempts []models.AttemptRecord) error {
	rec, err := u.store.GetByID(ctx, contentID)
	if err != nil {
		return fmt.Errorf("failed to load content %s: %w", contentID, err)
	}

	entry := rec.AssetBySlot(slot)
	if entry == nil {
		return nil
	}
	if entry.Resolved() {
		log.Printf("Content %s/%s resolved concurrently, keeping it", contentID, slot)
		return nil
	}

	entry.Type = models.ResolutionFailed
	log.Printf("Content %s/%s failed after %d strategies", contentID, slot, len(attempts))

	if err := u.store.UpdateAssets(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist failure for %s/%s: %w", contentID, slot, err)
	}
	return nil
}

func refreshLegacyURLs(rec *models.ContentRecord, slot models.AssetSlot, accessURL string) {
	switch slot {
	case models.SlotPresentationSlides:
		rec.PresentationSlidesURL = &accessURL
	case models.SlotRecapSlides:
		rec.RecapSlidesURL = &accessURL
	}
}

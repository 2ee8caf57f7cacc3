package worker

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"sessionhub-backend/internal/acquire"
	"sessionhub-backend/internal/models"
)

func TestAcquisitionPayloadCarriesTask(t *testing.T) {
	id := "ABC123"
	ref := acquire.AssetRef{
		ContentID: uuid.New(),
		Entry: models.AssetEntry{
			PresentationType: models.SlotPresentationSlides,
			DriveID:          &id,
			Type:             models.ResolutionUnresolved,
		},
	}

	task := newAcquisitionTask(ref)
	if task.State != models.TaskPending {
		t.Errorf("fresh task should be pending, got %q", task.State)
	}
	if task.Slot != models.SlotPresentationSlides {
		t.Errorf("task slot = %q", task.Slot)
	}
	wantKey := ref.ContentID.String() + ":presentation_slides"
	if task.Key() != wantKey {
		t.Errorf("task key = %q, want %q", task.Key(), wantKey)
	}

	// The payload survives the queue round trip with entry and key intact.
	raw, err := json.Marshal(acquisitionPayload{Task: task, RetryCount: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded acquisitionPayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Task.Key() != wantKey {
		t.Errorf("decoded key = %q, want %q", decoded.Task.Key(), wantKey)
	}
	if decoded.RetryCount != 1 {
		t.Errorf("retry count should survive, got %d", decoded.RetryCount)
	}
	if decoded.Task.Entry.DriveID == nil || *decoded.Task.Entry.DriveID != "ABC123" {
		t.Errorf("entry provenance should survive, got %v", decoded.Task.Entry.DriveID)
	}
}

package acquire

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"sessionhub-backend/internal/models"
)

type fakeQueue struct {
	enqueued  []AssetRef
	fail      bool
	failFirst int
}

func (f *fakeQueue) Enqueue(ctx context.Context, ref AssetRef) error {
	if f.fail {
		return context.DeadlineExceeded
	}
	if f.failFirst > 0 {
		f.failFirst--
		return context.DeadlineExceeded
	}
	f.enqueued = append(f.enqueued, ref)
	return nil
}

func strPtr(s string) *string { return &s }

func TestNeedsAcquisition(t *testing.T) {
	cases := []struct {
		name  string
		entry models.AssetEntry
		want  bool
	}{
		{
			name: "unresolved deck with url",
			entry: models.AssetEntry{
				PresentationType: models.SlotPresentationSlides,
				DriveURL:         strPtr("https://docs.google.com/presentation/d/ABC123/edit"),
			},
			want: true,
		},
		{
			name: "unresolved deck with known id only",
			entry: models.AssetEntry{
				PresentationType: models.SlotRecapSlides,
				DriveID:          strPtr("XYZ789"),
			},
			want: true,
		},
		{
			name: "oversized deck",
			entry: models.AssetEntry{
				PresentationType: models.SlotPresentationSlides,
				TooLargeToExport: true,
			},
			want: true,
		},
		{
			name: "already resolved deck",
			entry: models.AssetEntry{
				PresentationType: models.SlotPresentationSlides,
				DriveID:          strPtr("ABC123"),
				GCSPath:          strPtr("sessions/x/presentation_slides/a.pptx"),
				Type:             models.ResolutionResolved,
			},
			want: false,
		},
		{
			name: "deck with nothing to fetch from",
			entry: models.AssetEntry{
				PresentationType: models.SlotPresentationSlides,
			},
			want: false,
		},
		{
			name: "folder slot never flagged",
			entry: models.AssetEntry{
				PresentationType: models.SlotDriveFolder,
				DriveURL:         strPtr("https://drive.google.com/drive/folders/QWERTY"),
			},
			want: false,
		},
		{
			name: "video slot never flagged",
			entry: models.AssetEntry{
				PresentationType: models.SlotYouTubeVideo,
				DriveURL:         strPtr("https://youtu.be/ZXCVBN"),
				Source:           models.SourceYouTube,
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsAcquisition(tc.entry); got != tc.want {
				t.Errorf("NeedsAcquisition = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScheduler_CollectAndDispatch(t *testing.T) {
	queue := &fakeQueue{}
	s := NewScheduler(queue)
	contentID := uuid.New()

	s.Collect(contentID, []models.AssetEntry{
		{PresentationType: models.SlotPresentationSlides, DriveID: strPtr("ABC123")},
		{PresentationType: models.SlotRecapSlides, TooLargeToExport: true},
		{PresentationType: models.SlotDriveFolder, DriveURL: strPtr("https://drive.google.com/drive/folders/QWERTY")},
	})

	n, err := s.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if n != 2 || len(queue.enqueued) != 2 {
		t.Fatalf("expected 2 dispatched tasks, got %d", n)
	}
	if !s.InFlight(contentID, models.SlotPresentationSlides) {
		t.Errorf("dispatched task should be in flight")
	}
}

func TestScheduler_DuplicateInFlightKeyIsDropped(t *testing.T) {
	queue := &fakeQueue{}
	s := NewScheduler(queue)
	contentID := uuid.New()
	entry := models.AssetEntry{PresentationType: models.SlotPresentationSlides, DriveID: strPtr("ABC123")}

	s.Collect(contentID, []models.AssetEntry{entry})
	if _, err := s.Dispatch(context.Background()); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	// Same key arrives again while the first task is still running.
	s.Collect(contentID, []models.AssetEntry{entry})
	n, err := s.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if n != 0 || len(queue.enqueued) != 1 {
		t.Errorf("duplicate in-flight key must not be re-enqueued, got %d total", len(queue.enqueued))
	}

	// After completion the key is free again.
	s.Complete(contentID, models.SlotPresentationSlides)
	s.Collect(contentID, []models.AssetEntry{entry})
	if n, _ := s.Dispatch(context.Background()); n != 1 {
		t.Errorf("retired key should be re-flaggable, dispatched %d", n)
	}
}

func TestScheduler_DistinctSlotsRunIndependently(t *testing.T) {
	queue := &fakeQueue{}
	s := NewScheduler(queue)
	contentID := uuid.New()

	s.Collect(contentID, []models.AssetEntry{
		{PresentationType: models.SlotPresentationSlides, DriveID: strPtr("ABC123")},
	})
	s.Collect(contentID, []models.AssetEntry{
		{PresentationType: models.SlotRecapSlides, DriveID: strPtr("XYZ789")},
	})

	if n, _ := s.Dispatch(context.Background()); n != 2 {
		t.Errorf("different slots of one record are separate tasks, dispatched %d", n)
	}
}

func TestScheduler_EnqueueFailureReleasesKey(t *testing.T) {
	queue := &fakeQueue{fail: true}
	s := NewScheduler(queue)
	contentID := uuid.New()

	s.Collect(contentID, []models.AssetEntry{
		{PresentationType: models.SlotPresentationSlides, DriveID: strPtr("ABC123")},
	})
	if _, err := s.Dispatch(context.Background()); err == nil {
		t.Fatalf("expected enqueue failure to surface")
	}
	if s.InFlight(contentID, models.SlotPresentationSlides) {
		t.Errorf("failed enqueue must release the key for a later pass")
	}
}

func TestScheduler_EnqueueFailureKeepsLaterRefsDispatchable(t *testing.T) {
	queue := &fakeQueue{failFirst: 1}
	s := NewScheduler(queue)
	contentID := uuid.New()

	s.Collect(contentID, []models.AssetEntry{
		{PresentationType: models.SlotPresentationSlides, DriveID: strPtr("ABC123")},
		{PresentationType: models.SlotRecapSlides, DriveID: strPtr("XYZ789")},
	})

	if _, err := s.Dispatch(context.Background()); err == nil {
		t.Fatalf("expected enqueue failure to surface")
	}

	// Neither ref reached the queue; neither key may be stuck in flight.
	if s.InFlight(contentID, models.SlotPresentationSlides) {
		t.Errorf("failing ref must not stay in flight")
	}
	if s.InFlight(contentID, models.SlotRecapSlides) {
		t.Errorf("never-enqueued ref must not stay in flight")
	}

	// With the queue healthy again, both refs go out on the next pass.
	n, err := s.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if n != 2 || len(queue.enqueued) != 2 {
		t.Errorf("both refs should be retried, dispatched %d", n)
	}
	if !s.InFlight(contentID, models.SlotRecapSlides) {
		t.Errorf("retried ref should now be in flight")
	}
}

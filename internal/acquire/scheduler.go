package acquire

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"sessionhub-backend/internal/models"
)

// Enqueuer pushes a flagged asset onto the acquisition queue. The worker
// pool implements this over redis.
type Enqueuer interface {
	Enqueue(ctx context.Context, ref AssetRef) error
}

// EnqueueFunc adapts a function to Enqueuer.
type EnqueueFunc func(ctx context.Context, ref AssetRef) error

func (f EnqueueFunc) Enqueue(ctx context.Context, ref AssetRef) error { return f(ctx, ref) }

// Scheduler flags unresolved or oversized deck entries for background
// acquisition. Its registry enforces at-most-one in-flight task per
// (content id, slot) key: a duplicate for an in-progress key is dropped,
// never run concurrently. Collection happens during the ingest row loop;
// dispatch only after the loop completes, so acquisition never blocks
// ingestion throughput.
type Scheduler struct {
	mu       sync.Mutex
	inflight map[string]models.TaskState
	pending  []AssetRef
	queue    Enqueuer
}

func NewScheduler(queue Enqueuer) *Scheduler {
	return &Scheduler{
		inflight: make(map[string]models.TaskState),
		queue:    queue,
	}
}

// NeedsAcquisition applies the flag rules to one entry: explicitly
// oversized, or carrying a reference/id without a resolved storage
// location. Only deck slots are ever flagged.
func NeedsAcquisition(e models.AssetEntry) bool {
	if !e.PresentationType.IsDeck() {
		return false
	}
	missingLocation := e.GCSPath == nil || *e.GCSPath == ""
	if !missingLocation {
		return false
	}
	if e.TooLargeToExport {
		return true
	}
	if e.DriveURL != nil && *e.DriveURL != "" {
		return true
	}
	if e.DriveID != nil && *e.DriveID != "" {
		return true
	}
	return false
}

// Collect inspects a freshly persisted record's entries and registers the
// ones needing acquisition. Entries whose key is already in flight are
// deferred to that task.
func (s *Scheduler) Collect(contentID uuid.UUID, entries []models.AssetEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if !NeedsAcquisition(e) {
			continue
		}
		key := taskKey(contentID, e.PresentationType)
		if state, ok := s.inflight[key]; ok && state == models.TaskInProgress {
			log.Printf("Acquisition %s already in flight, dropping duplicate", key)
			continue
		}
		if _, ok := s.inflight[key]; ok {
			// Already collected this batch.
			continue
		}
		s.inflight[key] = models.TaskPending
		s.pending = append(s.pending, AssetRef{ContentID: contentID, Entry: e})
	}
}

// Dispatch drains the pending set onto the queue, marking each key
// in-progress. Returns how many tasks were enqueued.
func (s *Scheduler) Dispatch(ctx context.Context) (int, error) {
	s.mu.Lock()
	refs := s.pending
	s.pending = nil
	for _, ref := range refs {
		s.inflight[taskKey(ref.ContentID, ref.Entry.PresentationType)] = models.TaskInProgress
	}
	s.mu.Unlock()

	dispatched := 0
	for i, ref := range refs {
		if err := s.queue.Enqueue(ctx, ref); err != nil {
			s.repend(refs[i:])
			log.Printf("Failed to enqueue acquisition %s/%s: %v", ref.ContentID, ref.Entry.PresentationType, err)
			return dispatched, err
		}
		dispatched++
	}
	return dispatched, nil
}

// repend returns refs that never made it onto the queue to the pending
// set, so a later dispatch retries them instead of leaving their keys
// stuck in-progress.
func (s *Scheduler) repend(refs []AssetRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range refs {
		s.inflight[taskKey(ref.ContentID, ref.Entry.PresentationType)] = models.TaskPending
	}
	s.pending = append(s.pending, refs...)
}

// Complete retires a task's key so a later pass may re-flag the entry.
func (s *Scheduler) Complete(contentID uuid.UUID, slot models.AssetSlot) {
	s.release(contentID, slot)
}

// InFlight reports whether a task for the key is currently registered.
func (s *Scheduler) InFlight(contentID uuid.UUID, slot models.AssetSlot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.inflight[taskKey(contentID, slot)]
	return ok && state == models.TaskInProgress
}

func (s *Scheduler) release(contentID uuid.UUID, slot models.AssetSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, taskKey(contentID, slot))
}

func taskKey(contentID uuid.UUID, slot models.AssetSlot) string {
	return contentID.String() + ":" + string(slot)
}

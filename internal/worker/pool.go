package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"sessionhub-backend/internal/acquire"
	"sessionhub-backend/internal/ingest"
	"sessionhub-backend/internal/models"
	"sessionhub-backend/internal/services"
)

const (
	acquisitionQueue = "queue:asset-acquisition"
	bulkIngestQueue  = "queue:bulk-ingest"

	maxTaskRetries = 3
	lockTTL        = 10 * time.Minute
)

// acquisitionPayload is the queue payload for one asset fetch: the task
// with its lifecycle state and attempts log, plus the requeue count.
type acquisitionPayload struct {
	Task       models.AcquisitionTask `json:"task"`
	RetryCount int                    `json:"retry_count"`
}

func newAcquisitionTask(ref acquire.AssetRef) models.AcquisitionTask {
	return models.AcquisitionTask{
		ContentID: ref.ContentID,
		Slot:      ref.Entry.PresentationType,
		Entry:     ref.Entry,
		State:     models.TaskPending,
	}
}

// ingestTask is the queue payload for one uploaded spreadsheet.
type ingestTask struct {
	FileName string `json:"file_name"`
	Data     []byte `json:"data"`
}

// Pool consumes the acquisition and bulk-ingest queues. Redis locks keyed
// by (content id, slot) keep concurrent processes off the same asset; the
// in-process scheduler registry already dedupes within one process.
type Pool struct {
	redis       *redis.Client
	downloader  *acquire.Downloader
	sink        *services.StorageSink
	updater     *services.ContentStoreUpdater
	scheduler   *acquire.Scheduler
	ingestor    *ingest.Ingestor
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	downloader *acquire.Downloader,
	sink *services.StorageSink,
	updater *services.ContentStoreUpdater,
	scheduler *acquire.Scheduler,
	ingestor *ingest.Ingestor,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		downloader:  downloader,
		sink:        sink,
		updater:     updater,
		scheduler:   scheduler,
		ingestor:    ingestor,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

// Enqueue pushes one acquisition task, satisfying acquire.Enqueuer.
func (p *Pool) Enqueue(ctx context.Context, ref acquire.AssetRef) error {
	payload, err := json.Marshal(acquisitionPayload{Task: newAcquisitionTask(ref)})
	if err != nil {
		return err
	}
	return p.redis.LPush(ctx, acquisitionQueue, string(payload)).Err()
}

// EnqueueIngest pushes one uploaded spreadsheet for background ingestion.
func (p *Pool) EnqueueIngest(ctx context.Context, fileName string, data []byte) error {
	payload, err := json.Marshal(ingestTask{FileName: fileName, Data: data})
	if err != nil {
		return err
	}
	return p.redis.LPush(ctx, bulkIngestQueue, string(payload)).Err()
}

func (p *Pool) Start() {
	queues := []string{acquisitionQueue, bulkIngestQueue}
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		switch result[0] {
		case acquisitionQueue:
			p.handleAcquisition(ctx, id, result[1])
		case bulkIngestQueue:
			p.handleIngest(ctx, id, result[1])
		}
	}
}

func (p *Pool) handleAcquisition(ctx context.Context, workerID int, rawPayload string) {
	var payload acquisitionPayload
	if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
		log.Printf("Worker %d: failed to parse acquisition task: %v", workerID, err)
		return
	}

	task := payload.Task
	ref := acquire.AssetRef{ContentID: task.ContentID, Entry: task.Entry}

	lockKey := "acq_lock:" + task.Key()
	locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return // Another worker has this asset
	}
	defer p.redis.Del(ctx, lockKey)

	task.State = models.TaskInProgress
	log.Printf("Worker %d: acquiring %s", workerID, task.Key())

	artifact, attempts, err := p.downloader.Fetch(ctx, ref)
	task.Attempts = attempts
	if err != nil {
		var exhausted *acquire.ExhaustedError
		if errors.As(err, &exhausted) {
			// Every strategy failed; record it and stop retrying.
			task.State = models.TaskFailed
			if aerr := p.updater.ApplyFailed(ctx, task.ContentID, task.Slot, task.Attempts); aerr != nil {
				log.Printf("Worker %d: failed to record failure for %s: %v", workerID, task.Key(), aerr)
			}
			p.scheduler.Complete(task.ContentID, task.Slot)
			return
		}
		p.retryOrFail(ctx, workerID, payload, err)
		return
	}

	key, accessURL, err := p.sink.Store(ctx, task.ContentID, task.Slot, artifact.Data, artifact.MimeType)
	if err != nil {
		p.retryOrFail(ctx, workerID, payload, err)
		return
	}

	res := services.Resolution{
		Slot:      task.Slot,
		GCSPath:   key,
		AccessURL: accessURL,
		Name:      artifact.Name,
		MimeType:  artifact.MimeType,
		Size:      int64(len(artifact.Data)),
	}
	if err := p.updater.ApplyResolved(ctx, task.ContentID, res); err != nil {
		p.retryOrFail(ctx, workerID, payload, err)
		return
	}

	task.State = models.TaskSucceeded
	p.scheduler.Complete(task.ContentID, task.Slot)
	log.Printf("Worker %d: resolved %s to %s (%d attempts)", workerID, task.Key(), key, len(task.Attempts))
}

// retryOrFail requeues transient failures with backoff, releasing the
// scheduler key permanently once retries are spent.
func (p *Pool) retryOrFail(ctx context.Context, workerID int, payload acquisitionPayload, err error) {
	task := payload.Task
	payload.RetryCount++

	if payload.RetryCount < maxTaskRetries {
		log.Printf("Worker %d: task %s failed (attempt %d): %v, retrying",
			workerID, task.Key(), payload.RetryCount, err)

		payload.Task.State = models.TaskPending
		raw, merr := json.Marshal(payload)
		if merr != nil {
			log.Printf("Worker %d: failed to marshal retry payload: %v", workerID, merr)
			p.scheduler.Complete(task.ContentID, task.Slot)
			return
		}
		backoff := time.Duration(1<<uint(payload.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), acquisitionQueue, raw)
		})
		return
	}

	log.Printf("Worker %d: task %s failed permanently: %v", workerID, task.Key(), err)
	if aerr := p.updater.ApplyFailed(ctx, task.ContentID, task.Slot, task.Attempts); aerr != nil {
		log.Printf("Worker %d: failed to record failure for %s: %v", workerID, task.Key(), aerr)
	}
	p.scheduler.Complete(task.ContentID, task.Slot)
}

func (p *Pool) handleIngest(ctx context.Context, workerID int, payload string) {
	var task ingestTask
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		log.Printf("Worker %d: failed to parse ingest task: %v", workerID, err)
		return
	}

	log.Printf("Worker %d: ingesting %s (%d bytes)", workerID, task.FileName, len(task.Data))

	job, err := p.ingestor.Ingest(ctx, task.Data, task.FileName)
	if err != nil {
		log.Printf("Worker %d: ingest of %s failed: %v", workerID, task.FileName, err)
		return
	}

	dispatched, err := p.scheduler.Dispatch(ctx)
	if err != nil {
		log.Printf("Worker %d: failed to dispatch acquisitions for job %s: %v", workerID, job.ID, err)
	}

	log.Printf("Worker %d: job %s done: %d processed, %d successful, %d failed, %d acquisitions queued",
		workerID, job.ID, job.Processed, job.Successful, job.Failed, dispatched)
}

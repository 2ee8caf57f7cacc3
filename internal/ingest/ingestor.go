package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"sessionhub-backend/internal/assets"
	"sessionhub-backend/internal/models"
)

// Recognized bulk-upload columns. title and sessionId are required; the
// rest are optional.
const (
	colTitle              = "title"
	colSessionID          = "sessionid"
	colPresentationSlides = "presentationslidesurl"
	colRecapSlides        = "recapslidesurl"
	colDriveLink          = "drivelink"
	colVideoYoutube       = "videoyoutubeurl"
	colTags               = "tags"
	colJobRoles           = "jobroles"
	colAreasOfInterest    = "areasofinterest"
)

const maxPresenters = 6

// RecordStore is the slice of the content store the ingestor needs.
type RecordStore interface {
	Create(ctx context.Context, rec *models.ContentRecord) error
}

// JobStore persists bulk-job bookkeeping.
type JobStore interface {
	Create(ctx context.Context, job *models.BulkJob) error
	Finish(ctx context.Context, job *models.BulkJob) error
}

// Collector receives each persisted record's asset entries so unresolved
// ones can be flagged for background acquisition. Collection happens
// during the row loop; dispatch is the caller's business and must wait
// until the loop is done.
type Collector interface {
	Collect(contentID uuid.UUID, entries []models.AssetEntry)
}

// Ingestor parses a bulk upload and builds one content record per row.
// Rows are processed strictly sequentially; one bad row never aborts the
// batch.
type Ingestor struct {
	records   RecordStore
	jobs      JobStore
	collector Collector
}

func NewIngestor(records RecordStore, jobs JobStore, collector Collector) *Ingestor {
	return &Ingestor{records: records, jobs: jobs, collector: collector}
}

// Ingest runs one batch. A *BatchValidationError comes back before any
// job record exists; a *PersistenceError on job bookkeeping fails the
// whole job. Row-level failures land in the returned job's RowErrors.
func (ing *Ingestor) Ingest(ctx context.Context, data []byte, filename string) (*models.BulkJob, error) {
	rows, err := ReadTable(data, filename)
	if err != nil {
		return nil, &BatchValidationError{Reason: err.Error()}
	}

	header, dataRows, err := validateTable(rows)
	if err != nil {
		return nil, err
	}

	job := &models.BulkJob{
		FileName: filename,
		Status:   "processing",
	}
	if err := ing.jobs.Create(ctx, job); err != nil {
		return nil, &PersistenceError{Op: "job creation", Err: err}
	}

	for i, row := range dataRows {
		if isEmptyRow(row) {
			continue
		}
		job.Processed++

		rec, rowErr := ing.processRow(ctx, i, header, row)
		if rowErr != nil {
			job.Failed++
			job.RowErrors = append(job.RowErrors, models.RowError{
				Index:   i,
				Message: rowErr.Error(),
				Raw:     snapshotRow(header, row),
			})
			log.Printf("Bulk job %s: row %d failed: %v", job.ID, i, rowErr)
			continue
		}

		job.Successful++
		if ing.collector != nil {
			ing.collector.Collect(rec.ID, rec.Assets)
		}
	}

	job.Status = "completed"
	if job.Successful == 0 {
		job.Status = "failed"
	}
	now := time.Now()
	job.CompletedAt = &now

	if err := ing.jobs.Finish(ctx, job); err != nil {
		return job, &PersistenceError{Op: "job completion", Err: err}
	}

	log.Printf("Bulk job %s finished: status=%s processed=%d successful=%d failed=%d",
		job.ID, job.Status, job.Processed, job.Successful, job.Failed)
	return job, nil
}

// validateTable checks the fixed required columns and at least one data
// row before anything is processed.
func validateTable(rows [][]string) (map[string]int, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, &BatchValidationError{Reason: "upload has no rows"}
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := header[key]; !dup {
			header[key] = i
		}
	}

	for _, required := range []string{colTitle, colSessionID} {
		if _, ok := header[required]; !ok {
			return nil, nil, &BatchValidationError{Reason: fmt.Sprintf("missing required column %q", required)}
		}
	}

	dataRows := rows[1:]
	hasData := false
	for _, row := range dataRows {
		if !isEmptyRow(row) {
			hasData = true
			break
		}
	}
	if !hasData {
		return nil, nil, &BatchValidationError{Reason: "upload has no data rows"}
	}

	return header, dataRows, nil
}

// processRow builds and persists one record. Panics from hostile cell
// data are converted into row errors so the loop survives anything.
func (ing *Ingestor) processRow(ctx context.Context, idx int, header map[string]int, row []string) (rec *models.ContentRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("row builder panic: %v", r)
		}
	}()

	rec, err = buildRecord(header, row)
	if err != nil {
		return nil, err
	}

	if err := ing.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist record: %w", err)
	}
	return rec, nil
}

// buildRecord maps one row's cells onto a normalized content record.
func buildRecord(header map[string]int, row []string) (*models.ContentRecord, error) {
	cell := func(name string) *string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return nil
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			return nil
		}
		return &v
	}
	cellValue := func(name string) string {
		if p := cell(name); p != nil {
			return *p
		}
		return ""
	}

	title := cellValue(colTitle)
	if title == "" {
		return nil, fmt.Errorf("missing required value %q", "title")
	}
	sessionID := cellValue(colSessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("missing required value %q", "sessionId")
	}

	rec := &models.ContentRecord{
		Title:           title,
		SessionID:       sessionID,
		Status:          "pending",
		ProcessingState: "ingested",
		Tags:            NormalizeList(cellValue(colTags)),
		JobRoles:        NormalizeList(cellValue(colJobRoles)),
		AreasOfInterest: NormalizeList(cellValue(colAreasOfInterest)),
		Presenters:      buildPresenters(cell),

		PresentationSlidesURL: cell(colPresentationSlides),
		RecapSlidesURL:        cell(colRecapSlides),
		DriveLink:             cell(colDriveLink),
		VideoYoutubeURL:       cell(colVideoYoutube),
	}

	entries := assets.BuildEntries(assets.LegacyAssetFields{
		PresentationSlidesURL: rec.PresentationSlidesURL,
		RecapSlidesURL:        rec.RecapSlidesURL,
		DriveLink:             rec.DriveLink,
		VideoYoutubeURL:       rec.VideoYoutubeURL,
	})

	candidates := make(map[models.AssetSlot][]models.AssetEntry, len(entries))
	for _, e := range entries {
		candidates[e.PresentationType] = append(candidates[e.PresentationType], e)
	}
	rec.Assets = assets.MergeCandidates(candidates)

	return rec, nil
}

// buildPresenters reconstructs up to 6 presenter sub-records from the
// indexed column quadruples. A presenter exists only if its name cell is
// non-empty.
func buildPresenters(cell func(string) *string) []models.Presenter {
	var out []models.Presenter
	for i := 1; i <= maxPresenters; i++ {
		name := cell(fmt.Sprintf("presenterfullname%d", i))
		if name == nil {
			continue
		}
		p := models.Presenter{FullName: *name}
		if v := cell(fmt.Sprintf("presenterjobtitle%d", i)); v != nil {
			p.JobTitle = *v
		}
		if v := cell(fmt.Sprintf("presentercompany%d", i)); v != nil {
			p.Company = *v
		}
		if v := cell(fmt.Sprintf("presenterindustry%d", i)); v != nil {
			p.Industry = *v
		}
		out = append(out, p)
	}
	return out
}

func snapshotRow(header map[string]int, row []string) map[string]string {
	snap := make(map[string]string, len(header))
	for name, i := range header {
		if i < len(row) && strings.TrimSpace(row[i]) != "" {
			snap[name] = row[i]
		}
	}
	if len(snap) == 0 {
		return nil
	}
	return snap
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// AssetSlot is one of the four fixed asset categories a content record may carry.
type AssetSlot string

const (
	SlotPresentationSlides AssetSlot = "presentation_slides"
	SlotRecapSlides        AssetSlot = "recap_slides"
	SlotDriveFolder        AssetSlot = "drive_folder"
	SlotYouTubeVideo       AssetSlot = "youtube_video"
)

// IsDeck reports whether the slot holds a presentation-type document.
func (s AssetSlot) IsDeck() bool {
	return s == SlotPresentationSlides || s == SlotRecapSlides
}

type AssetSource string

const (
	SourceGoogleDrive AssetSource = "google_drive"
	SourceYouTube     AssetSource = "youtube"
)

type ResolutionState string

const (
	ResolutionUnresolved ResolutionState = "unresolved"
	ResolutionResolved   ResolutionState = "resolved"
	ResolutionTooLarge   ResolutionState = "too_large"
	ResolutionFailed     ResolutionState = "failed"
)

// AssetEntry is one typed external-asset reference on a content record.
// The JSON shape matches what the legacy frontend consumes: gcs_path only
// appears once resolved, exportUrl when a direct export template was
// synthesized, tooLargeToExport only while unresolved and flagged oversized.
type AssetEntry struct {
	PresentationType AssetSlot       `json:"presentation_type"`
	ContentType      string          `json:"contentType,omitempty"`
	Name             string          `json:"name,omitempty"`
	Source           AssetSource     `json:"source,omitempty"`
	DriveURL         *string         `json:"drive_url,omitempty"`
	DriveID          *string         `json:"driveId,omitempty"`
	GCSPath          *string         `json:"gcs_path,omitempty"`
	URL              *string         `json:"url,omitempty"`
	Type             ResolutionState `json:"type"`
	Size             int64           `json:"size,omitempty"`
	ThumbnailLink    string          `json:"thumbnailLink,omitempty"`
	IconLink         string          `json:"iconLink,omitempty"`
	WebViewLink      *string         `json:"webViewLink,omitempty"`
	ExportURL        *string         `json:"exportUrl,omitempty"`
	TooLargeToExport bool            `json:"tooLargeToExport,omitempty"`
}

// Resolved reports whether the entry already points at durable storage.
func (e AssetEntry) Resolved() bool {
	return e.GCSPath != nil && *e.GCSPath != "" && e.Type == ResolutionResolved
}

type Presenter struct {
	FullName string `json:"full_name"`
	JobTitle string `json:"job_title,omitempty"`
	Company  string `json:"company,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// ContentRecord is one normalized session record produced by a bulk upload.
// The legacy scalar URL fields mirror the two deck-slot access URLs for
// consumers that predate the asset collection.
type ContentRecord struct {
	ID              uuid.UUID    `json:"id"`
	Title           string       `json:"title"`
	SessionID       string       `json:"session_id"`
	Status          string       `json:"status"` // "pending" | "processing" | "completed" | "failed"
	Tags            []string     `json:"tags,omitempty"`
	JobRoles        []string     `json:"job_roles,omitempty"`
	AreasOfInterest []string     `json:"areas_of_interest,omitempty"`
	Presenters      []Presenter  `json:"presenters,omitempty"`
	Assets          []AssetEntry `json:"assets,omitempty"`

	PresentationSlidesURL *string `json:"presentation_slides_url,omitempty"`
	RecapSlidesURL        *string `json:"recap_slides_url,omitempty"`
	DriveLink             *string `json:"drive_link,omitempty"`
	VideoYoutubeURL       *string `json:"video_youtube_url,omitempty"`

	ProcessingState string    `json:"processing_state,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// AssetBySlot returns a pointer into Assets for the given slot, or nil.
func (c *ContentRecord) AssetBySlot(slot AssetSlot) *AssetEntry {
	for i := range c.Assets {
		if c.Assets[i].PresentationType == slot {
			return &c.Assets[i]
		}
	}
	return nil
}

package assets

import (
	"strings"

	"sessionhub-backend/internal/models"
)

const DeckMimeType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// LegacyAssetFields are the scalar URL columns of a bulk-upload row, plus
// any ids already known from an earlier background pass.
type LegacyAssetFields struct {
	PresentationSlidesURL *string
	RecapSlidesURL        *string
	DriveLink             *string
	VideoYoutubeURL       *string

	PresentationSlidesID *string
	RecapSlidesID        *string
	DriveFolderID        *string
	VideoID              *string
}

// BuildEntries turns the populated legacy URL fields into typed asset
// entries, one per slot. Entries start unresolved with no access URL; an
// id is derived from the URL whenever none was supplied.
func BuildEntries(f LegacyAssetFields) []models.AssetEntry {
	var out []models.AssetEntry

	if e := buildEntry(models.SlotPresentationSlides, f.PresentationSlidesURL, f.PresentationSlidesID); e != nil {
		out = append(out, *e)
	}
	if e := buildEntry(models.SlotRecapSlides, f.RecapSlidesURL, f.RecapSlidesID); e != nil {
		out = append(out, *e)
	}
	if e := buildEntry(models.SlotDriveFolder, f.DriveLink, f.DriveFolderID); e != nil {
		out = append(out, *e)
	}
	if e := buildEntry(models.SlotYouTubeVideo, f.VideoYoutubeURL, f.VideoID); e != nil {
		out = append(out, *e)
	}

	return out
}

func buildEntry(slot models.AssetSlot, rawURL, knownID *string) *models.AssetEntry {
	if rawURL == nil || strings.TrimSpace(*rawURL) == "" {
		return nil
	}
	u := strings.TrimSpace(*rawURL)

	entry := &models.AssetEntry{
		PresentationType: slot,
		Name:             defaultDisplayName(slot),
		Source:           sourceForSlot(slot),
		DriveURL:         &u,
		Type:             models.ResolutionUnresolved,
	}

	if slot.IsDeck() {
		entry.ContentType = DeckMimeType
	}

	if knownID != nil && strings.TrimSpace(*knownID) != "" {
		id := strings.TrimSpace(*knownID)
		entry.DriveID = &id
	} else if id := ExtractForSlot(slot, u); id != "" {
		entry.DriveID = &id
	}

	return entry
}

func sourceForSlot(slot models.AssetSlot) models.AssetSource {
	if slot == models.SlotYouTubeVideo {
		return models.SourceYouTube
	}
	return models.SourceGoogleDrive
}

func defaultDisplayName(slot models.AssetSlot) string {
	switch slot {
	case models.SlotPresentationSlides:
		return "Presentation Slides"
	case models.SlotRecapSlides:
		return "Recap Slides"
	case models.SlotDriveFolder:
		return "Session Folder"
	case models.SlotYouTubeVideo:
		return "Session Recording"
	default:
		return "Attachment"
	}
}

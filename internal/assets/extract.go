package assets

import (
	urlpkg "net/url"
	"regexp"
	"strings"

	"sessionhub-backend/internal/models"
)

var (
	driveFileRe   = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	driveFolderRe = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)
	youtubePathRe = regexp.MustCompile(`(?:v=|/v/|youtu\.be/|embed/|shorts/)([a-zA-Z0-9_-]+)`)
)

// ExtractDriveFileID pulls the document id out of a Drive file URL
// (".../presentation/d/<id>/edit" and friends). Returns "" when the URL
// does not carry one; never fails on malformed input.
func ExtractDriveFileID(rawURL string) string {
	if m := driveFileRe.FindStringSubmatch(rawURL); len(m) > 1 {
		return m[1]
	}
	return ""
}

// ExtractDriveFolderID pulls the folder id out of a ".../folders/<id>" URL.
func ExtractDriveFolderID(rawURL string) string {
	if m := driveFolderRe.FindStringSubmatch(rawURL); len(m) > 1 {
		return m[1]
	}
	return ""
}

// ExtractYouTubeVideoID handles watch?v=, embed/shorts paths and youtu.be
// short links. Returns "" for anything it does not recognize.
func ExtractYouTubeVideoID(rawURL string) string {
	parsed, err := urlpkg.Parse(rawURL)
	if err == nil {
		host := strings.ToLower(parsed.Host)
		path := strings.Trim(parsed.Path, "/")

		if strings.Contains(host, "youtube.com") {
			if v := parsed.Query().Get("v"); v != "" {
				return v
			}
			parts := strings.Split(path, "/")
			if len(parts) >= 2 {
				switch parts[0] {
				case "shorts", "embed", "v":
					if parts[1] != "" {
						return parts[1]
					}
				}
			}
		}

		if strings.Contains(host, "youtu.be") && path != "" {
			return strings.Split(path, "/")[0]
		}
	}

	// Fallback for unusual URL forms
	if m := youtubePathRe.FindStringSubmatch(rawURL); len(m) > 1 {
		return m[1]
	}

	return ""
}

// ExtractForSlot applies the pattern family matching the slot type.
func ExtractForSlot(slot models.AssetSlot, rawURL string) string {
	if rawURL == "" {
		return ""
	}
	switch slot {
	case models.SlotPresentationSlides, models.SlotRecapSlides:
		return ExtractDriveFileID(rawURL)
	case models.SlotDriveFolder:
		return ExtractDriveFolderID(rawURL)
	case models.SlotYouTubeVideo:
		return ExtractYouTubeVideoID(rawURL)
	default:
		return ""
	}
}

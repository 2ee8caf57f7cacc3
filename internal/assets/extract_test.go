package assets

import (
	"testing"

	"sessionhub-backend/internal/models"
)

func TestExtractDriveFileID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"presentation edit url", "https://docs.google.com/presentation/d/ABC123/edit", "ABC123"},
		{"file view url", "https://drive.google.com/file/d/1xYz_9-Q/view?usp=sharing", "1xYz_9-Q"},
		{"no id", "https://drive.google.com/drive/my-drive", ""},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractDriveFileID(tc.url); got != tc.want {
				t.Errorf("ExtractDriveFileID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestExtractDriveFolderID(t *testing.T) {
	if got := ExtractDriveFolderID("https://drive.google.com/drive/folders/XYZ789"); got != "XYZ789" {
		t.Errorf("expected XYZ789, got %q", got)
	}
	if got := ExtractDriveFolderID("https://example.com/nothing"); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}

func TestExtractYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=QWERTY", "QWERTY"},
		{"short link", "https://youtu.be/ZXCVBN", "ZXCVBN"},
		{"shorts path", "https://www.youtube.com/shorts/abc-_123", "abc-_123"},
		{"embed path", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"unrelated url", "https://vimeo.com/12345", ""},
		{"garbage", "::::not a url::::", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractYouTubeVideoID(tc.url); got != tc.want {
				t.Errorf("ExtractYouTubeVideoID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestExtractForSlot(t *testing.T) {
	tests := []struct {
		slot models.AssetSlot
		url  string
		want string
	}{
		{models.SlotPresentationSlides, "https://docs.google.com/presentation/d/ABC123/edit", "ABC123"},
		{models.SlotRecapSlides, "https://docs.google.com/presentation/d/R2D2/edit", "R2D2"},
		{models.SlotDriveFolder, "https://drive.google.com/drive/folders/XYZ789", "XYZ789"},
		{models.SlotYouTubeVideo, "https://www.youtube.com/watch?v=QWERTY", "QWERTY"},
		{models.SlotYouTubeVideo, "https://youtu.be/ZXCVBN", "ZXCVBN"},
		{models.SlotPresentationSlides, "not a drive url", ""},
	}

	for _, tc := range tests {
		if got := ExtractForSlot(tc.slot, tc.url); got != tc.want {
			t.Errorf("ExtractForSlot(%s, %q) = %q, want %q", tc.slot, tc.url, got, tc.want)
		}
	}
}

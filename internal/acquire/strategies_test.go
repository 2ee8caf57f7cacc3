package acquire

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"sessionhub-backend/internal/assets"
	"sessionhub-backend/internal/models"
)

type fakeStore struct {
	files      map[string][]byte
	names      map[string]string
	exports    int
	downloads  int
	fetchedURL string
	fetchBody  []byte
	fetchErr   error
}

func (f *fakeStore) GetMetadata(ctx context.Context, id string) (string, string, int64, error) {
	name, ok := f.names[id]
	if !ok {
		return "", "", 0, errors.New("not found")
	}
	return name, assets.DeckMimeType, int64(len(f.files[id])), nil
}

func (f *fakeStore) ExportDeck(ctx context.Context, id string) ([]byte, error) {
	f.exports++
	data, ok := f.files[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeStore) DownloadMedia(ctx context.Context, id string) ([]byte, error) {
	f.downloads++
	data, ok := f.files[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeStore) AuthorizedFetch(ctx context.Context, rawURL string) ([]byte, error) {
	f.fetchedURL = rawURL
	return f.fetchBody, f.fetchErr
}

func TestStoreExport_DeckByKnownID(t *testing.T) {
	store := &fakeStore{
		files: map[string][]byte{"ABC123": []byte("pptx-bytes")},
		names: map[string]string{"ABC123": "Opening Keynote.pptx"},
	}
	s := NewStoreExportStrategy(store, nil)

	id := "ABC123"
	ref := AssetRef{
		ContentID: uuid.New(),
		Entry: models.AssetEntry{
			PresentationType: models.SlotPresentationSlides,
			ContentType:      assets.DeckMimeType,
			DriveID:          &id,
		},
	}

	artifact, err := s.Attempt(context.Background(), ref)
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if string(artifact.Data) != "pptx-bytes" {
		t.Errorf("wrong data: %q", artifact.Data)
	}
	if artifact.Name != "Opening Keynote.pptx" {
		t.Errorf("metadata name should flow onto the artifact, got %q", artifact.Name)
	}
	if store.exports != 1 || store.downloads != 0 {
		t.Errorf("deck slots must use export, got exports=%d downloads=%d", store.exports, store.downloads)
	}
}

type fakeVideoFetcher struct {
	data  []byte
	title string
}

func (f *fakeVideoFetcher) DownloadVideo(ctx context.Context, videoURL string) ([]byte, string, error) {
	if f.data == nil {
		return nil, "", errors.New("unavailable")
	}
	return f.data, "video/mp4", nil
}

func (f *fakeVideoFetcher) GetVideoMetadata(ctx context.Context, videoURL string) (string, string, string, error) {
	if f.title == "" {
		return "", "", "", errors.New("no metadata")
	}
	return f.title, "channel", "thumb", nil
}

func TestStoreExport_VideoRefUsesRawMediaPath(t *testing.T) {
	store := &fakeStore{}
	videos := &fakeVideoFetcher{data: []byte("mp4-bytes"), title: "Opening Keynote Recording"}
	s := NewStoreExportStrategy(store, videos)

	url := "https://youtu.be/ZXCVBN"
	ref := AssetRef{
		ContentID: uuid.New(),
		Entry: models.AssetEntry{
			PresentationType: models.SlotYouTubeVideo,
			Source:           models.SourceYouTube,
			DriveURL:         &url,
		},
	}

	artifact, err := s.Attempt(context.Background(), ref)
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if string(artifact.Data) != "mp4-bytes" {
		t.Errorf("wrong data: %q", artifact.Data)
	}
	if artifact.MimeType != "video/mp4" {
		t.Errorf("mime should come from the stream, got %q", artifact.MimeType)
	}
	if artifact.Name != "Opening Keynote Recording" {
		t.Errorf("discovered title should flow onto the artifact, got %q", artifact.Name)
	}
	if store.exports != 0 && store.downloads != 0 {
		t.Errorf("video refs must never touch the structured store")
	}
}

func TestStoreExport_NoIDFails(t *testing.T) {
	s := NewStoreExportStrategy(&fakeStore{}, nil)
	ref := AssetRef{Entry: models.AssetEntry{PresentationType: models.SlotPresentationSlides}}
	if _, err := s.Attempt(context.Background(), ref); err == nil {
		t.Fatalf("missing id must fail so the chain can derive one")
	}
}

func TestDerivedID_RecoversFromURL(t *testing.T) {
	store := &fakeStore{
		files: map[string][]byte{"ABC123": []byte("pptx-bytes")},
		names: map[string]string{"ABC123": "deck.pptx"},
	}
	s := NewDerivedIDStrategy(store)

	url := "https://docs.google.com/presentation/d/ABC123/edit"
	ref := AssetRef{
		ContentID: uuid.New(),
		Entry: models.AssetEntry{
			PresentationType: models.SlotPresentationSlides,
			DriveURL:         &url,
		},
	}

	artifact, err := s.Attempt(context.Background(), ref)
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if string(artifact.Data) != "pptx-bytes" {
		t.Errorf("wrong data: %q", artifact.Data)
	}
}

func TestDerivedID_SkipsWhenIDAlreadyKnown(t *testing.T) {
	s := NewDerivedIDStrategy(&fakeStore{})
	id := "ABC123"
	url := "https://docs.google.com/presentation/d/ABC123/edit"
	ref := AssetRef{Entry: models.AssetEntry{
		PresentationType: models.SlotPresentationSlides,
		DriveID:          &id,
		DriveURL:         &url,
	}}
	if _, err := s.Attempt(context.Background(), ref); err == nil {
		t.Fatalf("strategy must decline when the id was already known")
	}
}

func TestAuthorizedExport_SynthesizesDeckTemplate(t *testing.T) {
	store := &fakeStore{fetchBody: []byte("exported")}
	s := NewAuthorizedExportStrategy(store)

	id := "XYZ789"
	ref := AssetRef{Entry: models.AssetEntry{
		PresentationType: models.SlotRecapSlides,
		DriveID:          &id,
	}}

	artifact, err := s.Attempt(context.Background(), ref)
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if string(artifact.Data) != "exported" {
		t.Errorf("wrong data: %q", artifact.Data)
	}
	want := fmt.Sprintf(assets.DeckExportTemplate, "XYZ789")
	if store.fetchedURL != want {
		t.Errorf("fetched %q, want synthesized template %q", store.fetchedURL, want)
	}
}

func TestAuthorizedExport_ExplicitExportURLWins(t *testing.T) {
	store := &fakeStore{fetchBody: []byte("exported")}
	s := NewAuthorizedExportStrategy(store)

	id := "XYZ789"
	export := "https://docs.google.com/presentation/d/XYZ789/export/pptx?custom=1"
	ref := AssetRef{Entry: models.AssetEntry{
		PresentationType: models.SlotRecapSlides,
		DriveID:          &id,
		ExportURL:        &export,
	}}

	if _, err := s.Attempt(context.Background(), ref); err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if store.fetchedURL != export {
		t.Errorf("explicit export url should win, fetched %q", store.fetchedURL)
	}
}

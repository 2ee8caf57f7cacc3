package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Native Google formats have no binary content of their own; they must be
// exported. Anything else is downloaded as-is.
const (
	googleSlidesMime = "application/vnd.google-apps.presentation"
	googleDocsMime   = "application/vnd.google-apps.document"
	googleSheetsMime = "application/vnd.google-apps.spreadsheet"

	pptxMime = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DriveService wraps the Drive API for metadata lookups, native-document
// exports and raw media downloads. The same credentials back a bearer
// client for fetching export-style URLs outside the API surface.
type DriveService struct {
	srv        *drive.Service
	authClient *http.Client
}

func NewDriveService(ctx context.Context, credentialsFile string) (*DriveService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	authClient := oauth2.NewClient(ctx, creds.TokenSource)
	authClient.Timeout = 5 * time.Minute

	return &DriveService{srv: srv, authClient: authClient}, nil
}

// GetMetadata returns the file's name, mime type and size. Native Google
// documents report size 0.
func (s *DriveService) GetMetadata(ctx context.Context, id string) (string, string, int64, error) {
	f, err := s.srv.Files.Get(id).
		Fields("name", "mimeType", "size").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to fetch drive metadata for %s: %w", id, err)
	}
	return f.Name, f.MimeType, f.Size, nil
}

// ExportDeck converts a native presentation to pptx. Files that already
// hold binary deck content fall back to a plain download.
func (s *DriveService) ExportDeck(ctx context.Context, id string) ([]byte, error) {
	_, mimeType, _, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	exportMime := ""
	switch mimeType {
	case googleSlidesMime:
		exportMime = pptxMime
	case googleDocsMime:
		exportMime = docxMime
	case googleSheetsMime:
		exportMime = xlsxMime
	}
	if exportMime == "" {
		return s.DownloadMedia(ctx, id)
	}

	resp, err := s.srv.Files.Export(id, exportMime).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to export drive file %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive export for %s: %w", id, err)
	}
	return data, nil
}

// DownloadMedia fetches the file's stored bytes without conversion.
func (s *DriveService) DownloadMedia(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.srv.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download drive file %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive download for %s: %w", id, err)
	}
	return data, nil
}

// AuthorizedFetch GETs an arbitrary URL with the service's bearer token,
// for export-style references the Files API does not cover.
func (s *DriveService) AuthorizedFetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.authClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authorized fetch of %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authorized fetch of %s returned status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

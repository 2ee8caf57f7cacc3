package acquire

import (
	"context"
	"errors"
	"fmt"

	"sessionhub-backend/internal/assets"
	"sessionhub-backend/internal/models"
)

// StructuredStore is the slice of the Drive client the strategies use.
type StructuredStore interface {
	GetMetadata(ctx context.Context, id string) (name, mimeType string, size int64, err error)
	ExportDeck(ctx context.Context, id string) ([]byte, error)
	DownloadMedia(ctx context.Context, id string) ([]byte, error)
	AuthorizedFetch(ctx context.Context, rawURL string) ([]byte, error)
}

// VideoFetcher downloads raw media for video references.
type VideoFetcher interface {
	DownloadVideo(ctx context.Context, videoURL string) (data []byte, mimeType string, err error)
}

// videoMetadataLookup is implemented by fetchers that can discover a
// display title without downloading.
type videoMetadataLookup interface {
	GetVideoMetadata(ctx context.Context, videoURL string) (title, channel, thumbnail string, err error)
}

// storeExportStrategy is the first link in the chain: export or download
// through the structured store using the id already on the entry.
// Deck slots go through native-document export; video references fetch
// raw media instead.
type storeExportStrategy struct {
	store  StructuredStore
	videos VideoFetcher
}

func NewStoreExportStrategy(store StructuredStore, videos VideoFetcher) Strategy {
	return &storeExportStrategy{store: store, videos: videos}
}

func (s *storeExportStrategy) Name() string { return "store_export" }

func (s *storeExportStrategy) Attempt(ctx context.Context, ref AssetRef) (*Artifact, error) {
	if ref.Entry.Source == models.SourceYouTube {
		if s.videos == nil {
			return nil, errors.New("no video fetcher configured")
		}
		if ref.Entry.DriveURL == nil || *ref.Entry.DriveURL == "" {
			return nil, errors.New("video entry has no reference url")
		}
		data, mimeType, err := s.videos.DownloadVideo(ctx, *ref.Entry.DriveURL)
		if err != nil {
			return nil, err
		}

		artifact := &Artifact{Data: data, MimeType: mimeType}
		if lookup, ok := s.videos.(videoMetadataLookup); ok {
			if title, _, _, merr := lookup.GetVideoMetadata(ctx, *ref.Entry.DriveURL); merr == nil && title != "" {
				artifact.Name = title
			}
		}
		return artifact, nil
	}

	if ref.Entry.DriveID == nil || *ref.Entry.DriveID == "" {
		return nil, errors.New("no known id on entry")
	}
	return fetchByID(ctx, s.store, ref.Entry, *ref.Entry.DriveID)
}

// derivedIDStrategy retries the store path after deriving an id from the
// original reference URL. It only applies when no id was known, so a bad
// stored id does not shadow a good URL-borne one.
type derivedIDStrategy struct {
	store StructuredStore
}

func NewDerivedIDStrategy(store StructuredStore) Strategy {
	return &derivedIDStrategy{store: store}
}

func (s *derivedIDStrategy) Name() string { return "store_export_derived_id" }

func (s *derivedIDStrategy) Attempt(ctx context.Context, ref AssetRef) (*Artifact, error) {
	if ref.Entry.DriveID != nil && *ref.Entry.DriveID != "" {
		return nil, errors.New("id already known, nothing to derive")
	}
	if ref.Entry.DriveURL == nil || *ref.Entry.DriveURL == "" {
		return nil, errors.New("no reference url to derive an id from")
	}

	id := assets.ExtractForSlot(ref.Entry.PresentationType, *ref.Entry.DriveURL)
	if id == "" {
		return nil, fmt.Errorf("could not derive an id from %q", *ref.Entry.DriveURL)
	}
	return fetchByID(ctx, s.store, ref.Entry, id)
}

func fetchByID(ctx context.Context, store StructuredStore, entry models.AssetEntry, id string) (*Artifact, error) {
	name, _, _, metaErr := store.GetMetadata(ctx, id)

	var data []byte
	var err error
	if entry.PresentationType.IsDeck() {
		data, err = store.ExportDeck(ctx, id)
	} else {
		data, err = store.DownloadMedia(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{Data: data, MimeType: entry.ContentType}
	if metaErr == nil && name != "" {
		artifact.Name = name
	}
	return artifact, nil
}

// authorizedExportStrategy fetches the export-style reference through the
// structured store's own transport, reusing its bearer token.
type authorizedExportStrategy struct {
	store StructuredStore
}

func NewAuthorizedExportStrategy(store StructuredStore) Strategy {
	return &authorizedExportStrategy{store: store}
}

func (s *authorizedExportStrategy) Name() string { return "authorized_export_fetch" }

func (s *authorizedExportStrategy) Attempt(ctx context.Context, ref AssetRef) (*Artifact, error) {
	target := ""
	if ref.Entry.ExportURL != nil && *ref.Entry.ExportURL != "" {
		target = *ref.Entry.ExportURL
	} else if ref.Entry.PresentationType.IsDeck() && ref.Entry.DriveID != nil && *ref.Entry.DriveID != "" {
		target = fmt.Sprintf(assets.DeckExportTemplate, *ref.Entry.DriveID)
	}
	if target == "" {
		return nil, errors.New("no export reference to fetch")
	}

	data, err := s.store.AuthorizedFetch(ctx, target)
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, MimeType: ref.Entry.ContentType}, nil
}

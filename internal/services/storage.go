package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"

	"sessionhub-backend/internal/models"
)

// StorageError is a failure talking to the object store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StorageSink persists fetched artifacts into a GCS bucket and mints an
// access URL for each object. Buckets serving public assets get plain
// object URLs; private buckets get V4 signed URLs, with a separate
// signing key and an ACL grant as fallbacks when ambient credentials
// cannot sign.
type StorageSink struct {
	client       *storage.Client
	bucket       string
	publicAssets bool
	signedURLTTL time.Duration
	signingCreds *google.Credentials
}

func NewStorageSink(ctx context.Context, bucket string, publicAssets bool, signedURLTTL time.Duration, altSigningCredsFile string) (*StorageSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	sink := &StorageSink{
		client:       client,
		bucket:       bucket,
		publicAssets: publicAssets,
		signedURLTTL: signedURLTTL,
	}
	if sink.signedURLTTL <= 0 {
		sink.signedURLTTL = 7 * 24 * time.Hour
	}

	if altSigningCredsFile != "" {
		data, err := os.ReadFile(altSigningCredsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, storage.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing credentials: %w", err)
		}
		sink.signingCreds = creds
	}

	return sink, nil
}

// Store uploads one artifact under a deterministic per-slot prefix and
// returns the object key plus an access URL.
func (s *StorageSink) Store(ctx context.Context, contentID uuid.UUID, slot models.AssetSlot, data []byte, mimeType string) (key, accessURL string, err error) {
	key = fmt.Sprintf("sessions/%s/%s/%s%s", contentID, slot, uuid.NewString(), extensionFor(mimeType))

	uploadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(uploadCtx)
	if mimeType != "" {
		w.ContentType = mimeType
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", "", &StorageError{Op: "upload", Key: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", "", &StorageError{Op: "upload", Key: key, Err: err}
	}

	accessURL, err = s.AccessURL(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, accessURL, nil
}

// AccessURL mints a URL for an existing object.
func (s *StorageSink) AccessURL(ctx context.Context, key string) (string, error) {
	if s.publicAssets {
		return s.publicURL(key), nil
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(s.signedURLTTL),
	}

	signed, err := s.client.Bucket(s.bucket).SignedURL(key, opts)
	if err == nil {
		return signed, nil
	}
	log.Printf("Ambient credentials cannot sign URLs: %v", err)

	if s.signingCreds != nil {
		if signed, aerr := s.signWithAltCreds(key, opts); aerr == nil {
			return signed, nil
		} else {
			log.Printf("Alternate signing credentials failed: %v", aerr)
		}
	}

	// Last resort: grant public read on the single object.
	acl := s.client.Bucket(s.bucket).Object(key).ACL()
	if aerr := acl.Set(ctx, storage.AllUsers, storage.RoleReader); aerr != nil {
		return "", &StorageError{Op: "sign", Key: key, Err: fmt.Errorf("signing failed (%v) and ACL grant failed: %w", err, aerr)}
	}
	log.Printf("Fell back to a public ACL grant for %s", key)
	return s.publicURL(key), nil
}

func (s *StorageSink) signWithAltCreds(key string, opts *storage.SignedURLOptions) (string, error) {
	conf, err := google.JWTConfigFromJSON(s.signingCreds.JSON)
	if err != nil {
		return "", fmt.Errorf("signing credentials are not a service account key: %w", err)
	}

	signedOpts := *opts
	signedOpts.GoogleAccessID = conf.Email
	signedOpts.PrivateKey = conf.PrivateKey
	return storage.SignedURL(s.bucket, key, &signedOpts)
}

func (s *StorageSink) publicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case pptxMime:
		return ".pptx"
	case docxMime:
		return ".docx"
	case xlsxMime:
		return ".xlsx"
	case "application/pdf":
		return ".pdf"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ""
	}
}

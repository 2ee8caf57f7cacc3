package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultRetries bounds each HTTP strategy's attempts.
	DefaultRetries = 3
	// DefaultChunkSize is the range-request window for chunked fetches.
	DefaultChunkSize = 8 << 20
)

// withRetry runs fn up to attempts times with exponential backoff plus
// jitter between tries, the same shape the background queues use.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		backoff := time.Duration(1<<i)*time.Second + time.Duration(rand.Intn(500))*time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}

func fetchTarget(ref AssetRef) (string, error) {
	if ref.Entry.ExportURL != nil && *ref.Entry.ExportURL != "" {
		return *ref.Entry.ExportURL, nil
	}
	if ref.Entry.DriveURL != nil && *ref.Entry.DriveURL != "" {
		return *ref.Entry.DriveURL, nil
	}
	return "", errors.New("entry carries no fetchable url")
}

// directFetchStrategy is a single-shot unauthenticated GET of the entry's
// best reference URL.
type directFetchStrategy struct {
	client  *http.Client
	retries int
}

func NewDirectFetchStrategy(client *http.Client, retries int) Strategy {
	if client == nil {
		client = http.DefaultClient
	}
	if retries <= 0 {
		retries = DefaultRetries
	}
	return &directFetchStrategy{client: client, retries: retries}
}

func (s *directFetchStrategy) Name() string { return "direct_fetch" }

func (s *directFetchStrategy) Attempt(ctx context.Context, ref AssetRef) (*Artifact, error) {
	target, err := fetchTarget(ref)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = withRetry(ctx, s.retries, func() error {
		var ferr error
		data, ferr = getAll(ctx, s.client, target, nil)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, MimeType: ref.Entry.ContentType}, nil
}

// chunkedFetchStrategy pulls the target in byte ranges, for hosts that
// reset long single-shot transfers of large exports.
type chunkedFetchStrategy struct {
	client    *http.Client
	retries   int
	chunkSize int64
}

func NewChunkedFetchStrategy(client *http.Client, retries int, chunkSize int64) Strategy {
	if client == nil {
		client = http.DefaultClient
	}
	if retries <= 0 {
		retries = DefaultRetries
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &chunkedFetchStrategy{client: client, retries: retries, chunkSize: chunkSize}
}

func (s *chunkedFetchStrategy) Name() string { return "chunked_fetch" }

func (s *chunkedFetchStrategy) Attempt(ctx context.Context, ref AssetRef) (*Artifact, error) {
	target, err := fetchTarget(ref)
	if err != nil {
		return nil, err
	}

	var data []byte
	var offset int64
	for {
		var chunk []byte
		var status int
		var total int64
		err = withRetry(ctx, s.retries, func() error {
			var ferr error
			chunk, status, total, ferr = getRange(ctx, s.client, target, offset, offset+s.chunkSize-1)
			return ferr
		})
		if err != nil {
			return nil, err
		}

		// Requesting past EOF happens when the size is an exact multiple
		// of the chunk size and the host never declared a total.
		if status == http.StatusRequestedRangeNotSatisfiable {
			if len(data) == 0 {
				return nil, errors.New("range not satisfiable on first chunk")
			}
			break
		}

		data = append(data, chunk...)
		offset += int64(len(chunk))

		// A plain 200 means the host ignored the range header and sent
		// everything; 206 with a short chunk means we reached the end,
		// as does hitting the total declared in Content-Range.
		if status == http.StatusOK || int64(len(chunk)) < s.chunkSize {
			break
		}
		if total > 0 && offset >= total {
			break
		}
	}
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}
	return &Artifact{Data: data, MimeType: ref.Entry.ContentType}, nil
}

// cookieFetchStrategy replays an operator-supplied session cookie against
// the target. Construct it only when a cookie is configured.
type cookieFetchStrategy struct {
	client  *http.Client
	cookie  string
	retries int
}

func NewCookieFetchStrategy(client *http.Client, cookie string, retries int) Strategy {
	if client == nil {
		client = http.DefaultClient
	}
	if retries <= 0 {
		retries = DefaultRetries
	}
	return &cookieFetchStrategy{client: client, cookie: cookie, retries: retries}
}

func (s *cookieFetchStrategy) Name() string { return "cookie_fetch" }

func (s *cookieFetchStrategy) Attempt(ctx context.Context, ref AssetRef) (*Artifact, error) {
	if s.cookie == "" {
		return nil, errors.New("no session cookie configured")
	}
	target, err := fetchTarget(ref)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Cookie": s.cookie}
	var data []byte
	err = withRetry(ctx, s.retries, func() error {
		var ferr error
		data, ferr = getAll(ctx, s.client, target, headers)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, MimeType: ref.Entry.ContentType}, nil
}

func getAll(ctx context.Context, client *http.Client, target string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// getRange fetches one byte window. It reports the total object size when
// the host declares one in Content-Range (0 when unknown), and treats 416
// as a non-error so the caller can recognize end-of-file.
func getRange(ctx context.Context, client *http.Client, target string, from, to int64) ([]byte, int, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", from, to))

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, resp.StatusCode, 0, nil
	default:
		return nil, resp.StatusCode, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, 0, err
	}

	var total int64
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if i := strings.LastIndex(cr, "/"); i >= 0 {
			if n, perr := strconv.ParseInt(cr[i+1:], 10, 64); perr == nil {
				total = n
			}
		}
	}
	return body, resp.StatusCode, total, nil
}

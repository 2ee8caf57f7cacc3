package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"
)

// YouTubeService resolves video references: lightweight metadata through
// the oEmbed endpoint, raw media through the stream API.
type YouTubeService struct {
	httpClient *http.Client
	ytClient   *yt.Client
}

type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ytClient:   &yt.Client{},
	}
}

// GetVideoMetadata fetches title, channel and thumbnail for a video URL
// without touching the stream API.
func (s *YouTubeService) GetVideoMetadata(ctx context.Context, videoURL string) (title, channel, thumbnail string, err error) {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(videoURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to fetch video metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var meta oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", "", "", fmt.Errorf("failed to decode oembed response: %w", err)
	}
	return meta.Title, meta.AuthorName, meta.ThumbnailURL, nil
}

// DownloadVideo fetches the best combined audio+video stream for a URL.
func (s *YouTubeService) DownloadVideo(ctx context.Context, videoURL string) ([]byte, string, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, "", fmt.Errorf("no playable formats available")
	}

	best := formats[0]
	for _, f := range formats {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	stream, _, err := s.ytClient.GetStreamContext(ctx, video, &best)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open video stream: %w", err)
	}
	defer stream.Close()

	const maxVideoBytes = 2 << 30 // 2GB safety cap
	limited := io.LimitReader(stream, maxVideoBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read video stream: %w", err)
	}
	if len(data) > maxVideoBytes {
		return nil, "", fmt.Errorf("video stream exceeds %d MB limit", maxVideoBytes/(1024*1024))
	}

	mimeType := strings.TrimSpace(strings.Split(best.MimeType, ";")[0])
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	return data, mimeType, nil
}

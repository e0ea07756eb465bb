package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/kkdai/youtube/v2"

	"github.com/iconidentify/shortsrelay/internal/domain"
)

// errNoProgressiveMP4 is returned when a video offers no mp4 stream with audio.
var errNoProgressiveMP4 = errors.New("no mp4 format with audio available")

// YouTubeFetcher downloads progressive mp4 streams with the kkdai/youtube client.
// It needs no external binaries but cannot merge separate video and audio streams.
type YouTubeFetcher struct {
	client youtube.Client
	dir    string
	logger *slog.Logger
}

// NewYouTubeFetcher creates a fetcher writing into dir.
func NewYouTubeFetcher(dir string, logger *slog.Logger) *YouTubeFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTubeFetcher{
		client: youtube.Client{},
		dir:    dir,
		logger: logger,
	}
}

// Fetch resolves url and streams the best progressive mp4 to disk.
func (f *YouTubeFetcher) Fetch(ctx context.Context, url string) (*domain.MediaAsset, error) {
	video, err := f.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, domain.NewFetchError(url, "get video", err)
	}

	format, err := selectFormat(video.Formats)
	if err != nil {
		return nil, domain.NewFetchError(url, "select format", err)
	}

	stream, size, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, domain.NewFetchError(url, "get stream", err)
	}
	defer stream.Close()

	path := filepath.Join(f.dir, uuid.New().String()+".mp4")
	if err := writeStream(path, stream); err != nil {
		return nil, domain.NewFetchError(url, "write stream", err)
	}

	f.logger.Debug("video fetched",
		"video_id", video.ID,
		"itag", format.ItagNo,
		"quality", format.QualityLabel,
		"size", size,
	)

	return &domain.MediaAsset{
		LocalVideoPath: path,
		Title:          video.Title,
		ThumbnailURL:   bestThumbnail(video.Thumbnails),
	}, nil
}

// writeStream copies r into a new file at path, removing it on failure.
func writeStream(path string, r io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	_, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// selectFormat picks the tallest mp4 format that carries audio, breaking ties on bitrate.
func selectFormat(formats youtube.FormatList) (*youtube.Format, error) {
	var candidates []*youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || !strings.HasPrefix(f.MimeType, "video/mp4") {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return nil, errNoProgressiveMP4
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Height != candidates[j].Height {
			return candidates[i].Height > candidates[j].Height
		}
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	return candidates[0], nil
}

// bestThumbnail returns the URL of the largest thumbnail, or "".
func bestThumbnail(thumbs youtube.Thumbnails) string {
	var (
		best string
		area uint
	)
	for _, t := range thumbs {
		if a := t.Width * t.Height; best == "" || a > area {
			best, area = t.URL, a
		}
	}
	return best
}

// Package fetcher retrieves videos referenced by links into local storage.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iconidentify/shortsrelay/internal/config"
	"github.com/iconidentify/shortsrelay/internal/domain"
)

// Fetcher downloads the video behind url into the download directory.
// On success the returned asset's file exists on disk and belongs to the caller.
// Failures are reported as *domain.FetchError and leave no files behind.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.MediaAsset, error)
}

// New builds the fetcher selected by cfg.Backend.
func New(cfg config.FetcherConfig, downloadDir string, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Backend {
	case config.FetcherYtDLP, "":
		return NewYtDLPFetcher(cfg, downloadDir, logger), nil
	case config.FetcherYouTube:
		return NewYouTubeFetcher(downloadDir, logger), nil
	default:
		return nil, fmt.Errorf("unknown fetcher backend %q", cfg.Backend)
	}
}

package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/iconidentify/shortsrelay/internal/config"
	"github.com/iconidentify/shortsrelay/internal/domain"
)

// HTTPDownloader implements AssetDownloader using plain HTTP GET requests.
type HTTPDownloader struct {
	// client carries the overall request timeout.
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPDownloader creates a new HTTP-based asset downloader.
func NewHTTPDownloader(cfg config.DownloadConfig) *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger used for download diagnostics.
func (d *HTTPDownloader) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// DownloadToFile streams url into target. Only a 200 response counts as success.
// On failure the partially written target is removed, best effort.
func (d *HTTPDownloader) DownloadToFile(ctx context.Context, url, target string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send request: %w", domain.ErrThumbnailFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code: %d", domain.ErrThumbnailFailed, resp.StatusCode)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", target, cerr)
		}
		if err != nil {
			if rmErr := os.Remove(target); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				d.logger.Debug("remove partial download failed", "path", target, "error", rmErr)
			}
		}
	}()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: write body: %w", domain.ErrThumbnailFailed, err)
	}

	d.logger.Debug("asset downloaded", "path", target, "bytes", n)
	return nil
}

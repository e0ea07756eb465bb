package downloader

import "context"

// AssetDownloader fetches small auxiliary resources, such as thumbnails, to disk.
type AssetDownloader interface {
	// DownloadToFile writes the body at url to target.
	// A non-nil error means no usable file was written; the caller decides
	// whether that matters.
	DownloadToFile(ctx context.Context, url, target string) error
}

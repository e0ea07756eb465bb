package domain

import (
	"path/filepath"
	"strings"
)

// ThumbnailSuffix is appended to a video's base name to form its thumbnail path.
const ThumbnailSuffix = ".thumb.jpg"

// MediaAsset is a video fetched to local disk.
// LocalVideoPath exists when the asset is returned; the pipeline owns its deletion.
type MediaAsset struct {
	LocalVideoPath string
	Title          string
	ThumbnailURL   string
}

// HasThumbnail reports whether the source offered a remote thumbnail.
func (m *MediaAsset) HasThumbnail() bool {
	return m != nil && m.ThumbnailURL != ""
}

// ThumbnailPath derives the sibling path the thumbnail is written to.
func (m *MediaAsset) ThumbnailPath() string {
	return strings.TrimSuffix(m.LocalVideoPath, filepath.Ext(m.LocalVideoPath)) + ThumbnailSuffix
}

// ThumbnailAsset is a thumbnail image written next to its video.
type ThumbnailAsset struct {
	LocalPath string
}

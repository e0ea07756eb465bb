package domain

import "strings"

const (
	shortsPathMarker  = "youtube.com/shorts/"
	shortDomainMarker = "youtu.be/"
	shortsWordMarker  = "shorts"
)

// IsShortsLink reports whether text references a YouTube Shorts video.
//
// A youtu.be link only qualifies when the word "shorts" also appears somewhere
// in the text, not necessarily inside the URL.
func IsShortsLink(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, shortsPathMarker) {
		return true
	}
	return strings.Contains(lower, shortDomainMarker) && strings.Contains(lower, shortsWordMarker)
}

package domain

import "errors"

// Domain errors.
var (
	// ErrUnauthorized is returned when the webhook path secret does not match.
	ErrUnauthorized = errors.New("webhook token mismatch")

	// ErrNotShortsLink is returned when a message does not reference a Shorts video.
	ErrNotShortsLink = errors.New("not a shorts link")

	// ErrNoMessage is returned when an update carries no usable chat or text.
	ErrNoMessage = errors.New("update has no usable message")

	// ErrFetchFailed is returned when the media could not be resolved or downloaded.
	ErrFetchFailed = errors.New("media fetch failed")

	// ErrThumbnailFailed is returned when a thumbnail could not be downloaded.
	ErrThumbnailFailed = errors.New("thumbnail download failed")

	// ErrDeliveryFailed is returned when the platform rejected an upload.
	ErrDeliveryFailed = errors.New("video delivery failed")

	// ErrSlotUnavailable is returned when a concurrency slot could not be acquired.
	ErrSlotUnavailable = errors.New("concurrency slot unavailable")

	// ErrJobNotFound is returned when a job is not being tracked.
	ErrJobNotFound = errors.New("job not found")
)

// FetchError wraps a retrieval failure with the URL it concerned.
type FetchError struct {
	URL string
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// NewFetchError creates a new FetchError.
func NewFetchError(url, op string, err error) *FetchError {
	return &FetchError{
		URL: url,
		Op:  op,
		Err: err,
	}
}

// Package ffmpeg wraps the ffprobe binary for reading video metadata.
package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// ErrNotAvailable is returned when ffprobe cannot be found.
var ErrNotAvailable = errors.New("ffprobe not available")

// Prober reads stream metadata with ffprobe.
type Prober struct {
	ffprobePath string
}

// NewProber locates ffprobe in PATH.
func NewProber() (*Prober, error) {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	return &Prober{ffprobePath: path}, nil
}

// NewProberWithPath uses the ffprobe binary at path.
func NewProberWithPath(path string) *Prober {
	return &Prober{ffprobePath: path}
}

// VideoInfo contains metadata about a video file.
type VideoInfo struct {
	Duration time.Duration
	Width    int
	Height   int
	HasAudio bool
}

// Seconds returns the duration rounded to whole seconds.
func (v *VideoInfo) Seconds() int {
	return int(math.Round(v.Duration.Seconds()))
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// GetVideoInfo extracts metadata from a video file.
func (p *Prober) GetVideoInfo(ctx context.Context, videoPath string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (*VideoInfo, error) {
	var parsed probeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	if parsed.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			info.Duration = time.Duration(dur * float64(time.Second))
		}
	}

	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "audio":
			info.HasAudio = true
		case "video":
			if info.Width == 0 {
				info.Width = s.Width
			}
			if info.Height == 0 {
				info.Height = s.Height
			}
		}
	}
	return info, nil
}

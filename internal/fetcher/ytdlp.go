package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iconidentify/shortsrelay/internal/config"
	"github.com/iconidentify/shortsrelay/internal/domain"
)

// YtDLPFetcher shells out to the yt-dlp binary.
type YtDLPFetcher struct {
	binaryPath  string
	format      string
	mergeFormat string
	dir         string
	logger      *slog.Logger
}

// NewYtDLPFetcher creates a fetcher writing into dir.
func NewYtDLPFetcher(cfg config.FetcherConfig, dir string, logger *slog.Logger) *YtDLPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	binary := cfg.BinaryPath
	if binary == "" {
		binary = "yt-dlp" // Assumes yt-dlp is in PATH
	}
	return &YtDLPFetcher{
		binaryPath:  binary,
		format:      cfg.Format,
		mergeFormat: cfg.MergeFormat,
		dir:         dir,
		logger:      logger,
	}
}

// ytdlpInfo is the subset of yt-dlp's info JSON we read.
type ytdlpInfo struct {
	Title              string `json:"title"`
	Thumbnail          string `json:"thumbnail"`
	Filename           string `json:"_filename"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

// Fetch downloads url with yt-dlp and returns the merged file.
func (f *YtDLPFetcher) Fetch(ctx context.Context, url string) (*domain.MediaAsset, error) {
	name := uuid.New().String()
	outTpl := filepath.Join(f.dir, name+".%(ext)s")

	cmd := exec.CommandContext(ctx, f.binaryPath, f.args(outTpl, url)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.removeArtifacts(name)
		return nil, domain.NewFetchError(url, "yt-dlp", fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(stderr.String())))
	}

	info, err := parseInfo(stdout.Bytes())
	if err != nil {
		f.removeArtifacts(name)
		return nil, domain.NewFetchError(url, "parse yt-dlp output", err)
	}

	path, err := f.resolvePath(name, info)
	if err != nil {
		f.removeArtifacts(name)
		return nil, domain.NewFetchError(url, "locate download", err)
	}

	return &domain.MediaAsset{
		LocalVideoPath: path,
		Title:          info.Title,
		ThumbnailURL:   info.Thumbnail,
	}, nil
}

func (f *YtDLPFetcher) args(outTpl, url string) []string {
	args := []string{}
	if f.format != "" {
		args = append(args, "-f", f.format)
	}
	if f.mergeFormat != "" {
		args = append(args, "--merge-output-format", f.mergeFormat)
	}
	return append(args,
		"--no-playlist",
		"-q", "--no-warnings", "--no-progress",
		"--no-simulate", "--dump-single-json",
		"-o", outTpl,
		"--", url,
	)
}

// parseInfo reads the info JSON; yt-dlp prints it as the last non-empty line.
func parseInfo(out []byte) (*ytdlpInfo, error) {
	var last []byte
	for _, ln := range bytes.Split(out, []byte("\n")) {
		if s := bytes.TrimSpace(ln); len(s) > 0 {
			last = s
		}
	}
	if last == nil {
		return nil, errors.New("yt-dlp returned no info JSON")
	}

	var info ytdlpInfo
	if err := json.Unmarshal(last, &info); err != nil {
		return nil, fmt.Errorf("decode info JSON: %w", err)
	}
	return &info, nil
}

// resolvePath finds the final file for name. Candidates are tried in order:
// the post-processed filepath, the prepared filename, then a directory scan.
func (f *YtDLPFetcher) resolvePath(name string, info *ytdlpInfo) (string, error) {
	var candidates []string
	for _, d := range info.RequestedDownloads {
		candidates = append(candidates, d.Filepath)
	}
	candidates = append(candidates, info.Filename)

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if st, err := os.Stat(c); err == nil && st.Mode().IsRegular() {
			return c, nil
		}
	}

	for _, m := range f.artifacts(name) {
		if isPartial(m) {
			continue
		}
		return m, nil
	}
	return "", fmt.Errorf("no output file for %s in %s", name, f.dir)
}

func (f *YtDLPFetcher) artifacts(name string) []string {
	matches, err := filepath.Glob(filepath.Join(f.dir, name+".*"))
	if err != nil {
		return nil
	}
	return matches
}

// removeArtifacts deletes every file yt-dlp may have left for name.
func (f *YtDLPFetcher) removeArtifacts(name string) {
	for _, m := range f.artifacts(name) {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.logger.Debug("remove fetch artifact failed", "path", m, "error", err)
		}
	}
}

func isPartial(path string) bool {
	return strings.HasSuffix(path, ".part") ||
		strings.HasSuffix(path, ".ytdl") ||
		strings.HasSuffix(path, domain.ThumbnailSuffix) ||
		strings.Contains(filepath.Base(path), ".temp.")
}

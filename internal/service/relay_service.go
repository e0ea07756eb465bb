package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/iconidentify/shortsrelay/internal/config"
	"github.com/iconidentify/shortsrelay/internal/domain"
	"github.com/iconidentify/shortsrelay/internal/downloader"
	"github.com/iconidentify/shortsrelay/internal/fetcher"
	"github.com/iconidentify/shortsrelay/internal/repository"
	"github.com/iconidentify/shortsrelay/pkg/telegram"
)

// Delivery sends results back to a chat.
type Delivery interface {
	SendMessage(chatID int64, text string) error
	SendChatAction(chatID int64, action string) error
	SendVideo(ctx context.Context, chatID int64, videoPath, caption, thumbPath string) (*telegram.DeliveryResult, error)
}

// SlotLimiter bounds how many jobs are between fetch and upload at once.
type SlotLimiter interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// RelayService runs the relay pipeline for one inbound message:
// classify, notify, acquire a slot, fetch, thumbnail, upload, clean up.
type RelayService struct {
	limiter    SlotLimiter
	fetcher    fetcher.Fetcher
	downloader downloader.AssetDownloader
	delivery   Delivery
	jobRepo    repository.JobRepository
	cfg        config.RelayConfig
	workerCfg  config.WorkerConfig
	logger     *slog.Logger
}

// NewRelayService creates a new relay service.
func NewRelayService(
	limiter SlotLimiter,
	f fetcher.Fetcher,
	dl downloader.AssetDownloader,
	delivery Delivery,
	jobRepo repository.JobRepository,
	relayCfg config.RelayConfig,
	workerCfg config.WorkerConfig,
	logger *slog.Logger,
) *RelayService {
	return &RelayService{
		limiter:    limiter,
		fetcher:    f,
		downloader: dl,
		delivery:   delivery,
		jobRepo:    jobRepo,
		cfg:        relayCfg,
		workerCfg:  workerCfg,
		logger:     logger,
	}
}

// Process runs one job to completion and returns it in its terminal stage.
// Every file created along the way is removed before Process returns.
func (s *RelayService) Process(ctx context.Context, event domain.InboundEvent) *domain.Job {
	job := domain.NewJob(event)
	logger := s.logger.With("job_id", job.ID, "chat_id", job.ChatID)

	if err := s.jobRepo.Track(ctx, job); err != nil {
		logger.Debug("job not tracked", "error", err)
	}

	if !domain.IsShortsLink(job.SourceText) {
		s.reject(ctx, logger, job)
		return job
	}

	s.advance(ctx, logger, job, domain.JobStageNotifyTyping)
	if err := s.delivery.SendChatAction(job.ChatID, telegram.ActionUploadVideo); err != nil {
		logger.Debug("chat action failed", "error", err)
	}

	var files []string
	defer func() {
		if len(files) > 0 {
			s.advance(ctx, logger, job, domain.JobStageCleanup)
			s.removeFiles(logger, files)
		}
		if !job.Stage.IsTerminal() {
			job.Advance(domain.JobStageDone)
		}
		s.update(ctx, logger, job)
		logger.Info("job finished", "stage", job.Stage, "uploaded", job.Uploaded)
	}()

	s.relay(ctx, logger, job, &files)
	return job
}

func (s *RelayService) reject(ctx context.Context, logger *slog.Logger, job *domain.Job) {
	job.MarkFailed(domain.JobStageRejected, domain.ErrNotShortsLink)
	s.update(ctx, logger, job)

	if err := s.delivery.SendMessage(job.ChatID, s.cfg.GuidanceText); err != nil {
		logger.Warn("guidance message not sent", "error", err)
	}
	logger.Debug("message rejected", "text", job.SourceText)
}

// relay holds a slot from fetch through upload. Created files are appended
// to files for the caller to remove.
func (s *RelayService) relay(ctx context.Context, logger *slog.Logger, job *domain.Job, files *[]string) {
	s.advance(ctx, logger, job, domain.JobStageWaitingSlot)
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		logger.Warn("no slot acquired", "error", err)
		job.MarkFailed(domain.JobStageFetchFailed, err)
		return
	}
	defer release()

	s.advance(ctx, logger, job, domain.JobStageFetching)
	asset, err := s.fetch(ctx, job.SourceText)
	if err != nil {
		logger.Warn("fetch failed", "url", job.SourceText, "error", err)
		job.MarkFailed(domain.JobStageFetchFailed, err)
		if err := s.delivery.SendMessage(job.ChatID, s.cfg.FailureText); err != nil {
			logger.Warn("failure message not sent", "error", err)
		}
		return
	}
	*files = append(*files, asset.LocalVideoPath)

	var thumbPath string
	if asset.HasThumbnail() {
		s.advance(ctx, logger, job, domain.JobStageThumbnail)
		thumb, err := s.downloadThumbnail(ctx, asset)
		if err != nil {
			// Thumbnails are optional; upload without one.
			logger.Debug("thumbnail skipped", "url", asset.ThumbnailURL, "error", err)
		} else {
			*files = append(*files, thumb.LocalPath)
			thumbPath = thumb.LocalPath
		}
	}

	s.advance(ctx, logger, job, domain.JobStageUploading)
	if err := s.upload(ctx, job, asset, thumbPath); err != nil {
		job.LastError = err.Error()
		logger.Warn("upload failed", "error", err)
		if s.cfg.NotifyUploadFailure {
			if err := s.delivery.SendMessage(job.ChatID, s.cfg.FailureText); err != nil {
				logger.Warn("failure message not sent", "error", err)
			}
		}
		return
	}
	job.Uploaded = true
	logger.Info("video delivered", "title", asset.Title)
}

func (s *RelayService) fetch(ctx context.Context, url string) (*domain.MediaAsset, error) {
	if s.workerCfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.workerCfg.FetchTimeout)
		defer cancel()
	}
	return s.fetcher.Fetch(ctx, url)
}

func (s *RelayService) downloadThumbnail(ctx context.Context, asset *domain.MediaAsset) (*domain.ThumbnailAsset, error) {
	target := asset.ThumbnailPath()
	if err := s.downloader.DownloadToFile(ctx, asset.ThumbnailURL, target); err != nil {
		return nil, err
	}
	return &domain.ThumbnailAsset{LocalPath: target}, nil
}

// upload sends the video once. A rejected upload is reported as ErrDeliveryFailed.
func (s *RelayService) upload(ctx context.Context, job *domain.Job, asset *domain.MediaAsset, thumbPath string) error {
	result, err := s.delivery.SendVideo(ctx, job.ChatID, asset.LocalVideoPath, asset.Title, thumbPath)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	if result == nil || !result.OK {
		var code int
		var desc string
		if result != nil {
			code, desc = result.ErrorCode, result.Description
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrDeliveryFailed, code, desc)
	}
	return nil
}

// removeFiles deletes job files. Failures are logged and otherwise ignored.
func (s *RelayService) removeFiles(logger *slog.Logger, files []string) {
	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("cleanup failed", "path", path, "error", err)
		}
	}
}

func (s *RelayService) advance(ctx context.Context, logger *slog.Logger, job *domain.Job, stage domain.JobStage) {
	job.Advance(stage)
	s.update(ctx, logger, job)
}

func (s *RelayService) update(ctx context.Context, logger *slog.Logger, job *domain.Job) {
	if err := s.jobRepo.Update(ctx, job); err != nil {
		logger.Debug("job update not recorded", "stage", job.Stage, "error", err)
	}
}

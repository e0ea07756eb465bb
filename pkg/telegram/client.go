// Package telegram delivers messages and videos through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/shortsrelay/pkg/ffmpeg"
)

const (
	// DefaultAPIEndpoint is the public Bot API endpoint template.
	DefaultAPIEndpoint = tgbotapi.APIEndpoint

	// MaxCaptionLength is the platform limit for media captions, in characters.
	MaxCaptionLength = 1024

	// ActionUploadVideo is the chat action shown while a video is being prepared.
	ActionUploadVideo = tgbotapi.ChatUploadVideo
)

// ErrRejected is returned when the Bot API answered with ok=false.
var ErrRejected = errors.New("telegram rejected request")

// Config holds Bot API connection settings.
type Config struct {
	Token          string
	APIEndpoint    string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

// VideoProber reads metadata from a local video file.
type VideoProber interface {
	GetVideoInfo(ctx context.Context, videoPath string) (*ffmpeg.VideoInfo, error)
}

// DeliveryResult mirrors the platform's answer to an upload.
type DeliveryResult struct {
	OK          bool
	ErrorCode   int
	Description string
}

// Client talks to the Bot API. Uploads use a separate bot with a longer
// HTTP timeout so large videos do not share the short request budget.
type Client struct {
	bot      *tgbotapi.BotAPI
	uploader *tgbotapi.BotAPI
	prober   VideoProber
	logger   *slog.Logger
}

// NewClient creates a client. It does not contact the API.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telegram")
	_ = tgbotapi.SetLogger(&slogBotLogger{log: logger})

	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = DefaultAPIEndpoint
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 10 * time.Minute
	}

	return &Client{
		bot:      newBot(cfg.Token, cfg.APIEndpoint, cfg.RequestTimeout),
		uploader: newBot(cfg.Token, cfg.APIEndpoint, cfg.UploadTimeout),
		logger:   logger,
	}
}

// newBot builds a BotAPI without the getMe round trip tgbotapi.NewBotAPI performs.
func newBot(token, endpoint string, timeout time.Duration) *tgbotapi.BotAPI {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)
	return bot
}

// SetProber enables duration metadata on uploaded videos.
func (c *Client) SetProber(p VideoProber) {
	c.prober = p
}

// SendMessage sends a plain text message.
func (c *Client) SendMessage(chatID int64, text string) error {
	resp, err := c.bot.Request(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("send message: %w", wrapAPIError(resp, err))
	}
	return nil
}

// SendChatAction shows a transient status such as ActionUploadVideo.
func (c *Client) SendChatAction(chatID int64, action string) error {
	resp, err := c.bot.Request(tgbotapi.NewChatAction(chatID, action))
	if err != nil {
		return fmt.Errorf("send chat action: %w", wrapAPIError(resp, err))
	}
	return nil
}

// SetWebhook registers url as the update destination.
func (c *Client) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("parse webhook url: %w", err)
	}
	if resp, err := c.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", wrapAPIError(resp, err))
	}
	return nil
}

// SendVideo uploads the file at videoPath once, with an optional thumbnail.
// A rejected upload returns a non-OK result together with ErrRejected;
// transport failures return a nil result.
func (c *Client) SendVideo(ctx context.Context, chatID int64, videoPath, caption, thumbPath string) (*DeliveryResult, error) {
	video, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer video.Close()

	cfg := tgbotapi.NewVideo(chatID, tgbotapi.FileReader{
		Name:   filepath.Base(videoPath),
		Reader: video,
	})
	cfg.Caption = truncateCaption(caption)
	cfg.SupportsStreaming = true

	if thumbPath != "" {
		thumb, err := os.Open(thumbPath)
		if err != nil {
			c.logger.Debug("thumbnail not attached", "path", thumbPath, "error", err)
		} else {
			defer thumb.Close()
			cfg.Thumb = tgbotapi.FileReader{
				Name:   filepath.Base(thumbPath),
				Reader: thumb,
			}
		}
	}

	if c.prober != nil {
		if info, err := c.prober.GetVideoInfo(ctx, videoPath); err != nil {
			c.logger.Debug("video probe failed", "path", videoPath, "error", err)
		} else {
			cfg.Duration = info.Seconds()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := c.uploader.Request(cfg)
	if err != nil {
		if result := rejection(resp, err); result != nil {
			return result, fmt.Errorf("send video: %w", wrapAPIError(resp, err))
		}
		return nil, fmt.Errorf("send video: %w", err)
	}

	return &DeliveryResult{
		OK:          resp.Ok,
		ErrorCode:   resp.ErrorCode,
		Description: resp.Description,
	}, nil
}

// asAPIError extracts a Bot API rejection, returned by value or by pointer
// depending on the library call path.
func asAPIError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}

// rejection describes a Bot API refusal, or returns nil for transport failures.
// Multipart uploads leave Error.Code unset, so the status comes from resp when present.
func rejection(resp *tgbotapi.APIResponse, err error) *DeliveryResult {
	apiErr, ok := asAPIError(err)
	if !ok {
		return nil
	}
	result := &DeliveryResult{ErrorCode: apiErr.Code, Description: apiErr.Message}
	if resp != nil && !resp.Ok {
		result.ErrorCode = resp.ErrorCode
		if resp.Description != "" {
			result.Description = resp.Description
		}
	}
	return result
}

// wrapAPIError marks Bot API rejections with ErrRejected.
func wrapAPIError(resp *tgbotapi.APIResponse, err error) error {
	if r := rejection(resp, err); r != nil {
		return fmt.Errorf("%w: %d %s", ErrRejected, r.ErrorCode, r.Description)
	}
	return err
}

func truncateCaption(s string) string {
	if utf8.RuneCountInString(s) <= MaxCaptionLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxCaptionLength])
}

// slogBotLogger routes tgbotapi's internal logging to slog.
type slogBotLogger struct {
	log *slog.Logger
}

func (l *slogBotLogger) Println(v ...interface{}) {
	l.log.Debug(fmt.Sprint(v...))
}

func (l *slogBotLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

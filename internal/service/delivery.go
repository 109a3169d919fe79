package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"mediadrop/internal/core/domain"
	"mediadrop/internal/core/ports"
)

// titleMaxLen bounds the rendered title length.
const titleMaxLen = 100

// DeliveryConfig selects which strategy layers run.
type DeliveryConfig struct {
	AlwaysFetchFirst      bool
	EnableRemoteReference bool
	EnableReupload        bool
	EnableLinkFallback    bool
	MaxUploadBytes        int64
}

// Engine delivers a descriptor through successive strategies:
// remote-reference, fetch-and-reupload, then a clickable-link
// fallback. At most one media artifact is posted per request.
type Engine struct {
	messenger ports.Messenger
	fetcher   ports.MediaFetcher
	cfg       DeliveryConfig
	logger    zerolog.Logger
}

func NewEngine(messenger ports.Messenger, fetcher ports.MediaFetcher, cfg DeliveryConfig, logger zerolog.Logger) *Engine {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	return &Engine{messenger: messenger, fetcher: fetcher, cfg: cfg, logger: logger}
}

// Deliver runs the strategy chain. On the first successful delivery
// the placeholder is deleted rather than edited to a success state.
func (e *Engine) Deliver(ctx context.Context, chatID int64, desc *domain.MediaDescriptor, rep *Reporter) domain.DeliveryOutcome {
	caption := renderCaption(desc)

	var remoteErr error
	if e.cfg.EnableRemoteReference && !e.cfg.AlwaysFetchFirst {
		rep.Advance(ctx, domain.StageUploading)
		remoteErr = e.messenger.SendMedia(ctx, chatID, desc.Type, ports.MediaSource{URL: desc.Link}, caption)
		if remoteErr == nil {
			rep.Succeed(ctx)
			return domain.Delivered(domain.ViaRemoteReference)
		}
		e.logger.Debug().Err(remoteErr).Msg("remote-reference delivery failed")
	}

	var uploadErr error
	oversize := false
	if e.cfg.EnableReupload {
		rep.Advance(ctx, domain.StageDownloading)
		media, err := e.fetcher.Fetch(ctx, desc.Link, e.cfg.MaxUploadBytes)
		switch {
		case errors.Is(err, domain.ErrMediaTooLarge):
			oversize = true
			e.logger.Debug().Err(err).Msg("fetched media exceeds upload cap")
		case err != nil:
			rep.Fail(ctx, domain.ErrDownloadFailed)
			return domain.Failed(err)
		default:
			rep.Advance(ctx, domain.StageUploading)
			src := ports.MediaSource{
				Body:     bytes.NewReader(media.Data),
				FileName: attachmentName(desc.Type),
			}
			uploadErr = e.messenger.SendMedia(ctx, chatID, desc.Type, src, caption)
			if uploadErr == nil {
				rep.Succeed(ctx)
				return domain.Delivered(domain.ViaReuploadedBytes)
			}
			e.logger.Debug().Err(uploadErr).Msg("re-upload delivery failed")
		}
	}

	if e.cfg.EnableLinkFallback && platformLimited(remoteErr, uploadErr, oversize) {
		rep.FallbackLink(ctx, desc)
		return domain.FallbackLink(desc.Link)
	}

	reason := deliveryFailure(remoteErr, uploadErr, oversize)
	rep.Fail(ctx, reason)
	return domain.Failed(reason)
}

// platformLimited reports whether the failures are attributable to
// platform-side size/format limits rather than to the link itself.
func platformLimited(remoteErr, uploadErr error, oversize bool) bool {
	if oversize {
		return true
	}
	return errors.Is(remoteErr, domain.ErrMediaTooLarge) || errors.Is(uploadErr, domain.ErrMediaTooLarge)
}

func deliveryFailure(remoteErr, uploadErr error, oversize bool) error {
	switch {
	case uploadErr != nil:
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, uploadErr)
	case oversize:
		return domain.ErrMediaTooLarge
	case remoteErr != nil:
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, remoteErr)
	default:
		return domain.ErrUploadFailed
	}
}

func renderCaption(desc *domain.MediaDescriptor) string {
	return fmt.Sprintf("🎬 *%s*\n👤 %s\n\n✨ _Powered by MediaDrop_", truncateTitle(desc.Title), desc.Attribution)
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= titleMaxLen {
		return title
	}
	return string(runes[:titleMaxLen])
}

func attachmentName(t domain.MediaType) string {
	if t == domain.MediaAudio {
		return "audio.mp3"
	}
	return "video.mp4"
}

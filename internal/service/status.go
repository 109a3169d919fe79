package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"mediadrop/internal/core/domain"
	"mediadrop/internal/core/ports"
)

// Reporter owns the single editable placeholder message of one request.
// It is created at request start, edited in place through intermediate
// stages, and either deleted (success) or left on a final error text.
// Each Reporter is used by exactly one goroutine.
type Reporter struct {
	messenger ports.Messenger
	ref       ports.MessageRef
	logger    zerolog.Logger
	terminal  bool
}

// NewReporter posts the placeholder message and returns its owner.
func NewReporter(ctx context.Context, messenger ports.Messenger, chatID int64, logger zerolog.Logger) (*Reporter, error) {
	ref, err := messenger.SendText(ctx, chatID, "🔎 *Searching for your media...*")
	if err != nil {
		return nil, fmt.Errorf("failed to post placeholder: %w", err)
	}
	return &Reporter{messenger: messenger, ref: ref, logger: logger}, nil
}

// Advance re-renders the placeholder for the given stage. Calls after a
// terminal transition are no-ops.
func (r *Reporter) Advance(ctx context.Context, stage domain.Stage) {
	r.render(ctx, stageText(stage, 0))
}

// Retrying renders the retry stage with the attempt about to run.
func (r *Reporter) Retrying(ctx context.Context, attempt int) {
	r.render(ctx, stageText(domain.StageRetrying, attempt))
}

// Succeed deletes the placeholder, keeping the transcript minimal.
func (r *Reporter) Succeed(ctx context.Context) {
	if r.terminal {
		return
	}
	r.terminal = true
	if err := r.messenger.Delete(ctx, r.ref); err != nil && !errors.Is(err, domain.ErrMessageGone) {
		r.logger.Debug().Err(err).Msg("placeholder delete failed")
	}
}

// Fail edits the placeholder to a final human-readable message for the
// failure class. Raw error text never reaches the chat.
func (r *Reporter) Fail(ctx context.Context, reason error) {
	if r.terminal {
		return
	}
	r.terminal = true
	r.edit(ctx, failureText(reason))
}

// FallbackLink edits the placeholder to present the link as a
// clickable download button.
func (r *Reporter) FallbackLink(ctx context.Context, desc *domain.MediaDescriptor) {
	if r.terminal {
		return
	}
	r.terminal = true
	text := fmt.Sprintf(
		"📦 *File found on %s*\n\n🎬 *%s*\n\n⚠️ _The file is too large for inline delivery. Use the button to download._",
		desc.PlatformLabel, truncateTitle(desc.Title),
	)
	if err := r.messenger.EditTextWithLink(ctx, r.ref, text, "📥 Download File", desc.Link); err != nil && !errors.Is(err, domain.ErrMessageGone) {
		r.logger.Debug().Err(err).Msg("fallback edit failed")
	}
}

func (r *Reporter) render(ctx context.Context, text string) {
	if r.terminal || ctx.Err() != nil {
		return
	}
	r.edit(ctx, text)
}

func (r *Reporter) edit(ctx context.Context, text string) {
	// A race with a user-triggered deletion must not crash the
	// pipeline; a gone message is a no-op.
	if err := r.messenger.EditText(ctx, r.ref, text); err != nil && !errors.Is(err, domain.ErrMessageGone) {
		r.logger.Debug().Err(err).Msg("status edit failed")
	}
}

func stageText(stage domain.Stage, attempt int) string {
	switch stage {
	case domain.StageConnecting:
		return "🔗 *Contacting the resolver...*"
	case domain.StageRetrying:
		return fmt.Sprintf("⏳ *Server busy, retrying (attempt %d)...*", attempt)
	case domain.StageDownloading:
		return "⬇️ *Downloading media...*"
	case domain.StageUploading:
		return "⬆️ *Sending media...*"
	default:
		return "🔎 *Searching for your media...*"
	}
}

func failureText(reason error) string {
	switch {
	case errors.Is(reason, domain.ErrResolverExhausted):
		return "⚠️ *The server is busy right now. Please try again in a moment.*"
	case errors.Is(reason, domain.ErrResolverRejected):
		return "⚠️ *The resolver could not process this link.*"
	case errors.Is(reason, domain.ErrNoLinkFound):
		return "❌ *No working link found.*"
	case errors.Is(reason, domain.ErrDownloadFailed):
		return "⚠️ *Could not download the media.*"
	default:
		return "⚠️ *Could not deliver the media.*"
	}
}

// Package service coordinates the resolve-classify-deliver workflow:
// validate the incoming text, resolve it against the upstream service,
// extract the best candidate link, and deliver the media.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediadrop/internal/core/domain"
	"mediadrop/internal/core/ports"
	"mediadrop/internal/extract"
	"mediadrop/internal/validate"
)

// Pipeline handles one request end to end. Safe for concurrent use;
// requests share nothing but the underlying HTTP clients.
type Pipeline struct {
	validator *validate.Validator
	resolver  ports.Resolver
	engine    *Engine
	messenger ports.Messenger
	deadline  time.Duration
	logger    zerolog.Logger
}

// NewPipeline creates a Pipeline. deadline bounds the whole
// resolve+deliver sequence when positive; zero disables it.
func NewPipeline(
	validator *validate.Validator,
	resolver ports.Resolver,
	engine *Engine,
	messenger ports.Messenger,
	deadline time.Duration,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		validator: validator,
		resolver:  resolver,
		engine:    engine,
		messenger: messenger,
		deadline:  deadline,
		logger:    logger,
	}
}

// Handle processes one incoming message. Rejected input produces no
// reply at all; everything else ends in exactly one terminal rendering
// or deletion of the placeholder.
func (p *Pipeline) Handle(ctx context.Context, chatID int64, text string) domain.DeliveryOutcome {
	if !p.validator.Accept(text) {
		return domain.Rejected()
	}

	req := domain.NewResolutionRequest(strings.TrimSpace(text))
	logger := p.logger.With().Str("request_id", req.ID).Logger()
	logger.Info().Str("url", req.URL).Msg("processing url")

	if p.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}

	rep, err := NewReporter(ctx, p.messenger, chatID, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to post placeholder")
		return domain.Failed(err)
	}

	rep.Advance(ctx, domain.StageConnecting)
	res, err := p.resolver.Resolve(ctx, req.URL, func(attempt int) {
		rep.Retrying(ctx, attempt)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("resolve failed")
		rep.Fail(ctx, err)
		return domain.Failed(err)
	}

	desc := extract.Extract(res.Raw)
	if desc == nil {
		logger.Info().Msg("no acceptable link in resolver response")
		rep.Fail(ctx, domain.ErrNoLinkFound)
		return domain.Failed(domain.ErrNoLinkFound)
	}
	logger.Info().
		Str("platform", desc.PlatformLabel).
		Str("media_type", desc.Type.String()).
		Msg("descriptor extracted")

	outcome := p.engine.Deliver(ctx, chatID, desc, rep)
	switch outcome.Kind {
	case domain.OutcomeDelivered:
		logger.Info().Str("method", outcome.Method.String()).Msg("delivered")
	case domain.OutcomeFallbackLink:
		logger.Info().Msg("delivered as fallback link")
	case domain.OutcomeFailed:
		logger.Warn().Err(outcome.Reason).Msg("delivery failed")
	}
	return outcome
}

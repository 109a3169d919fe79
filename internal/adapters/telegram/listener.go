package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mediadrop/internal/core/domain"
)

// Handler processes one qualifying incoming message. Implementations
// must be safe for concurrent use; the listener runs one goroutine per
// update.
type Handler interface {
	Handle(ctx context.Context, chatID int64, text string) domain.DeliveryOutcome
}

// Listener long-polls getUpdates and dispatches text messages.
type Listener struct {
	api         *botAPI
	handler     Handler
	logger      zerolog.Logger
	pollTimeout time.Duration
}

// NewListener creates a Listener reusing the messenger's API client.
func NewListener(m *Messenger, handler Handler, logger zerolog.Logger) *Listener {
	return &Listener{
		api:         m.api,
		handler:     handler,
		logger:      logger,
		pollTimeout: 30 * time.Second,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight handlers.
func (l *Listener) Run(ctx context.Context) error {
	me, err := l.api.getMe(ctx)
	if err != nil {
		return err
	}
	l.logger.Info().Str("bot", me.Username).Msg("listening for updates")

	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, next, err := l.api.getUpdates(ctx, offset, l.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isPollTimeoutError(err) {
				continue
			}
			l.logger.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			msg := u.Message
			if msg == nil || msg.Chat == nil || msg.Text == "" {
				continue
			}
			if msg.From != nil && msg.From.IsBot {
				continue
			}
			chatID, text := msg.Chat.ID, msg.Text
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.handler.Handle(ctx, chatID, text)
			}()
		}
	}
}

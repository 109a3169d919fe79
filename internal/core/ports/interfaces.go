package ports

import (
	"context"
	"io"

	"mediadrop/internal/core/domain"
)

// ResolveResult holds the raw payload from the resolver service.
// We use []byte to preserve the exact API response without data loss;
// the extractor depends on the response's declared key order.
type ResolveResult struct {
	Raw []byte // Full JSON response, untouched
}

// RetryNotifier is invoked before each retry with the number of the
// attempt about to run (2, 3, ...).
type RetryNotifier func(attempt int)

// Resolver defines the contract for turning a source URL into raw
// candidate-link data.
type Resolver interface {
	// Resolve calls the resolver service for the given source URL.
	// onRetry may be nil.
	Resolve(ctx context.Context, sourceURL string, onRetry RetryNotifier) (*ResolveResult, error)
}

// FetchedMedia holds media bytes retrieved from a direct link.
type FetchedMedia struct {
	Data        []byte
	ContentType string
}

// MediaFetcher defines the contract for downloading media bytes.
type MediaFetcher interface {
	// Fetch retrieves the media behind mediaURL, reading at most
	// maxBytes. A body larger than maxBytes fails with
	// domain.ErrMediaTooLarge; any other failure wraps
	// domain.ErrDownloadFailed.
	Fetch(ctx context.Context, mediaURL string, maxBytes int64) (*FetchedMedia, error)
}

// MessageRef identifies one message in one chat.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// MediaSource is either a remote URL the platform fetches itself or a
// reader of raw bytes to upload. Exactly one of URL and Body is set.
type MediaSource struct {
	URL      string
	Body     io.Reader
	FileName string
}

// Messenger is the boundary toward the messaging client.
type Messenger interface {
	// SendText posts a new message and returns its reference.
	SendText(ctx context.Context, chatID int64, text string) (MessageRef, error)

	// EditText replaces the text of an existing message. Editing a
	// message that no longer exists fails with domain.ErrMessageGone.
	EditText(ctx context.Context, ref MessageRef, text string) error

	// EditTextWithLink replaces the text and attaches a single
	// clickable URL button.
	EditTextWithLink(ctx context.Context, ref MessageRef, text, label, linkURL string) error

	// Delete removes a message. Deleting a message that no longer
	// exists fails with domain.ErrMessageGone.
	Delete(ctx context.Context, ref MessageRef) error

	// SendMedia delivers a media attachment. Size/format refusals fail
	// with domain.ErrMediaTooLarge; unusable remote references with
	// domain.ErrBadMediaReference.
	SendMedia(ctx context.Context, chatID int64, mediaType domain.MediaType, src MediaSource, caption string) error
}

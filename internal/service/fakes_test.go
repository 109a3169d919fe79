package service

import (
	"context"

	"mediadrop/internal/core/domain"
	"mediadrop/internal/core/ports"
)

type mediaCall struct {
	mediaType domain.MediaType
	url       string
	hasBody   bool
	caption   string
}

type linkEdit struct {
	text  string
	label string
	url   string
}

// fakeMessenger records every call; each test drives one request, so
// no locking is needed.
type fakeMessenger struct {
	nextID    int64
	sends     []string
	edits     []string
	linkEdits []linkEdit
	deletes   []ports.MessageRef
	media     []mediaCall

	sendErr   error
	editErr   error
	deleteErr error
	// mediaErrs is popped once per SendMedia call; an empty queue
	// means success.
	mediaErrs []error
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string) (ports.MessageRef, error) {
	if f.sendErr != nil {
		return ports.MessageRef{}, f.sendErr
	}
	f.nextID++
	f.sends = append(f.sends, text)
	return ports.MessageRef{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeMessenger) EditText(_ context.Context, _ ports.MessageRef, text string) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeMessenger) EditTextWithLink(_ context.Context, _ ports.MessageRef, text, label, linkURL string) error {
	f.linkEdits = append(f.linkEdits, linkEdit{text: text, label: label, url: linkURL})
	return nil
}

func (f *fakeMessenger) Delete(_ context.Context, ref ports.MessageRef) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, ref)
	return nil
}

func (f *fakeMessenger) SendMedia(_ context.Context, _ int64, mediaType domain.MediaType, src ports.MediaSource, caption string) error {
	f.media = append(f.media, mediaCall{
		mediaType: mediaType,
		url:       src.URL,
		hasBody:   src.Body != nil,
		caption:   caption,
	})
	if len(f.mediaErrs) > 0 {
		err := f.mediaErrs[0]
		f.mediaErrs = f.mediaErrs[1:]
		return err
	}
	return nil
}

func (f *fakeMessenger) lastEdit() string {
	if len(f.edits) == 0 {
		return ""
	}
	return f.edits[len(f.edits)-1]
}

type fakeResolver struct {
	raw     []byte
	err     error
	retries []int
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, onRetry ports.RetryNotifier) (*ports.ResolveResult, error) {
	f.calls++
	for _, n := range f.retries {
		if onRetry != nil {
			onRetry(n)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ports.ResolveResult{Raw: f.raw}, nil
}

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, _ int64) (*ports.FetchedMedia, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ports.FetchedMedia{Data: f.data, ContentType: "video/mp4"}, nil
}

func allLayers() DeliveryConfig {
	return DeliveryConfig{
		EnableRemoteReference: true,
		EnableReupload:        true,
		EnableLinkFallback:    true,
		MaxUploadBytes:        1 << 20,
	}
}

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediadrop/internal/core/domain"
)

func TestReporterSuccessLifecycle(t *testing.T) {
	m := &fakeMessenger{}
	rep := newTestReporter(t, m)

	rep.Advance(context.Background(), domain.StageConnecting)
	rep.Advance(context.Background(), domain.StageUploading)
	rep.Succeed(context.Background())

	require.Len(t, m.sends, 1, "exactly one placeholder per request")
	assert.Len(t, m.deletes, 1)

	// Terminal: further transitions must be no-ops.
	editsBefore := len(m.edits)
	rep.Advance(context.Background(), domain.StageDownloading)
	rep.Fail(context.Background(), domain.ErrNoLinkFound)
	rep.Succeed(context.Background())
	assert.Len(t, m.edits, editsBefore)
	assert.Len(t, m.deletes, 1)
}

func TestReporterFailLifecycle(t *testing.T) {
	m := &fakeMessenger{}
	rep := newTestReporter(t, m)

	rep.Fail(context.Background(), domain.ErrResolverExhausted)

	assert.Empty(t, m.deletes, "failed requests keep the error message")
	assert.Contains(t, m.lastEdit(), "busy")

	// A later success path must not delete the terminal message.
	rep.Succeed(context.Background())
	assert.Empty(t, m.deletes)
}

func TestReporterRetrying(t *testing.T) {
	m := &fakeMessenger{}
	rep := newTestReporter(t, m)

	rep.Retrying(context.Background(), 2)
	assert.Contains(t, m.lastEdit(), "attempt 2")
}

func TestReporterSurvivesGoneMessage(t *testing.T) {
	m := &fakeMessenger{
		editErr:   fmt.Errorf("%w: deleted by user", domain.ErrMessageGone),
		deleteErr: fmt.Errorf("%w: deleted by user", domain.ErrMessageGone),
	}
	rep := newTestReporter(t, m)

	// A race with a user-triggered deletion must not crash anything.
	rep.Advance(context.Background(), domain.StageConnecting)
	rep.Fail(context.Background(), domain.ErrNoLinkFound)
	rep.Succeed(context.Background())
}

func TestReporterSkipsEditsAfterCancel(t *testing.T) {
	m := &fakeMessenger{}
	rep := newTestReporter(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	editsBefore := len(m.edits)
	rep.Advance(ctx, domain.StageDownloading)
	assert.Len(t, m.edits, editsBefore)
}

func TestFailureTexts(t *testing.T) {
	tests := []struct {
		reason error
		want   string
	}{
		{domain.ErrResolverExhausted, "busy"},
		{domain.ErrResolverRejected, "could not process"},
		{domain.ErrNoLinkFound, "No working link"},
		{domain.ErrDownloadFailed, "download"},
		{domain.ErrUploadFailed, "deliver"},
	}
	for _, tt := range tests {
		assert.Contains(t, failureText(tt.reason), tt.want)
	}
}

func TestNewReporterPropagatesSendFailure(t *testing.T) {
	m := &fakeMessenger{sendErr: fmt.Errorf("network down")}
	_, err := NewReporter(context.Background(), m, 7, zerolog.Nop())
	assert.Error(t, err)
}

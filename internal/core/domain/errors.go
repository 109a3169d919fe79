package domain

import "errors"

var (
	// ErrResolverExhausted means every upstream attempt failed with a
	// transient error and the attempt budget ran out.
	ErrResolverExhausted = errors.New("resolver exhausted")
	// ErrResolverRejected means the upstream answered with a terminal
	// failure (bad status or malformed body); retries cannot fix it.
	ErrResolverRejected = errors.New("resolver rejected request")
	// ErrNoLinkFound means the extractor found no acceptable candidate.
	ErrNoLinkFound = errors.New("no working link found")
	// ErrDownloadFailed means fetching the media bytes did not succeed.
	ErrDownloadFailed = errors.New("media download failed")
	// ErrUploadFailed means uploading the fetched bytes did not succeed.
	ErrUploadFailed = errors.New("media upload failed")
	// ErrMediaTooLarge means the platform refused the media for size or
	// format reasons; the link itself may still be good.
	ErrMediaTooLarge = errors.New("media exceeds platform limits")
	// ErrBadMediaReference means the platform could not use the link as
	// a remote media reference.
	ErrBadMediaReference = errors.New("bad media reference")
	// ErrMessageGone means the target message was already deleted or
	// otherwise unreachable. Callers treat it as a no-op.
	ErrMessageGone = errors.New("message gone")
)

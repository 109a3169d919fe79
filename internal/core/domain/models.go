package domain

import (
	"time"

	"github.com/google/uuid"
)

// MediaType classifies the media item chosen for delivery.
type MediaType int

const (
	MediaVideo MediaType = iota
	MediaAudio
)

func (t MediaType) String() string {
	if t == MediaAudio {
		return "audio"
	}
	return "video"
}

// ResolutionRequest represents one incoming URL to process.
type ResolutionRequest struct {
	ID         string
	URL        string
	ReceivedAt time.Time
}

// NewResolutionRequest creates a request for the given source URL.
func NewResolutionRequest(sourceURL string) ResolutionRequest {
	return ResolutionRequest{
		ID:         uuid.New().String(),
		URL:        sourceURL,
		ReceivedAt: time.Now().UTC(),
	}
}

// MediaDescriptor is the normalized result of extraction. A descriptor
// is only ever constructed with a non-empty Link; "no descriptor" is a
// nil pointer, never a descriptor with an empty link.
type MediaDescriptor struct {
	Link          string
	Type          MediaType
	Title         string
	Attribution   string
	PlatformLabel string
	Thumbnail     string
	DurationRaw   string
}

// DeliveryMethod records how a successful delivery reached the chat.
type DeliveryMethod int

const (
	// ViaRemoteReference means the messaging platform fetched the
	// bytes itself from the descriptor's link.
	ViaRemoteReference DeliveryMethod = iota
	// ViaReuploadedBytes means the bytes were fetched locally and
	// uploaded as an attachment.
	ViaReuploadedBytes
)

func (m DeliveryMethod) String() string {
	if m == ViaReuploadedBytes {
		return "reuploaded_bytes"
	}
	return "remote_reference"
}

// OutcomeKind discriminates DeliveryOutcome.
type OutcomeKind int

const (
	OutcomeDelivered OutcomeKind = iota
	OutcomeFallbackLink
	OutcomeFailed
	// OutcomeRejected marks input that never entered the pipeline.
	// No message is ever sent for a rejected request.
	OutcomeRejected
)

// DeliveryOutcome is the terminal result of one request.
type DeliveryOutcome struct {
	Kind   OutcomeKind
	Method DeliveryMethod // valid when Kind == OutcomeDelivered
	Link   string         // valid when Kind == OutcomeFallbackLink
	Reason error          // valid when Kind == OutcomeFailed
}

func Delivered(method DeliveryMethod) DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeDelivered, Method: method}
}

func FallbackLink(link string) DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeFallbackLink, Link: link}
}

func Failed(reason error) DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeFailed, Reason: reason}
}

func Rejected() DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeRejected}
}

// Stage is a step in the placeholder message lifecycle.
type Stage int

const (
	StageSearching Stage = iota
	StageConnecting
	StageRetrying
	StageDownloading
	StageUploading
)

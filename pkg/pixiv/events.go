package pixiv

import (
	"time"
)

// EventKind identifies a client lifecycle event.
type EventKind string

// Event kinds.
const (
	// EventRateLimitWait fires when admission through the rate limiter
	// delayed a request.
	EventRateLimitWait EventKind = "rate_limit_wait"

	// EventRetryScheduled fires when a failed attempt is scheduled for
	// retry after a backoff.
	EventRetryScheduled EventKind = "retry_scheduled"

	// EventTokenRefreshed fires after a successful token refresh.
	EventTokenRefreshed EventKind = "token_refreshed"

	// EventDownloadProgress fires periodically during a Download call.
	EventDownloadProgress EventKind = "download_progress"
)

// Event is a client lifecycle notification. Fields beyond Kind and Time
// are populated per kind.
type Event struct {
	Kind       EventKind
	Time       time.Time
	Method     string
	Path       string
	StatusCode int
	Attempt    int
	Wait       time.Duration
	Bytes      int64
	Total      int64
}

// EventSink receives client lifecycle events. Implementations must not
// block; the client publishes from the request path.
type EventSink interface {
	Publish(event Event)
}

// ChannelSink is an EventSink backed by a buffered channel. Events are
// dropped when the buffer is full so a slow consumer cannot stall
// requests.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}

	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

// Publish implements EventSink.
func (s *ChannelSink) Publish(event Event) {
	select {
	case s.events <- event:
	default:
		// Consumer is behind; drop rather than block the request path.
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// Close closes the event channel. Publish must not be called after Close.
func (s *ChannelSink) Close() {
	close(s.events)
}

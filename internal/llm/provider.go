package llm

import (
	"context"
	"fmt"
)

// Message is a minimal chat message shape.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// StreamEvent carries one incremental text delta from the model. If Err is
// non-nil the stream has terminated with an error; no further events follow.
type StreamEvent struct {
	Delta string
	Err   error
}

// Provider drives a streaming chat completion. The returned channel yields
// deltas in arrival order and is closed when the stream ends; concatenating
// every Delta reconstructs the full completion text. The stream is finite
// and not restartable. A failure before the first delta is reported by the
// initial error return so the caller can reject the request before any bytes
// reach its client; a mid-stream failure arrives as a terminal event and
// already-delivered deltas stand.
type Provider interface {
	StreamCompletion(ctx context.Context, messages []Message) (<-chan StreamEvent, error)
}

// UpstreamError wraps a failure of the upstream model provider.
type UpstreamError struct {
	Op     string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm: %s: upstream status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("llm: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Package notify delivers alert notifications. All channels are best-effort:
// a delivery failure is logged by the caller and never aborts alert
// bookkeeping.
package notify

import "context"

// Channel delivers one notification.
type Channel interface {
	Send(ctx context.Context, title, message string) error
}

// Noop is a Channel that discards everything. Used when notifications are
// disabled and as a test double.
type Noop struct{}

// NewNoop creates a no-op channel.
func NewNoop() *Noop {
	return &Noop{}
}

// Send discards the notification.
func (n *Noop) Send(ctx context.Context, title, message string) error {
	return nil
}

// Multi fans a notification out to several channels. Every channel is
// attempted; the first error is returned after all sends complete.
type Multi struct {
	channels []Channel
}

// NewMulti creates a fan-out channel.
func NewMulti(channels ...Channel) *Multi {
	return &Multi{channels: channels}
}

// Send delivers to all channels.
func (m *Multi) Send(ctx context.Context, title, message string) error {
	var firstErr error
	for _, ch := range m.channels {
		if err := ch.Send(ctx, title, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package notify

import "context"

// Notifier delivers an alert to one channel.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, a Alert) error
}

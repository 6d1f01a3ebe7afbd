package notify

import (
	"context"
	"errors"
)

// ErrNoRecipient means the contractor has no address for a channel. It is a skip, not a failure.
var ErrNoRecipient = errors.New("notify: contractor has no recipient for channel")

// Sender delivers a notification over one channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, n Notification) error
}

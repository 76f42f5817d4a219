package event

import (
	"context"

	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
)

// Subscriber registers delegates under an event name. Implementations store their own
// clone of d; the caller keeps ownership of d.
type Subscriber[A any] interface {
	Subscribe(name string, d delegate.Delegate[A]) error
	Unsubscribe(name string, d delegate.Delegate[A]) bool
}

// Notifier delivers an event synchronously and reports how many delegates handled it.
type Notifier[A any] interface {
	Notify(ctx context.Context, name string, sender any, args *A) int
}

// Publisher queues an event for asynchronous delivery.
type Publisher[A any] interface {
	Publish(ctx context.Context, name string, sender any, args A) error
}

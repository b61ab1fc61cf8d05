package interfaces

import (
	"context"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
)

// NotificationSender delivers a rendered notification over one channel.
type NotificationSender interface {
	Send(ctx context.Context, n entities.Notification) (entities.DeliveryReceipt, error)
}

// Alerter reaches the operators of the service.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// PassLocker is a non-blocking lock shared by every process running the
// reminder pass.
type PassLocker interface {
	TryLock(ctx context.Context) (release func(), acquired bool, err error)
}

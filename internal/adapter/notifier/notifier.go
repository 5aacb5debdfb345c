package notifier

import "context"

// Notifier defines the interface for the optional error-alert hook fired when
// a submission cannot be persisted. Implementations must never block the
// request path on delivery.
type Notifier interface {
	Notify(ctx context.Context, subject, detail string) error
}

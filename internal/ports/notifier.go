package ports

import "os"

// Notifier delivers readiness notifications for a channel.
type Notifier interface {
	// Ready yields one value per readiness notification. Notifications may
	// coalesce and may be spurious.
	Ready() <-chan os.Signal

	// Done is closed once Close has been called.
	Done() <-chan struct{}

	// Close unregisters the notification and closes Done. It is idempotent.
	Close() error
}

package ports

import "context"

// RemoteUnit controls the lifecycle of the remote processing unit that
// echoes payloads back.
type RemoteUnit interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

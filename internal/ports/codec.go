package ports

import "github.com/bft-labs/rpmsgbench/internal/domain"

// Codec converts payloads to and from wire frames no larger than
// domain.MaxFrameSize.
type Codec interface {
	Name() string
	Encode(p domain.Payload) ([]byte, error)
	Decode(frame []byte) (domain.Payload, error)
}

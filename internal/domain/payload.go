package domain

import (
	"bytes"
	"time"
)

// MaxFrameSize is the upper bound, in bytes, of one encoded payload on the wire.
const MaxFrameSize = 1024

// DefaultPayloadSize and DefaultFill match the payloads the reference echo
// firmware was exercised with.
const (
	DefaultPayloadSize = 20
	DefaultFill        = byte(10)
)

// Payload is one sequence-numbered message. SequenceID starts at 1.
type Payload struct {
	SequenceID uint64
	Size       uint64
	Data       []byte
}

// NewPayload builds a payload of size bytes, each set to fill.
func NewPayload(id uint64, size int, fill byte) Payload {
	if size < 0 {
		size = 0
	}
	return Payload{
		SequenceID: id,
		Size:       uint64(size),
		Data:       bytes.Repeat([]byte{fill}, size),
	}
}

// Validate checks the structural invariants of a payload.
func (p Payload) Validate() error {
	if p.SequenceID == 0 {
		return ErrZeroSequence
	}
	if uint64(len(p.Data)) != p.Size {
		return ErrSizeMismatch
	}
	return nil
}

// DeliveryEvent reports that the frame for SequenceID was read at ReceivedAt.
type DeliveryEvent struct {
	SequenceID uint64
	ReceivedAt time.Time
}

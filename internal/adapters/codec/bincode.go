package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// bincodeHeader is id, size and the data length prefix, each a little-endian u64.
const bincodeHeader = 24

// Bincode encodes payloads with the fixed-int little-endian layout the
// firmware side uses: u64 id, u64 size, u64 len, then len data bytes.
// Trailing bytes after the data are ignored.
type Bincode struct{}

func (Bincode) Name() string { return "bincode" }

func (Bincode) Encode(p domain.Payload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("encode id %d: %w", p.SequenceID, err)
	}
	n := bincodeHeader + len(p.Data)
	if n > domain.MaxFrameSize {
		return nil, fmt.Errorf("encode id %d: %d bytes: %w", p.SequenceID, n, domain.ErrFrameTooLarge)
	}
	buf := make([]byte, n)
	binary.LittleEndian.PutUint64(buf[0:], p.SequenceID)
	binary.LittleEndian.PutUint64(buf[8:], p.Size)
	binary.LittleEndian.PutUint64(buf[16:], uint64(len(p.Data)))
	copy(buf[bincodeHeader:], p.Data)
	return buf, nil
}

func (Bincode) Decode(frame []byte) (domain.Payload, error) {
	if len(frame) > domain.MaxFrameSize {
		return domain.Payload{}, fmt.Errorf("decode %d bytes: %w", len(frame), domain.ErrFrameTooLarge)
	}
	if len(frame) < bincodeHeader {
		return domain.Payload{}, fmt.Errorf("truncated header (%d bytes): %w", len(frame), domain.ErrDecode)
	}
	id := binary.LittleEndian.Uint64(frame[0:])
	size := binary.LittleEndian.Uint64(frame[8:])
	dataLen := binary.LittleEndian.Uint64(frame[16:])
	if dataLen > uint64(len(frame)-bincodeHeader) {
		return domain.Payload{}, fmt.Errorf("data length %d exceeds frame: %w", dataLen, domain.ErrDecode)
	}
	p := domain.Payload{
		SequenceID: id,
		Size:       size,
		Data:       append([]byte(nil), frame[bincodeHeader:bincodeHeader+int(dataLen)]...),
	}
	if err := p.Validate(); err != nil {
		return domain.Payload{}, fmt.Errorf("%v: %w", err, domain.ErrDecode)
	}
	return p, nil
}

package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

const (
	fieldID   protowire.Number = 1
	fieldSize protowire.Number = 2
	fieldData protowire.Number = 3
)

// Protowire encodes payloads as a protobuf message without generated code:
// field 1 id (varint), field 2 size (varint), field 3 data (bytes).
// Unknown fields are skipped.
type Protowire struct{}

func (Protowire) Name() string { return "protowire" }

func (Protowire) Encode(p domain.Payload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("encode id %d: %w", p.SequenceID, err)
	}
	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, p.SequenceID)
	b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, p.Size)
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, p.Data)
	if len(b) > domain.MaxFrameSize {
		return nil, fmt.Errorf("encode id %d: %d bytes: %w", p.SequenceID, len(b), domain.ErrFrameTooLarge)
	}
	return b, nil
}

func (Protowire) Decode(frame []byte) (domain.Payload, error) {
	if len(frame) > domain.MaxFrameSize {
		return domain.Payload{}, fmt.Errorf("decode %d bytes: %w", len(frame), domain.ErrFrameTooLarge)
	}
	var p domain.Payload
	var sawData bool
	for len(frame) > 0 {
		num, typ, n := protowire.ConsumeTag(frame)
		if n < 0 {
			return domain.Payload{}, fmt.Errorf("tag: %v: %w", protowire.ParseError(n), domain.ErrDecode)
		}
		frame = frame[n:]
		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(frame)
			if m < 0 {
				return domain.Payload{}, fmt.Errorf("id: %v: %w", protowire.ParseError(m), domain.ErrDecode)
			}
			p.SequenceID, n = v, m
		case num == fieldSize && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(frame)
			if m < 0 {
				return domain.Payload{}, fmt.Errorf("size: %v: %w", protowire.ParseError(m), domain.ErrDecode)
			}
			p.Size, n = v, m
		case num == fieldData && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(frame)
			if m < 0 {
				return domain.Payload{}, fmt.Errorf("data: %v: %w", protowire.ParseError(m), domain.ErrDecode)
			}
			p.Data, n = append([]byte(nil), v...), m
			sawData = true
		default:
			n = protowire.ConsumeFieldValue(num, typ, frame)
			if n < 0 {
				return domain.Payload{}, fmt.Errorf("field %d: %v: %w", num, protowire.ParseError(n), domain.ErrDecode)
			}
		}
		frame = frame[n:]
	}
	if !sawData {
		p.Data = []byte{}
	}
	if err := p.Validate(); err != nil {
		return domain.Payload{}, fmt.Errorf("%v: %w", err, domain.ErrDecode)
	}
	return p, nil
}

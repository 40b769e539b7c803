package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"", "bincode", "protowire"} {
		c, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q) error = %v", name, err)
		}
		if name != "" && c.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, c.Name())
		}
	}
	if _, err := ByName("json"); err == nil {
		t.Error("ByName(json) succeeded, want error")
	}
}

func TestCodecs_EncodeDecode(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, _ := ByName(name)
			for _, size := range []int{0, 1, domain.DefaultPayloadSize, 512} {
				in := domain.NewPayload(uint64(size)+1, size, domain.DefaultFill)
				frame, err := c.Encode(in)
				if err != nil {
					t.Fatalf("Encode(size=%d) error = %v", size, err)
				}
				out, err := c.Decode(frame)
				if err != nil {
					t.Fatalf("Decode(size=%d) error = %v", size, err)
				}
				if out.SequenceID != in.SequenceID || out.Size != in.Size || !bytes.Equal(out.Data, in.Data) {
					t.Errorf("decoded %+v, want %+v", out, in)
				}
			}
		})
	}
}

func TestCodecs_Errors(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, _ := ByName(name)

			if _, err := c.Encode(domain.NewPayload(1, domain.MaxFrameSize, 0)); !errors.Is(err, domain.ErrFrameTooLarge) {
				t.Errorf("oversized Encode error = %v, want ErrFrameTooLarge", err)
			}
			if _, err := c.Encode(domain.NewPayload(0, 4, 0)); !errors.Is(err, domain.ErrZeroSequence) {
				t.Errorf("zero id Encode error = %v, want ErrZeroSequence", err)
			}
			if _, err := c.Decode(make([]byte, domain.MaxFrameSize+1)); !errors.Is(err, domain.ErrFrameTooLarge) {
				t.Errorf("oversized Decode error = %v, want ErrFrameTooLarge", err)
			}

			frame, err := c.Encode(domain.NewPayload(9, 16, 3))
			if err != nil {
				t.Fatalf("Encode error = %v", err)
			}
			if _, err := c.Decode(frame[:len(frame)-4]); !errors.Is(err, domain.ErrDecode) {
				t.Errorf("truncated Decode error = %v, want ErrDecode", err)
			}
			if _, err := c.Decode([]byte{0xff, 0xff}); !errors.Is(err, domain.ErrDecode) {
				t.Errorf("garbage Decode error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestBincode_Layout(t *testing.T) {
	frame, err := Bincode{}.Encode(domain.NewPayload(5, 2, 10))
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	want := make([]byte, 26)
	binary.LittleEndian.PutUint64(want[0:], 5)
	binary.LittleEndian.PutUint64(want[8:], 2)
	binary.LittleEndian.PutUint64(want[16:], 2)
	want[24], want[25] = 10, 10
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = %x, want %x", frame, want)
	}

	// Trailing bytes, as left by a fixed-size receive buffer, are ignored.
	padded := append(append([]byte(nil), frame...), make([]byte, 100)...)
	p, err := Bincode{}.Decode(padded)
	if err != nil || p.SequenceID != 5 {
		t.Errorf("Decode(padded) = %+v, %v", p, err)
	}
}

func TestBincode_DecodeZeroID(t *testing.T) {
	frame := make([]byte, bincodeHeader)
	if _, err := (Bincode{}).Decode(frame); !errors.Is(err, domain.ErrDecode) {
		t.Errorf("zero id Decode error = %v, want ErrDecode", err)
	}
}

package wire

import (
	"bytes"
	"testing"

	"github.com/kstaniek/go-udpcan-bridge/internal/can"
)

// FuzzCodecRoundTrip ensures every frame that encodes also decodes back identically.
func FuzzCodecRoundTrip(f *testing.F) {
	c := Codec{}
	f.Add(uint32(0x123), []byte{0xDE, 0xAD, 0xBE, 0xEF})
	f.Add(uint32(0), []byte{})
	f.Add(uint32(0x1FFFFFFF), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	f.Fuzz(func(t *testing.T, id uint32, data []byte) {
		if len(data) > can.MaxDataLen {
			data = data[:can.MaxDataLen]
		}
		var in can.Frame
		in.ID = id
		in.Len = uint8(len(data))
		copy(in.Data[:], data)
		buf := c.Encode(in)
		out, truncated, err := c.Decode(buf, len(buf))
		if err != nil || truncated {
			t.Fatalf("decode(encode): err=%v truncated=%v", err, truncated)
		}
		if out.ID != in.ID || out.Len != in.Len || !bytes.Equal(out.Data[:out.Len], in.Data[:in.Len]) {
			t.Fatalf("round trip mismatch: %v vs %v", in, out)
		}
	})
}

// FuzzCodecDecodeInvalid ensures the decoder doesn't panic on arbitrary input.
func FuzzCodecDecodeInvalid(f *testing.F) {
	c := Codec{}
	f.Add([]byte{0, 0, 0, 1}, 4)
	f.Add([]byte{}, 0)
	f.Add([]byte{1, 2, 3, 4, 5}, 9999)
	f.Fuzz(func(t *testing.T, data []byte, size int) {
		_, _, _ = c.Decode(data, size)
	})
}

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kstaniek/go-udpcan-bridge/internal/can"
	"github.com/kstaniek/go-udpcan-bridge/internal/metrics"
)

// Packed frame layout (one frame per UDP datagram):
//
//	offset 0..3   : can_id, 32-bit big-endian
//	offset 4..N-1 : 0..8 raw data bytes
//
// Total size is HeaderSize..MaxPacket bytes; the DLC is the size minus the
// header, so no separate length byte travels on the wire.
const (
	HeaderSize = 4
	MaxPacket  = HeaderSize + can.MaxDataLen
)

// ErrTooShort is returned when a datagram is smaller than the frame header.
var ErrTooShort = errors.New("wire: datagram too short")

// Codec packs/unpacks CAN frames for UDP transport. Stateless and safe for
// concurrent use.
type Codec struct{}

// Encode returns the wire representation of f: 4-byte big-endian id followed
// by the first f.Len data bytes. Every classic frame has exactly one encoding;
// there is no failure path.
func (Codec) Encode(f can.Frame) []byte {
	ln := int(f.Len)
	if ln > can.MaxDataLen {
		ln = can.MaxDataLen
	}
	buf := make([]byte, HeaderSize+ln)
	binary.BigEndian.PutUint32(buf[0:HeaderSize], f.ID)
	copy(buf[HeaderSize:], f.Data[:ln])
	return buf
}

// Decode unpacks one datagram. size is the number of bytes the datagram had
// on the wire, which can exceed len(buf) when the kernel already cut it down
// (MSG_TRUNC reporting).
//
// A size below HeaderSize is rejected with ErrTooShort; the caller must drop
// the datagram. A size above MaxPacket is truncated to MaxPacket and reported
// via the truncated flag, the frame is still usable. Otherwise the DLC is
// size-HeaderSize (0..8).
func (Codec) Decode(buf []byte, size int) (can.Frame, bool, error) {
	var f can.Frame
	if size < HeaderSize {
		metrics.IncShort()
		return f, false, fmt.Errorf("%w: %d < %d", ErrTooShort, size, HeaderSize)
	}
	truncated := false
	if size > MaxPacket {
		metrics.IncTruncated()
		truncated = true
		size = MaxPacket
	}
	if size > len(buf) {
		// Receive buffer smaller than the datagram; decode what we have.
		size = len(buf)
	}
	if size < HeaderSize {
		metrics.IncShort()
		return f, truncated, fmt.Errorf("%w: buffer %d < %d", ErrTooShort, size, HeaderSize)
	}
	f.ID = binary.BigEndian.Uint32(buf[0:HeaderSize])
	f.Len = uint8(size - HeaderSize)
	copy(f.Data[:], buf[HeaderSize:size])
	return f, truncated, nil
}

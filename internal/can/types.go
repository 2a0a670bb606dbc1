package can

import (
	"fmt"
	"strings"
)

// SocketCAN flag bits for can_id (same values as <linux/can.h>)
const (
	CAN_EFF_FLAG = 0x80000000
	CAN_RTR_FLAG = 0x40000000
	CAN_ERR_FLAG = 0x20000000
	CAN_SFF_MASK = 0x7FF
	CAN_EFF_MASK = 0x1FFFFFFF
)

// MaxDataLen is the classic CAN payload limit; the bridge never handles FD frames.
const MaxDataLen = 8

// Frame is a classic CAN frame as it travels through the bridge.
// ID is the full 32-bit can_id (flags in the upper bits pass through
// uninterpreted). Len is the DLC (0..8); only the first Len bytes of
// Data are valid.
type Frame struct {
	ID   uint32
	Len  uint8
	Data [MaxDataLen]byte
}

// String renders the frame as ID#HEXDATA, e.g. "123#DEADBEEF".
// The id is zero-padded to at least 3 hex digits, each data byte to 2.
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.3X#", f.ID)
	for i := 0; i < int(f.Len) && i < MaxDataLen; i++ {
		fmt.Fprintf(&b, "%.2X", f.Data[i])
	}
	return b.String()
}

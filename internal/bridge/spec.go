package bridge

import (
	"fmt"
	"strings"
)

// Spec is the identity of one bridge: which CAN interface pairs with which
// UDP listen port and destination. The colon-joined form doubles as the
// bridge's display identity in every log line.
type Spec struct {
	CANIf   string
	InPort  string
	OutHost string
	OutPort string
}

// ParseSpec parses CAN_IFNAME:IN_PORT:OUT_HOST:OUT_PORT. Everything after
// the third colon belongs to the out port, mirroring a plain three-way split;
// a bad remainder fails later at endpoint acquisition.
func ParseSpec(s string) (Spec, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) != 4 {
		return Spec{}, fmt.Errorf("invalid bridge spec %q: expected CAN_IFNAME:IN_PORT:OUT_HOST:OUT_PORT", s)
	}
	for _, p := range parts {
		if p == "" {
			return Spec{}, fmt.Errorf("invalid bridge spec %q: empty field", s)
		}
	}
	return Spec{CANIf: parts[0], InPort: parts[1], OutHost: parts[2], OutPort: parts[3]}, nil
}

// String renders the identity as CAN_IFNAME:IN_PORT:OUT_HOST:OUT_PORT.
func (s Spec) String() string {
	return s.CANIf + ":" + s.InPort + ":" + s.OutHost + ":" + s.OutPort
}

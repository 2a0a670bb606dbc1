//go:build !linux

package socketcan

import (
	"errors"

	"github.com/kstaniek/go-udpcan-bridge/internal/can"
)

var errUnsupported = errors.New("socketcan: unsupported on this platform")

// Device placeholder so non-linux builds compile; raw CAN is linux-only.
type Device struct{}

func Open(iface string) (*Device, error) { return nil, errUnsupported }

func (d *Device) FD() int                       { return -1 }
func (d *Device) Close() error                  { return nil }
func (d *Device) ReadFrame(fr *can.Frame) error { return errUnsupported }
func (d *Device) WriteFrame(fr can.Frame) error { return errUnsupported }

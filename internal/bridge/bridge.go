package bridge

import (
	"log/slog"

	"github.com/kstaniek/go-udpcan-bridge/internal/can"
	"github.com/kstaniek/go-udpcan-bridge/internal/metrics"
	"github.com/kstaniek/go-udpcan-bridge/internal/wire"
)

// Direction labels used in every forward/drop log line.
const (
	DirCANToUDP = "CAN->UDP"
	DirUDPToCAN = "UDP->CAN"
)

// BusDevice is the CAN side of a bridge.
// Implemented by *socketcan.Device in production and by fakes in tests.
type BusDevice interface {
	ReadFrame(*can.Frame) error
	WriteFrame(can.Frame) error
	FD() int
	Close() error
}

// PacketIn is the bound UDP socket a bridge receives datagrams on. Recv
// reports the on-wire datagram size, which can exceed len(buf) when the
// kernel truncated the read.
type PacketIn interface {
	Recv(buf []byte) (int, error)
	FD() int
	Close() error
}

// PacketOut is the connected UDP socket a bridge sends datagrams to.
type PacketOut interface {
	Send([]byte) error
	Close() error
}

// Bridge pairs one CAN interface with one UDP port pair and forwards frames
// in both directions, one unit per call. It holds no state beyond its three
// endpoints; each forward either relays exactly one frame or logs why not.
// A Bridge is touched only from the multiplexing loop, so it needs no locks.
type Bridge struct {
	spec  Spec
	bus   BusDevice
	in    PacketIn
	out   PacketOut
	codec wire.Codec
	log   *slog.Logger
}

// New wires up a bridge from already-open endpoints. The logger is tagged
// with the bridge identity so every event names its bridge.
func New(spec Spec, bus BusDevice, in PacketIn, out PacketOut, l *slog.Logger) *Bridge {
	return &Bridge{
		spec: spec,
		bus:  bus,
		in:   in,
		out:  out,
		log:  l.With("bridge", spec.String()),
	}
}

// Spec returns the bridge identity.
func (b *Bridge) Spec() Spec { return b.spec }

// BusFD is the pollable CAN socket.
func (b *Bridge) BusFD() int { return b.bus.FD() }

// UDPFD is the pollable UDP listen socket. The send socket is never watched.
func (b *Bridge) UDPFD() int { return b.in.FD() }

// Close releases all three endpoints. Only called at process teardown;
// bridges are never torn down individually while the loop runs.
func (b *Bridge) Close() {
	_ = b.bus.Close()
	_ = b.in.Close()
	_ = b.out.Close()
}

// ForwardBusToNet reads one frame from the CAN device, encodes it and sends
// it to the configured destination. Errors on either side are logged and the
// frame is dropped; nothing is retried.
func (b *Bridge) ForwardBusToNet() {
	var fr can.Frame
	if err := b.bus.ReadFrame(&fr); err != nil {
		metrics.IncError(metrics.ErrCANRead)
		b.log.Warn("recv_failed", "dir", DirCANToUDP, "error", err)
		return
	}
	metrics.IncCANRx()
	b.log.Info("forward", "dir", DirCANToUDP, "frame", fr.String())
	if err := b.out.Send(b.codec.Encode(fr)); err != nil {
		metrics.IncError(metrics.ErrUDPSend)
		b.log.Warn("send_failed", "dir", DirCANToUDP, "error", err)
		return
	}
	metrics.IncUDPTx()
}

// ForwardNetToBus reads one datagram from the listen socket, decodes it and
// writes the frame to the CAN device. Too-short datagrams are dropped;
// oversized ones are truncated to a full frame, logged, and still forwarded.
func (b *Bridge) ForwardNetToBus() {
	var buf [wire.MaxPacket]byte
	size, err := b.in.Recv(buf[:])
	if err != nil {
		metrics.IncError(metrics.ErrUDPRecv)
		b.log.Warn("recv_failed", "dir", DirUDPToCAN, "error", err)
		return
	}
	fr, truncated, err := b.codec.Decode(buf[:], size)
	if err != nil {
		b.log.Warn("datagram_too_short", "dir", DirUDPToCAN, "size", size, "error", err)
		return
	}
	metrics.IncUDPRx()
	if truncated {
		b.log.Warn("datagram_truncated", "dir", DirUDPToCAN, "size", size, "kept", wire.MaxPacket)
	}
	b.log.Info("forward", "dir", DirUDPToCAN, "frame", fr.String())
	if err := b.bus.WriteFrame(fr); err != nil {
		metrics.IncError(metrics.ErrCANWrite)
		b.log.Warn("send_failed", "dir", DirUDPToCAN, "error", err)
		return
	}
	metrics.IncCANTx()
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/kstaniek/go-udpcan-bridge/internal/bridge"
	"github.com/kstaniek/go-udpcan-bridge/internal/socketcan"
	"github.com/kstaniek/go-udpcan-bridge/internal/udp"
)

// Endpoint acquisition hooks for tests (overridden in unit tests).
var (
	openCANDevice = func(iface string) (bridge.BusDevice, error) { return socketcan.Open(iface) }
	openUDPListen = func(port string) (bridge.PacketIn, error) { return udp.Listen(port) }
	openUDPDial   = func(host, port string) (bridge.PacketOut, error) { return udp.Dial(host, port) }
)

// openBridges acquires all three endpoints for every spec, in spec order.
// Any failure aborts the whole set: already-open bridges are closed and the
// error is returned so the process can exit before the loop starts.
func openBridges(specs []bridge.Spec, l *slog.Logger) ([]*bridge.Bridge, error) {
	bridges := make([]*bridge.Bridge, 0, len(specs))
	fail := func(err error) ([]*bridge.Bridge, error) {
		for _, b := range bridges {
			b.Close()
		}
		return nil, err
	}
	for _, s := range specs {
		bus, err := openCANDevice(s.CANIf)
		if err != nil {
			return fail(fmt.Errorf("%s: bind CAN interface: %w", s, err))
		}
		in, err := openUDPListen(s.InPort)
		if err != nil {
			_ = bus.Close()
			return fail(fmt.Errorf("%s: bind UDP port: %w", s, err))
		}
		out, err := openUDPDial(s.OutHost, s.OutPort)
		if err != nil {
			_ = bus.Close()
			_ = in.Close()
			return fail(fmt.Errorf("%s: connect UDP destination: %w", s, err))
		}
		l.Info("bridge_open", "bridge", s.String())
		bridges = append(bridges, bridge.New(s, bus, in, out, l))
	}
	return bridges, nil
}

//go:build !linux

package mux

import (
	"errors"
	"log/slog"

	"github.com/kstaniek/go-udpcan-bridge/internal/bridge"
)

// Placeholder so non-linux builds compile; the readiness loop needs poll(2).
type Mux struct{}

func New(bridges []*bridge.Bridge, l *slog.Logger) *Mux { return &Mux{} }

func (m *Mux) Run() error {
	return errors.New("mux: poll-based multiplexing unsupported on this platform")
}

//go:build linux

package mux

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/kstaniek/go-udpcan-bridge/internal/bridge"
	"github.com/kstaniek/go-udpcan-bridge/internal/metrics"
)

// pollFn is a hook for tests (overridden in unit tests).
var pollFn = unix.Poll

// Mux services all bridges from a single poll loop. For every bridge it
// watches two readiness sources, the CAN socket and the UDP listen socket;
// the UDP send socket is never watched. Each pollfd row is paired with the
// forwarding operation that drains it, so dispatch never has to derive the
// owning bridge from an index.
type Mux struct {
	pfds     []unix.PollFd
	forwards []func()
	log      *slog.Logger
}

// New projects every bridge's two readable endpoints into the watch list,
// in bridge order: CAN socket first, then the UDP listen socket. The scan
// order during dispatch follows this list and is fixed for the process run.
func New(bridges []*bridge.Bridge, l *slog.Logger) *Mux {
	m := &Mux{log: l}
	for _, b := range bridges {
		m.watch(b.BusFD(), b.ForwardBusToNet)
		m.watch(b.UDPFD(), b.ForwardNetToBus)
	}
	return m
}

func (m *Mux) watch(fd int, forward func()) {
	m.pfds = append(m.pfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	m.forwards = append(m.forwards, forward)
}

// Run blocks on poll(2) and dispatches every readable endpoint, forever.
// EINTR is retried; the Go runtime interrupts blocking syscalls for
// preemption, so it does not indicate a broken wait. Any other poll failure
// is unrecoverable and returned to the caller, which terminates the process.
func (m *Mux) Run() error {
	m.log.Info("mux_start", "watched_fds", len(m.pfds))
	for {
		if _, err := pollFn(m.pfds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			metrics.IncError(metrics.ErrPoll)
			return fmt.Errorf("poll: %w", err)
		}
		m.dispatch()
	}
}

// dispatch scans the watch list in fixed order and drains one unit from each
// endpoint that reported readable. Endpoints left ready re-announce on the
// next poll, so one unit per wake keeps bridges from starving each other.
func (m *Mux) dispatch() {
	for i := range m.pfds {
		if m.pfds[i].Revents&unix.POLLIN == 0 {
			continue
		}
		m.pfds[i].Revents = 0
		m.forwards[i]()
	}
}

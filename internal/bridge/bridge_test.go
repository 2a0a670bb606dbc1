package bridge

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/kstaniek/go-udpcan-bridge/internal/can"
	"github.com/kstaniek/go-udpcan-bridge/internal/logging"
)

// fakeBus implements BusDevice; it serves queued frames on ReadFrame and
// records WriteFrame calls.
type fakeBus struct {
	fd       int
	reads    []can.Frame
	readErr  error
	written  []can.Frame
	writeErr error
}

func (f *fakeBus) ReadFrame(fr *can.Frame) error {
	if f.readErr != nil {
		return f.readErr
	}
	if len(f.reads) == 0 {
		return errors.New("no frame queued")
	}
	*fr = f.reads[0]
	f.reads = f.reads[1:]
	return nil
}

func (f *fakeBus) WriteFrame(fr can.Frame) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, fr)
	return nil
}

func (f *fakeBus) FD() int      { return f.fd }
func (f *fakeBus) Close() error { return nil }

// fakeIn implements PacketIn; each queued datagram carries its on-wire size,
// which can exceed the payload bytes to imitate MSG_TRUNC.
type fakeIn struct {
	fd      int
	grams   [][]byte
	sizes   []int
	recvErr error
}

func (f *fakeIn) Recv(buf []byte) (int, error) {
	if f.recvErr != nil {
		return 0, f.recvErr
	}
	if len(f.grams) == 0 {
		return 0, errors.New("no datagram queued")
	}
	g, size := f.grams[0], f.sizes[0]
	f.grams, f.sizes = f.grams[1:], f.sizes[1:]
	copy(buf, g)
	return size, nil
}

func (f *fakeIn) FD() int      { return f.fd }
func (f *fakeIn) Close() error { return nil }

// fakeOut implements PacketOut and records sent datagrams.
type fakeOut struct {
	sent    [][]byte
	sendErr error
}

func (f *fakeOut) Send(b []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), b...))
	return nil
}

func (f *fakeOut) Close() error { return nil }

func testSpec() Spec {
	return Spec{CANIf: "can0", InPort: "20000", OutHost: "host", OutPort: "20001"}
}

func newTestBridge(bus *fakeBus, in *fakeIn, out *fakeOut, logBuf *bytes.Buffer) *Bridge {
	return New(testSpec(), bus, in, out, logging.New("text", slog.LevelDebug, logBuf))
}

// A bus frame 123#DEADBEEF must leave as the single datagram 00000123deadbeef
// with a log line naming the bridge and the CAN->UDP direction.
func TestForwardBusToNet(t *testing.T) {
	fr := can.Frame{ID: 0x123, Len: 4}
	copy(fr.Data[:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	bus := &fakeBus{reads: []can.Frame{fr}}
	out := &fakeOut{}
	var logBuf bytes.Buffer
	b := newTestBridge(bus, &fakeIn{}, out, &logBuf)

	b.ForwardBusToNet()

	if len(out.sent) != 1 {
		t.Fatalf("sent %d datagrams, want 1", len(out.sent))
	}
	want := []byte{0x00, 0x00, 0x01, 0x23, 0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(out.sent[0], want) {
		t.Fatalf("datagram % X, want % X", out.sent[0], want)
	}
	logs := logBuf.String()
	if !strings.Contains(logs, "can0:20000:host:20001") || !strings.Contains(logs, "CAN->UDP") {
		t.Fatalf("log missing bridge identity or direction: %s", logs)
	}
	if !strings.Contains(logs, "123#DEADBEEF") {
		t.Fatalf("log missing frame rendering: %s", logs)
	}
}

// A 5-byte datagram 000000ABAB yields a bus frame id 0xAB with one data byte.
func TestForwardNetToBus(t *testing.T) {
	bus := &fakeBus{}
	in := &fakeIn{grams: [][]byte{{0x00, 0x00, 0x00, 0xAB, 0xAB}}, sizes: []int{5}}
	var logBuf bytes.Buffer
	b := newTestBridge(bus, in, &fakeOut{}, &logBuf)

	b.ForwardNetToBus()

	if len(bus.written) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(bus.written))
	}
	fr := bus.written[0]
	if fr.ID != 0xAB || fr.Len != 1 || fr.Data[0] != 0xAB {
		t.Fatalf("frame %v", fr)
	}
	if !strings.Contains(logBuf.String(), "UDP->CAN") {
		t.Fatalf("log missing direction: %s", logBuf.String())
	}
}

// A 3-byte datagram is dropped with no bus write and no panic.
func TestForwardNetToBus_ShortDatagramDropped(t *testing.T) {
	bus := &fakeBus{}
	in := &fakeIn{grams: [][]byte{{1, 2, 3}}, sizes: []int{3}}
	var logBuf bytes.Buffer
	b := newTestBridge(bus, in, &fakeOut{}, &logBuf)

	b.ForwardNetToBus()

	if len(bus.written) != 0 {
		t.Fatalf("short datagram must not reach the bus, wrote %d", len(bus.written))
	}
	if !strings.Contains(logBuf.String(), "datagram_too_short") {
		t.Fatalf("expected drop log, got: %s", logBuf.String())
	}
}

// An oversized datagram is truncated to a full 8-byte frame but still forwarded.
func TestForwardNetToBus_OversizedTruncatedAndForwarded(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x01, 0x23, 1, 2, 3, 4, 5, 6, 7, 8}
	bus := &fakeBus{}
	in := &fakeIn{grams: [][]byte{payload}, sizes: []int{30}} // wire said 30 bytes
	var logBuf bytes.Buffer
	b := newTestBridge(bus, in, &fakeOut{}, &logBuf)

	b.ForwardNetToBus()

	if len(bus.written) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(bus.written))
	}
	if bus.written[0].Len != can.MaxDataLen {
		t.Fatalf("dlc %d, want %d", bus.written[0].Len, can.MaxDataLen)
	}
	if !strings.Contains(logBuf.String(), "datagram_truncated") {
		t.Fatalf("expected truncation log, got: %s", logBuf.String())
	}
}

func TestForwardBusToNet_RecvErrorLoggedNotSent(t *testing.T) {
	bus := &fakeBus{readErr: errors.New("interrupted")}
	out := &fakeOut{}
	var logBuf bytes.Buffer
	b := newTestBridge(bus, &fakeIn{}, out, &logBuf)

	b.ForwardBusToNet()

	if len(out.sent) != 0 {
		t.Fatalf("nothing should be sent after a recv error")
	}
	if !strings.Contains(logBuf.String(), "recv_failed") {
		t.Fatalf("expected recv_failed log, got: %s", logBuf.String())
	}
}

func TestForwardBusToNet_SendErrorLoggedNotFatal(t *testing.T) {
	fr := can.Frame{ID: 0x1, Len: 0}
	bus := &fakeBus{reads: []can.Frame{fr, fr}}
	out := &fakeOut{sendErr: errors.New("network unreachable")}
	var logBuf bytes.Buffer
	b := newTestBridge(bus, &fakeIn{}, out, &logBuf)

	b.ForwardBusToNet()
	// Next event on the same bridge must still be serviced.
	out.sendErr = nil
	b.ForwardBusToNet()

	if len(out.sent) != 1 {
		t.Fatalf("second forward should succeed, sent %d", len(out.sent))
	}
	if !strings.Contains(logBuf.String(), "send_failed") {
		t.Fatalf("expected send_failed log, got: %s", logBuf.String())
	}
}

func TestForwardNetToBus_WriteErrorLoggedNotFatal(t *testing.T) {
	bus := &fakeBus{writeErr: errors.New("no buffer space")}
	in := &fakeIn{grams: [][]byte{{0, 0, 0, 1}}, sizes: []int{4}}
	var logBuf bytes.Buffer
	b := newTestBridge(bus, in, &fakeOut{}, &logBuf)

	b.ForwardNetToBus()

	if !strings.Contains(logBuf.String(), "send_failed") {
		t.Fatalf("expected send_failed log, got: %s", logBuf.String())
	}
}

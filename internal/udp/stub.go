//go:build !linux

package udp

import "errors"

var errUnsupported = errors.New("udp: raw datagram sockets unsupported on this platform")

// Socket placeholder so non-linux builds compile; the bridge relies on
// linux-only MSG_TRUNC semantics.
type Socket struct{}

func Listen(port string) (*Socket, error)     { return nil, errUnsupported }
func Dial(host, port string) (*Socket, error) { return nil, errUnsupported }

func (s *Socket) FD() int                      { return -1 }
func (s *Socket) Close() error                 { return nil }
func (s *Socket) Recv(buf []byte) (int, error) { return 0, errUnsupported }
func (s *Socket) Send(b []byte) error          { return errUnsupported }

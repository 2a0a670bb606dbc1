//go:build linux

package udp

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// Socket is a raw datagram socket, either bound to a listen port or
// connected to a fixed destination. Raw fds keep it pollable alongside the
// CAN sockets and give access to MSG_TRUNC size reporting.
type Socket struct {
	fd int
}

func portNumber(port string) (int, error) {
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return 0, fmt.Errorf("invalid UDP port %q", port)
	}
	return p, nil
}

// Listen binds a datagram socket to the wildcard address on port. An IPv6
// socket with V6ONLY cleared is tried first so one socket accepts both
// families; IPv4-only hosts fall back to a plain AF_INET bind.
func Listen(port string) (*Socket, error) {
	p, err := portNumber(port)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err == nil {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
		if err = unix.Bind(fd, &unix.SockaddrInet6{Port: p}); err == nil {
			return &Socket{fd: fd}, nil
		}
		_ = unix.Close(fd)
	}
	fd, err = unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket(udp): %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: p}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind(:%s): %w", port, err)
	}
	return &Socket{fd: fd}, nil
}

// Dial resolves host:port and returns a socket connected to it, so Send can
// omit the destination on every datagram.
func Dial(host, port string) (*Socket, error) {
	if _, err := portNumber(port); err != nil {
		return nil, err
	}
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve %s:%s: %w", host, port, err)
	}
	if ip4 := raddr.IP.To4(); ip4 != nil {
		fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
		if err != nil {
			return nil, fmt.Errorf("socket(udp4): %w", err)
		}
		sa := &unix.SockaddrInet4{Port: raddr.Port}
		copy(sa.Addr[:], ip4)
		if err := unix.Connect(fd, sa); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("connect(%s:%s): %w", host, port, err)
		}
		return &Socket{fd: fd}, nil
	}
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket(udp6): %w", err)
	}
	sa := &unix.SockaddrInet6{Port: raddr.Port}
	copy(sa.Addr[:], raddr.IP.To16())
	if err := unix.Connect(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("connect(%s:%s): %w", host, port, err)
	}
	return &Socket{fd: fd}, nil
}

// FD exposes the socket for readiness polling.
func (s *Socket) FD() int { return s.fd }

func (s *Socket) Close() error { return unix.Close(s.fd) }

// Recv reads one datagram into buf without blocking. The returned size is the
// size of the datagram on the wire: MSG_TRUNC makes the kernel report the
// full length even when it exceeds len(buf), which is how oversized payloads
// are detected with a buffer no larger than a packed frame.
func (s *Socket) Recv(buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(s.fd, buf, unix.MSG_DONTWAIT|unix.MSG_TRUNC)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Send transmits one datagram to the connected destination. Best effort: the
// OS drops on overrun, there is no retry.
func (s *Socket) Send(b []byte) error {
	return unix.Send(s.fd, b, 0)
}

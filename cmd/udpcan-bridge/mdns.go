package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/grandcat/zeroconf"
)

// startMDNS advertises the first bridge's listen port and returns a cleanup
// function. It is safe to call even if disabled (no-op).
const mdnsServiceType = "_udpcan._udp"

func startMDNS(ctx context.Context, cfg *appConfig, inPort string, bridges int) (func(), error) {
	if !cfg.mdnsEnable {
		return func() {}, nil
	}
	port, err := strconv.Atoi(inPort)
	if err != nil {
		return nil, fmt.Errorf("mdns port %q: %w", inPort, err)
	}
	instance := cfg.mdnsName
	if instance == "" {
		host, _ := os.Hostname()
		instance = fmt.Sprintf("udpcan-bridge-%s", host)
	}
	meta := []string{
		"bridges=" + strconv.Itoa(bridges),
		"version=" + version,
		"commit=" + commit,
	}
	// Hardcoded service type; domain local.
	svc, err := zeroconf.Register(instance, mdnsServiceType, "local.", port, meta, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		svc.Shutdown()
	}()
	return func() { close(done); svc.Shutdown(); time.Sleep(50 * time.Millisecond) }, nil
}

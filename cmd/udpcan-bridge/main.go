package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kstaniek/go-udpcan-bridge/internal/bridge"
	"github.com/kstaniek/go-udpcan-bridge/internal/metrics"
	"github.com/kstaniek/go-udpcan-bridge/internal/mux"
)

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("udpcan-bridge %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if cfg == nil {
		os.Exit(1)
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)
	l.Info("build_info", "version", version, "commit", commit, "date", date)

	specs := make([]bridge.Spec, 0, len(cfg.specs))
	for _, raw := range cfg.specs {
		s, err := bridge.ParseSpec(raw)
		if err != nil {
			l.Error("config_error", "error", err)
			os.Exit(1)
		}
		specs = append(specs, s)
	}
	bridges, err := openBridges(specs, l)
	if err != nil {
		l.Error("bridge_open_error", "error", err)
		os.Exit(1)
	}
	metrics.SetBridges(len(bridges))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	m := mux.New(bridges, l)
	metrics.SetReadinessFunc(func() bool { return ctx.Err() == nil })
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}
	if cleanupMDNS, err := startMDNS(ctx, cfg, specs[0].InPort, len(bridges)); err != nil {
		l.Warn("mdns_start_failed", "error", err)
	} else {
		defer cleanupMDNS()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run() }()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		// The readiness wait itself failed; nothing sensible can continue.
		l.Error("mux_fatal", "error", err)
		cancel()
		wg.Wait()
		os.Exit(1)
	case s := <-sigCh:
		l.Info("shutdown_signal", "signal", s.String())
	}
	cancel()
	for _, b := range bridges {
		b.Close()
	}
	wg.Wait()
}

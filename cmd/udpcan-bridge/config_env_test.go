package main

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverrides_Basic(t *testing.T) {
	base := &appConfig{
		logFormat:       "text",
		logLevel:        "info",
		metricsAddr:     "",
		logMetricsEvery: 0,
		mdnsEnable:      false,
		mdnsName:        "",
	}

	os.Setenv("UDPCAN_BRIDGE_LOG_FORMAT", "json")
	os.Setenv("UDPCAN_BRIDGE_MDNS_ENABLE", "true")
	os.Setenv("UDPCAN_BRIDGE_LOG_METRICS_INTERVAL", "5s")
	os.Setenv("UDPCAN_BRIDGE_SPECS", "can0:20000:hostA:20001 can1:20002:hostB:20003")
	t.Cleanup(func() {
		os.Unsetenv("UDPCAN_BRIDGE_LOG_FORMAT")
		os.Unsetenv("UDPCAN_BRIDGE_MDNS_ENABLE")
		os.Unsetenv("UDPCAN_BRIDGE_LOG_METRICS_INTERVAL")
		os.Unsetenv("UDPCAN_BRIDGE_SPECS")
	})
	if err := applyEnvOverrides(base, map[string]struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.logFormat != "json" {
		t.Fatalf("expected logFormat override, got %q", base.logFormat)
	}
	if !base.mdnsEnable {
		t.Fatalf("expected mdnsEnable true")
	}
	if base.logMetricsEvery != 5*time.Second {
		t.Fatalf("expected logMetricsEvery 5s got %v", base.logMetricsEvery)
	}
	if len(base.specs) != 2 || base.specs[1] != "can1:20002:hostB:20003" {
		t.Fatalf("expected specs from env, got %v", base.specs)
	}
}

func TestApplyEnvOverrides_FlagPrecedence(t *testing.T) {
	base := &appConfig{logFormat: "text"}
	os.Setenv("UDPCAN_BRIDGE_LOG_FORMAT", "json")
	t.Cleanup(func() { os.Unsetenv("UDPCAN_BRIDGE_LOG_FORMAT") })
	// Simulate user passed -log-format flag (so env should be ignored)
	if err := applyEnvOverrides(base, map[string]struct{}{"log-format": {}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if base.logFormat != "text" {
		t.Fatalf("expected logFormat unchanged, got %q", base.logFormat)
	}
}

func TestApplyEnvOverrides_ArgsBeatSpecsEnv(t *testing.T) {
	base := &appConfig{specs: []string{"can0:1:h:2"}}
	os.Setenv("UDPCAN_BRIDGE_SPECS", "can9:9:h:9")
	t.Cleanup(func() { os.Unsetenv("UDPCAN_BRIDGE_SPECS") })
	if err := applyEnvOverrides(base, map[string]struct{}{}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(base.specs) != 1 || base.specs[0] != "can0:1:h:2" {
		t.Fatalf("positional specs must win over env, got %v", base.specs)
	}
}

func TestApplyEnvOverrides_BadDuration(t *testing.T) {
	base := &appConfig{}
	os.Setenv("UDPCAN_BRIDGE_LOG_METRICS_INTERVAL", "notaduration")
	t.Cleanup(func() { os.Unsetenv("UDPCAN_BRIDGE_LOG_METRICS_INTERVAL") })
	if err := applyEnvOverrides(base, map[string]struct{}{}); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/go-udpcan-bridge/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	CANRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "can_rx_frames_total",
		Help: "Total CAN frames read from SocketCAN interfaces.",
	})
	CANTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "can_tx_frames_total",
		Help: "Total CAN frames written to SocketCAN interfaces.",
	})
	UDPRxDatagrams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "udp_rx_datagrams_total",
		Help: "Total UDP datagrams accepted on bridge listen ports.",
	})
	UDPTxDatagrams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "udp_tx_datagrams_total",
		Help: "Total UDP datagrams sent to bridge destinations.",
	})
	ShortDatagrams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "short_datagrams_total",
		Help: "Total inbound datagrams rejected as shorter than the frame header.",
	})
	TruncatedDatagrams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truncated_datagrams_total",
		Help: "Total inbound datagrams truncated to the maximum packed frame size.",
	})
	Bridges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridges_configured",
		Help: "Number of configured CAN/UDP bridges.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrCANRead  = "can_read"
	ErrCANWrite = "can_write"
	ErrUDPRecv  = "udp_recv"
	ErrUDPSend  = "udp_send"
	ErrPoll     = "poll"
)

// StartHTTP serves Prometheus metrics at /metrics and a readiness probe at
// /ready on addr.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process)
var (
	localCANRx     uint64
	localCANTx     uint64
	localUDPRx     uint64
	localUDPTx     uint64
	localShort     uint64
	localTruncated uint64
	localErrors    uint64
	localBridges   uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	CANRx     uint64
	CANTx     uint64
	UDPRx     uint64
	UDPTx     uint64
	Short     uint64
	Truncated uint64
	Errors    uint64 // sum across error labels
	Bridges   uint64
}

func Snap() Snapshot {
	return Snapshot{
		CANRx:     atomic.LoadUint64(&localCANRx),
		CANTx:     atomic.LoadUint64(&localCANTx),
		UDPRx:     atomic.LoadUint64(&localUDPRx),
		UDPTx:     atomic.LoadUint64(&localUDPTx),
		Short:     atomic.LoadUint64(&localShort),
		Truncated: atomic.LoadUint64(&localTruncated),
		Errors:    atomic.LoadUint64(&localErrors),
		Bridges:   atomic.LoadUint64(&localBridges),
	}
}

// Wrapper helpers to keep call sites simple.
func IncCANRx() {
	CANRxFrames.Inc()
	atomic.AddUint64(&localCANRx, 1)
}

func IncCANTx() {
	CANTxFrames.Inc()
	atomic.AddUint64(&localCANTx, 1)
}

func IncUDPRx() {
	UDPRxDatagrams.Inc()
	atomic.AddUint64(&localUDPRx, 1)
}

func IncUDPTx() {
	UDPTxDatagrams.Inc()
	atomic.AddUint64(&localUDPTx, 1)
}

// IncShort counts an inbound datagram rejected as too short to carry a frame.
func IncShort() {
	ShortDatagrams.Inc()
	atomic.AddUint64(&localShort, 1)
}

// IncTruncated counts an oversized inbound datagram cut down to the packed maximum.
func IncTruncated() {
	TruncatedDatagrams.Inc()
	atomic.AddUint64(&localTruncated, 1)
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func SetBridges(n int) {
	Bridges.Set(float64(n))
	atomic.StoreUint64(&localBridges, uint64(n))
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	// Pre-register common error label series so first error does not log a registration latency.
	for _, lbl := range []string{
		ErrCANRead, ErrCANWrite, ErrUDPRecv, ErrUDPSend, ErrPoll,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil { // if not set yet, treat as ready so metrics endpoint doesn't flap
		return true
	}
	return fn()
}

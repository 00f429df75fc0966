package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/antgateway/ant-core/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	ResyncEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buffer_resync_total",
		Help: "Total times ProcessBuffer discarded bytes to resynchronize on a frame boundary.",
	})
	CodecErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codec_errors_total",
		Help: "Decode failures by kind (checksum mismatch, invalid sync, invalid length, invalid payload, unknown type).",
	}, []string{"kind"})
	AckQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ack_queue_depth",
		Help: "Current number of buffered ChannelEventResponse acks awaiting a matching WaitForAck.",
	})
	MsgQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "msg_queue_depth",
		Help: "Current number of buffered decoded messages awaiting a matching WaitForMessage.",
	})
	QueueDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_drops_total",
		Help: "Total entries dropped from a bounded queue because it was at capacity.",
	}, []string{"queue"})
	ChannelTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_transitions_total",
		Help: "Total channel lifecycle transitions by destination state.",
	}, []string{"state"})
	RelayClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_active_clients",
		Help: "Current number of connected relay subscribers.",
	})
	RelayBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_broadcast_fanout",
		Help: "Number of subscribers targeted in the most recent relay broadcast.",
	})
	RelayDroppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_dropped_messages_total",
		Help: "Total messages dropped by the relay hub due to a slow subscriber.",
	})
	RelayKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_kicked_clients_total",
		Help: "Total relay subscribers disconnected due to the kick backpressure policy.",
	})
	RelayRejectedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_rejected_clients_total",
		Help: "Total relay connection attempts rejected (e.g., max-clients, failed handshake).",
	})
	RelayTxMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_tx_messages_total",
		Help: "Total decoded messages written out to relay subscribers.",
	})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrTransportRead  = "transport_read"
	ErrTransportWrite = "transport_write"
	ErrRelayAccept    = "relay_accept"
	ErrRelayHandshake = "relay_handshake"
	ErrRelayWrite     = "relay_write"
)

// Codec error kind labels, mirrored from message.Kind.
const (
	CodecErrChecksumMismatch = "checksum_mismatch"
	CodecErrInvalidSync      = "invalid_sync"
	CodecErrInvalidLength    = "invalid_length"
	CodecErrInvalidPayload   = "invalid_payload"
	CodecErrUnknownType      = "unknown_type"
)

// StartHTTP serves Prometheus metrics at /metrics, and a readiness probe
// at /ready driven by SetReadinessFunc.
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

// Local mirrored counters for easy logging without scraping Prometheus
// in-process.
var (
	localResync      uint64
	localCodecErrors uint64
	localQueueDrops  uint64
	localRelayTx     uint64
	localRelayDrops  uint64
	localRelayKicks  uint64
	localErrors      uint64
)

// Snapshot is a cheap copy of the local counters.
type Snapshot struct {
	Resync      uint64
	CodecErrors uint64
	QueueDrops  uint64
	RelayTx     uint64
	RelayDrops  uint64
	RelayKicks  uint64
	Errors      uint64
}

func Snap() Snapshot {
	return Snapshot{
		Resync:      atomic.LoadUint64(&localResync),
		CodecErrors: atomic.LoadUint64(&localCodecErrors),
		QueueDrops:  atomic.LoadUint64(&localQueueDrops),
		RelayTx:     atomic.LoadUint64(&localRelayTx),
		RelayDrops:  atomic.LoadUint64(&localRelayDrops),
		RelayKicks:  atomic.LoadUint64(&localRelayKicks),
		Errors:      atomic.LoadUint64(&localErrors),
	}
}

func IncResync() {
	ResyncEvents.Inc()
	atomic.AddUint64(&localResync, 1)
}

func IncCodecError(kind string) {
	CodecErrors.WithLabelValues(kind).Inc()
	atomic.AddUint64(&localCodecErrors, 1)
}

func SetAckQueueDepth(n int)  { AckQueueDepth.Set(float64(n)) }
func SetMsgQueueDepth(n int)  { MsgQueueDepth.Set(float64(n)) }

func IncQueueDrop(queue string) {
	QueueDrops.WithLabelValues(queue).Inc()
	atomic.AddUint64(&localQueueDrops, 1)
}

func IncChannelTransition(state string) {
	ChannelTransitions.WithLabelValues(state).Inc()
}

func SetRelayClients(n int) { RelayClients.Set(float64(n)) }

func SetRelayBroadcastFanout(n int) { RelayBroadcastFanout.Set(float64(n)) }

func IncRelayDrop() {
	RelayDroppedMessages.Inc()
	atomic.AddUint64(&localRelayDrops, 1)
}

func IncRelayKick() {
	RelayKickedClients.Inc()
	atomic.AddUint64(&localRelayKicks, 1)
}

func IncRelayReject() { RelayRejectedClients.Inc() }

func AddRelayTx(n int) {
	RelayTxMessages.Add(float64(n))
	atomic.AddUint64(&localRelayTx, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }

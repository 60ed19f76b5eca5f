package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ligun0805/izi-swapbot/internal/izumi"
)

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	swapsTotal      *prometheus.CounterVec
	rpcCallsTotal   *prometheus.CounterVec
	rpcCallDuration *prometheus.HistogramVec
	rpcRateLimited  prometheus.Counter
	walletBalance   *prometheus.GaugeVec
}

// NewMetrics registers all collectors on registry, or on
// prometheus.DefaultRegisterer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		swapsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "izi_swaps_total",
				Help: "Swap iterations by destination token and status (ok, stopped, error)",
			},
			[]string{"token_out", "status"},
		),
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "izi_rpc_calls_total",
				Help: "JSON-RPC calls by method and status",
			},
			[]string{"method", "status"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "izi_rpc_call_duration_seconds",
				Help:    "Duration of JSON-RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		rpcRateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "izi_rpc_rate_limit_hits_total",
				Help: "JSON-RPC calls rejected by the node with a rate limit error",
			},
		),
		walletBalance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "izi_wallet_balance_mnt",
				Help: "Last observed native balance per wallet",
			},
			[]string{"address"},
		),
	}
}

func (m *Metrics) SwapDone(tokenOut, status string) {
	if m == nil {
		return
	}
	m.swapsTotal.WithLabelValues(tokenOut, status).Inc()
}

func (m *Metrics) WalletBalance(address string, balance float64) {
	if m == nil {
		return
	}
	m.walletBalance.WithLabelValues(address).Set(balance)
}

// ObserveRPC implements izumi.Observer.
func (m *Metrics) ObserveRPC(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		if izumi.IsRateLimitError(err) {
			m.rpcRateLimited.Inc()
		}
	}
	m.rpcCallsTotal.WithLabelValues(method, status).Inc()
	m.rpcCallDuration.WithLabelValues(method).Observe(d.Seconds())
}

package observability

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type rpcMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

type ledgerMetrics struct {
	operations      *prometheus.CounterVec
	poolLiquidity   prometheus.Gauge
	poolNetDeposits prometheus.Gauge
	poolOutstanding prometheus.Gauge
	bansApplied     prometheus.Counter
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics

	ledgerMetricsOnce sync.Once
	ledgerRegistry    *ledgerMetrics
)

// RPC returns the lazily-initialised metrics registry used to record JSON-RPC
// activity.
func RPC() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "credpool",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "credpool",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and error code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "credpool",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "credpool",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by rate limiting.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			rpcRegistry.requests,
			rpcRegistry.errors,
			rpcRegistry.latency,
			rpcRegistry.throttles,
		)
	})
	return rpcRegistry
}

// Observe records the outcome of an RPC call. A zero code means the call
// succeeded; any other value is the JSON-RPC error code that was returned.
func (m *rpcMetrics) Observe(method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit" so dashboards remain consistent.
func (m *rpcMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// Ledger returns the metrics registry tracking pool accounting and mutation
// outcomes.
func Ledger() *ledgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &ledgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "credpool",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Count of ledger mutations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			poolLiquidity: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "credpool",
				Subsystem: "ledger",
				Name:      "pool_liquidity_wei",
				Help:      "Value currently held by the pool and available to lend or withdraw.",
			}),
			poolNetDeposits: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "credpool",
				Subsystem: "ledger",
				Name:      "pool_net_deposits_wei",
				Help:      "Aggregate lender deposits net of withdrawals.",
			}),
			poolOutstanding: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "credpool",
				Subsystem: "ledger",
				Name:      "pool_loans_outstanding_wei",
				Help:      "Aggregate principal currently owed by borrowers.",
			}),
			bansApplied: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "credpool",
				Subsystem: "ledger",
				Name:      "bans_applied_total",
				Help:      "Count of borrower bans applied by default detection.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.poolLiquidity,
			ledgerRegistry.poolNetDeposits,
			ledgerRegistry.poolOutstanding,
			ledgerRegistry.bansApplied,
		)
	})
	return ledgerRegistry
}

// ObserveOperation records the outcome of a ledger mutation.
func (m *ledgerMetrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordPool updates the pool accounting gauges. Gauges carry approximate
// float values; exact figures live in the ledger itself.
func (m *ledgerMetrics) RecordPool(netDeposits, liquidity, outstanding *big.Int) {
	if m == nil {
		return
	}
	m.poolNetDeposits.Set(bigToFloat(netDeposits))
	m.poolLiquidity.Set(bigToFloat(liquidity))
	m.poolOutstanding.Set(bigToFloat(outstanding))
}

// RecordBan increments the applied-ban counter.
func (m *ledgerMetrics) RecordBan() {
	if m == nil {
		return
	}
	m.bansApplied.Inc()
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, acc := new(big.Float).SetInt(value).Float64()
	if acc != big.Exact {
		if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
			return 0
		}
	}
	return floatVal
}

// Package observability exposes the Prometheus metrics and structured
// observation types the reserve core and its driving CLI emit. The core
// packages (fixedpoint, interest, ratemodel, reserve) never import this
// package; only the outermost layer (cmd/reservesim) hands fixed-point
// results to it, and this package converts them into the floating-point
// values metrics collectors expect, the same boundary the teacher draws
// around its own bigToFloat conversions.
package observability

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type reserveMetrics struct {
	liquidityRate       *prometheus.GaugeVec
	stableBorrowRate     *prometheus.GaugeVec
	variableBorrowRate   *prometheus.GaugeVec
	liquidityIndex       *prometheus.GaugeVec
	variableBorrowIndex  *prometheus.GaugeVec
	accruedToTreasury    *prometheus.GaugeVec
	updateLatency        *prometheus.HistogramVec
	invariantViolations  *prometheus.CounterVec
}

var (
	reserveMetricsOnce sync.Once
	reserveRegistry    *reserveMetrics
)

// Reserve returns the lazily-initialised metrics registry for reserve
// accrual and rate updates.
func Reserve() *reserveMetrics {
	reserveMetricsOnce.Do(func() {
		reserveRegistry = &reserveMetrics{
			liquidityRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "liquidity_rate",
				Help:      "Current supply-side interest rate, expressed as a ray fraction.",
			}, []string{"pool", "asset"}),
			stableBorrowRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "stable_borrow_rate",
				Help:      "Current stable borrow rate, expressed as a ray fraction.",
			}, []string{"pool", "asset"}),
			variableBorrowRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "variable_borrow_rate",
				Help:      "Current variable borrow rate, expressed as a ray fraction.",
			}, []string{"pool", "asset"}),
			liquidityIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "liquidity_index",
				Help:      "Cumulative liquidity index, expressed in ray units.",
			}, []string{"pool", "asset"}),
			variableBorrowIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "variable_borrow_index",
				Help:      "Cumulative variable borrow index, expressed in ray units.",
			}, []string{"pool", "asset"}),
			accruedToTreasury: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "accrued_to_treasury",
				Help:      "Scaled treasury claim accrued against the reserve, in wad units.",
			}, []string{"pool", "asset"}),
			updateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "update_duration_seconds",
				Help:      "Latency distribution for a full cache/updateState/updateInterestRates cycle.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"pool", "asset"}),
			invariantViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "reservecore",
				Subsystem: "reserve",
				Name:      "invariant_violations_total",
				Help:      "Count of aborted updates caused by a fatal invariant violation.",
			}, []string{"pool", "asset", "reason"}),
		}
		prometheus.MustRegister(
			reserveRegistry.liquidityRate,
			reserveRegistry.stableBorrowRate,
			reserveRegistry.variableBorrowRate,
			reserveRegistry.liquidityIndex,
			reserveRegistry.variableBorrowIndex,
			reserveRegistry.accruedToTreasury,
			reserveRegistry.updateLatency,
			reserveRegistry.invariantViolations,
		)
	})
	return reserveRegistry
}

// RecordRates updates the three rate gauges for one pool/asset pair. Rates
// are supplied as big.Int ray-scaled values (1e27 = 1.0) and rendered to
// float64 the same way the teacher's Payoutd.RecordCap renders *big.Int
// balances for gauges.
func (m *reserveMetrics) RecordRates(pool, asset string, liquidityRate, stableBorrowRate, variableBorrowRate *big.Int) {
	if m == nil {
		return
	}
	label := labelPair(pool, asset)
	m.liquidityRate.WithLabelValues(label[0], label[1]).Set(rayToFloat(liquidityRate))
	m.stableBorrowRate.WithLabelValues(label[0], label[1]).Set(rayToFloat(stableBorrowRate))
	m.variableBorrowRate.WithLabelValues(label[0], label[1]).Set(rayToFloat(variableBorrowRate))
}

// RecordIndexes updates the liquidity and variable-borrow index gauges.
func (m *reserveMetrics) RecordIndexes(pool, asset string, liquidityIndex, variableBorrowIndex *big.Int) {
	if m == nil {
		return
	}
	label := labelPair(pool, asset)
	m.liquidityIndex.WithLabelValues(label[0], label[1]).Set(rayToFloat(liquidityIndex))
	m.variableBorrowIndex.WithLabelValues(label[0], label[1]).Set(rayToFloat(variableBorrowIndex))
}

// RecordAccruedToTreasury sets the treasury accrual gauge to its current
// scaled value, in wad units.
func (m *reserveMetrics) RecordAccruedToTreasury(pool, asset string, accrued *big.Int) {
	if m == nil {
		return
	}
	label := labelPair(pool, asset)
	m.accruedToTreasury.WithLabelValues(label[0], label[1]).Set(wadToFloat(accrued))
}

// ObserveUpdateLatency records how long one full update cycle took.
func (m *reserveMetrics) ObserveUpdateLatency(pool, asset string, d time.Duration) {
	if m == nil {
		return
	}
	label := labelPair(pool, asset)
	m.updateLatency.WithLabelValues(label[0], label[1]).Observe(d.Seconds())
}

// RecordInvariantViolation increments the invariant-violation counter for
// the supplied reason (typically an error's message).
func (m *reserveMetrics) RecordInvariantViolation(pool, asset, reason string) {
	if m == nil {
		return
	}
	label := labelPair(pool, asset)
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "unspecified"
	}
	m.invariantViolations.WithLabelValues(label[0], label[1], reason).Inc()
}

func labelPair(pool, asset string) [2]string {
	p := strings.TrimSpace(pool)
	if p == "" {
		p = "default"
	}
	a := strings.TrimSpace(strings.ToUpper(asset))
	if a == "" {
		a = "UNKNOWN"
	}
	return [2]string{p, a}
}

func rayToFloat(value *big.Int) float64 {
	return scaledToFloat(value, 27)
}

func wadToFloat(value *big.Int) float64 {
	return scaledToFloat(value, 18)
}

func scaledToFloat(value *big.Int, decimals int) float64 {
	if value == nil {
		return 0
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	quotient := new(big.Float).Quo(new(big.Float).SetInt(value), divisor)
	f, _ := quotient.Float64()
	return f
}

package observability

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"reservecore/observability/logging"
)

// ReserveUpdated is the ReserveDataUpdated observation emitted once per
// updateInterestRates call. CorrelationID lets one logical action's log
// line and metric samples be joined by downstream consumers; NewCorrelationID
// mints a fresh one per action, the same role google/uuid plays for the
// teacher's request-tracing IDs.
type ReserveUpdated struct {
	CorrelationID       uuid.UUID
	Pool                string
	Asset               string
	LiquidityRateRay    string
	StableBorrowRateRay string
	VariableBorrowRateRay string
	LiquidityIndexRay   string
	VariableBorrowIndexRay string
	At                  time.Time
}

// NewCorrelationID mints a fresh correlation identifier for one reserve
// action.
func NewCorrelationID() uuid.UUID {
	return uuid.New()
}

// Sink receives observations emitted by the reserve driver. Implementations
// must not block the caller for long; the driver calls Sink synchronously
// after each updateInterestRates.
type Sink interface {
	ObserveReserveUpdated(ctx context.Context, ev ReserveUpdated)
}

// SlogSink writes each observation as one structured JSON log line.
type SlogSink struct {
	Logger *slog.Logger
}

// ObserveReserveUpdated implements Sink. The logger is scoped to the
// observation's pool/asset pair via logging.WithReserve so every line this
// sink ever emits already carries those labels, instead of repeating them
// as a pair of attrs at every call site.
func (s SlogSink) ObserveReserveUpdated(_ context.Context, ev ReserveUpdated) {
	logger := logging.WithReserve(s.Logger, ev.Pool, ev.Asset)
	logger.Info("reserve_data_updated",
		slog.String("correlation_id", ev.CorrelationID.String()),
		slog.String("liquidity_rate_ray", ev.LiquidityRateRay),
		slog.String("stable_borrow_rate_ray", ev.StableBorrowRateRay),
		slog.String("variable_borrow_rate_ray", ev.VariableBorrowRateRay),
		slog.String("liquidity_index_ray", ev.LiquidityIndexRay),
		slog.String("variable_borrow_index_ray", ev.VariableBorrowIndexRay),
		slog.Time("at", ev.At),
	)
}

// PrometheusSink pushes each observation into the Reserve() metrics
// registry. Values are parsed from their ray-scaled decimal strings; a
// malformed value is dropped rather than aborting the observation, since a
// metrics sink must never fail an in-progress action.
type PrometheusSink struct{}

// ObserveReserveUpdated implements Sink.
func (PrometheusSink) ObserveReserveUpdated(_ context.Context, ev ReserveUpdated) {
	liquidityRate, ok1 := parseDecimal(ev.LiquidityRateRay)
	stableBorrowRate, ok2 := parseDecimal(ev.StableBorrowRateRay)
	variableBorrowRate, ok3 := parseDecimal(ev.VariableBorrowRateRay)
	if ok1 && ok2 && ok3 {
		Reserve().RecordRates(ev.Pool, ev.Asset, liquidityRate, stableBorrowRate, variableBorrowRate)
	}
	liquidityIndex, ok4 := parseDecimal(ev.LiquidityIndexRay)
	variableBorrowIndex, ok5 := parseDecimal(ev.VariableBorrowIndexRay)
	if ok4 && ok5 {
		Reserve().RecordIndexes(ev.Pool, ev.Asset, liquidityIndex, variableBorrowIndex)
	}
}

func parseDecimal(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 10)
	return v, ok
}

// Multi fans one observation out to every sink in order.
type Multi []Sink

// ObserveReserveUpdated implements Sink.
func (m Multi) ObserveReserveUpdated(ctx context.Context, ev ReserveUpdated) {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		sink.ObserveReserveUpdated(ctx, ev)
	}
}

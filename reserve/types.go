package reserve

import (
	"reservecore/fixedpoint"
	"reservecore/identity"
)

// MaxTimestamp is the largest value lastUpdateTimestamp can hold in its
// 40-bit packed field (spec.md §3/§6).
const MaxTimestamp uint64 = (1 << 40) - 1

// Data is the persistent, per-asset reserve record of spec.md §3. It is an
// owned value: the serialized driver holds exclusive access to it for the
// duration of one action, and it is never aliased or read by more than one
// action at a time (spec.md §5).
type Data struct {
	// Address identifies the reserve itself (its underlying asset's handle),
	// distinct from the aToken/debt-token collaborators it delegates to.
	Address identity.Address

	// Configuration is the packed bitmap encoding at least reserveFactor
	// (basis points) and whatever other flags external collaborators
	// consume. The core never inspects it directly; callers resolve
	// ReserveFactorBps through a ReserveConfiguration collaborator.
	Configuration uint64

	LiquidityIndex      fixedpoint.Uint128
	VariableBorrowIndex fixedpoint.Uint128

	CurrentLiquidityRate      fixedpoint.Uint128
	CurrentStableBorrowRate   fixedpoint.Uint128
	CurrentVariableBorrowRate fixedpoint.Uint128

	// LastUpdateTimestamp is the logical time (seconds) of the last index
	// roll-forward. Must fit in 40 bits (spec.md §3).
	LastUpdateTimestamp uint64

	// AccruedToTreasury is the treasury's scaled claim on the supply side;
	// its nominal share is AccruedToTreasury * LiquidityIndex.
	AccruedToTreasury fixedpoint.Uint128

	// Unbacked is the amount minted without a matching deposit (the
	// cross-domain bridging hook). Zero in the baseline; the core never
	// writes it itself (spec.md §9, open question).
	Unbacked fixedpoint.Wad

	ATokenAddress               identity.Address
	StableDebtTokenAddress      identity.Address
	VariableDebtTokenAddress    identity.Address
	InterestRateStrategyAddress identity.Address

	// Symbol and PoolID are ambient labels carried only for logging,
	// metrics, and config lookup; the math never reads them.
	Symbol string
	PoolID string
}

// IsInitialized reports whether Init has been called on this reserve.
func (d *Data) IsInitialized() bool {
	return !d.ATokenAddress.IsZero()
}

// Cache is the ephemeral, per-action snapshot of spec.md §3. It is
// stack-local: created by BuildCache, mutated by UpdateState and by the
// caller's external debt-mint/burn helpers, consumed by UpdateInterestRates,
// and discarded at the end of the action. It is never shared across
// actions.
type Cache struct {
	CurrConfiguration uint64

	CurrLiquidityIndex      fixedpoint.Ray
	NextLiquidityIndex      fixedpoint.Ray
	CurrVariableBorrowIndex fixedpoint.Ray
	NextVariableBorrowIndex fixedpoint.Ray

	CurrLiquidityRate         fixedpoint.Ray
	CurrStableBorrowRate      fixedpoint.Ray
	CurrVariableBorrowRate    fixedpoint.Ray

	ReserveFactorBps uint64

	ReserveLastUpdateTimestamp uint64

	CurrScaledVariableDebt fixedpoint.Wad
	NextScaledVariableDebt fixedpoint.Wad

	CurrPrincipalStableDebt fixedpoint.Wad
	CurrTotalStableDebt     fixedpoint.Wad
	NextTotalStableDebt     fixedpoint.Wad

	CurrAvgStableBorrowRate fixedpoint.Ray
	NextAvgStableBorrowRate fixedpoint.Ray

	StableDebtLastUpdateTimestamp uint64

	ReserveAddress              identity.Address
	ATokenAddress               identity.Address
	StableDebtTokenAddress      identity.Address
	VariableDebtTokenAddress    identity.Address
	InterestRateStrategyAddress identity.Address
}

// Updated is the ReserveDataUpdated observation of spec.md §6/§9: emitted
// once per UpdateInterestRates call, before the caller performs any further
// state changes that depend on the new rates.
type Updated struct {
	ReserveAddress      identity.Address
	LiquidityRate       fixedpoint.Ray
	StableBorrowRate    fixedpoint.Ray
	VariableBorrowRate  fixedpoint.Ray
	LiquidityIndex      fixedpoint.Ray
	VariableBorrowIndex fixedpoint.Ray
	// CorrelationID lets a single logical update's log lines and metric
	// samples be joined by downstream consumers.
	CorrelationID string
}

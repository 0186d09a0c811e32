package condorcet

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ThresholdKind tags a PercentageThreshold.
type ThresholdKind uint8

const (
	ThresholdMajority ThresholdKind = 0
	ThresholdPercent  ThresholdKind = 1
)

const (
	// precisionFactor matches the 1e9 scale used when comparing vote counts to a percentage.
	precisionFactor = 1_000_000_000
	// decimalPlaces is the fixed point scale of percentages, 1.0 == 1e18 atomics.
	decimalPlaces = 18
)

var (
	precision   = uint256.NewInt(precisionFactor)
	decimalUnit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(decimalPlaces))
)

// PercentageThreshold is either a simple majority or a fixed percentage of the total.
type PercentageThreshold struct {
	Kind    ThresholdKind
	Percent decimal.Decimal
}

// Majority passes with strictly more than half.
func Majority() PercentageThreshold {
	return PercentageThreshold{Kind: ThresholdMajority}
}

// Percent passes at or above the given share, p must be in (0, 1].
// Example payload: Percent(decimal.RequireFromString("0.33"))
func Percent(p decimal.Decimal) PercentageThreshold {
	return PercentageThreshold{Kind: ThresholdPercent, Percent: p}
}

// ParsePercent reads a decimal string like "0.5" and validates it.
func ParsePercent(s string) (PercentageThreshold, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return PercentageThreshold{}, fmt.Errorf("%w: %q: %v", ErrInvalidThreshold, s, err)
	}
	t := Percent(d)
	if err := t.Validate(); err != nil {
		return PercentageThreshold{}, err
	}
	return t, nil
}

// Validate checks the percentage bounds. Majority is always valid.
func (t PercentageThreshold) Validate() error {
	if t.Kind == ThresholdMajority {
		return nil
	}
	if t.Kind != ThresholdPercent {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidThreshold, t.Kind)
	}
	if !t.Percent.IsPositive() || t.Percent.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: percent %s must be in (0, 1]", ErrInvalidThreshold, t.Percent.String())
	}
	if !t.Percent.Equal(t.Percent.Truncate(decimalPlaces)) {
		return fmt.Errorf("%w: percent %s has more than %d decimals", ErrInvalidThreshold, t.Percent.String(), decimalPlaces)
	}
	return nil
}

// atomics returns the percentage scaled by 1e18.
func (t PercentageThreshold) atomics() *uint256.Int {
	out, overflow := uint256.FromBig(t.Percent.Shift(decimalPlaces).BigInt())
	if overflow {
		return new(uint256.Int).Set(decimalUnit)
	}
	return out
}

func (t PercentageThreshold) String() string {
	if t.Kind == ThresholdMajority {
		return "majority"
	}
	return t.Percent.String()
}

// DoesVoteCountPass reports whether yes out of total meets the threshold. A zero total never passes.
func DoesVoteCountPass(yes, total *uint256.Int, t PercentageThreshold) bool {
	total = powerOrZero(total)
	yes = powerOrZero(yes)
	if total.IsZero() {
		return false
	}
	if t.Kind == ThresholdMajority {
		doubled := new(uint256.Int).Lsh(yes, 1)
		return doubled.Gt(total)
	}
	// yes*1e9 >= floor(total*1e9 * percent)
	lhs := new(uint256.Int).Mul(yes, precision)
	rhs := new(uint256.Int).Mul(total, precision)
	rhs.Mul(rhs, t.atomics())
	rhs.Div(rhs, decimalUnit)
	return !lhs.Lt(rhs)
}

package condorcet

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MaxPowerBits bounds every voting power and margin magnitude, matching the chain's Uint128.
const MaxPowerBits = 128

// MaxPower is the largest representable voting power.
var MaxPower = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), MaxPowerBits), 1)

// CheckPower fails when p does not fit the power range. nil counts as zero.
func CheckPower(p *uint256.Int) error {
	if p == nil {
		return nil
	}
	if p.BitLen() > MaxPowerBits {
		return fmt.Errorf("%w: %s exceeds %d bits", ErrArithmetic, p.Dec(), MaxPowerBits)
	}
	return nil
}

// ParsePower reads a base 10 power figure.
// Example payload: ParsePower("1000000")
func ParsePower(s string) (*uint256.Int, error) {
	p, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a power figure: %v", ErrArithmetic, s, err)
	}
	if err := CheckPower(p); err != nil {
		return nil, err
	}
	return p, nil
}

// MustPower is ParsePower for literals, it panics on bad input.
func MustPower(s string) *uint256.Int {
	p, err := ParsePower(s)
	if err != nil {
		panic(err)
	}
	return p
}

func powerOrZero(p *uint256.Int) *uint256.Int {
	if p == nil {
		return new(uint256.Int)
	}
	return p
}

// addPower returns a+b, failing past the power range.
func addPower(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%w: power addition overflow", ErrArithmetic)
	}
	if err := CheckPower(sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// subPower returns a-b, failing on underflow.
func subPower(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, fmt.Errorf("%w: power subtraction underflow", ErrArithmetic)
	}
	return diff, nil
}

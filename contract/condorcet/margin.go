package condorcet

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Margin is a signed pairwise margin kept as a 256 bit two's complement value. Its magnitude
// never exceeds MaxPowerBits, so the sign bit is always meaningful.
type Margin struct {
	v uint256.Int
}

// NewMargin builds a margin from a magnitude and a sign flag.
// Example payload: NewMargin(uint256.NewInt(3), true) is -3
func NewMargin(abs *uint256.Int, negative bool) Margin {
	var m Margin
	m.v.Set(abs)
	if negative {
		m.v.Neg(&m.v)
	}
	return m
}

// Sign returns -1, 0 or 1.
func (m Margin) Sign() int {
	return m.v.Sign()
}

func (m Margin) IsZero() bool {
	return m.v.IsZero()
}

// Abs returns a fresh copy of the magnitude.
func (m Margin) Abs() *uint256.Int {
	return new(uint256.Int).Abs(&m.v)
}

// Neg flips the sign, used for reads against the stored orientation.
func (m Margin) Neg() Margin {
	var out Margin
	out.v.Neg(&m.v)
	return out
}

// Cmp compares two margins as signed numbers.
func (m Margin) Cmp(o Margin) int {
	switch {
	case m.v.Slt(&o.v):
		return -1
	case m.v.Sgt(&o.v):
		return 1
	default:
		return 0
	}
}

func (m Margin) String() string {
	if m.v.Sign() < 0 {
		return "-" + m.Abs().Dec()
	}
	return m.v.Dec()
}

// sub returns m-p and fails when the result magnitude leaves the power range.
func (m Margin) sub(p *uint256.Int) (Margin, error) {
	var out Margin
	out.v.Sub(&m.v, p)
	if err := out.check(); err != nil {
		return m, err
	}
	return out, nil
}

// add returns m+p with the same range check as sub.
func (m Margin) add(p *uint256.Int) (Margin, error) {
	var out Margin
	out.v.Add(&m.v, p)
	if err := out.check(); err != nil {
		return m, err
	}
	return out, nil
}

func (m Margin) check() error {
	if m.Abs().BitLen() > MaxPowerBits {
		return fmt.Errorf("%w: margin magnitude exceeds %d bits", ErrArithmetic, MaxPowerBits)
	}
	return nil
}

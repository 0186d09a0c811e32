package condorcet

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Tally accumulates weighted rankings into a margin matrix and keeps the winner classification
// in sync after every ballot.
type Tally struct {
	matrix      *Matrix
	outstanding uint256.Int
	winner      Winner
}

// NewTally starts with all power outstanding and no winner.
// Example payload: NewTally(3, uint256.NewInt(100))
func NewTally(candidates int, totalPower *uint256.Int) (*Tally, error) {
	if err := CheckPower(totalPower); err != nil {
		return nil, err
	}
	m, err := NewMatrix(candidates)
	if err != nil {
		return nil, err
	}
	t := &Tally{matrix: m, winner: NoWinner()}
	t.outstanding.Set(powerOrZero(totalPower))
	return t, nil
}

func (t *Tally) Candidates() int {
	return t.matrix.Candidates()
}

func (t *Tally) Winner() Winner {
	return t.winner
}

// PowerOutstanding returns a copy of the power that has not voted yet.
func (t *Tally) PowerOutstanding() *uint256.Int {
	return new(uint256.Int).Set(&t.outstanding)
}

// Margin reads M[x][y].
func (t *Tally) Margin(x, y int) Margin {
	return t.matrix.Get(x, y)
}

// Stats exposes the underlying matrix scan.
func (t *Tally) Stats() Stats {
	return t.matrix.Stats()
}

// AddVote records that every candidate in the ranking lost to each candidate above it, takes
// power off the outstanding total and recomputes the winner. Nothing changes on error.
func (t *Tally) AddVote(vote Vote, power *uint256.Int) error {
	if vote.Len() != t.Candidates() {
		return fmt.Errorf("%w: ballot ranks %d candidates, tally has %d", ErrVoteLength, vote.Len(), t.Candidates())
	}
	if err := CheckPower(power); err != nil {
		return err
	}
	p := powerOrZero(power)
	if p.Gt(&t.outstanding) {
		return fmt.Errorf("%w: %s > %s", ErrPowerExceedsOutstanding, p.Dec(), t.outstanding.Dec())
	}

	staged := t.matrix.Clone()
	for i := range vote.ranking {
		for d := 0; d < i; d++ {
			if err := staged.Decrement(int(vote.ranking[i]), int(vote.ranking[d]), p); err != nil {
				return err
			}
		}
	}
	outstanding, err := subPower(&t.outstanding, p)
	if err != nil {
		return err
	}
	winner, err := classify(staged.Stats(), outstanding, staged.Candidates())
	if err != nil {
		return err
	}

	t.matrix = staged
	t.outstanding.Set(outstanding)
	t.winner = winner
	return nil
}

// classify turns a matrix scan plus the remaining power into a Winner.
func classify(stats Stats, outstanding *uint256.Int, candidates int) (Winner, error) {
	switch s := stats.(type) {
	case PositiveColumn:
		if s.MinMargin.Gt(outstanding) {
			return UndisputedWinner(uint32(s.Col)), nil
		}
		return SomeWinner(uint32(s.Col)), nil
	case NoPositiveColumn:
		bound, overflow := new(uint256.Int).MulOverflow(outstanding, uint256.NewInt(uint64(candidates-1)))
		if overflow {
			return Winner{}, fmt.Errorf("%w: never bound overflow", ErrArithmetic)
		}
		if s.MinColDistanceFromPositivity.Gt(bound) || !s.MaxNegativeInMinCol.Lt(outstanding) {
			return NeverWinner(), nil
		}
		return NoWinner(), nil
	}
	return Winner{}, fmt.Errorf("unexpected stats %T", stats)
}

// restoreTally rebuilds a tally from persisted parts without revalidating the winner.
func restoreTally(m *Matrix, outstanding *uint256.Int, winner Winner) *Tally {
	t := &Tally{matrix: m, winner: winner}
	t.outstanding.Set(outstanding)
	return t
}

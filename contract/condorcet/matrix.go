package condorcet

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Matrix holds one antisymmetric margin per unordered candidate pair. Only the upper triangle
// (x < y) is stored, M[y][x] is read back as -M[x][y].
type Matrix struct {
	n     int
	cells []Margin
}

// NewMatrix allocates a zeroed matrix for the given number of candidates.
func NewMatrix(candidates int) (*Matrix, error) {
	if candidates <= 0 {
		return nil, ErrNoCandidates
	}
	return &Matrix{
		n:     candidates,
		cells: make([]Margin, candidates*(candidates-1)/2),
	}, nil
}

// Candidates is the fixed matrix dimension.
func (m *Matrix) Candidates() int {
	return m.n
}

// index maps x < y onto the flat upper triangle, row by row.
func (m *Matrix) index(x, y int) int {
	return x*m.n - x*(x+1)/2 + (y - x - 1)
}

func (m *Matrix) inRange(x, y int) error {
	if x < 0 || y < 0 || x >= m.n || y >= m.n {
		return fmt.Errorf("%w: pair (%d, %d) with %d candidates", ErrCandidateOutOfRange, x, y, m.n)
	}
	if x == y {
		return fmt.Errorf("%w: pair (%d, %d) is the diagonal", ErrCandidateOutOfRange, x, y)
	}
	return nil
}

// Get reads M[x][y]. The diagonal and out of range pairs read as zero.
func (m *Matrix) Get(x, y int) Margin {
	if m.inRange(x, y) != nil {
		return Margin{}
	}
	if x < y {
		return m.cells[m.index(x, y)]
	}
	return m.cells[m.index(y, x)].Neg()
}

// Decrement records that x lost to y with the given power: M[x][y] -= p, so M[y][x] += p.
// The matrix is left untouched on error.
func (m *Matrix) Decrement(x, y int, power *uint256.Int) error {
	if err := m.inRange(x, y); err != nil {
		return err
	}
	if err := CheckPower(power); err != nil {
		return err
	}
	p := powerOrZero(power)
	if x < y {
		i := m.index(x, y)
		next, err := m.cells[i].sub(p)
		if err != nil {
			return err
		}
		m.cells[i] = next
		return nil
	}
	i := m.index(y, x)
	next, err := m.cells[i].add(p)
	if err != nil {
		return err
	}
	m.cells[i] = next
	return nil
}

// Clone returns a deep copy so callers can stage a batch of decrements.
func (m *Matrix) Clone() *Matrix {
	cells := make([]Margin, len(m.cells))
	copy(cells, m.cells)
	return &Matrix{n: m.n, cells: cells}
}

// Stats is the result of a full matrix scan, either PositiveColumn or NoPositiveColumn.
type Stats interface {
	isStats()
}

// PositiveColumn means Col beats every other candidate. MinMargin is its weakest win.
type PositiveColumn struct {
	Col       int
	MinMargin *uint256.Int
}

// NoPositiveColumn means no candidate beats all others yet.
type NoPositiveColumn struct {
	// MinColDistanceFromPositivity is the smallest total deficit any candidate has to close to
	// beat everyone, counting a tie as 1 and a -v margin as v+1.
	MinColDistanceFromPositivity *uint256.Int
	// MaxNegativeInMinCol is the largest loss magnitude of the candidate that set the minimum.
	MaxNegativeInMinCol *uint256.Int
}

func (PositiveColumn) isStats()   {}
func (NoPositiveColumn) isStats() {}

// Stats scans the matrix once per candidate. Ties on the distance keep the lowest index.
func (m *Matrix) Stats() Stats {
	var (
		minDist   *uint256.Int
		minMaxNeg *uint256.Int
		one       = uint256.NewInt(1)
	)
	for c := 0; c < m.n; c++ {
		var (
			dist      = new(uint256.Int)
			maxNeg    = new(uint256.Int)
			minMargin *uint256.Int
			positive  = true
		)
		for o := 0; o < m.n; o++ {
			if o == c {
				continue
			}
			cell := m.Get(c, o)
			abs := cell.Abs()
			if cell.Sign() > 0 {
				if minMargin == nil || abs.Lt(minMargin) {
					minMargin = abs
				}
				continue
			}
			positive = false
			// a zero cell costs 1, a -v cell costs v+1
			dist.Add(dist, one)
			dist.Add(dist, abs)
			if abs.Gt(maxNeg) {
				maxNeg = abs
			}
		}
		if positive {
			if minMargin == nil {
				minMargin = new(uint256.Int).Set(MaxPower)
			}
			return PositiveColumn{Col: c, MinMargin: minMargin}
		}
		if minDist == nil || dist.Lt(minDist) {
			minDist = dist
			minMaxNeg = maxNeg
		}
	}
	return NoPositiveColumn{
		MinColDistanceFromPositivity: minDist,
		MaxNegativeInMinCol:          minMaxNeg,
	}
}

package condorcet

import (
	"fmt"
	"strconv"
	"strings"
)

// Vote is a validated ranking, most preferred candidate first. Every candidate appears exactly once.
type Vote struct {
	ranking []uint32
}

// NewVote validates the ranking against the candidate count and copies it.
// Example payload: NewVote([]uint32{2, 0, 1}, 3)
func NewVote(ranking []uint32, candidates int) (Vote, error) {
	if len(ranking) != candidates {
		return Vote{}, fmt.Errorf("%w: got %d entries, want %d", ErrVoteLength, len(ranking), candidates)
	}
	seen := make([]bool, candidates)
	for _, c := range ranking {
		if int64(c) >= int64(candidates) {
			return Vote{}, fmt.Errorf("%w: %d with %d candidates", ErrCandidateOutOfRange, c, candidates)
		}
		if seen[c] {
			return Vote{}, fmt.Errorf("%w: %d", ErrDuplicateCandidate, c)
		}
		seen[c] = true
	}
	out := make([]uint32, len(ranking))
	copy(out, ranking)
	return Vote{ranking: out}, nil
}

// Ranking returns a copy of the ordered candidate indexes.
func (v Vote) Ranking() []uint32 {
	out := make([]uint32, len(v.ranking))
	copy(out, v.ranking)
	return out
}

// Len is the number of ranked candidates.
func (v Vote) Len() int {
	return len(v.ranking)
}

// Top is the first preference. It panics on the zero Vote.
func (v Vote) Top() uint32 {
	return v.ranking[0]
}

// String renders the ranking as 0,2,1 for event lines.
func (v Vote) String() string {
	parts := make([]string, len(v.ranking))
	for i, c := range v.ranking {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(parts, ",")
}

// ParseRanking reads the comma separated form produced by Vote.String.
// Example payload: ParseRanking("1,0,2")
func ParseRanking(s string) ([]uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []uint32{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad index %q", ErrInvalidVote, p)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}

package condorcet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condorcet_dao/contract/condorcet"
)

// TestNewVoteValidation checks malformed rankings are refused before any tally sees them.
func TestNewVoteValidation(t *testing.T) {
	cases := []struct {
		name    string
		ranking []uint32
		want    error
	}{
		{name: "valid", ranking: []uint32{2, 0, 1}},
		{name: "too short", ranking: []uint32{0, 1}, want: condorcet.ErrVoteLength},
		{name: "too long", ranking: []uint32{0, 1, 2, 0}, want: condorcet.ErrVoteLength},
		{name: "empty", ranking: []uint32{}, want: condorcet.ErrVoteLength},
		{name: "out of range", ranking: []uint32{0, 1, 3}, want: condorcet.ErrCandidateOutOfRange},
		{name: "duplicate", ranking: []uint32{1, 1, 0}, want: condorcet.ErrDuplicateCandidate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := condorcet.NewVote(tc.ranking, 3)
			if tc.want == nil {
				require.NoError(t, err)
				assert.Equal(t, tc.ranking, v.Ranking())
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, condorcet.ErrInvalidVote)
		})
	}
}

// TestVoteIsImmutable checks neither the input nor the returned ranking alias the vote.
func TestVoteIsImmutable(t *testing.T) {
	in := []uint32{1, 0}
	v, err := condorcet.NewVote(in, 2)
	require.NoError(t, err)

	in[0] = 0
	out := v.Ranking()
	out[1] = 7
	assert.Equal(t, []uint32{1, 0}, v.Ranking())
	assert.Equal(t, uint32(1), v.Top())
}

// TestRankingText checks the event form parses back.
func TestRankingText(t *testing.T) {
	v, err := condorcet.NewVote([]uint32{0, 2, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, "0,2,1", v.String())

	parsed, err := condorcet.ParseRanking(" 0, 2,1 ")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2, 1}, parsed)

	_, err = condorcet.ParseRanking("0,x")
	assert.ErrorIs(t, err, condorcet.ErrInvalidVote)
}

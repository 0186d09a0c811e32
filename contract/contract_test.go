package contract_test

import (
	"errors"
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condorcet_dao/contract"
	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

// =============================================================================
// Proposal Lifecycle Tests
// =============================================================================

// TestProposalLifecycle checks propose, rank, early pass and execute so we dont break it again.
func TestProposalLifecycle(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := ct.propose(t, 10)
	assert.Equal(t, uint32(1), id)

	ct.vote(t, 11, "hive:alice", id, 1, 0, 2)
	assert.Equal(t, condorcet.StatusOpen, ct.status(t, 11, id))

	ct.vote(t, 12, "hive:bob", id, 1, 2, 0)
	assert.Equal(t, condorcet.StatusPassed, ct.status(t, 12, id))

	err := ct.c.Vote(envAt(13, "hive:carol"), contract.VoteMsg{ProposalID: id, Vote: []uint32{0, 1, 2}})
	assert.ErrorIs(t, err, contract.ErrNotOpen)

	status, err := ct.c.Execute(envAt(13, "hive:carol"), id)
	require.NoError(t, err)
	assert.Equal(t, condorcet.StatusExecuted, status)
	require.Len(t, ct.dispatched, 1)
	assert.Equal(t, id, ct.dispatched[0].proposalID)
	assert.Equal(t, threeChoices().Choices[1].Msgs, ct.dispatched[0].msgs)

	assert.Equal(t, []string{
		"pc|id:1|by:hive:alice|n:3",
		"v|id:1|by:hive:alice|r:1,0,2|w:5",
		"v|id:1|by:hive:bob|r:1,2,0|w:3",
		"ps|id:1|s:passed",
		"px|id:1|c:1|m:1",
		"ps|id:1|s:executed",
	}, ct.logs.Lines)

	r, err := ct.c.QueryProposal(envAt(30, "hive:anyone"), id)
	require.NoError(t, err)
	assert.Equal(t, condorcet.StatusExecuted, r.Status)
	assert.Equal(t, condorcet.UndisputedWinner(1), r.Tally.Winner())
	assert.Equal(t, uint64(2), r.Tally.PowerOutstanding().Uint64())
}

// TestLeaderPassesAtExpiry checks a contestable leader only passes once voting ends.
func TestLeaderPassesAtExpiry(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := ct.propose(t, 10)
	ct.vote(t, 11, "hive:alice", id, 0, 1, 2)

	assert.Equal(t, condorcet.StatusOpen, ct.status(t, 19, id))
	assert.Equal(t, condorcet.StatusPassed, ct.status(t, 20, id))

	_, err := ct.c.Execute(envAt(19, "hive:bob"), id)
	assert.ErrorIs(t, err, contract.ErrNotPassed)

	status, err := ct.c.Execute(envAt(20, "hive:bob"), id)
	require.NoError(t, err)
	assert.Equal(t, condorcet.StatusExecuted, status)
	assert.Equal(t, threeChoices().Choices[0].Msgs, ct.dispatched[0].msgs)
}

// TestExpiredWithoutVotesCloses checks the reject then close path.
func TestExpiredWithoutVotesCloses(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := ct.propose(t, 10)

	assert.ErrorIs(t, ct.c.Close(envAt(15, "hive:bob"), id), contract.ErrNotRejected)
	assert.Equal(t, condorcet.StatusRejected, ct.status(t, 20, id))

	require.NoError(t, ct.c.Close(envAt(20, "hive:bob"), id))
	assert.Equal(t, condorcet.StatusClosed, ct.status(t, 21, id))

	_, err := ct.c.Execute(envAt(21, "hive:bob"), id)
	assert.ErrorIs(t, err, contract.ErrNotPassed)
	err = ct.c.Vote(envAt(21, "hive:alice"), contract.VoteMsg{ProposalID: id, Vote: []uint32{0, 1, 2}})
	assert.ErrorIs(t, err, contract.ErrNotOpen)
	assert.ErrorIs(t, ct.c.Close(envAt(22, "hive:bob"), id), contract.ErrNotRejected)
}

// TestCycleIsRejectedEarly checks a proposal with no possible Condorcet winner is rejected before expiry.
func TestCycleIsRejectedEarly(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	require.NoError(t, ct.power.Set("hive:alice", 1, uint256.NewInt(2)))
	id := ct.propose(t, 10)

	ct.vote(t, 11, "hive:alice", id, 0, 1, 2)
	ct.vote(t, 11, "hive:bob", id, 1, 2, 0)
	ct.vote(t, 11, "hive:carol", id, 2, 0, 1)
	assert.Equal(t, condorcet.StatusRejected, ct.status(t, 12, id))
	require.NoError(t, ct.c.Close(envAt(12, "hive:bob"), id))
}

// =============================================================================
// Vote Validation Tests
// =============================================================================

// TestInvalidVoteLeavesNoTrace checks a refused ballot writes nothing and logs nothing.
func TestInvalidVoteLeavesNoTrace(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := ct.propose(t, 10)
	ct.vote(t, 11, "hive:bob", id, 2, 1, 0)
	before := snapshot(ct.state)
	logs := len(ct.logs.Lines)

	cases := []struct {
		name    string
		ranking []uint32
		want    error
	}{
		{"duplicate", []uint32{0, 0, 1}, condorcet.ErrDuplicateCandidate},
		{"short", []uint32{0, 1}, condorcet.ErrVoteLength},
		{"out of range", []uint32{0, 1, 3}, condorcet.ErrCandidateOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ct.c.Vote(envAt(12, "hive:alice"), contract.VoteMsg{ProposalID: id, Vote: tc.ranking})
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, condorcet.ErrInvalidVote)
			assert.Equal(t, before, snapshot(ct.state))
			assert.Len(t, ct.logs.Lines, logs)
		})
	}

	ballot, err := ct.c.QueryBallot(id, "hive:alice")
	require.NoError(t, err)
	assert.Nil(t, ballot)
	ct.vote(t, 12, "hive:alice", id, 0, 1, 2)
}

// TestOneBallotPerVoter checks the ballot receipt blocks a second vote.
func TestOneBallotPerVoter(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := ct.propose(t, 10)
	ct.vote(t, 11, "hive:carol", id, 2, 1, 0)

	err := ct.c.Vote(envAt(12, "hive:carol"), contract.VoteMsg{ProposalID: id, Vote: []uint32{0, 1, 2}})
	assert.ErrorIs(t, err, contract.ErrAlreadyVoted)

	ballot, err := ct.c.QueryBallot(id, "hive:carol")
	require.NoError(t, err)
	require.NotNil(t, ballot)
	assert.Equal(t, []uint32{2, 1, 0}, ballot.Vote)
	assert.Equal(t, uint64(2), ballot.Power.Uint64())
}

// TestPowerIsSnapshotAtStart checks power gained after the proposal does not count.
func TestPowerIsSnapshotAtStart(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	require.NoError(t, ct.power.Set("hive:eve", 11, uint256.NewInt(50)))
	require.NoError(t, ct.power.Set("hive:alice", 11, uint256.NewInt(500)))
	id := ct.propose(t, 10)

	err := ct.c.Vote(envAt(12, "hive:eve"), contract.VoteMsg{ProposalID: id, Vote: []uint32{0, 1, 2}})
	assert.ErrorIs(t, err, contract.ErrZeroVotingPower)

	ct.vote(t, 12, "hive:alice", id, 0, 1, 2)
	r, err := ct.c.QueryProposal(envAt(12, "hive:anyone"), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), r.Proposal.TotalPower.Uint64())
	assert.Equal(t, uint64(5), r.Tally.PowerOutstanding().Uint64())
}

// TestVoteUnknownProposal checks the not found error.
func TestVoteUnknownProposal(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	err := ct.c.Vote(envAt(12, "hive:alice"), contract.VoteMsg{ProposalID: 9, Vote: []uint32{0, 1}})
	assert.ErrorIs(t, err, contract.ErrProposalNotFound)
	_, err = ct.c.QueryBallot(9, "hive:alice")
	assert.ErrorIs(t, err, contract.ErrProposalNotFound)
}

// =============================================================================
// Proposal Creation Tests
// =============================================================================

// TestProposeValidation checks choice count, title and power requirements.
func TestProposeValidation(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())

	msg := threeChoices()
	msg.Choices = msg.Choices[:1]
	_, err := ct.c.Propose(envAt(10, "hive:alice"), msg)
	assert.ErrorIs(t, err, contract.ErrTooFewChoices)

	msg = threeChoices()
	msg.Title = "  "
	_, err = ct.c.Propose(envAt(10, "hive:alice"), msg)
	assert.ErrorIs(t, err, contract.ErrInvalidPayload)

	empty := contract.New(sdk.NewMemState(), contract.NewPowerTable())
	_, err = empty.Propose(envAt(10, "hive:alice"), threeChoices())
	assert.ErrorIs(t, err, contract.ErrNotInstantiated)

	require.NoError(t, empty.Instantiate(envAt(1, daoAddress), defaultConfig()))
	_, err = empty.Propose(envAt(10, "hive:alice"), threeChoices())
	assert.ErrorIs(t, err, contract.ErrZeroVotingPower)

	next, err := ct.c.QueryNextProposalID()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), next)
}

// TestProposalUsesConfiguredPeriods checks expiration and min period come from the config.
func TestProposalUsesConfiguredPeriods(t *testing.T) {
	cfg := defaultConfig()
	cfg.VotingPeriod = condorcet.Time(3600)
	minPeriod := condorcet.Time(600)
	cfg.MinVotingPeriod = &minPeriod
	ct := setupContractTest(t, cfg)
	id := ct.propose(t, 10)

	r, err := ct.c.QueryProposal(envAt(10, "hive:anyone"), id)
	require.NoError(t, err)
	start := envAt(10, "").Block.Time
	assert.Equal(t, condorcet.MustAtTime(start.Add(3600e9)), r.Proposal.Expiration)
	require.NotNil(t, r.Proposal.MinVotingPeriod)
	assert.Equal(t, condorcet.MustAtTime(start.Add(600e9)), *r.Proposal.MinVotingPeriod)
	assert.Equal(t, uint64(10), r.Proposal.StartHeight)
	assert.Equal(t, sdk.Address("hive:alice"), r.Proposal.Proposer)
}

// TestProposeRejectsOverflowingPeriod checks a period that ends past the last height fails the
// proposal instead of wrapping into an already expired one.
func TestProposeRejectsOverflowingPeriod(t *testing.T) {
	cfg := defaultConfig()
	cfg.VotingPeriod = condorcet.Height(math.MaxUint64)
	ct := setupContractTest(t, cfg)
	before := snapshot(ct.state)

	_, err := ct.c.Propose(envAt(10, "hive:alice"), threeChoices())
	assert.ErrorIs(t, err, condorcet.ErrArithmetic)
	assert.Equal(t, before, snapshot(ct.state))
	assert.Empty(t, ct.logs.Lines)

	next, err := ct.c.QueryNextProposalID()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), next)
}

// =============================================================================
// Stored Record Tests
// =============================================================================

// TestCorruptTallyIsReported checks a tally holding more power than its proposal fails loudly.
func TestCorruptTallyIsReported(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := ct.propose(t, 10)
	require.Equal(t, uint32(1), id)

	bad, err := condorcet.NewTally(3, uint256.NewInt(100))
	require.NoError(t, err)
	ct.state.Set("\x11\x01\x00\x00\x00", string(condorcet.EncodeTally(bad)))

	_, err = ct.c.QueryProposal(envAt(11, "hive:anyone"), id)
	assert.ErrorIs(t, err, condorcet.ErrArithmetic)
	err = ct.c.Vote(envAt(11, "hive:bob"), contract.VoteMsg{ProposalID: id, Vote: []uint32{0, 1, 2}})
	assert.ErrorIs(t, err, condorcet.ErrArithmetic)
}

// =============================================================================
// Execution Tests
// =============================================================================

func passProposal(t *testing.T, ct *contractTest) uint32 {
	t.Helper()
	id := ct.propose(t, 10)
	ct.vote(t, 11, "hive:alice", id, 1, 0, 2)
	ct.vote(t, 12, "hive:bob", id, 1, 2, 0)
	require.Equal(t, condorcet.StatusPassed, ct.status(t, 12, id))
	return id
}

// TestExecutionFailureReverts checks a failed dispatch reverts when proposals stay open on failure.
func TestExecutionFailureReverts(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := passProposal(t, ct)
	ct.failWith = errors.New("insufficient funds")
	before := snapshot(ct.state)

	_, err := ct.c.Execute(envAt(13, "hive:carol"), id)
	assert.ErrorIs(t, err, contract.ErrDispatch)
	assert.Equal(t, before, snapshot(ct.state))
	assert.Equal(t, condorcet.StatusPassed, ct.status(t, 13, id))

	ct.failWith = nil
	status, err := ct.c.Execute(envAt(14, "hive:carol"), id)
	require.NoError(t, err)
	assert.Equal(t, condorcet.StatusExecuted, status)
}

// TestExecutionFailureCloses checks the execution_failed status when configured.
func TestExecutionFailureCloses(t *testing.T) {
	cfg := defaultConfig()
	cfg.CloseProposalsOnExecutionFailure = true
	ct := setupContractTest(t, cfg)
	id := passProposal(t, ct)
	ct.failWith = errors.New("insufficient | funds")

	status, err := ct.c.Execute(envAt(13, "hive:carol"), id)
	require.NoError(t, err)
	assert.Equal(t, condorcet.StatusExecutionFailed, status)
	assert.Equal(t, condorcet.StatusExecutionFailed, ct.status(t, 40, id))
	assert.Contains(t, ct.logs.Lines, "pf|id:1|err:insufficient   funds")
	assert.Contains(t, ct.logs.Lines, "ps|id:1|s:execution_failed")

	_, err = ct.c.Execute(envAt(14, "hive:carol"), id)
	assert.ErrorIs(t, err, contract.ErrNotPassed)
}

// TestMinVotingPeriodBlocksExecution checks an early pass still waits for the minimum period.
func TestMinVotingPeriodBlocksExecution(t *testing.T) {
	cfg := defaultConfig()
	minPeriod := condorcet.Height(5)
	cfg.MinVotingPeriod = &minPeriod
	ct := setupContractTest(t, cfg)
	id := passProposal(t, ct)

	_, err := ct.c.Execute(envAt(14, "hive:carol"), id)
	assert.ErrorIs(t, err, contract.ErrMinVotingPeriod)
	assert.Empty(t, ct.dispatched)

	status, err := ct.c.Execute(envAt(15, "hive:carol"), id)
	require.NoError(t, err)
	assert.Equal(t, condorcet.StatusExecuted, status)
}

// =============================================================================
// Config Tests
// =============================================================================

// TestUpdateConfig checks only the dao can change the policy and bad configs are refused.
func TestUpdateConfig(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())

	next := defaultConfig()
	next.Quorum = condorcet.Majority()
	next.VotingPeriod = condorcet.Height(50)
	assert.ErrorIs(t, ct.c.UpdateConfig(envAt(5, "hive:alice"), next), contract.ErrUnauthorized)

	bad := next
	bad.Quorum = condorcet.Percent(decimal.Zero)
	assert.ErrorIs(t, ct.c.UpdateConfig(envAt(5, daoAddress), bad), contract.ErrInvalidConfig)

	longMin := condorcet.Height(60)
	bad = next
	bad.MinVotingPeriod = &longMin
	assert.ErrorIs(t, ct.c.UpdateConfig(envAt(5, daoAddress), bad), contract.ErrInvalidConfig)

	require.NoError(t, ct.c.UpdateConfig(envAt(5, daoAddress), next))
	got, err := ct.c.QueryConfig()
	require.NoError(t, err)
	assert.Equal(t, next, got)

	assert.ErrorIs(t, ct.c.Instantiate(envAt(6, daoAddress), next), contract.ErrAlreadyInstantiated)
}

// =============================================================================
// Query Tests
// =============================================================================

// TestQueryDoesNotWrite checks a recomputed status is reported but not stored.
func TestQueryDoesNotWrite(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	id := ct.propose(t, 10)
	ct.vote(t, 11, "hive:alice", id, 0, 1, 2)
	before := snapshot(ct.state)

	r, err := ct.c.QueryProposal(envAt(25, "hive:anyone"), id)
	require.NoError(t, err)
	assert.Equal(t, condorcet.StatusPassed, r.Status)
	assert.Equal(t, condorcet.StatusOpen, r.Proposal.LastStatus())
	assert.Equal(t, before, snapshot(ct.state))
}

// TestListProposals checks paging by id.
func TestListProposals(t *testing.T) {
	ct := setupContractTest(t, defaultConfig())
	for i := 0; i < 3; i++ {
		ct.propose(t, 10)
	}

	all, err := ct.c.QueryListProposals(envAt(11, ""), 0, 0)
	require.NoError(t, err)
	require.Len(t, all.Proposals, 3)

	page, err := ct.c.QueryListProposals(envAt(11, ""), 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Proposals, 1)
	assert.Equal(t, uint32(2), page.Proposals[0].Proposal.ID)

	tail, err := ct.c.QueryListProposals(envAt(11, ""), 3, 10)
	require.NoError(t, err)
	assert.Empty(t, tail.Proposals)

	next, err := ct.c.QueryNextProposalID()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), next)

	_, err = ct.c.QueryProposal(envAt(11, ""), 4)
	assert.ErrorIs(t, err, contract.ErrProposalNotFound)
}

func snapshot(state *sdk.MemState) map[string]string {
	out := map[string]string{}
	for _, k := range state.Keys("") {
		out[k] = *state.Get(k)
	}
	return out
}

package condorcet

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"condorcet_dao/sdk"
)

// Choice is one candidate of a ranked proposal. Msgs are the raw JSON messages dispatched when it wins.
type Choice struct {
	Title string
	Msgs  []json.RawMessage
}

// Proposal is a ranked choice ballot. TotalPower is snapshotted at StartHeight.
type Proposal struct {
	ID              uint32
	Title           string
	Description     string
	Proposer        sdk.Address
	Choices         []Choice
	Quorum          PercentageThreshold
	Expiration      Expiration
	MinVotingPeriod *Expiration
	StartHeight     uint64
	TotalPower      uint256.Int

	lastStatus Status
}

// LastStatus is the cached status from the latest UpdateStatus or transition.
func (p *Proposal) LastStatus() Status {
	return p.lastStatus
}

// Candidates is the number of choices.
func (p *Proposal) Candidates() int {
	return len(p.Choices)
}

// CheckTally verifies that tally belongs to p: one row per choice and no more power outstanding
// than the proposal ever had. Stored pairs go through it before any status is derived.
func (p *Proposal) CheckTally(tally *Tally) error {
	if tally.Candidates() != len(p.Choices) {
		return fmt.Errorf("%w: tally has %d candidates, proposal %d has %d choices", ErrDecode, tally.Candidates(), p.ID, len(p.Choices))
	}
	if tally.outstanding.Gt(&p.TotalPower) {
		return fmt.Errorf("%w: outstanding power %s exceeds total %s of proposal %d", ErrArithmetic, tally.outstanding.Dec(), p.TotalPower.Dec(), p.ID)
	}
	return nil
}

// Turnout is the power that has voted so far. A pair rejected by CheckTally reads as no turnout.
func (p *Proposal) Turnout(tally *Tally) *uint256.Int {
	cast, underflow := new(uint256.Int).SubOverflow(&p.TotalPower, &tally.outstanding)
	if underflow {
		return new(uint256.Int)
	}
	return cast
}

// Status derives the status without touching the cache. Terminal statuses are returned as is.
func (p *Proposal) Status(block sdk.BlockInfo, tally *Tally) Status {
	if p.lastStatus.IsTerminal() {
		return p.lastStatus
	}
	expired := p.Expiration.IsExpired(block)
	quorum := DoesVoteCountPass(p.Turnout(tally), &p.TotalPower, p.Quorum)
	if expired && !quorum {
		return StatusRejected
	}
	switch tally.Winner().Kind {
	case WinnerNever:
		return StatusRejected
	case WinnerSome:
		if expired && quorum {
			return StatusPassed
		}
		return StatusOpen
	case WinnerUndisputed:
		if quorum {
			return StatusPassed
		}
		return StatusOpen
	default:
		if expired {
			return StatusRejected
		}
		return StatusOpen
	}
}

// UpdateStatus derives the status and caches it.
func (p *Proposal) UpdateStatus(block sdk.BlockInfo, tally *Tally) Status {
	p.lastStatus = p.Status(block, tally)
	return p.lastStatus
}

// SetExecuted is unconditional, the execute flow checks for StatusPassed first.
func (p *Proposal) SetExecuted() {
	p.lastStatus = StatusExecuted
}

// SetClosed marks a rejected proposal as closed.
func (p *Proposal) SetClosed() {
	p.lastStatus = StatusClosed
}

// SetExecutionFailed records that the winning messages could not be dispatched.
func (p *Proposal) SetExecutionFailed() {
	p.lastStatus = StatusExecutionFailed
}

// MinVotingPeriodElapsed is true when there is no minimum period or it has passed.
func (p *Proposal) MinVotingPeriodElapsed(block sdk.BlockInfo) bool {
	return p.MinVotingPeriod == nil || p.MinVotingPeriod.IsExpired(block)
}

// WinningChoice returns the index and choice of the current leader, if any.
func (p *Proposal) WinningChoice(tally *Tally) (uint32, *Choice, error) {
	c, ok := tally.Winner().Leader()
	if !ok {
		return 0, nil, fmt.Errorf("proposal %d has no winner (%s)", p.ID, tally.Winner())
	}
	if int(c) >= len(p.Choices) {
		return 0, nil, fmt.Errorf("%w: winner %d with %d choices", ErrCandidateOutOfRange, c, len(p.Choices))
	}
	return c, &p.Choices[c], nil
}

// NewTally builds an empty tally sized to the proposal's choices.
func (p *Proposal) NewTally() (*Tally, error) {
	return NewTally(len(p.Choices), &p.TotalPower)
}

package contract

import (
	"fmt"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

// events buffers log lines for one call. They reach the host logger only if the call commits.
type events struct {
	lines []string
}

func (e *events) add(line string) {
	e.lines = append(e.lines, line)
}

func (e *events) flush(logger sdk.Logger) {
	for _, l := range e.lines {
		logger.Log(l)
	}
	e.lines = nil
}

// emitProposalCreatedEvent keeps observers updated with a short pc line for every new ballot.
func (e *events) emitProposalCreatedEvent(proposalID uint32, proposer sdk.Address, choices int) {
	e.add(fmt.Sprintf(
		"pc|id:%d|by:%s|n:%d",
		proposalID,
		proposer,
		choices,
	))
}

// emitVoteCasted includes the full ranking plus weight so the tally can be replayed from logs only.
func (e *events) emitVoteCasted(proposalID uint32, voter sdk.Address, vote condorcet.Vote, power string) {
	e.add(fmt.Sprintf(
		"v|id:%d|by:%s|r:%s|w:%s",
		proposalID,
		voter,
		vote.String(),
		power,
	))
}

// emitProposalStateChangedEvent is logged for any status flip.
func (e *events) emitProposalStateChangedEvent(proposalID uint32, status condorcet.Status) {
	e.add(fmt.Sprintf(
		"ps|id:%d|s:%s",
		proposalID,
		status,
	))
}

// emitProposalExecutedEvent names the winning choice whose messages were dispatched.
func (e *events) emitProposalExecutedEvent(proposalID uint32, choice uint32, msgs int) {
	e.add(fmt.Sprintf(
		"px|id:%d|c:%d|m:%d",
		proposalID,
		choice,
		msgs,
	))
}

// emitExecutionFailedEvent carries the dispatch error text, pipes are replaced so the line stays parseable.
func (e *events) emitExecutionFailedEvent(proposalID uint32, err error) {
	e.add(fmt.Sprintf(
		"pf|id:%d|err:%s",
		proposalID,
		sanitize(err.Error()),
	))
}

// emitConfigUpdatedEvent tells watchers who changed the module policy.
func (e *events) emitConfigUpdatedEvent(by sdk.Address, cfg Config) {
	e.add(fmt.Sprintf(
		"cu|by:%s|q:%s|vp:%s",
		by,
		cfg.Quorum,
		cfg.VotingPeriod,
	))
}

func sanitize(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b == '|' || b == '\n' {
			out[i] = ' '
		}
	}
	return string(out)
}

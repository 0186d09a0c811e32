package contract

import (
	"fmt"
	"strings"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

// ProposeMsg creates a ranked choice proposal. Each choice carries the messages run if it wins.
type ProposeMsg struct {
	Title       string
	Description string
	Choices     []condorcet.Choice
}

// Propose snapshots total power at the current height and opens a fresh tally.
// Example payload: c.Propose(env, ProposeMsg{Title: "logo", Choices: []condorcet.Choice{{Title: "a"}, {Title: "b"}}})
func (c *Contract) Propose(env sdk.Env, msg ProposeMsg) (uint32, error) {
	var id uint32
	err := c.run("propose", env, func(x *call) error {
		cfg, err := loadConfig(x.state)
		if err != nil {
			return err
		}
		if strings.TrimSpace(msg.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidPayload)
		}
		if len(msg.Choices) < 2 {
			return fmt.Errorf("%w: got %d", ErrTooFewChoices, len(msg.Choices))
		}
		total, err := c.power.TotalPowerAtHeight(env.Block.Height)
		if err != nil {
			return fmt.Errorf("total power at %d: %w", env.Block.Height, err)
		}
		if total == nil || total.IsZero() {
			return fmt.Errorf("%w: dao has no voting power at %d", ErrZeroVotingPower, env.Block.Height)
		}
		if err := condorcet.CheckPower(total); err != nil {
			return err
		}

		id, err = nextID(x.state, ProposalsCount)
		if err != nil {
			return err
		}
		expiration, err := cfg.VotingPeriod.After(env.Block)
		if err != nil {
			return fmt.Errorf("voting period: %w", err)
		}
		p := &condorcet.Proposal{
			ID:          id,
			Title:       msg.Title,
			Description: msg.Description,
			Proposer:    env.Sender,
			Choices:     msg.Choices,
			Quorum:      cfg.Quorum,
			Expiration:  expiration,
			StartHeight: env.Block.Height,
		}
		if cfg.MinVotingPeriod != nil {
			minExp, err := cfg.MinVotingPeriod.After(env.Block)
			if err != nil {
				return fmt.Errorf("min voting period: %w", err)
			}
			p.MinVotingPeriod = &minExp
		}
		p.TotalPower.Set(total)
		tally, err := p.NewTally()
		if err != nil {
			return err
		}

		saveProposal(x.state, p)
		saveTally(x.state, id, tally)
		x.events.emitProposalCreatedEvent(id, env.Sender, len(msg.Choices))
		x.onCommit = append(x.onCommit, c.metrics.proposalsCreated.Inc)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// VoteMsg ranks every choice of a proposal, most preferred first.
type VoteMsg struct {
	ProposalID uint32
	Vote       []uint32
}

// Vote adds the sender's ranking with their power at the proposal's start height.
func (c *Contract) Vote(env sdk.Env, msg VoteMsg) error {
	err := c.run("vote", env, func(x *call) error {
		p, tally, err := loadProposalWithTally(x.state, msg.ProposalID)
		if err != nil {
			return err
		}
		before := p.LastStatus()
		if status := p.UpdateStatus(env.Block, tally); status != condorcet.StatusOpen {
			return fmt.Errorf("%w: proposal %d is %s", ErrNotOpen, p.ID, status)
		}
		if hasBallot(x.state, p.ID, env.Sender) {
			return fmt.Errorf("%w: %s on proposal %d", ErrAlreadyVoted, env.Sender, p.ID)
		}
		power, err := c.power.VotingPowerAtHeight(env.Sender, p.StartHeight)
		if err != nil {
			return fmt.Errorf("voting power of %s at %d: %w", env.Sender, p.StartHeight, err)
		}
		if power == nil || power.IsZero() {
			return fmt.Errorf("%w: %s at height %d", ErrZeroVotingPower, env.Sender, p.StartHeight)
		}
		vote, err := condorcet.NewVote(msg.Vote, tally.Candidates())
		if err != nil {
			return err
		}
		if err := tally.AddVote(vote, power); err != nil {
			return err
		}
		if err := saveBallot(x.state, p.ID, &Ballot{Voter: env.Sender, Vote: vote.Ranking(), Power: power}); err != nil {
			return err
		}
		p.UpdateStatus(env.Block, tally)

		saveTally(x.state, p.ID, tally)
		saveProposal(x.state, p)
		x.events.emitVoteCasted(p.ID, env.Sender, vote, power.Dec())
		c.statusChanged(x, p, before)
		x.onCommit = append(x.onCommit, c.metrics.ballotsCast.Inc)
		return nil
	})
	if err != nil {
		c.metrics.ballotsRejected.Inc()
	}
	return err
}

// Execute dispatches the winner's messages of a passed proposal. With
// CloseProposalsOnExecutionFailure a failed dispatch is recorded as execution_failed
// instead of reverting the call.
func (c *Contract) Execute(env sdk.Env, proposalID uint32) (condorcet.Status, error) {
	var final condorcet.Status
	err := c.run("execute", env, func(x *call) error {
		cfg, err := loadConfig(x.state)
		if err != nil {
			return err
		}
		p, tally, err := loadProposalWithTally(x.state, proposalID)
		if err != nil {
			return err
		}
		before := p.LastStatus()
		if status := p.UpdateStatus(env.Block, tally); status != condorcet.StatusPassed {
			return fmt.Errorf("%w: proposal %d is %s", ErrNotPassed, p.ID, status)
		}
		if !p.MinVotingPeriodElapsed(env.Block) {
			return fmt.Errorf("%w: proposal %d until %s", ErrMinVotingPeriod, p.ID, p.MinVotingPeriod)
		}
		idx, choice, err := p.WinningChoice(tally)
		if err != nil {
			return err
		}

		result := "executed"
		if c.dispatcher != nil {
			if err := c.dispatcher.Dispatch(env, p.ID, choice.Msgs); err != nil {
				if !cfg.CloseProposalsOnExecutionFailure {
					return fmt.Errorf("%w: proposal %d: %v", ErrDispatch, p.ID, err)
				}
				p.SetExecutionFailed()
				x.events.emitExecutionFailedEvent(p.ID, err)
				result = "failed"
			}
		}
		if p.LastStatus() != condorcet.StatusExecutionFailed {
			p.SetExecuted()
			x.events.emitProposalExecutedEvent(p.ID, idx, len(choice.Msgs))
		}
		saveProposal(x.state, p)
		c.statusChanged(x, p, before)
		x.onCommit = append(x.onCommit, func() {
			c.metrics.executions.WithLabelValues(result).Inc()
		})
		final = p.LastStatus()
		return nil
	})
	return final, err
}

// Close marks a rejected proposal closed.
func (c *Contract) Close(env sdk.Env, proposalID uint32) error {
	return c.run("close", env, func(x *call) error {
		p, tally, err := loadProposalWithTally(x.state, proposalID)
		if err != nil {
			return err
		}
		before := p.LastStatus()
		if status := p.UpdateStatus(env.Block, tally); status != condorcet.StatusRejected {
			return fmt.Errorf("%w: proposal %d is %s", ErrNotRejected, p.ID, status)
		}
		p.SetClosed()
		saveProposal(x.state, p)
		c.statusChanged(x, p, before)
		return nil
	})
}

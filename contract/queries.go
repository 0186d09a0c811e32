package contract

import (
	"github.com/CosmWasm/tinyjson/jwriter"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

const (
	defaultListLimit = 10
	maxListLimit     = 30
)

// ProposalResponse is a proposal, its tally and the status as of the queried block.
type ProposalResponse struct {
	Proposal *condorcet.Proposal
	Tally    *condorcet.Tally
	Status   condorcet.Status
}

func (r ProposalResponse) MarshalTinyJSON(out *jwriter.Writer) {
	p := r.Proposal
	out.RawString(`{"id":`)
	out.Uint32(p.ID)
	out.RawString(`,"title":`)
	out.String(p.Title)
	out.RawString(`,"description":`)
	out.String(p.Description)
	out.RawString(`,"proposer":`)
	out.String(p.Proposer.String())
	out.RawString(`,"choices":`)
	writeChoices(out, p.Choices)
	out.RawString(`,"quorum":`)
	writeThreshold(out, p.Quorum)
	out.RawString(`,"expiration":`)
	writeExpiration(out, p.Expiration)
	if p.MinVotingPeriod != nil {
		out.RawString(`,"min_voting_period":`)
		writeExpiration(out, *p.MinVotingPeriod)
	}
	out.RawString(`,"start_height":`)
	out.Uint64(p.StartHeight)
	out.RawString(`,"total_power":`)
	writePower(out, &p.TotalPower)
	out.RawString(`,"status":`)
	out.String(r.Status.String())
	out.RawString(`,"tally":`)
	writeTally(out, r.Tally)
	out.RawByte('}')
}

// writeTally renders the full margin matrix, diagonal included, row x column y = M[x][y].
func writeTally(out *jwriter.Writer, t *condorcet.Tally) {
	n := t.Candidates()
	out.RawString(`{"candidates":`)
	out.Int(n)
	out.RawString(`,"winner":`)
	writeWinner(out, t.Winner())
	out.RawString(`,"power_outstanding":`)
	writePower(out, t.PowerOutstanding())
	out.RawString(`,"margins":[`)
	for x := 0; x < n; x++ {
		if x > 0 {
			out.RawByte(',')
		}
		out.RawByte('[')
		for y := 0; y < n; y++ {
			if y > 0 {
				out.RawByte(',')
			}
			out.String(t.Margin(x, y).String())
		}
		out.RawByte(']')
	}
	out.RawString(`]}`)
}

// ProposalListResponse wraps list_proposals results.
type ProposalListResponse struct {
	Proposals []ProposalResponse
}

func (r ProposalListResponse) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"proposals":[`)
	for i, p := range r.Proposals {
		if i > 0 {
			out.RawByte(',')
		}
		p.MarshalTinyJSON(out)
	}
	out.RawString(`]}`)
}

// QueryProposal returns the proposal with its status derived for env.Block. Nothing is written.
func (c *Contract) QueryProposal(env sdk.Env, id uint32) (*ProposalResponse, error) {
	p, tally, err := loadProposalWithTally(c.state, id)
	if err != nil {
		return nil, err
	}
	return &ProposalResponse{
		Proposal: p,
		Tally:    tally,
		Status:   p.Status(env.Block, tally),
	}, nil
}

func (c *Contract) QueryConfig() (Config, error) {
	return loadConfig(c.state)
}

// QueryNextProposalID is the id the next Propose call will assign.
func (c *Contract) QueryNextProposalID() (uint32, error) {
	n, err := getCount(c.state, ProposalsCount)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// QueryListProposals pages through proposals in id order after startAfter.
func (c *Contract) QueryListProposals(env sdk.Env, startAfter, limit uint32) (*ProposalListResponse, error) {
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	last, err := getCount(c.state, ProposalsCount)
	if err != nil {
		return nil, err
	}
	out := &ProposalListResponse{Proposals: []ProposalResponse{}}
	for id := uint64(startAfter) + 1; id <= uint64(last) && uint32(len(out.Proposals)) < limit; id++ {
		r, err := c.QueryProposal(env, uint32(id))
		if err != nil {
			return nil, err
		}
		out.Proposals = append(out.Proposals, *r)
	}
	return out, nil
}

// QueryBallot returns the voter's receipt, or nil when they have not voted.
func (c *Contract) QueryBallot(id uint32, voter sdk.Address) (*Ballot, error) {
	if _, err := loadProposal(c.state, id); err != nil {
		return nil, err
	}
	return loadBallot(c.state, id, voter)
}

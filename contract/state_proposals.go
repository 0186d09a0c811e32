package contract

import (
	"fmt"

	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/holiman/uint256"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

// loadProposal decodes the proposal record or reports ErrProposalNotFound.
func loadProposal(state sdk.State, id uint32) (*condorcet.Proposal, error) {
	ptr := state.Get(proposalKey(id))
	if ptr == nil || *ptr == "" {
		return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, id)
	}
	p, err := condorcet.DecodeProposal([]byte(*ptr))
	if err != nil {
		return nil, fmt.Errorf("proposal %d: %w", id, err)
	}
	return p, nil
}

func saveProposal(state sdk.State, p *condorcet.Proposal) {
	state.Set(proposalKey(p.ID), string(condorcet.EncodeProposal(p)))
}

// loadTally reads the tally stored next to the proposal.
func loadTally(state sdk.State, id uint32) (*condorcet.Tally, error) {
	ptr := state.Get(tallyKey(id))
	if ptr == nil || *ptr == "" {
		return nil, fmt.Errorf("%w: tally %d", ErrProposalNotFound, id)
	}
	t, err := condorcet.DecodeTally([]byte(*ptr))
	if err != nil {
		return nil, fmt.Errorf("tally %d: %w", id, err)
	}
	return t, nil
}

func saveTally(state sdk.State, id uint32, t *condorcet.Tally) {
	state.Set(tallyKey(id), string(condorcet.EncodeTally(t)))
}

// loadProposalWithTally is the pair every handler needs.
func loadProposalWithTally(state sdk.State, id uint32) (*condorcet.Proposal, *condorcet.Tally, error) {
	p, err := loadProposal(state, id)
	if err != nil {
		return nil, nil, err
	}
	t, err := loadTally(state, id)
	if err != nil {
		return nil, nil, err
	}
	if err := p.CheckTally(t); err != nil {
		return nil, nil, err
	}
	return p, t, nil
}

// Ballot is the receipt kept for each voter. It also answers the ballot query.
type Ballot struct {
	Voter sdk.Address
	Vote  []uint32
	Power *uint256.Int
}

func (b Ballot) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"voter":`)
	out.String(b.Voter.String())
	out.RawString(`,"vote":`)
	writeUint32s(out, b.Vote)
	out.RawString(`,"power":`)
	writePower(out, b.Power)
	out.RawByte('}')
}

func (b *Ballot) UnmarshalTinyJSON(in *jlexer.Lexer) {
	readObject(in, func(key string) {
		switch key {
		case "voter":
			b.Voter = sdk.Address(in.String())
		case "vote":
			b.Vote = readUint32s(in)
		case "power":
			b.Power = readPower(in)
		default:
			in.SkipRecursive()
		}
	})
}

func hasBallot(state sdk.State, id uint32, voter sdk.Address) bool {
	return state.Get(ballotKey(id, voter)) != nil
}

func loadBallot(state sdk.State, id uint32, voter sdk.Address) (*Ballot, error) {
	ptr := state.Get(ballotKey(id, voter))
	if ptr == nil {
		return nil, nil
	}
	b := &Ballot{}
	if err := tinyjson.Unmarshal([]byte(*ptr), b); err != nil {
		return nil, fmt.Errorf("ballot %d/%s: %w", id, voter, err)
	}
	return b, nil
}

func saveBallot(state sdk.State, id uint32, b *Ballot) error {
	data, err := tinyjson.Marshal(b)
	if err != nil {
		return err
	}
	state.Set(ballotKey(id, b.Voter), string(data))
	return nil
}

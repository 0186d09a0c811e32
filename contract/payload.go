package contract

import (
	"encoding/json"
	"fmt"

	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

func readChoices(in *jlexer.Lexer) []condorcet.Choice {
	out := []condorcet.Choice{}
	in.Delim('[')
	for !in.IsDelim(']') {
		var c condorcet.Choice
		readObject(in, func(key string) {
			switch key {
			case "title":
				c.Title = in.String()
			case "msgs":
				in.Delim('[')
				for !in.IsDelim(']') {
					raw := in.Raw()
					if in.Ok() {
						c.Msgs = append(c.Msgs, json.RawMessage(append([]byte(nil), raw...)))
					}
					in.WantComma()
				}
				in.Delim(']')
			default:
				in.SkipRecursive()
			}
		})
		out = append(out, c)
		in.WantComma()
	}
	in.Delim(']')
	return out
}

func writeChoices(out *jwriter.Writer, choices []condorcet.Choice) {
	out.RawByte('[')
	for i, c := range choices {
		if i > 0 {
			out.RawByte(',')
		}
		out.RawString(`{"title":`)
		out.String(c.Title)
		out.RawString(`,"msgs":[`)
		for j, m := range c.Msgs {
			if j > 0 {
				out.RawByte(',')
			}
			out.Raw(m, nil)
		}
		out.RawString(`]}`)
	}
	out.RawByte(']')
}

func (m ProposeMsg) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"title":`)
	out.String(m.Title)
	out.RawString(`,"description":`)
	out.String(m.Description)
	out.RawString(`,"choices":`)
	writeChoices(out, m.Choices)
	out.RawByte('}')
}

func (m *ProposeMsg) UnmarshalTinyJSON(in *jlexer.Lexer) {
	readObject(in, func(key string) {
		switch key {
		case "title":
			m.Title = in.String()
		case "description":
			m.Description = in.String()
		case "choices":
			m.Choices = readChoices(in)
		default:
			in.SkipRecursive()
		}
	})
}

func (m VoteMsg) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"proposal_id":`)
	out.Uint32(m.ProposalID)
	out.RawString(`,"vote":`)
	writeUint32s(out, m.Vote)
	out.RawByte('}')
}

func (m *VoteMsg) UnmarshalTinyJSON(in *jlexer.Lexer) {
	readObject(in, func(key string) {
		switch key {
		case "proposal_id":
			m.ProposalID = in.Uint32()
		case "vote":
			m.Vote = readUint32s(in)
		default:
			in.SkipRecursive()
		}
	})
}

// ProposalIDMsg is the body of execute, close and proposal queries.
type ProposalIDMsg struct {
	ProposalID uint32
}

func (m ProposalIDMsg) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"proposal_id":`)
	out.Uint32(m.ProposalID)
	out.RawByte('}')
}

func (m *ProposalIDMsg) UnmarshalTinyJSON(in *jlexer.Lexer) {
	readObject(in, func(key string) {
		switch key {
		case "proposal_id":
			m.ProposalID = in.Uint32()
		default:
			in.SkipRecursive()
		}
	})
}

// ListProposalsMsg pages the proposal list. Zero values mean from the start with the default limit.
type ListProposalsMsg struct {
	StartAfter uint32
	Limit      uint32
}

func (m *ListProposalsMsg) UnmarshalTinyJSON(in *jlexer.Lexer) {
	readObject(in, func(key string) {
		switch key {
		case "start_after":
			m.StartAfter = in.Uint32()
		case "limit":
			m.Limit = in.Uint32()
		default:
			in.SkipRecursive()
		}
	})
}

// BallotQueryMsg asks for one voter's receipt.
type BallotQueryMsg struct {
	ProposalID uint32
	Voter      sdk.Address
}

func (m *BallotQueryMsg) UnmarshalTinyJSON(in *jlexer.Lexer) {
	readObject(in, func(key string) {
		switch key {
		case "proposal_id":
			m.ProposalID = in.Uint32()
		case "voter":
			m.Voter = sdk.Address(in.String())
		default:
			in.SkipRecursive()
		}
	})
}

type proposalIDResponse struct {
	id uint32
}

func (r proposalIDResponse) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"proposal_id":`)
	out.Uint32(r.id)
	out.RawByte('}')
}

type statusResponse struct {
	status condorcet.Status
}

func (r statusResponse) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"status":`)
	out.String(r.status.String())
	out.RawByte('}')
}

type rawResponse []byte

func (r rawResponse) MarshalTinyJSON(out *jwriter.Writer) {
	out.Raw(r, nil)
}

// decodeEnvelope reads {"<name>":{...}} and lets fn decode the body for the given name.
func decodeEnvelope(payload []byte, fn func(name string, in *jlexer.Lexer) bool) error {
	in := jlexer.Lexer{Data: payload}
	readVariant(&in, "message", func(name string) bool {
		return fn(name, &in)
	})
	if err := in.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

// Handle routes a json execute message, the entry point a chain host calls.
// Example payload: {"vote":{"proposal_id":1,"vote":[2,0,1]}}
func (c *Contract) Handle(env sdk.Env, payload []byte) ([]byte, error) {
	var run func() (tinyjson.Marshaler, error)
	err := decodeEnvelope(payload, func(name string, in *jlexer.Lexer) bool {
		switch name {
		case "instantiate":
			var cfg Config
			cfg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				return rawResponse("{}"), c.Instantiate(env, cfg)
			}
		case "update_config":
			var cfg Config
			cfg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				return rawResponse("{}"), c.UpdateConfig(env, cfg)
			}
		case "propose":
			var msg ProposeMsg
			msg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				id, err := c.Propose(env, msg)
				return proposalIDResponse{id: id}, err
			}
		case "vote":
			var msg VoteMsg
			msg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				return rawResponse("{}"), c.Vote(env, msg)
			}
		case "execute":
			var msg ProposalIDMsg
			msg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				st, err := c.Execute(env, msg.ProposalID)
				return statusResponse{status: st}, err
			}
		case "close":
			var msg ProposalIDMsg
			msg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				return rawResponse("{}"), c.Close(env, msg.ProposalID)
			}
		default:
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return respond(run)
}

// Query routes a json query message. It never writes state.
// Example payload: {"proposal":{"proposal_id":1}}
func (c *Contract) Query(env sdk.Env, payload []byte) ([]byte, error) {
	var run func() (tinyjson.Marshaler, error)
	err := decodeEnvelope(payload, func(name string, in *jlexer.Lexer) bool {
		switch name {
		case "config":
			in.SkipRecursive()
			run = func() (tinyjson.Marshaler, error) {
				return c.QueryConfig()
			}
		case "next_proposal_id":
			in.SkipRecursive()
			run = func() (tinyjson.Marshaler, error) {
				id, err := c.QueryNextProposalID()
				return rawResponse(fmt.Sprintf("%d", id)), err
			}
		case "proposal":
			var msg ProposalIDMsg
			msg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				r, err := c.QueryProposal(env, msg.ProposalID)
				if err != nil {
					return nil, err
				}
				return r, nil
			}
		case "list_proposals":
			var msg ListProposalsMsg
			msg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				r, err := c.QueryListProposals(env, msg.StartAfter, msg.Limit)
				if err != nil {
					return nil, err
				}
				return r, nil
			}
		case "ballot":
			var msg BallotQueryMsg
			msg.UnmarshalTinyJSON(in)
			run = func() (tinyjson.Marshaler, error) {
				b, err := c.QueryBallot(msg.ProposalID, msg.Voter)
				if err != nil || b == nil {
					return rawResponse("null"), err
				}
				return b, nil
			}
		default:
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return respond(run)
}

func respond(run func() (tinyjson.Marshaler, error)) ([]byte, error) {
	res, err := run()
	if err != nil {
		return nil, err
	}
	return tinyjson.Marshal(res)
}

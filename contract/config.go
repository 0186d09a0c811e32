package contract

import (
	"fmt"

	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

// Config is the module wide proposal policy. DAO is the only address allowed to change it.
type Config struct {
	Quorum                           condorcet.PercentageThreshold
	VotingPeriod                     condorcet.Duration
	MinVotingPeriod                  *condorcet.Duration
	CloseProposalsOnExecutionFailure bool
	DAO                              sdk.Address
}

// Validate checks quorum bounds, the voting periods and the dao address.
func (c Config) Validate() error {
	if err := c.Quorum.Validate(); err != nil {
		return fmt.Errorf("%w: quorum: %v", ErrInvalidConfig, err)
	}
	if err := c.VotingPeriod.Validate(); err != nil {
		return fmt.Errorf("%w: voting period: %v", ErrInvalidConfig, err)
	}
	if err := condorcet.ValidateMinPeriod(c.MinVotingPeriod, c.VotingPeriod); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !c.DAO.IsValid() {
		return fmt.Errorf("%w: dao address %q", ErrInvalidConfig, c.DAO)
	}
	return nil
}

// MarshalTinyJSON writes the config the way it is stored and queried.
func (c Config) MarshalTinyJSON(out *jwriter.Writer) {
	out.RawString(`{"quorum":`)
	writeThreshold(out, c.Quorum)
	out.RawString(`,"voting_period":`)
	writeDuration(out, c.VotingPeriod)
	if c.MinVotingPeriod != nil {
		out.RawString(`,"min_voting_period":`)
		writeDuration(out, *c.MinVotingPeriod)
	}
	out.RawString(`,"close_proposals_on_execution_failure":`)
	out.Bool(c.CloseProposalsOnExecutionFailure)
	out.RawString(`,"dao":`)
	out.String(c.DAO.String())
	out.RawByte('}')
}

// UnmarshalTinyJSON requires a quorum, a missing one must not decode as Majority.
func (c *Config) UnmarshalTinyJSON(in *jlexer.Lexer) {
	hasQuorum := false
	readObject(in, func(key string) {
		switch key {
		case "quorum":
			hasQuorum = true
			c.Quorum = readThreshold(in)
		case "voting_period":
			c.VotingPeriod = readDuration(in)
		case "min_voting_period":
			d := readDuration(in)
			c.MinVotingPeriod = &d
		case "close_proposals_on_execution_failure":
			c.CloseProposalsOnExecutionFailure = in.Bool()
		case "dao":
			c.DAO = sdk.Address(in.String())
		default:
			in.SkipRecursive()
		}
	})
	if !hasQuorum && in.Ok() {
		in.AddError(fmt.Errorf("%w: quorum is required", ErrInvalidConfig))
	}
}

// ParseConfig decodes and validates a json config.
// Example payload: ParseConfig([]byte(`{"quorum":{"percent":"0.2"},"voting_period":{"height":100},"dao":"contract:dao"}`))
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := tinyjson.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func loadConfig(state sdk.State) (Config, error) {
	ptr := state.Get(configKey())
	if ptr == nil {
		return Config{}, ErrNotInstantiated
	}
	var c Config
	if err := tinyjson.Unmarshal([]byte(*ptr), &c); err != nil {
		return Config{}, fmt.Errorf("stored config: %w", err)
	}
	return c, nil
}

func saveConfig(state sdk.State, c Config) error {
	data, err := tinyjson.Marshal(c)
	if err != nil {
		return err
	}
	state.Set(configKey(), string(data))
	return nil
}

package contract

import (
	"github.com/prometheus/client_golang/prometheus"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

// Contract is the ranked choice proposal module. Every state changing call runs against a
// sdk.CacheState that is only written through when the call succeeds.
type Contract struct {
	state        sdk.State
	power        VotingPowerSource
	dispatcher   Dispatcher
	logger       sdk.Logger
	promRegistry prometheus.Registerer
	metrics      *contractMetrics
	staged       *staged
}

type ContractOptionFunc func(*Contract)

// WithDispatcher specifies where winning messages are sent. Without one, execution only flips the status.
func WithDispatcher(d Dispatcher) ContractOptionFunc {
	return func(c *Contract) {
		c.dispatcher = d
	}
}

// WithLogger specifies the host logger that receives event lines
func WithLogger(logger sdk.Logger) ContractOptionFunc {
	return func(c *Contract) {
		c.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) ContractOptionFunc {
	return func(c *Contract) {
		c.promRegistry = registry
	}
}

// New wires the module to its host state and the dao's voting power source.
func New(state sdk.State, power VotingPowerSource, opts ...ContractOptionFunc) *Contract {
	c := &Contract{
		state:  state,
		power:  power,
		logger: sdk.NopLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initMetrics()
	return c
}

// WithState returns a copy bound to another state handle, sharing metrics and collaborators.
func (c *Contract) WithState(state sdk.State) *Contract {
	cp := *c
	cp.state = state
	cp.staged = nil
	return &cp
}

// staged holds events and metric updates of calls whose host transaction is still open.
type staged struct {
	lines    []string
	onCommit []func()
}

// Staged is WithState for hosts whose state commits after the call returns, like a store
// transaction. Events and metric updates of successful calls are held until release is called,
// which the host does only once its own commit succeeded.
func (c *Contract) Staged(state sdk.State) (*Contract, func()) {
	cp := c.WithState(state)
	st := &staged{}
	cp.staged = st
	release := func() {
		for _, l := range st.lines {
			c.logger.Log(l)
		}
		for _, f := range st.onCommit {
			f()
		}
		st.lines, st.onCommit = nil, nil
	}
	return cp, release
}

// call carries the per transaction scratch state.
type call struct {
	env      sdk.Env
	state    *sdk.CacheState
	events   events
	onCommit []func()
}

// run executes fn atomically against c.state: state writes, events and metric updates all happen
// or none do. On a Staged contract the events and metric updates wait for the host's release.
func (c *Contract) run(op string, env sdk.Env, fn func(x *call) error) error {
	x := &call{
		env:   env,
		state: sdk.NewCacheState(c.state),
	}
	if err := fn(x); err != nil {
		x.state.Discard()
		c.metrics.callFailures.WithLabelValues(op).Inc()
		return err
	}
	x.state.Write()
	if c.staged != nil {
		c.staged.lines = append(c.staged.lines, x.events.lines...)
		c.staged.onCommit = append(c.staged.onCommit, x.onCommit...)
		return nil
	}
	x.events.flush(c.logger)
	for _, f := range x.onCommit {
		f()
	}
	return nil
}

// statusChanged emits the ps event and counts the transition when the status moved.
func (c *Contract) statusChanged(x *call, p *condorcet.Proposal, before condorcet.Status) {
	after := p.LastStatus()
	if after == before {
		return
	}
	x.events.emitProposalStateChangedEvent(p.ID, after)
	x.onCommit = append(x.onCommit, func() {
		c.metrics.statusTransitions.WithLabelValues(after.String()).Inc()
	})
}

// Instantiate stores the first config. It can only run once per state.
func (c *Contract) Instantiate(env sdk.Env, cfg Config) error {
	return c.run("instantiate", env, func(x *call) error {
		if x.state.Get(configKey()) != nil {
			return ErrAlreadyInstantiated
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := saveConfig(x.state, cfg); err != nil {
			return err
		}
		x.events.emitConfigUpdatedEvent(env.Sender, cfg)
		return nil
	})
}

// UpdateConfig replaces the config. Only the dao may call it and running proposals keep their terms.
func (c *Contract) UpdateConfig(env sdk.Env, cfg Config) error {
	return c.run("update_config", env, func(x *call) error {
		current, err := loadConfig(x.state)
		if err != nil {
			return err
		}
		if env.Sender != current.DAO {
			return ErrUnauthorized
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := saveConfig(x.state, cfg); err != nil {
			return err
		}
		x.events.emitConfigUpdatedEvent(env.Sender, cfg)
		return nil
	})
}

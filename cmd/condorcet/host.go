package main

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"condorcet_dao/contract"
	"condorcet_dao/internal/config"
	"condorcet_dao/sdk"
	"condorcet_dao/sdk/badgerstate"
)

// host owns the store and the module for one cli invocation.
type host struct {
	logger   zerolog.Logger
	registry *prometheus.Registry
	store    *badgerstate.Store
	module   *contract.Contract
}

func openHost(cfg *config.Config, logger zerolog.Logger) (*host, error) {
	power, err := config.LoadPowerTable(cfg.PowerFile)
	if err != nil {
		return nil, err
	}
	dataDir := cfg.DataDir
	if cfg.InMemory {
		dataDir = ""
	}
	registry := prometheus.NewRegistry()
	store, err := badgerstate.New(
		badgerstate.WithDataDir(dataDir),
		badgerstate.WithLogger(logger),
		badgerstate.WithPromRegistry(registry),
	)
	if err != nil {
		return nil, err
	}
	module := contract.New(
		nil,
		power,
		contract.WithLogger(sdk.NewZeroLogger(logger)),
		contract.WithPromRegistry(registry),
		contract.WithDispatcher(logDispatcher(logger)),
	)
	return &host{
		logger:   logger,
		registry: registry,
		store:    store,
		module:   module,
	}, nil
}

// logDispatcher stands in for the dao core. It only records the messages it was handed.
func logDispatcher(logger zerolog.Logger) contract.Dispatcher {
	return contract.DispatcherFunc(func(env sdk.Env, proposalID uint32, msgs []json.RawMessage) error {
		for i, m := range msgs {
			logger.Info().
				Uint32("proposal", proposalID).
				Int("index", i).
				RawJSON("msg", m).
				Msg("dispatch")
		}
		return nil
	})
}

func (h *host) Close() error {
	return h.store.Close()
}

// exec runs fn inside one store transaction, committed only if fn succeeds. Events and metrics
// of the call are released after the commit went through.
func (h *host) exec(fn func(c *contract.Contract) error) error {
	release := func() {}
	err := h.store.Update(func(state sdk.State) error {
		c, r := h.module.Staged(state)
		release = r
		return fn(c)
	})
	if err != nil {
		return err
	}
	release()
	return nil
}

func (h *host) view(fn func(c *contract.Contract) error) error {
	return h.store.View(func(state sdk.State) error {
		return fn(h.module.WithState(state))
	})
}

func (h *host) handle(env sdk.Env, payload []byte) ([]byte, error) {
	var res []byte
	err := h.exec(func(c *contract.Contract) error {
		var err error
		res, err = c.Handle(env, payload)
		return err
	})
	return res, err
}

func (h *host) query(env sdk.Env, payload []byte) ([]byte, error) {
	var res []byte
	err := h.view(func(c *contract.Contract) error {
		var err error
		res, err = c.Query(env, payload)
		return err
	})
	return res, err
}

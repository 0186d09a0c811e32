package contract_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"condorcet_dao/contract"
	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

const daoAddress = sdk.Address("contract:dao-core")

var genesis = time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC)

type dispatched struct {
	proposalID uint32
	msgs       []json.RawMessage
}

// contractTest bundles the contract with its fake host so tests can poke every side.
type contractTest struct {
	c          *contract.Contract
	state      *sdk.MemState
	power      *contract.PowerTable
	logs       *sdk.RecordingLogger
	registry   *prometheus.Registry
	dispatched []dispatched
	failWith   error
}

func setupContractTest(t *testing.T, cfg contract.Config) *contractTest {
	t.Helper()
	ct := &contractTest{
		state:    sdk.NewMemState(),
		power:    contract.NewPowerTable(),
		logs:     &sdk.RecordingLogger{},
		registry: prometheus.NewRegistry(),
	}
	require.NoError(t, ct.power.Set("hive:alice", 1, uint256.NewInt(5)))
	require.NoError(t, ct.power.Set("hive:bob", 1, uint256.NewInt(3)))
	require.NoError(t, ct.power.Set("hive:carol", 1, uint256.NewInt(2)))

	dispatcher := contract.DispatcherFunc(func(env sdk.Env, id uint32, msgs []json.RawMessage) error {
		if ct.failWith != nil {
			return ct.failWith
		}
		ct.dispatched = append(ct.dispatched, dispatched{proposalID: id, msgs: msgs})
		return nil
	})
	ct.c = contract.New(
		ct.state,
		ct.power,
		contract.WithDispatcher(dispatcher),
		contract.WithLogger(ct.logs),
		contract.WithPromRegistry(ct.registry),
	)
	require.NoError(t, ct.c.Instantiate(envAt(1, daoAddress), cfg))
	ct.logs.Lines = nil
	return ct
}

func envAt(height uint64, sender sdk.Address) sdk.Env {
	return sdk.Env{
		Block: sdk.BlockInfo{
			Height:  height,
			Time:    genesis.Add(time.Duration(height) * 5 * time.Second),
			ChainID: "testnet",
		},
		Sender:   sender,
		Contract: "contract:condorcet",
	}
}

func defaultConfig() contract.Config {
	return contract.Config{
		Quorum:       condorcet.Percent(decimal.RequireFromString("0.5")),
		VotingPeriod: condorcet.Height(10),
		DAO:          daoAddress,
	}
}

func threeChoices() contract.ProposeMsg {
	return contract.ProposeMsg{
		Title:       "treasury split",
		Description: "where do the funds go",
		Choices: []condorcet.Choice{
			{Title: "grants", Msgs: []json.RawMessage{json.RawMessage(`{"bank":{"send":{"to_address":"hive:grants","amount":"10"}}}`)}},
			{Title: "buyback", Msgs: []json.RawMessage{json.RawMessage(`{"wasm":{"execute":{"contract_addr":"contract:swap","msg":"e30="}}}`)}},
			{Title: "hold"},
		},
	}
}

func (ct *contractTest) propose(t *testing.T, height uint64) uint32 {
	t.Helper()
	id, err := ct.c.Propose(envAt(height, "hive:alice"), threeChoices())
	require.NoError(t, err)
	return id
}

func (ct *contractTest) vote(t *testing.T, height uint64, voter sdk.Address, id uint32, ranking ...uint32) {
	t.Helper()
	require.NoError(t, ct.c.Vote(envAt(height, voter), contract.VoteMsg{ProposalID: id, Vote: ranking}))
}

func (ct *contractTest) status(t *testing.T, height uint64, id uint32) condorcet.Status {
	t.Helper()
	r, err := ct.c.QueryProposal(envAt(height, "hive:anyone"), id)
	require.NoError(t, err)
	return r.Status
}

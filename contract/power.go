package contract

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

// VotingPowerSource answers the voting power queries a proposal module sends to the dao's
// voting module. Both are evaluated at a past height so later changes cannot swing a ballot.
type VotingPowerSource interface {
	TotalPowerAtHeight(height uint64) (*uint256.Int, error)
	VotingPowerAtHeight(addr sdk.Address, height uint64) (*uint256.Int, error)
}

// Dispatcher hands the winning choice's messages to the dao core for execution.
type Dispatcher interface {
	Dispatch(env sdk.Env, proposalID uint32, msgs []json.RawMessage) error
}

// DispatcherFunc adapts a plain function to Dispatcher.
type DispatcherFunc func(env sdk.Env, proposalID uint32, msgs []json.RawMessage) error

func (f DispatcherFunc) Dispatch(env sdk.Env, proposalID uint32, msgs []json.RawMessage) error {
	return f(env, proposalID, msgs)
}

type powerEntry struct {
	height uint64
	power  uint256.Int
}

// PowerTable is a height indexed voting power snapshot store, like a staking module's
// checkpoints. A member's power at h is the latest entry at or below h.
type PowerTable struct {
	entries map[sdk.Address][]powerEntry
}

func NewPowerTable() *PowerTable {
	return &PowerTable{entries: make(map[sdk.Address][]powerEntry)}
}

// Set records addr's power from height on.
// Example payload: table.Set("hive:alice", 1, uint256.NewInt(10))
func (t *PowerTable) Set(addr sdk.Address, height uint64, power *uint256.Int) error {
	if err := condorcet.CheckPower(power); err != nil {
		return err
	}
	var e powerEntry
	e.height = height
	if power != nil {
		e.power.Set(power)
	}
	list := t.entries[addr]
	i := sort.Search(len(list), func(i int) bool { return list[i].height >= height })
	if i < len(list) && list[i].height == height {
		list[i] = e
		return nil
	}
	list = append(list, powerEntry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	t.entries[addr] = list
	return nil
}

// Members lists every address that ever held power, sorted.
func (t *PowerTable) Members() []sdk.Address {
	out := make([]sdk.Address, 0, len(t.entries))
	for a := range t.entries {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *PowerTable) VotingPowerAtHeight(addr sdk.Address, height uint64) (*uint256.Int, error) {
	list := t.entries[addr]
	i := sort.Search(len(list), func(i int) bool { return list[i].height > height })
	if i == 0 {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(&list[i-1].power), nil
}

func (t *PowerTable) TotalPowerAtHeight(height uint64) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, addr := range t.Members() {
		p, err := t.VotingPowerAtHeight(addr, height)
		if err != nil {
			return nil, err
		}
		total.Add(total, p)
		if err := condorcet.CheckPower(total); err != nil {
			return nil, fmt.Errorf("total power at %d: %w", height, err)
		}
	}
	return total, nil
}

package contract

import (
	"fmt"
	"math"
	"strconv"

	"condorcet_dao/sdk"
)

// ProposalsCount holds the id of the latest proposal, ids start at 1.
const ProposalsCount = "count:props"

// getCount reads the string counter under the key and defaults to zero.
func getCount(state sdk.State, key string) (uint32, error) {
	ptr := state.Get(key)
	if ptr == nil || *ptr == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(*ptr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	return uint32(n), nil
}

// setCount stores counters back as decimal strings for the host kv.
func setCount(state sdk.State, key string, n uint32) {
	state.Set(key, strconv.FormatUint(uint64(n), 10))
}

// nextID bumps the counter and returns the new value.
func nextID(state sdk.State, key string) (uint32, error) {
	n, err := getCount(state, key)
	if err != nil {
		return 0, err
	}
	if n == math.MaxUint32 {
		return 0, fmt.Errorf("counter %s exhausted", key)
	}
	n++
	setCount(state, key, n)
	return n, nil
}

package sdk_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condorcet_dao/sdk"
)

// TestCacheStateWrite checks buffered writes and deletes only land on Write.
func TestCacheStateWrite(t *testing.T) {
	parent := sdk.NewMemState()
	parent.Set("keep", "1")
	parent.Set("drop", "2")

	cache := sdk.NewCacheState(parent)
	cache.Set("new", "3")
	cache.Delete("drop")
	cache.Set("keep", "4")

	assert.Nil(t, cache.Get("drop"))
	assert.Equal(t, "4", *cache.Get("keep"))
	assert.Equal(t, "2", *parent.Get("drop"))
	assert.Nil(t, parent.Get("new"))
	assert.True(t, cache.Dirty())

	cache.Write()
	assert.False(t, cache.Dirty())
	assert.Nil(t, parent.Get("drop"))
	assert.Equal(t, "4", *parent.Get("keep"))
	assert.Equal(t, "3", *parent.Get("new"))
}

// TestCacheStateDiscard checks a discarded overlay leaves the parent alone.
func TestCacheStateDiscard(t *testing.T) {
	parent := sdk.NewMemState()
	parent.Set("a", "1")

	cache := sdk.NewCacheState(parent)
	cache.Set("a", "2")
	cache.Delete("a")
	cache.Set("a", "3")
	assert.Equal(t, "3", *cache.Get("a"))

	cache.Discard()
	assert.Equal(t, "1", *cache.Get("a"))
	assert.Equal(t, "1", *parent.Get("a"))
}

// TestFileStateReload checks the json mirror survives a reload.
func TestFileStateReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := sdk.NewFileState(path)
	require.NoError(t, err)
	s.Set("\x10\x01", "proposal")
	s.Set("count:props", "1")
	s.Delete("count:props")

	again, err := sdk.NewFileState(path)
	require.NoError(t, err)
	require.NotNil(t, again.Get("\x10\x01"))
	assert.Equal(t, "proposal", *again.Get("\x10\x01"))
	assert.Nil(t, again.Get("count:props"))
	assert.Equal(t, []string{"\x10\x01"}, again.Keys("\x10"))
}

// TestAddressDomain checks the address helpers.
func TestAddressDomain(t *testing.T) {
	assert.True(t, sdk.Address("hive:alice").IsValid())
	assert.False(t, sdk.Address("").IsValid())
	assert.False(t, sdk.Address("hive:a|b").IsValid())
	assert.Equal(t, sdk.AddressDomainContract, sdk.Address("contract:dao").Domain())
}

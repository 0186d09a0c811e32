package badgerstate

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"condorcet_dao/sdk"
)

func verifyNoLeaks(t *testing.T) {
	goleak.VerifyNone(
		t,
		goleak.IgnoreAnyFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreAnyFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
	)
}

func newStore(t *testing.T, opts ...StoreOptionFunc) *Store {
	t.Helper()
	s, err := New(opts...)
	require.NoError(t, err)
	return s
}

// TestInMemoryRoundTrip checks committed writes are visible to the next transaction.
func TestInMemoryRoundTrip(t *testing.T) {
	defer verifyNoLeaks(t)
	reg := prometheus.NewRegistry()
	s := newStore(t, WithPromRegistry(reg))
	defer s.Close()

	require.NoError(t, s.Update(func(state sdk.State) error {
		assert.Nil(t, state.Get("missing"))
		state.Set("k", "v1")
		state.Set("gone", "x")
		state.Delete("gone")
		got := state.Get("k")
		require.NotNil(t, got)
		assert.Equal(t, "v1", *got)
		return nil
	}))

	require.NoError(t, s.View(func(state sdk.State) error {
		got := state.Get("k")
		require.NotNil(t, got)
		assert.Equal(t, "v1", *got)
		assert.Nil(t, state.Get("gone"))
		return nil
	}))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.commits))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.discards))
}

// TestUpdateErrorDiscards checks a failing callback leaves no trace.
func TestUpdateErrorDiscards(t *testing.T) {
	defer verifyNoLeaks(t)
	s := newStore(t)
	defer s.Close()

	err := s.Update(func(state sdk.State) error {
		state.Set("k", "v")
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	require.NoError(t, s.View(func(state sdk.State) error {
		assert.Nil(t, state.Get("k"))
		return nil
	}))
}

// TestFinishedTxnRecordsError checks state calls after commit surface on Err.
func TestFinishedTxnRecordsError(t *testing.T) {
	defer verifyNoLeaks(t)
	reg := prometheus.NewRegistry()
	s := newStore(t, WithPromRegistry(reg))
	defer s.Close()

	txn := s.Begin()
	txn.Set("a", "1")
	require.NoError(t, txn.Commit())
	require.NoError(t, txn.Commit())

	txn.Set("b", "2")
	assert.Error(t, txn.Err())
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.txnErrors))
}

// TestDataDirPersists checks a reopened on-disk store still has the data.
func TestDataDirPersists(t *testing.T) {
	defer verifyNoLeaks(t)
	dir := t.TempDir()

	s := newStore(t, WithDataDir(dir))
	require.NoError(t, s.Update(func(state sdk.State) error {
		state.Set("count:props", "3")
		return nil
	}))
	require.NoError(t, s.Close())

	s = newStore(t, WithDataDir(dir))
	defer s.Close()
	require.NoError(t, s.View(func(state sdk.State) error {
		got := state.Get("count:props")
		require.NotNil(t, got)
		assert.Equal(t, "3", *got)
		return nil
	}))
}

package badgerstate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"condorcet_dao/sdk"
)

// Store keeps contract state in badger so the CLI host survives restarts.
type Store struct {
	db           *badger.DB
	logger       zerolog.Logger
	promRegistry prometheus.Registerer
	dataDir      string
	metrics      storeMetrics
}

type storeMetrics struct {
	commits   prometheus.Counter
	discards  prometheus.Counter
	txnErrors prometheus.Counter
}

// New opens the store. An empty data dir gives an in-memory database.
func New(opts ...StoreOptionFunc) (*Store, error) {
	s := &Store{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(filepath.Join(s.dataDir, "state"))
	}
	badgerOpts = badgerOpts.
		WithLogger(NewBadgerLogger(s.logger)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.initMetrics()
	return s, nil
}

func (s *Store) initMetrics() {
	factory := promauto.With(s.promRegistry)
	s.metrics.commits = factory.NewCounter(prometheus.CounterOpts{
		Name: "condorcet_state_commits_total",
		Help: "state transactions committed",
	})
	s.metrics.discards = factory.NewCounter(prometheus.CounterOpts{
		Name: "condorcet_state_discards_total",
		Help: "state transactions discarded",
	})
	s.metrics.txnErrors = factory.NewCounter(prometheus.CounterOpts{
		Name: "condorcet_state_txn_errors_total",
		Help: "badger errors seen inside state transactions",
	})
}

// Close flushes and closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the database handle
func (s *Store) DB() *badger.DB {
	return s.db
}

// Begin opens a read-write transaction exposed as sdk.State.
func (s *Store) Begin() *Txn {
	return &Txn{store: s, tx: s.db.NewTransaction(true)}
}

// Update runs fn in a transaction and commits only when fn and every state call succeeded.
func (s *Store) Update(fn func(state sdk.State) error) error {
	txn := s.Begin()
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// View runs fn against a read-only snapshot. Writes made by fn are dropped.
func (s *Store) View(fn func(state sdk.State) error) error {
	txn := s.Begin()
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	return txn.Err()
}

// Txn adapts a badger transaction to sdk.State. State calls cannot return errors, so the first
// badger error is kept and reported by Commit.
type Txn struct {
	store    *Store
	tx       *badger.Txn
	err      error
	finished bool
}

var _ sdk.State = (*Txn)(nil)

func (t *Txn) fail(op, key string, err error) {
	t.store.metrics.txnErrors.Inc()
	t.store.logger.Error().Err(err).Str("op", op).Hex("key", []byte(key)).Msg("state transaction failed")
	if t.err == nil {
		t.err = fmt.Errorf("badger %s: %w", op, err)
	}
}

func (t *Txn) Get(key string) *string {
	if t.finished {
		t.fail("get", key, errors.New("transaction already finished"))
		return nil
	}
	item, err := t.tx.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			t.fail("get", key, err)
		}
		return nil
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		t.fail("get", key, err)
		return nil
	}
	s := string(val)
	return &s
}

func (t *Txn) Set(key, value string) {
	if t.finished {
		t.fail("set", key, errors.New("transaction already finished"))
		return
	}
	if err := t.tx.Set([]byte(key), []byte(value)); err != nil {
		t.fail("set", key, err)
	}
}

func (t *Txn) Delete(key string) {
	if t.finished {
		t.fail("delete", key, errors.New("transaction already finished"))
		return
	}
	if err := t.tx.Delete([]byte(key)); err != nil {
		t.fail("delete", key, err)
	}
}

// Err is the first error seen by the transaction, if any.
func (t *Txn) Err() error {
	return t.err
}

// Commit writes the transaction unless an earlier state call failed.
func (t *Txn) Commit() error {
	if t.finished {
		return nil
	}
	if t.err != nil {
		t.Discard()
		return t.err
	}
	if err := t.tx.Commit(); err != nil {
		t.finished = true
		return err
	}
	t.finished = true
	t.store.metrics.commits.Inc()
	return nil
}

// Discard is safe to call after Commit.
func (t *Txn) Discard() {
	if t.finished {
		return
	}
	t.tx.Discard()
	t.finished = true
	t.store.metrics.discards.Inc()
}

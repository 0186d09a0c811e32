package badgerstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type StoreOptionFunc func(*Store)

// WithLogger specifies the logger to use for badger and store messages
func WithLogger(logger zerolog.Logger) StoreOptionFunc {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) StoreOptionFunc {
	return func(s *Store) {
		s.promRegistry = registry
	}
}

// WithDataDir specifies the data directory to use for storage. Without it the store is in-memory.
func WithDataDir(dataDir string) StoreOptionFunc {
	return func(s *Store) {
		s.dataDir = dataDir
	}
}

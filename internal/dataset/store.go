package dataset

import (
	"sync/atomic"

	"github.com/harees/url-classifier/internal/core"
)

type snapshot struct {
	data    *Dataset
	version uint64
}

// Store publishes the live dataset. Readers always see one complete
// snapshot; replacements are built elsewhere and swapped in whole.
type Store struct {
	current atomic.Pointer[snapshot]
}

// NewStore creates a store serving the given dataset as version 1
func NewStore(d *Dataset) *Store {
	s := &Store{}
	s.current.Store(&snapshot{data: d, version: 1})
	return s
}

// Lookup reads from the current snapshot
func (s *Store) Lookup(key string) (core.TrustCategory, bool) {
	return s.current.Load().data.Lookup(key)
}

// Current returns the dataset being served
func (s *Store) Current() *Dataset {
	return s.current.Load().data
}

// Version increases by one on every swap
func (s *Store) Version() uint64 {
	return s.current.Load().version
}

// Swap replaces the served dataset and returns the new version
func (s *Store) Swap(d *Dataset) uint64 {
	for {
		old := s.current.Load()
		next := &snapshot{data: d, version: old.version + 1}
		if s.current.CompareAndSwap(old, next) {
			return next.version
		}
	}
}

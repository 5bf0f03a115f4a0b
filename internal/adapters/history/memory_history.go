package history

import (
	"context"
	"sync"

	"github.com/harees/url-classifier/internal/core"
)

// DefaultMaxRecords matches the extension's local history length
const DefaultMaxRecords = 200

// MemoryHistory keeps the newest records in memory
type MemoryHistory struct {
	mu      sync.RWMutex
	records []core.ActionRecord
	max     int
}

// NewMemoryHistory creates a history that retains at most maxRecords entries
func NewMemoryHistory(maxRecords int) *MemoryHistory {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &MemoryHistory{max: maxRecords}
}

// Add appends a record, dropping the oldest once full
func (h *MemoryHistory) Add(ctx context.Context, rec *core.ActionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, *rec)
	if over := len(h.records) - h.max; over > 0 {
		h.records = append(h.records[:0:0], h.records[over:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (h *MemoryHistory) Recent(ctx context.Context, limit int) ([]core.ActionRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	out := make([]core.ActionRecord, 0, limit)
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}

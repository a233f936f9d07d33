package usage

import (
	"context"
	"sync"
	"time"
)

var _ Pruner = (*MemoryBackend)(nil)

// in-process backend. records do not survive a restart.
type MemoryBackend struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]*Record)}
}

func (b *MemoryBackend) Load(_ context.Context, key string) (*Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[key]
	if !ok {
		return nil, nil
	}

	return rec.clone(), nil
}

func (b *MemoryBackend) Save(_ context.Context, key string, rec *Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[key] = rec.clone()
	return nil
}

// forgets a scope's records the same way Prune would: counters from before
// day go, but a demo marker still inside its lockout keeps its record.
func (b *MemoryBackend) PruneScope(scope, before string, demoBefore time.Time) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var deleted int64
	for key, rec := range b.records {
		if ScopeOf(key) != scope || !prunable(rec, before, demoBefore) {
			continue
		}

		delete(b.records, key)
		deleted++
	}

	return deleted
}

func (b *MemoryBackend) Prune(_ context.Context, before string, demoBefore time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var deleted int64
	for key, rec := range b.records {
		if !prunable(rec, before, demoBefore) {
			continue
		}

		delete(b.records, key)
		deleted++
	}

	return deleted, nil
}

// day key older than before and demo marker absent or older than demoBefore
func prunable(rec *Record, before string, demoBefore time.Time) bool {
	if rec.Counter.Day >= before {
		return false
	}

	if rec.Demo != nil && rec.Demo.UsedAt != nil && !rec.Demo.UsedAt.Before(demoBefore) {
		return false
	}

	return true
}

func (r *Record) clone() *Record {
	out := &Record{
		Counter:   r.Counter.Clone(),
		UpdatedAt: r.UpdatedAt,
	}

	if r.Demo != nil {
		demo := *r.Demo

		if r.Demo.UsedAt != nil {
			usedAt := *r.Demo.UsedAt
			demo.UsedAt = &usedAt
		}

		out.Demo = &demo
	}

	return out
}

// Package blobstore provides crawl.BlobStore implementations: an
// in-memory map for tests and short runs, and a bbolt-backed one for
// standalone CLI persistence.
//
// Grounded on TheSnook-polyester/storage's scheme-registry Storage
// factory (storage.go) and its bbolt backend (bbolt.go), narrowed from
// a generic proto-Resource sink to crawl's byte-slice
// Put(ctx, key, value) / Get(ctx, key) contract.
package blobstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory BlobStore, safe for concurrent use, suitable
// for tests and for runs that hand CrawlResult straight to a
// Restructurer without persisting it.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

// ErrClosed is the sentinel for a closed store. Neither Memory nor BBolt
// returns it: after Close, BBolt's methods return the error bbolt itself
// reports.
var ErrClosed = fmt.Errorf("blobstore: store is closed")

package storage

import (
	"context"
	"sync"
)

// MemoryDriver keeps documents in a mutex-guarded map. Used by tests and as
// a throwaway dev backend.
type MemoryDriver struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// FailNextSave makes the next write return an error, for exercising
	// the persistence failure paths in tests.
	FailNextSave error
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{docs: make(map[string][]byte)}
}

func (d *MemoryDriver) Close() error { return nil }

func (d *MemoryDriver) Load(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	body, ok := d.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

func (d *MemoryDriver) Save(_ context.Context, key string, body []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return err
	}
	d.docs[key] = append([]byte(nil), body...)
	return nil
}

func (d *MemoryDriver) SaveMulti(_ context.Context, docs map[string][]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return err
	}
	for key, body := range docs {
		d.docs[key] = append([]byte(nil), body...)
	}
	return nil
}

func (d *MemoryDriver) takeFailure() error {
	err := d.FailNextSave
	d.FailNextSave = nil
	return err
}

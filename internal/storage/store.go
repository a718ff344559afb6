// Package storage persists the budget state as a small set of JSON
// documents behind interchangeable drivers (sqlite, redis, memory).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taktsiv/internal/core"
)

// Document keys. The whole application state lives in four documents.
const (
	DocLedger     = "ledger"
	DocArchive    = "archive"
	DocAllocation = "allocation"
	DocCustom     = "custom-ledger"
)

// ErrNotFound is returned by drivers for a key that was never written.
var ErrNotFound = errors.New("document not found")

// Driver is the raw document backend: opaque JSON bodies by key.
// SaveMulti must write all documents in one transaction or none.
type Driver interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, body []byte) error
	SaveMulti(ctx context.Context, docs map[string][]byte) error
	Close() error
}

// Store is the typed document store used by the services. Missing documents
// read as their zero state, so a fresh deployment needs no seeding step.
type Store struct {
	driver Driver
}

func NewStore(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) LoadLedger(ctx context.Context) (core.Ledger, error) {
	var l core.Ledger
	if err := s.load(ctx, DocLedger, &l); err != nil {
		return core.Ledger{}, err
	}
	return l, nil
}

func (s *Store) SaveLedger(ctx context.Context, l core.Ledger) error {
	return s.save(ctx, DocLedger, l)
}

func (s *Store) LoadArchive(ctx context.Context) (core.Archive, error) {
	a := core.Archive{}
	if err := s.load(ctx, DocArchive, &a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) SaveArchive(ctx context.Context, a core.Archive) error {
	return s.save(ctx, DocArchive, a)
}

// LoadAllocation falls back to the default allocation when none was ever
// saved.
func (s *Store) LoadAllocation(ctx context.Context) (core.Allocation, error) {
	var a core.Allocation
	body, err := s.driver.Load(ctx, DocAllocation)
	if errors.Is(err, ErrNotFound) {
		return core.DefaultAllocation(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", DocAllocation, err)
	}
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DocAllocation, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("stored allocation: %w", err)
	}
	return a, nil
}

func (s *Store) SaveAllocation(ctx context.Context, a core.Allocation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.save(ctx, DocAllocation, a)
}

func (s *Store) LoadCustom(ctx context.Context) (core.CustomLedger, error) {
	var c core.CustomLedger
	if err := s.load(ctx, DocCustom, &c); err != nil {
		return core.CustomLedger{}, err
	}
	return c, nil
}

func (s *Store) SaveCustom(ctx context.Context, c core.CustomLedger) error {
	return s.save(ctx, DocCustom, c)
}

// ApplyRollover persists the post-rollover ledger and archive atomically.
// Either both documents advance or neither does.
func (s *Store) ApplyRollover(ctx context.Context, l core.Ledger, a core.Archive) error {
	ledgerBody, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode %s: %w", DocLedger, err)
	}
	archiveBody, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode %s: %w", DocArchive, err)
	}
	if err := s.driver.SaveMulti(ctx, map[string][]byte{
		DocLedger:  ledgerBody,
		DocArchive: archiveBody,
	}); err != nil {
		return fmt.Errorf("apply rollover: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, v any) error {
	body, err := s.driver.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.driver.Save(ctx, key, body); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

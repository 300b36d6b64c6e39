// Package memory is a process-lifetime storage driver. Data survives closing
// and reopening a store through the same Driver, but not the process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"costs/internal/core"
	"costs/internal/storage"
)

type Driver struct {
	mu     sync.Mutex
	stores map[string]*db
}

type db struct {
	mu      sync.Mutex
	version uint
	nextID  int64
	items   []core.Record
}

var _ storage.Driver = (*Driver)(nil)

func NewDriver() *Driver {
	return &Driver{stores: make(map[string]*db)}
}

// Open implements storage.Driver.
func (d *Driver) Open(_ context.Context, name string, version uint) (storage.Backend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.stores[name]
	if !ok {
		s = &db{}
		d.stores[name] = s
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if version < s.version {
		return nil, fmt.Errorf("%w: %s is at version %d, requested %d", storage.ErrVersion, name, s.version, version)
	}
	s.version = version

	return &Store{db: s}, nil
}

// Store is an open handle on one in-memory store.
type Store struct {
	db *db
}

// Insert stores the expense and returns the next id. Ids are never reused.
func (s *Store) Insert(_ context.Context, e core.Expense) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.nextID++
	s.db.items = append(s.db.items, core.Record{ID: s.db.nextID, Expense: e})
	return s.db.nextID, nil
}

// ListAll returns a copy of every record.
func (s *Store) ListAll(_ context.Context) ([]core.Record, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]core.Record(nil), s.db.items...), nil
}

func (s *Store) Clear(_ context.Context) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.items = nil
	return nil
}

func (s *Store) Close() error {
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"costs/internal/core"
	applog "costs/internal/log"
)

// Store owns the tables opened through its driver.
type Store struct {
	driver Driver
	group  singleflight.Group

	mu     sync.Mutex
	tables map[string]*Table
}

func New(driver Driver) *Store {
	return &Store{
		driver: driver,
		tables: make(map[string]*Table),
	}
}

// Open opens or creates the named store at the given version and returns its
// costs table. Opening an already open name at the same version returns the
// same *Table. A higher version upgrades the open table in place; a lower one
// fails with ErrVersion. Concurrent calls with the same arguments share one
// driver open.
func (s *Store) Open(ctx context.Context, name string, version uint) (*Table, error) {
	if s == nil || s.driver == nil {
		return nil, ErrStoreUnavailable
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("store name is required")
	}
	if version == 0 {
		return nil, fmt.Errorf("%w: version must be at least 1", ErrVersion)
	}

	key := fmt.Sprintf("%s@%d", name, version)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.open(ctx, name, version)
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", name, err)
	}
	return v.(*Table), nil
}

func (s *Store) open(ctx context.Context, name string, version uint) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[name]; ok {
		current := t.Version()
		if version == current {
			return t, nil
		}
		if version < current {
			return nil, fmt.Errorf("%w: open at version %d, requested %d", ErrVersion, current, version)
		}

		b, err := s.driver.Open(ctx, name, version)
		if err != nil {
			return nil, err
		}
		t.upgrade(ctx, b, version)
		slog.InfoContext(ctx, "Store upgraded",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldStore, name,
			"from_version", current,
			"to_version", version)
		return t, nil
	}

	b, err := s.driver.Open(ctx, name, version)
	if err != nil {
		return nil, err
	}

	t := &Table{store: s, name: name, version: version, backend: b}
	s.tables[name] = t
	slog.DebugContext(ctx, "Store opened",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldStore, name,
		applog.FieldVersion, version)
	return t, nil
}

func (s *Store) forget(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[t.name] == t {
		delete(s.tables, t.name)
	}
}

// Close closes every table opened through s.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	tables := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		tables = append(tables, t)
	}
	s.mu.Unlock()

	var errs []error
	for _, t := range tables {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}

// Table is an open handle on a store's costs table.
type Table struct {
	store *Store
	name  string

	mu      sync.RWMutex
	version uint
	backend Backend
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Version() uint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Insert persists e and returns the id the backend assigned to it.
func (t *Table) Insert(ctx context.Context, e core.Expense) (int64, error) {
	if t == nil {
		return 0, ErrNotOpen
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.backend == nil {
		return 0, ErrNotOpen
	}

	id, err := t.backend.Insert(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("%w: insert into %s: %w", ErrWrite, t.name, err)
	}
	return id, nil
}

// ListAll returns every record in the table, in no particular order.
func (t *Table) ListAll(ctx context.Context) ([]core.Record, error) {
	if t == nil {
		return nil, ErrNotOpen
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.backend == nil {
		return nil, ErrNotOpen
	}

	records, err := t.backend.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrRead, t.name, err)
	}
	return records, nil
}

// Clear deletes every record in the table.
func (t *Table) Clear(ctx context.Context) error {
	if t == nil {
		return ErrNotOpen
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.backend == nil {
		return ErrNotOpen
	}

	if err := t.backend.Clear(ctx); err != nil {
		return fmt.Errorf("%w: clear %s: %w", ErrWrite, t.name, err)
	}
	return nil
}

// Close releases the handle. Operations on a closed table return ErrNotOpen.
func (t *Table) Close() error {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	b := t.backend
	t.backend = nil
	t.mu.Unlock()

	if b == nil {
		return nil
	}
	t.store.forget(t)
	return b.Close()
}

func (t *Table) upgrade(ctx context.Context, b Backend, version uint) {
	t.mu.Lock()
	old := t.backend
	t.backend = b
	t.version = version
	t.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			slog.WarnContext(ctx, "Failed to close previous backend",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldStore, t.name,
				applog.FieldError, err)
		}
	}
}

// Package storage provides the local expense store.
//
// A Store is an explicitly constructed object wrapping a Driver. Store.Open
// returns a *Table, the only type that exposes Insert, ListAll and Clear; a nil
// or closed Table reports ErrNotOpen. The store performs no validation and no
// ordering: callers validate before Insert and sort after ListAll.
package storage

import (
	"context"
	"errors"

	"costs/internal/core"
)

// TableName is the single logical table every store holds.
const TableName = "costs"

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotOpen          = errors.New("store not open")
	ErrWrite            = errors.New("store write failed")
	ErrRead             = errors.New("store read failed")
	ErrVersion          = errors.New("store version mismatch")
)

// Driver opens backends. Open must create the costs table on first use and
// must reject a version lower than the one already stored with ErrVersion.
type Driver interface {
	Open(ctx context.Context, name string, version uint) (Backend, error)
}

// Backend is an open connection to one named store.
type Backend interface {
	Insert(ctx context.Context, e core.Expense) (int64, error)
	ListAll(ctx context.Context) ([]core.Record, error)
	Clear(ctx context.Context) error
	Close() error
}

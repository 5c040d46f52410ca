package vega

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/vegasql/vega/dialect"
	"github.com/vegasql/vega/dialect/sql"
)

// Session is a unit of work over a driver. It tracks loaded entities
// in an identity map keyed by (table, primary key), computes dirty
// fields on Flush, and scopes an optional transaction.
//
// A Session is safe for concurrent use, but the entities it tracks
// are shared values: mutate them from one goroutine at a time.
type Session struct {
	drv dialect.Driver

	mu       sync.Mutex
	tx       dialect.Tx
	entities map[entityKey]*trackedEntity
}

type entityKey struct {
	table string
	id    any
}

type trackedEntity struct {
	value    any
	pk       string
	snapshot map[string]any
}

// NewSession returns a new session over the given driver.
func NewSession(drv dialect.Driver) *Session {
	return &Session{
		drv:      drv,
		entities: make(map[entityKey]*trackedEntity),
	}
}

// Conn returns the executor statements run on: the active transaction
// if one was begun, otherwise the driver itself.
func (s *Session) Conn() dialect.ExecQuerier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.drv
}

// Dialect returns the dialect name of the underlying driver.
func (s *Session) Dialect() string {
	return s.drv.Dialect()
}

// Begin starts a transaction scoped to the session. It returns
// ErrTxStarted if a transaction is already active.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return ErrTxStarted
	}
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Commit commits the active transaction.
func (s *Session) Commit() error {
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.mu.Unlock()
	if tx == nil {
		return errors.New("vega: no active transaction")
	}
	return tx.Commit()
}

// Rollback rolls back the active transaction.
func (s *Session) Rollback() error {
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.mu.Unlock()
	if tx == nil {
		return errors.New("vega: no active transaction")
	}
	if err := tx.Rollback(); err != nil {
		return &RollbackError{Err: err}
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction is committed
// when fn returns nil, and rolled back when it returns an error or
// panics.
func (s *Session) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			s.Rollback()
			panic(v)
		}
	}()
	if err := fn(ctx); err != nil {
		if rerr := s.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: %v", err, rerr)
		}
		return err
	}
	return s.Commit()
}

// Track registers an entity in the identity map under its table and
// primary key, and snapshots its current column values for dirty
// tracking. Tracking the same key again replaces the entry.
func (s *Session) Track(table, pk string, id, v any) error {
	snapshot, err := sql.ColumnValues(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entityKey{table: table, id: id}] = &trackedEntity{
		value:    v,
		pk:       pk,
		snapshot: snapshot,
	}
	return nil
}

// Get returns the tracked entity for the given table and primary key.
func (s *Session) Get(table string, id any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[entityKey{table: table, id: id}]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Evict drops a single entity from the identity map.
func (s *Session) Evict(table string, id any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, entityKey{table: table, id: id})
}

// Clear drops the whole identity map. Entities loaded before Clear
// are no longer tracked and will be re-read from the database on the
// next load.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[entityKey]*trackedEntity)
}

// Flush writes the dirty fields of all tracked entities back to the
// database, one UPDATE per changed entity, and refreshes the
// snapshots. Unchanged entities produce no statement.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	keys := make([]entityKey, 0, len(s.entities))
	for k := range s.entities {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	// Deterministic statement order.
	slices.SortFunc(keys, func(a, b entityKey) int {
		if a.table != b.table {
			if a.table < b.table {
				return -1
			}
			return 1
		}
		return compareIDs(a.id, b.id)
	})
	for _, k := range keys {
		if err := s.flushOne(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) flushOne(ctx context.Context, k entityKey) error {
	s.mu.Lock()
	e, ok := s.entities[k]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	current, err := sql.ColumnValues(e.value)
	if err != nil {
		return err
	}
	var dirty []string
	for col, v := range current {
		if col == e.pk {
			continue
		}
		if !reflect.DeepEqual(v, e.snapshot[col]) {
			dirty = append(dirty, col)
		}
	}
	if len(dirty) == 0 {
		return nil
	}
	slices.Sort(dirty)

	upd := sql.Dialect(s.Dialect()).Update(k.table).Where(sql.EQ(e.pk, k.id))
	for _, col := range dirty {
		upd.Set(col, current[col])
	}
	if _, err := sql.Exec(ctx, s.Conn(), upd); err != nil {
		return storageError(err)
	}
	s.mu.Lock()
	e.snapshot = current
	s.mu.Unlock()
	return nil
}

// Exec runs a bulk mutation statement (UPDATE or DELETE) and returns
// the affected row count.
//
// Bulk mutations go straight to the database and bypass the identity
// map: entities tracked by the session keep their pre-mutation state
// and become stale when their rows are touched. Call Clear (or Evict
// the affected keys) and reload to observe the new state.
func (s *Session) Exec(ctx context.Context, q sql.Querier) (int64, error) {
	affected, err := sql.Exec(ctx, s.Conn(), q)
	if err != nil {
		return 0, storageError(err)
	}
	return affected, nil
}

// Fetch runs the statement on the session connection and returns all
// matching rows.
func Fetch[T any](ctx context.Context, s *Session, q *sql.Selector, mapper ...*sql.Mapper[T]) ([]T, error) {
	vs, err := sql.Fetch(ctx, s.Conn(), q, mapper...)
	if err != nil {
		return nil, storageError(err)
	}
	return vs, nil
}

// FetchOne runs the statement and returns its single matching row.
// It returns a NotFoundError when no row matches and a
// NotSingularError when more than one does, both labeled with the
// given entity label.
func FetchOne[T any](ctx context.Context, s *Session, label string, q *sql.Selector, mapper ...*sql.Mapper[T]) (T, error) {
	v, err := sql.FetchOne(ctx, s.Conn(), q, mapper...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return v, NewNotFoundError(label)
	case errors.Is(err, sql.ErrNotSingular):
		return v, NewNotSingularError(label)
	case err != nil:
		return v, storageError(err)
	}
	return v, nil
}

// FetchFirst runs the statement and returns its first matching row,
// or a NotFoundError labeled with the given entity label.
func FetchFirst[T any](ctx context.Context, s *Session, label string, q *sql.Selector, mapper ...*sql.Mapper[T]) (T, error) {
	v, err := sql.FetchFirst(ctx, s.Conn(), q, mapper...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return v, NewNotFoundError(label)
	case err != nil:
		return v, storageError(err)
	}
	return v, nil
}

// Count returns the number of rows the statement matches.
func Count(ctx context.Context, s *Session, q *sql.Selector) (int, error) {
	n, err := sql.FetchCount(ctx, s.Conn(), q)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

// Page returns the requested page of rows together with the total
// number of rows the statement matches without its pagination.
func Page[T any](ctx context.Context, s *Session, q *sql.Selector, mapper ...*sql.Mapper[T]) ([]T, int, error) {
	vs, total, err := sql.FetchPage(ctx, s.Conn(), q, mapper...)
	if err != nil {
		return nil, 0, storageError(err)
	}
	return vs, total, nil
}

// Load fetches entities and tracks each one in the identity map
// under the given table and primary-key column. T must be a struct
// type carrying the primary-key column as a field.
func Load[T any](ctx context.Context, s *Session, table, pk string, q *sql.Selector, mapper ...*sql.Mapper[T]) ([]T, error) {
	vs, err := Fetch(ctx, s, q, mapper...)
	if err != nil {
		return nil, err
	}
	for i := range vs {
		cv, err := sql.ColumnValues(&vs[i])
		if err != nil {
			return nil, err
		}
		id, ok := cv[pk]
		if !ok {
			return nil, fmt.Errorf("vega: primary key column %q not present on %T", pk, vs[i])
		}
		if err := s.Track(table, pk, id, &vs[i]); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

// storageError translates driver failures: constraint violations
// become ConstraintError, everything else is surfaced as-is.
func storageError(err error) error {
	if sql.IsConstraintError(err) {
		return NewConstraintError(err.Error(), err)
	}
	return err
}

// compareIDs orders primary-key values of the common key types.
func compareIDs(a, b any) int {
	switch a := a.(type) {
	case int:
		if b, ok := b.(int); ok {
			return cmp.Compare(a, b)
		}
	case int64:
		if b, ok := b.(int64); ok {
			return cmp.Compare(a, b)
		}
	case string:
		if b, ok := b.(string); ok {
			return cmp.Compare(a, b)
		}
	}
	return 0
}

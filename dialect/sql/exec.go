package sql

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vegasql/vega/dialect"
)

// Fetch errors.
var (
	// ErrNoRows is returned by FetchOne and FetchFirst when the
	// statement matches no rows.
	ErrNoRows = stdsql.ErrNoRows
	// ErrNotSingular is returned by FetchOne when the statement
	// matches more than one row.
	ErrNotSingular = errors.New("sql: fetch one matched more than one row")
)

// Fetch executes the statement and returns all matching rows mapped
// into values of type T. An empty result is a valid empty slice.
// With no explicit mapper, the strategy is derived from T: *Tuple
// targets receive ordered tuples, struct targets are mapped by-field
// and any other type is scanned as a single-column scalar.
func Fetch[T any](ctx context.Context, drv dialect.ExecQuerier, s *Selector, mapper ...*Mapper[T]) ([]T, error) {
	rows, err := queryRows(ctx, drv, s)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pick(mapper).ScanAll(rows)
}

// FetchOne executes the statement and returns its single matching
// row. It returns ErrNoRows when no row matches and ErrNotSingular
// when more than one does. At most two rows are read.
func FetchOne[T any](ctx context.Context, drv dialect.ExecQuerier, s *Selector, mapper ...*Mapper[T]) (T, error) {
	var zero T
	vs, err := Fetch(ctx, drv, s.Clone().Limit(2), mapper...)
	if err != nil {
		return zero, err
	}
	switch len(vs) {
	case 0:
		return zero, ErrNoRows
	case 1:
		return vs[0], nil
	default:
		return zero, ErrNotSingular
	}
}

// FetchFirst executes the statement and returns its first matching
// row, or ErrNoRows if there is none. The row limit is forced to 1.
func FetchFirst[T any](ctx context.Context, drv dialect.ExecQuerier, s *Selector, mapper ...*Mapper[T]) (T, error) {
	var zero T
	vs, err := Fetch(ctx, drv, s.Clone().Limit(1), mapper...)
	if err != nil {
		return zero, err
	}
	if len(vs) == 0 {
		return zero, ErrNoRows
	}
	return vs[0], nil
}

// FetchCount executes a COUNT derived from the statement and returns
// the number of matching rows. Ordering and pagination are stripped
// from the counted statement, and grouped or distinct statements are
// counted through a derived table so the group count is returned
// rather than a per-group count.
func FetchCount(ctx context.Context, drv dialect.ExecQuerier, s *Selector) (int, error) {
	return FetchOne[int](ctx, drv, countSelector(s))
}

// FetchPage executes the statement and its matching COUNT in one
// call and returns the requested page of rows together with the
// total number of rows the statement matches without its LIMIT and
// OFFSET. The two queries run concurrently.
func FetchPage[T any](ctx context.Context, drv dialect.ExecQuerier, s *Selector, mapper ...*Mapper[T]) ([]T, int, error) {
	var (
		vs    []T
		total int
	)
	// The count statement is derived before the goroutines start, so
	// the two queries never touch the same selector concurrently.
	count := countSelector(s)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		vs, err = Fetch(ctx, drv, s, mapper...)
		return err
	})
	g.Go(func() (err error) {
		total, err = FetchOne[int](ctx, drv, count)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return vs, total, nil
}

// Exec executes a mutation statement (INSERT, UPDATE or DELETE) and
// returns the number of rows it affected.
func Exec(ctx context.Context, drv dialect.ExecQuerier, q Querier) (int64, error) {
	query, args := q.Query()
	if qe, ok := q.(querierErr); ok {
		if err := qe.Err(); err != nil {
			return 0, err
		}
	}
	var res stdsql.Result
	if err := drv.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	return affected, nil
}

// queryRows renders the statement and executes it on the driver.
// Build-time errors accumulated on the statement abort the call
// before it reaches the database.
func queryRows(ctx context.Context, drv dialect.ExecQuerier, s *Selector) (*Rows, error) {
	query, args := s.Query()
	if err := s.Err(); err != nil {
		return nil, err
	}
	var rows Rows
	if err := drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	return &rows, nil
}

// countSelector derives the COUNT statement for a selector.
func countSelector(s *Selector) *Selector {
	c := s.Clone().ClearOrder()
	c.limit, c.offset = nil, nil
	if len(c.groupBy) > 0 || c.distinct || len(c.selection) > 1 {
		if c.as == "" {
			c.As("t")
		}
		return Dialect(s.Dialect()).Select(Count("*")).From(c)
	}
	return c.Select(Count("*"))
}

// pick returns the optional explicit mapper, or the default for T.
func pick[T any](mapper []*Mapper[T]) *Mapper[T] {
	if len(mapper) > 0 && mapper[0] != nil {
		return mapper[0]
	}
	return defaultMapper[T]()
}

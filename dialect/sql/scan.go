package sql

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
)

// Tuple is an ordered sequence of column values returned for a
// select-list with more than one expression. Values are keyed by
// the originating column alias for lookup.
type Tuple struct {
	columns []string
	values  []any
}

// Columns returns the ordered column names of the tuple.
func (t *Tuple) Columns() []string {
	return t.columns
}

// Values returns the ordered values of the tuple.
func (t *Tuple) Values() []any {
	return t.values
}

// Get returns the value of the given column alias. The second
// return value reports whether the column exists in the tuple.
func (t *Tuple) Get(column string) (any, bool) {
	for i := range t.columns {
		if t.columns[i] == column {
			return t.values[i], true
		}
	}
	return nil, false
}

// Strategy determines how row values are assigned into the
// projection target.
type Strategy int

const (
	// ByField assigns values directly into same-named exported
	// fields. The target must be a struct type.
	ByField Strategy = iota
	// ByAccessor assigns values through SetX setter methods
	// named after each field.
	ByAccessor
	// ByConstructor passes values positionally to a constructor
	// function whose parameter types match the select-list.
	ByConstructor
	// scalarValue scans a single-column row into a scalar value.
	scalarValue
	// tupleValue scans a multi-column row into a *Tuple.
	tupleValue
)

// Mapper maps raw rows into values of type T. The column-to-target
// mapping table is built once per select-list and reused for every
// row, so no per-row reflection lookup happens.
type Mapper[T any] struct {
	strategy Strategy
	typ      reflect.Type
	fields   map[string]int            // column name -> field index.
	setters  map[string]reflect.Method // column name -> setter.
	ctor     reflect.Value             // constructor function.
	err      error                     // construction error.
}

// ProjectFields returns a mapper that assigns row values directly
// into the same-named fields of T. Column names are matched against
// the snake_case form of the field name, or the `sql` struct tag
// when present. Target fields with no matching column are silently
// left at their zero value.
func ProjectFields[T any]() *Mapper[T] {
	m := &Mapper[T]{strategy: ByField, typ: typeOf[T]()}
	if m.typ.Kind() != reflect.Struct {
		m.err = &ProjectionError{Target: m.typ.String(), Reason: "by-field projection requires a struct target"}
		return m
	}
	m.fields = make(map[string]int, m.typ.NumField())
	for i := 0; i < m.typ.NumField(); i++ {
		f := m.typ.Field(i)
		if !f.IsExported() {
			continue
		}
		m.fields[columnName(f)] = i
	}
	return m
}

// ProjectSetters returns a mapper that assigns row values through
// setter methods defined on *T. The column "user_name" is matched
// to the method SetUserName. Columns with no matching setter are
// silently ignored.
func ProjectSetters[T any]() *Mapper[T] {
	m := &Mapper[T]{strategy: ByAccessor, typ: typeOf[T]()}
	if m.typ.Kind() != reflect.Struct {
		m.err = &ProjectionError{Target: m.typ.String(), Reason: "by-accessor projection requires a struct target"}
		return m
	}
	ptr := reflect.PointerTo(m.typ)
	m.setters = make(map[string]reflect.Method, ptr.NumMethod())
	for i := 0; i < ptr.NumMethod(); i++ {
		method := ptr.Method(i)
		name, ok := strings.CutPrefix(method.Name, "Set")
		if !ok || method.Type.NumIn() != 2 {
			continue
		}
		m.setters[inflect.Underscore(name)] = method
	}
	return m
}

// ProjectConstructor returns a mapper that passes row values
// positionally to the given constructor function. The function must
// return exactly one value of type T. A mismatched argument count or
// type is reported when the mapper is bound to a select-list, before
// any row is consumed.
func ProjectConstructor[T any](fn any) *Mapper[T] {
	m := &Mapper[T]{strategy: ByConstructor, typ: typeOf[T]()}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		m.err = &ProjectionError{Target: m.typ.String(), Reason: "constructor must be a function"}
		return m
	}
	t := v.Type()
	if t.NumOut() != 1 || t.Out(0) != m.typ {
		m.err = &ProjectionError{
			Target: m.typ.String(),
			Reason: fmt.Sprintf("constructor must return exactly one %s value", m.typ),
		}
		return m
	}
	m.ctor = v
	return m
}

// Err returns the mapper construction error, if any.
func (m *Mapper[T]) Err() error {
	return m.err
}

// defaultMapper derives the mapping strategy from the target type:
// *Tuple targets receive ordered tuples, struct targets are mapped
// by-field, and any other type is treated as a scalar that requires
// a single-expression select-list.
func defaultMapper[T any]() *Mapper[T] {
	t := typeOf[T]()
	switch {
	case t == reflect.TypeOf(&Tuple{}):
		return &Mapper[T]{strategy: tupleValue, typ: t}
	case t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{}) && !isScanner(t):
		return ProjectFields[T]()
	default:
		return &Mapper[T]{strategy: scalarValue, typ: t}
	}
}

// binding is a prepared row decoder for a fixed column list.
type binding[T any] struct {
	dest  func() []any
	build func(dests []any) (T, error)
}

// Bind prepares the mapper for the given result columns. Projection
// mismatches are reported here, before any row is consumed.
func (m *Mapper[T]) Bind(columns []string) (*binding[T], error) {
	if m.err != nil {
		return nil, m.err
	}
	switch m.strategy {
	case scalarValue:
		return m.bindScalar(columns)
	case tupleValue:
		return m.bindTuple(columns)
	case ByField:
		return m.bindFields(columns)
	case ByAccessor:
		return m.bindSetters(columns)
	default:
		return m.bindConstructor(columns)
	}
}

func (m *Mapper[T]) bindScalar(columns []string) (*binding[T], error) {
	if len(columns) != 1 {
		return nil, &ProjectionError{
			Target: m.typ.String(),
			Reason: fmt.Sprintf("scalar projection requires a single select expression, got %d", len(columns)),
		}
	}
	return &binding[T]{
		dest: func() []any {
			return []any{reflect.New(reflect.PointerTo(m.typ)).Interface()}
		},
		build: func(dests []any) (T, error) {
			var v T
			if ptr := reflect.ValueOf(dests[0]).Elem(); !ptr.IsNil() {
				v = ptr.Elem().Interface().(T)
			}
			return v, nil
		},
	}, nil
}

func (m *Mapper[T]) bindTuple(columns []string) (*binding[T], error) {
	return &binding[T]{
		dest: func() []any {
			dests := make([]any, len(columns))
			for i := range dests {
				dests[i] = new(any)
			}
			return dests
		},
		build: func(dests []any) (T, error) {
			values := make([]any, len(dests))
			for i := range dests {
				values[i] = *dests[i].(*any)
			}
			t := &Tuple{columns: columns, values: values}
			return any(t).(T), nil
		},
	}, nil
}

func (m *Mapper[T]) bindFields(columns []string) (*binding[T], error) {
	targets := make([]int, len(columns))
	for i, c := range columns {
		idx, ok := m.fields[baseColumn(c)]
		if !ok {
			idx = -1
		}
		targets[i] = idx
	}
	return &binding[T]{
		dest: func() []any {
			dests := make([]any, len(columns))
			for i, idx := range targets {
				if idx < 0 {
					dests[i] = new(any)
					continue
				}
				ft := m.typ.Field(idx).Type
				dests[i] = reflect.New(reflect.PointerTo(ft)).Interface()
			}
			return dests
		},
		build: func(dests []any) (T, error) {
			var v T
			rv := reflect.ValueOf(&v).Elem()
			for i, idx := range targets {
				if idx < 0 {
					continue
				}
				if ptr := reflect.ValueOf(dests[i]).Elem(); !ptr.IsNil() {
					rv.Field(idx).Set(ptr.Elem())
				}
			}
			return v, nil
		},
	}, nil
}

func (m *Mapper[T]) bindSetters(columns []string) (*binding[T], error) {
	type setter struct {
		method reflect.Method
		arg    reflect.Type
	}
	targets := make([]*setter, len(columns))
	for i, c := range columns {
		method, ok := m.setters[baseColumn(c)]
		if !ok {
			continue
		}
		targets[i] = &setter{method: method, arg: method.Type.In(1)}
	}
	return &binding[T]{
		dest: func() []any {
			dests := make([]any, len(columns))
			for i, t := range targets {
				if t == nil {
					dests[i] = new(any)
					continue
				}
				dests[i] = reflect.New(reflect.PointerTo(t.arg)).Interface()
			}
			return dests
		},
		build: func(dests []any) (T, error) {
			var v T
			rv := reflect.ValueOf(&v)
			for i, t := range targets {
				if t == nil {
					continue
				}
				if ptr := reflect.ValueOf(dests[i]).Elem(); !ptr.IsNil() {
					t.method.Func.Call([]reflect.Value{rv, ptr.Elem()})
				}
			}
			return v, nil
		},
	}, nil
}

func (m *Mapper[T]) bindConstructor(columns []string) (*binding[T], error) {
	t := m.ctor.Type()
	if t.NumIn() != len(columns) {
		return nil, &ProjectionError{
			Target: m.typ.String(),
			Reason: fmt.Sprintf("constructor expects %d arguments, select-list has %d expressions", t.NumIn(), len(columns)),
		}
	}
	return &binding[T]{
		dest: func() []any {
			dests := make([]any, len(columns))
			for i := range dests {
				dests[i] = reflect.New(reflect.PointerTo(t.In(i))).Interface()
			}
			return dests
		},
		build: func(dests []any) (T, error) {
			args := make([]reflect.Value, len(dests))
			for i := range dests {
				ptr := reflect.ValueOf(dests[i]).Elem()
				if ptr.IsNil() {
					args[i] = reflect.Zero(t.In(i))
				} else {
					args[i] = ptr.Elem()
				}
			}
			return m.ctor.Call(args)[0].Interface().(T), nil
		},
	}, nil
}

// ScanAll materializes all remaining rows using the mapper.
// A zero-row result is a valid empty slice, never an error.
func (m *Mapper[T]) ScanAll(rows ColumnScanner) ([]T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sql/scan: %w", err)
	}
	b, err := m.Bind(columns)
	if err != nil {
		return nil, err
	}
	var vs []T
	for rows.Next() {
		dests := b.dest()
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("sql/scan: %w", err)
		}
		v, err := b.build(dests)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}

// ColumnValues returns the exported fields of a struct keyed by the
// column name each field is matched by. It is the write-side inverse
// of by-field projection and is used for dirty tracking.
func ColumnValues(v any) (map[string]any, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil, &ProjectionError{Target: fmt.Sprintf("%T", v), Reason: "column values require a struct"}
	}
	rt := rv.Type()
	values := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		values[columnName(f)] = rv.Field(i).Interface()
	}
	return values, nil
}

// typeOf returns the reflection type of T.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// columnName returns the column name a struct field is matched by:
// the `sql` tag when present, else the snake_case field name.
func columnName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("sql"); ok && tag != "" {
		return tag
	}
	return inflect.Underscore(f.Name)
}

// baseColumn strips a qualifier prefix from a result column name.
// Most drivers already return the bare alias.
func baseColumn(c string) string {
	if i := strings.LastIndexByte(c, '.'); i >= 0 {
		c = c[i+1:]
	}
	return strings.Trim(c, "`\"")
}

// isScanner reports if the given type or its pointer implements sql.Scanner.
func isScanner(t reflect.Type) bool {
	scanner := reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	return t.Implements(scanner) || reflect.PointerTo(t).Implements(scanner)
}

package sql

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// OrderKey is a single sort key of a keyset-paginated statement.
type OrderKey struct {
	Column string
	Desc   bool
}

// Cursor marks a position in a keyset-ordered result. It holds the
// sort-key values of the last row of a page and is exchanged with
// clients in an opaque encoded form.
type Cursor struct {
	Keys   []string `msgpack:"k"`
	Values []any    `msgpack:"v"`
}

// Encode returns the opaque wire form of the cursor.
func (c *Cursor) Encode() (string, error) {
	buf, err := msgpack.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("sql/pagination: encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DecodeCursor decodes a cursor from its opaque wire form.
func DecodeCursor(s string) (*Cursor, error) {
	buf, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("sql/pagination: decode cursor: %w", err)
	}
	c := &Cursor{}
	if err := msgpack.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("sql/pagination: decode cursor: %w", err)
	}
	return c, nil
}

// Keyset applies keyset pagination to the statement: the rows are
// ordered by the given keys, and when a cursor is present, only rows
// strictly after the cursor position are matched. The cursor must
// have been produced with the same key list.
func (s *Selector) Keyset(keys []OrderKey, after *Cursor) *Selector {
	for _, k := range keys {
		if k.Desc {
			s.OrderBy(Desc(k.Column))
		} else {
			s.OrderBy(Asc(k.Column))
		}
	}
	if after == nil {
		return s
	}
	if len(after.Values) != len(keys) {
		s.AddError(&TypeError{
			Expr: "KEYSET",
			Hint: fmt.Sprintf("cursor carries %d values for %d order keys", len(after.Values), len(keys)),
		})
		return s
	}
	return s.Where(keysetPredicate(keys, after.Values))
}

// keysetPredicate builds the row-wise comparison for a cursor
// position. For keys (a, b) and values (x, y) it renders
// a > x OR (a = x AND b > y), flipping the comparison for
// descending keys.
func keysetPredicate(keys []OrderKey, values []any) *Predicate {
	var terms []*Predicate
	for i, k := range keys {
		term := compareKey(k, values[i])
		for j := i - 1; j >= 0; j-- {
			term = And(EQ(keys[j].Column, values[j]), term)
		}
		terms = append(terms, term)
	}
	return Or(terms...)
}

func compareKey(k OrderKey, v any) *Predicate {
	if k.Desc {
		return LT(k.Column, v)
	}
	return GT(k.Column, v)
}

// NextCursor derives the cursor that continues after the given row.
// The row may be a *Tuple or a struct whose fields match the key
// columns the way by-field projection matches them.
func NextCursor(keys []OrderKey, row any) (*Cursor, error) {
	c := &Cursor{Keys: make([]string, len(keys)), Values: make([]any, len(keys))}
	for i, k := range keys {
		v, err := keyValue(row, k.Column)
		if err != nil {
			return nil, err
		}
		c.Keys[i] = k.Column
		c.Values[i] = v
	}
	return c, nil
}

func keyValue(row any, column string) (any, error) {
	if t, ok := row.(*Tuple); ok {
		v, ok := t.Get(column)
		if !ok {
			return nil, fmt.Errorf("sql/pagination: column %q not in tuple", column)
		}
		return v, nil
	}
	rv := reflect.Indirect(reflect.ValueOf(row))
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sql/pagination: row type %T cannot carry key column %q", row, column)
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.IsExported() && columnName(f) == baseColumn(column) {
			return rv.Field(i).Interface(), nil
		}
	}
	return nil, fmt.Errorf("sql/pagination: no field matches key column %q on %T", column, row)
}

package sql

import "cmp"

// PredicateFunc is a constraint for the predicate function types the
// typed fields produce. It allows a schema package to declare its own
// predicate type based on func(*Selector) and still share the field
// definitions below.
type PredicateFunc interface {
	~func(*Selector)
}

// OrderedField is a typed column of any ordered value type. The
// predicates it produces resolve the column against the statement
// they are applied to, so the same field works for the root table
// and for aliased joins.
//
//	var Age = sql.IntField[predicate.Member]("age")
//	query.Where(member.Age.Between(20, 30))
type OrderedField[P PredicateFunc, T cmp.Ordered] string

// Aliases for the common ordered column types.
type (
	IntField[P PredicateFunc]     = OrderedField[P, int]
	Int64Field[P PredicateFunc]   = OrderedField[P, int64]
	Float64Field[P PredicateFunc] = OrderedField[P, float64]
)

// Name returns the column name.
func (f OrderedField[P, T]) Name() string { return string(f) }

// EQ matches rows where the field equals the given value.
func (f OrderedField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows where the field does not equal the given value.
func (f OrderedField[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), v)) }

// GT matches rows where the field is greater than the given value.
func (f OrderedField[P, T]) GT(v T) P { return P(FieldGT(string(f), v)) }

// GTE matches rows where the field is greater than or equal to the given value.
func (f OrderedField[P, T]) GTE(v T) P { return P(FieldGTE(string(f), v)) }

// LT matches rows where the field is less than the given value.
func (f OrderedField[P, T]) LT(v T) P { return P(FieldLT(string(f), v)) }

// LTE matches rows where the field is less than or equal to the given value.
func (f OrderedField[P, T]) LTE(v T) P { return P(FieldLTE(string(f), v)) }

// Between matches rows where the field is within the given bounds, inclusive.
func (f OrderedField[P, T]) Between(lo, hi T) P { return P(FieldBetween(string(f), lo, hi)) }

// In matches rows where the field value is in the given list.
// An empty list matches no rows.
func (f OrderedField[P, T]) In(vs ...T) P { return P(FieldIn(string(f), vs...)) }

// NotIn matches rows where the field value is not in the given list.
// An empty list matches all rows.
func (f OrderedField[P, T]) NotIn(vs ...T) P { return P(FieldNotIn(string(f), vs...)) }

// IsNull matches rows where the field is NULL.
func (f OrderedField[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows where the field is not NULL.
func (f OrderedField[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }

// StringField is a typed string column. On top of the ordered
// predicates it provides the pattern and case-folding matchers.
//
//	var Username = sql.StringField[predicate.Member]("username")
//	query.Where(member.Username.HasPrefix("mem"))
type StringField[P PredicateFunc] string

// Name returns the column name.
func (f StringField[P]) Name() string { return string(f) }

// EQ matches rows where the field equals the given value.
func (f StringField[P]) EQ(v string) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows where the field does not equal the given value.
func (f StringField[P]) NEQ(v string) P { return P(FieldNEQ(string(f), v)) }

// GT matches rows where the field sorts after the given value.
func (f StringField[P]) GT(v string) P { return P(FieldGT(string(f), v)) }

// GTE matches rows where the field sorts after or equals the given value.
func (f StringField[P]) GTE(v string) P { return P(FieldGTE(string(f), v)) }

// LT matches rows where the field sorts before the given value.
func (f StringField[P]) LT(v string) P { return P(FieldLT(string(f), v)) }

// LTE matches rows where the field sorts before or equals the given value.
func (f StringField[P]) LTE(v string) P { return P(FieldLTE(string(f), v)) }

// In matches rows where the field value is in the given list.
// An empty list matches no rows.
func (f StringField[P]) In(vs ...string) P { return P(FieldIn(string(f), vs...)) }

// NotIn matches rows where the field value is not in the given list.
// An empty list matches all rows.
func (f StringField[P]) NotIn(vs ...string) P { return P(FieldNotIn(string(f), vs...)) }

// Contains matches rows where the field contains the given substring.
func (f StringField[P]) Contains(v string) P { return P(FieldContains(string(f), v)) }

// ContainsFold is like Contains but case-insensitive.
func (f StringField[P]) ContainsFold(v string) P { return P(FieldContainsFold(string(f), v)) }

// HasPrefix matches rows where the field starts with the given prefix.
func (f StringField[P]) HasPrefix(v string) P { return P(FieldHasPrefix(string(f), v)) }

// HasSuffix matches rows where the field ends with the given suffix.
func (f StringField[P]) HasSuffix(v string) P { return P(FieldHasSuffix(string(f), v)) }

// EqualFold matches rows where the field equals the given value, case-insensitive.
func (f StringField[P]) EqualFold(v string) P { return P(FieldEqualFold(string(f), v)) }

// Like matches rows where the field matches the given LIKE pattern.
func (f StringField[P]) Like(v string) P { return P(FieldLike(string(f), v)) }

// IsNull matches rows where the field is NULL.
func (f StringField[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows where the field is not NULL.
func (f StringField[P]) NotNull() P { return P(FieldNotNull(string(f))) }

// BoolField is a typed boolean column.
type BoolField[P PredicateFunc] string

// Name returns the column name.
func (f BoolField[P]) Name() string { return string(f) }

// EQ matches rows where the field equals the given value.
func (f BoolField[P]) EQ(v bool) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows where the field does not equal the given value.
func (f BoolField[P]) NEQ(v bool) P { return P(FieldNEQ(string(f), v)) }

// IsNull matches rows where the field is NULL.
func (f BoolField[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows where the field is not NULL.
func (f BoolField[P]) NotNull() P { return P(FieldNotNull(string(f))) }

// TimeField is a typed temporal column. T is the Go time type of the
// column, usually time.Time.
type TimeField[P PredicateFunc, T any] string

// Name returns the column name.
func (f TimeField[P, T]) Name() string { return string(f) }

// EQ matches rows where the field equals the given value.
func (f TimeField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows where the field does not equal the given value.
func (f TimeField[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), v)) }

// GT matches rows where the field is after the given value.
func (f TimeField[P, T]) GT(v T) P { return P(FieldGT(string(f), v)) }

// GTE matches rows where the field is at or after the given value.
func (f TimeField[P, T]) GTE(v T) P { return P(FieldGTE(string(f), v)) }

// LT matches rows where the field is before the given value.
func (f TimeField[P, T]) LT(v T) P { return P(FieldLT(string(f), v)) }

// LTE matches rows where the field is at or before the given value.
func (f TimeField[P, T]) LTE(v T) P { return P(FieldLTE(string(f), v)) }

// Between matches rows where the field is within the given bounds, inclusive.
func (f TimeField[P, T]) Between(lo, hi T) P { return P(FieldBetween(string(f), lo, hi)) }

// In matches rows where the field value is in the given list.
func (f TimeField[P, T]) In(vs ...T) P { return P(FieldIn(string(f), vs...)) }

// NotIn matches rows where the field value is not in the given list.
func (f TimeField[P, T]) NotIn(vs ...T) P { return P(FieldNotIn(string(f), vs...)) }

// IsNull matches rows where the field is NULL.
func (f TimeField[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows where the field is not NULL.
func (f TimeField[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }

// EnumField is a typed enum column. T is the enum's Go type.
type EnumField[P PredicateFunc, T ~string] string

// Name returns the column name.
func (f EnumField[P, T]) Name() string { return string(f) }

// EQ matches rows where the field equals the given value.
func (f EnumField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows where the field does not equal the given value.
func (f EnumField[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), v)) }

// In matches rows where the field value is in the given list.
func (f EnumField[P, T]) In(vs ...T) P { return P(FieldIn(string(f), vs...)) }

// NotIn matches rows where the field value is not in the given list.
func (f EnumField[P, T]) NotIn(vs ...T) P { return P(FieldNotIn(string(f), vs...)) }

// IsNull matches rows where the field is NULL.
func (f EnumField[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows where the field is not NULL.
func (f EnumField[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }

// UUIDField is a typed UUID column. T is the UUID type, usually
// uuid.UUID.
type UUIDField[P PredicateFunc, T any] string

// Name returns the column name.
func (f UUIDField[P, T]) Name() string { return string(f) }

// EQ matches rows where the field equals the given value.
func (f UUIDField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows where the field does not equal the given value.
func (f UUIDField[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), v)) }

// In matches rows where the field value is in the given list.
func (f UUIDField[P, T]) In(vs ...T) P { return P(FieldIn(string(f), vs...)) }

// NotIn matches rows where the field value is not in the given list.
func (f UUIDField[P, T]) NotIn(vs ...T) P { return P(FieldNotIn(string(f), vs...)) }

// IsNull matches rows where the field is NULL.
func (f UUIDField[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows where the field is not NULL.
func (f UUIDField[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }

// The Field functions below are the building blocks of the typed
// fields above. They defer column resolution to the statement the
// predicate is applied to, through Selector.C.

// FieldEQ matches rows where the named field equals the given value.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(EQ(s.C(name), v)) }
}

// FieldNEQ matches rows where the named field does not equal the given value.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(NEQ(s.C(name), v)) }
}

// FieldGT matches rows where the named field is greater than the given value.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GT(s.C(name), v)) }
}

// FieldGTE matches rows where the named field is greater than or equal to the given value.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GTE(s.C(name), v)) }
}

// FieldLT matches rows where the named field is less than the given value.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LT(s.C(name), v)) }
}

// FieldLTE matches rows where the named field is less than or equal to the given value.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LTE(s.C(name), v)) }
}

// FieldBetween matches rows where the named field is within the given bounds, inclusive.
func FieldBetween(name string, lo, hi any) func(*Selector) {
	return func(s *Selector) { s.Where(Between(s.C(name), lo, hi)) }
}

// FieldIn matches rows where the named field value is in the given list.
func FieldIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(In(s.C(name), v...))
	}
}

// FieldNotIn matches rows where the named field value is not in the given list.
func FieldNotIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(NotIn(s.C(name), v...))
	}
}

// FieldIsNull matches rows where the named field is NULL.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(IsNull(s.C(name))) }
}

// FieldNotNull matches rows where the named field is not NULL.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(NotNull(s.C(name))) }
}

// FieldContains matches rows where the named field contains the given substring.
func FieldContains(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(Contains(s.C(name), v)) }
}

// FieldContainsFold is like FieldContains but case-insensitive.
func FieldContainsFold(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(ContainsFold(s.C(name), v)) }
}

// FieldHasPrefix matches rows where the named field starts with the given prefix.
func FieldHasPrefix(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(HasPrefix(s.C(name), v)) }
}

// FieldHasSuffix matches rows where the named field ends with the given suffix.
func FieldHasSuffix(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(HasSuffix(s.C(name), v)) }
}

// FieldEqualFold matches rows where the named field equals the given value, case-insensitive.
func FieldEqualFold(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(EqualFold(s.C(name), v)) }
}

// FieldLike matches rows where the named field matches the given LIKE pattern.
func FieldLike(name, pattern string) func(*Selector) {
	return func(s *Selector) { s.Where(Like(s.C(name), pattern)) }
}

package sql

import (
	"fmt"
	"strings"
)

// Op represents an operator.
type Op int

// Predicate and arithmetic operators.
const (
	OpEQ      Op = iota // =
	OpNEQ               // <>
	OpGT                // >
	OpGTE               // >=
	OpLT                // <
	OpLTE               // <=
	OpIn                // IN
	OpNotIn             // NOT IN
	OpLike              // LIKE
	OpIsNull            // IS NULL
	OpNotNull           // IS NOT NULL
)

var opText = map[Op]string{
	OpEQ:      "=",
	OpNEQ:     "<>",
	OpGT:      ">",
	OpGTE:     ">=",
	OpLT:      "<",
	OpLTE:     "<=",
	OpIn:      "IN",
	OpNotIn:   "NOT IN",
	OpLike:    "LIKE",
	OpIsNull:  "IS NULL",
	OpNotNull: "IS NOT NULL",
}

// Predicate is a where predicate. Its rendering is deferred until the
// parent builder joins it, so the same predicate value can be reused
// across dialects.
type Predicate struct {
	Builder
	fns []func(*Builder)
}

// P creates a new predicate.
//
//	P().EQ("name", "a8m").And().EQ("age", 30)
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Append appends a new function to the predicate callbacks.
// The callback list is evaluated on Query.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

// Query returns query representation of a predicate.
func (p *Predicate) Query() (string, []any) {
	if p.Len() > 0 || len(p.args) > 0 {
		p.Reset()
	}
	for _, f := range p.fns {
		f(&p.Builder)
	}
	return p.String(), p.args
}

// clone returns a shallow clone of p.
func (p *Predicate) clone() *Predicate {
	if p == nil {
		return p
	}
	return &Predicate{fns: append([]func(*Builder){}, p.fns...)}
}

// merge two predicates.
func (p *Predicate) merge(pred *Predicate) *Predicate {
	if pred == nil {
		return p
	}
	if p == nil {
		return pred
	}
	return And(p, pred)
}

// And combines all given predicates with AND between them.
// Nil predicates are skipped, so optional filters can be passed
// unconditionally. If all predicates are nil, And returns nil,
// which the builders treat as "no filter" (never "match nothing").
func And(preds ...*Predicate) *Predicate {
	ps := make([]*Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			ps = append(ps, p)
		}
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	p := P()
	return p.Append(func(b *Builder) {
		p.mayWrap(b, ps, "AND")
	})
}

// Or combines all given predicates with OR between them.
// Nil predicates are skipped the same way And skips them.
func Or(preds ...*Predicate) *Predicate {
	ps := make([]*Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			ps = append(ps, p)
		}
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	p := P()
	return p.Append(func(b *Builder) {
		p.mayWrap(b, ps, "OR")
	})
}

// Not wraps the given predicate with the not predicate.
//
//	Not(Or(EQ("name", "foo"), EQ("name", "bar")))
func Not(pred *Predicate) *Predicate {
	if pred == nil {
		return nil
	}
	p := P()
	return p.Append(func(b *Builder) {
		b.WriteString("NOT ")
		b.Wrap(func(b *Builder) {
			b.Join(pred)
		})
	})
}

func (*Predicate) mayWrap(b *Builder, ps []*Predicate, op string) {
	b.Wrap(func(b *Builder) {
		for i, p := range ps {
			if i > 0 {
				b.Pad().WriteString(op).Pad()
			}
			// Nested composites keep their own parens.
			b.Join(p)
		}
	})
}

// EQ returns a "=" predicate.
func EQ(col string, value any) *Predicate {
	return P().EQ(col, value)
}

// EQ appends a "=" predicate.
func (p *Predicate) EQ(col string, arg any) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col)
		b.WriteOp(OpEQ)
		p.arg(b, arg)
	})
}

// ColumnsEQ appends a "=" predicate between 2 columns.
func ColumnsEQ(col1, col2 string) *Predicate {
	return P().ColumnsEQ(col1, col2)
}

// ColumnsEQ appends a "=" predicate between 2 columns.
func (p *Predicate) ColumnsEQ(col1, col2 string) *Predicate {
	return p.columnsOp(col1, col2, OpEQ)
}

// NEQ returns a "<>" predicate.
func NEQ(col string, value any) *Predicate {
	return P().NEQ(col, value)
}

// NEQ appends a "<>" predicate.
func (p *Predicate) NEQ(col string, arg any) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col)
		b.WriteOp(OpNEQ)
		p.arg(b, arg)
	})
}

// GT returns a ">" predicate.
func GT(col string, value any) *Predicate {
	return P().GT(col, value)
}

// GT appends a ">" predicate.
func (p *Predicate) GT(col string, arg any) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col)
		b.WriteOp(OpGT)
		p.arg(b, arg)
	})
}

// GTE returns a ">=" predicate.
func GTE(col string, value any) *Predicate {
	return P().GTE(col, value)
}

// GTE appends a ">=" predicate.
func (p *Predicate) GTE(col string, arg any) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col)
		b.WriteOp(OpGTE)
		p.arg(b, arg)
	})
}

// LT returns a "<" predicate.
func LT(col string, value any) *Predicate {
	return P().LT(col, value)
}

// LT appends a "<" predicate.
func (p *Predicate) LT(col string, arg any) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col)
		b.WriteOp(OpLT)
		p.arg(b, arg)
	})
}

// LTE returns a "<=" predicate.
func LTE(col string, value any) *Predicate {
	return P().LTE(col, value)
}

// LTE appends a "<=" predicate.
func (p *Predicate) LTE(col string, arg any) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col)
		b.WriteOp(OpLTE)
		p.arg(b, arg)
	})
}

// ColumnsOp returns a predicate between 2 columns with a custom operator.
func ColumnsOp(col1, col2 string, op Op) *Predicate {
	return P().columnsOp(col1, col2, op)
}

func (p *Predicate) columnsOp(col1, col2 string, op Op) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col1)
		b.WriteOp(op)
		b.Ident(col2)
	})
}

// Between returns a "BETWEEN ? AND ?" predicate. Bounds are inclusive.
func Between(col string, from, to any) *Predicate {
	return P().Between(col, from, to)
}

// Between appends a "BETWEEN ? AND ?" predicate.
func (p *Predicate) Between(col string, from, to any) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col).WriteString(" BETWEEN ")
		p.arg(b, from)
		b.WriteString(" AND ")
		p.arg(b, to)
	})
}

// In returns the "IN" predicate. A single Querier argument
// (for example, a *Selector) is rendered as a subquery.
// An empty argument list matches no rows.
func In(col string, args ...any) *Predicate {
	return P().In(col, args...)
}

// In appends the "IN" predicate.
func (p *Predicate) In(col string, args ...any) *Predicate {
	// If the first argument is a Querier, append its query and arguments.
	if len(args) == 1 {
		if q, ok := args[0].(Querier); ok {
			return p.Append(func(b *Builder) {
				b.Ident(col).WriteOp(OpIn)
				b.Wrap(func(b *Builder) {
					b.Join(q)
				})
			})
		}
	}
	return p.Append(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("FALSE")
			return
		}
		b.Ident(col).WriteOp(OpIn)
		b.Wrap(func(b *Builder) {
			b.Args(args...)
		})
	})
}

// NotIn returns the "NOT IN" predicate. An empty argument
// list matches all rows.
func NotIn(col string, args ...any) *Predicate {
	return P().NotIn(col, args...)
}

// NotIn appends the "NOT IN" predicate.
func (p *Predicate) NotIn(col string, args ...any) *Predicate {
	if len(args) == 1 {
		if q, ok := args[0].(Querier); ok {
			return p.Append(func(b *Builder) {
				b.Ident(col).WriteOp(OpNotIn)
				b.Wrap(func(b *Builder) {
					b.Join(q)
				})
			})
		}
	}
	return p.Append(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("TRUE")
			return
		}
		b.Ident(col).WriteOp(OpNotIn)
		b.Wrap(func(b *Builder) {
			b.Args(args...)
		})
	})
}

// Exists returns the "EXISTS" predicate with the given subquery.
func Exists(query Querier) *Predicate {
	return P().Exists(query)
}

// Exists appends the "EXISTS" predicate with the given subquery.
func (p *Predicate) Exists(query Querier) *Predicate {
	return p.Append(func(b *Builder) {
		b.WriteString("EXISTS ")
		b.Wrap(func(b *Builder) {
			b.Join(query)
		})
	})
}

// NotExists returns the "NOT EXISTS" predicate with the given subquery.
func NotExists(query Querier) *Predicate {
	return Not(Exists(query))
}

// Like returns the "LIKE" predicate.
func Like(col, pattern string) *Predicate {
	return P().Like(col, pattern)
}

// Like appends the "LIKE" predicate.
func (p *Predicate) Like(col, pattern string) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col).WriteOp(OpLike)
		b.Arg(pattern)
	})
}

// escape escapes w with the default escape character ('/'),
// to be used by the pattern matching functions below.
// The second return value indicates if w was escaped or not.
func escape(w string) (string, bool) {
	var n int
	for i := range w {
		if c := w[i]; c == '%' || c == '_' || c == '\\' {
			n++
		}
	}
	// No characters to escape.
	if n == 0 {
		return w, false
	}
	var b strings.Builder
	b.Grow(len(w) + n)
	for i := range w {
		if c := w[i]; c == '%' || c == '_' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(w[i])
	}
	return b.String(), true
}

func (p *Predicate) like(b *Builder, pattern string, escaped bool) {
	b.Arg(pattern)
	// Escaping the ESCAPE character is only supported in
	// dialects that use the backslash as their default.
	if escaped && b.postgres() {
		b.WriteString(" ESCAPE ").Arg("\\")
	}
}

// HasPrefix is a helper predicate that checks prefix using the LIKE predicate.
func HasPrefix(col, prefix string) *Predicate {
	return P().HasPrefix(col, prefix)
}

// HasPrefix is a helper predicate that checks prefix using the LIKE predicate.
func (p *Predicate) HasPrefix(col, prefix string) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col).WriteOp(OpLike)
		w, escaped := escape(prefix)
		p.like(b, w+"%", escaped)
	})
}

// HasSuffix is a helper predicate that checks suffix using the LIKE predicate.
func HasSuffix(col, suffix string) *Predicate {
	return P().HasSuffix(col, suffix)
}

// HasSuffix is a helper predicate that checks suffix using the LIKE predicate.
func (p *Predicate) HasSuffix(col, suffix string) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col).WriteOp(OpLike)
		w, escaped := escape(suffix)
		p.like(b, "%"+w, escaped)
	})
}

// Contains is a helper predicate that checks substring using the LIKE predicate.
func Contains(col, sub string) *Predicate {
	return P().Contains(col, sub)
}

// Contains is a helper predicate that checks substring using the LIKE predicate.
func (p *Predicate) Contains(col, substr string) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col).WriteOp(OpLike)
		w, escaped := escape(substr)
		p.like(b, "%"+w+"%", escaped)
	})
}

// EqualFold is a helper predicate that applies the "=" predicate with case-folding.
func EqualFold(col, sub string) *Predicate {
	return P().EqualFold(col, sub)
}

// EqualFold is a helper predicate that applies the "=" predicate with case-folding.
func (p *Predicate) EqualFold(col, sub string) *Predicate {
	return p.Append(func(b *Builder) {
		f := &Builder{dialect: b.dialect}
		f.WriteString("LOWER").Wrap(func(b *Builder) {
			b.Ident(col)
		})
		b.WriteString(f.String())
		b.WriteOp(OpEQ)
		b.Arg(strings.ToLower(sub))
	})
}

// ContainsFold is a helper predicate that checks substring using the LIKE predicate
// with case-folding.
func ContainsFold(col, sub string) *Predicate {
	return P().ContainsFold(col, sub)
}

// ContainsFold is a helper predicate that checks substring using the LIKE predicate
// with case-folding.
func (p *Predicate) ContainsFold(col, substr string) *Predicate {
	return p.Append(func(b *Builder) {
		f := &Builder{dialect: b.dialect}
		f.WriteString("LOWER").Wrap(func(b *Builder) {
			b.Ident(col)
		})
		b.WriteString(f.String())
		b.WriteOp(OpLike)
		w, escaped := escape(strings.ToLower(substr))
		p.like(b, "%"+w+"%", escaped)
	})
}

// IsNull returns the "IS NULL" predicate.
func IsNull(col string) *Predicate {
	return P().IsNull(col)
}

// IsNull appends the "IS NULL" predicate.
func (p *Predicate) IsNull(col string) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col).WriteOp(OpIsNull)
	})
}

// NotNull returns the "IS NOT NULL" predicate.
func NotNull(col string) *Predicate {
	return P().NotNull(col)
}

// NotNull appends the "IS NOT NULL" predicate.
func (p *Predicate) NotNull(col string) *Predicate {
	return p.Append(func(b *Builder) {
		b.Ident(col).WriteOp(OpNotNull)
	})
}

// arg calls Builder.Arg, but wraps `a` with parens in case of a Selector.
func (*Predicate) arg(b *Builder, a any) {
	switch a.(type) {
	case *Selector:
		b.Wrap(func(b *Builder) {
			b.Arg(a)
		})
	default:
		b.Arg(a)
	}
}

// Err returns a concatenated error of all errors encountered during
// the predicate-building, or were added manually by calling AddError.
func (p *Predicate) Err() error {
	if p.Len() == 0 && len(p.fns) > 0 {
		// Force rendering to collect deferred errors.
		p.Query()
	}
	return p.Builder.Err()
}

// Func represents an SQL function.
type Func struct {
	Builder
	fns []func(*Builder)
}

// Lower wraps the given column with the LOWER function.
//
//	P().EQ(sql.Lower("name"), "a8m")
func Lower(ident string) string {
	f := &Func{}
	f.Lower(ident)
	return f.String()
}

// Lower wraps the given ident with the LOWER function.
func (f *Func) Lower(ident string) {
	f.byName("LOWER", ident)
}

// Upper wraps the given column with the UPPER function.
func Upper(ident string) string {
	f := &Func{}
	f.Upper(ident)
	return f.String()
}

// Upper wraps the given ident with the UPPER function.
func (f *Func) Upper(ident string) {
	f.byName("UPPER", ident)
}

// Count wraps the ident with the COUNT aggregation function.
func Count(ident string) string {
	f := &Func{}
	f.Count(ident)
	return f.String()
}

// Count wraps the ident with the COUNT aggregation function.
func (f *Func) Count(ident string) {
	f.byName("COUNT", ident)
}

// Max wraps the ident with the MAX aggregation function.
func Max(ident string) string {
	f := &Func{}
	f.Max(ident)
	return f.String()
}

// Max wraps the ident with the MAX aggregation function.
func (f *Func) Max(ident string) {
	f.byName("MAX", ident)
}

// Min wraps the ident with the MIN aggregation function.
func Min(ident string) string {
	f := &Func{}
	f.Min(ident)
	return f.String()
}

// Min wraps the ident with the MIN aggregation function.
func (f *Func) Min(ident string) {
	f.byName("MIN", ident)
}

// Sum wraps the ident with the SUM aggregation function.
func Sum(ident string) string {
	f := &Func{}
	f.Sum(ident)
	return f.String()
}

// Sum wraps the ident with the SUM aggregation function.
func (f *Func) Sum(ident string) {
	f.byName("SUM", ident)
}

// Avg wraps the ident with the AVG aggregation function.
func Avg(ident string) string {
	f := &Func{}
	f.Avg(ident)
	return f.String()
}

// Avg wraps the ident with the AVG aggregation function.
func (f *Func) Avg(ident string) {
	f.byName("AVG", ident)
}

// byName wraps an identifier with a function name.
func (f *Func) byName(fn, ident string) {
	f.WriteString(fn)
	f.Wrap(func(b *Builder) {
		b.Ident(ident)
	})
}

// Distinct prefixes the given columns with the DISTINCT keyword.
func Distinct(idents ...string) string {
	b := &Builder{}
	b.WriteString("DISTINCT ")
	b.IdentComma(idents...)
	return b.String()
}

// As suffixes the given column with an alias.
//
//	Select(As(Max("age"), "max_age")).From(Table("users"))
func As(ident, as string) string {
	b := &Builder{}
	b.fromIdent(ident)
	b.WriteString(ident).Pad().WriteString("AS").Pad().Ident(as)
	return b.String()
}

// expr is a raw expression with optional pre-bound arguments.
type expr struct {
	Builder
	exp   string
	eargs []any
}

// Expr returns an SQL expression that implements the Querier interface.
// The given arguments are bound positionally using '?' placeholders.
func Expr(exp string, args ...any) Querier {
	return &expr{exp: exp, eargs: args}
}

// Query implements the Querier interface.
func (e *expr) Query() (string, []any) {
	e.Reset()
	if len(e.eargs) == 0 {
		return e.exp, nil
	}
	// Rewrite '?' placeholders to the dialect placeholders
	// while binding the expression arguments in order.
	var i int
	for _, r := range e.exp {
		if r == '?' && i < len(e.eargs) {
			e.Arg(e.eargs[i])
			i++
			continue
		}
		e.WriteString(string(r))
	}
	return e.String(), e.args
}

// exprFunc is an expression rendered by a callback that receives
// a dialect-aware builder.
type exprFunc struct {
	Builder
	fn func(*Builder)
}

// ExprFunc returns an expression that is rendered by the given function.
// Unlike Expr, the callback receives a dialect-aware builder:
//
//	ExprFunc(func(b *Builder) {
//		b.Ident("age").WriteOp(OpGT).Arg(18)
//	})
func ExprFunc(fn func(*Builder)) Querier {
	return &exprFunc{fn: fn}
}

// Query implements the Querier interface.
func (e *exprFunc) Query() (string, []any) {
	if e.Len() > 0 || len(e.args) > 0 {
		e.Reset()
	}
	e.fn(&e.Builder)
	return e.String(), e.args
}

// Value returns an expression that binds the given literal value
// as a query argument. It is mainly used inside expressions that
// mix identifiers and literals, such as Concat.
func Value(v any) Querier {
	return ExprFunc(func(b *Builder) {
		b.Arg(v)
	})
}

// Concat returns an expression that concatenates the given items.
// A string item is written as an identifier or a raw expression,
// and a Querier item is rendered in place:
//
//	Concat("first_name", Value(" "), "last_name")
//
// MySQL renders the CONCAT function and other dialects use the
// standard || operator.
func Concat(items ...any) Querier {
	return ExprFunc(func(b *Builder) {
		sep := " || "
		if b.mysql() {
			b.WriteString("CONCAT")
			sep = ", "
		}
		b.Wrap(func(b *Builder) {
			for i, item := range items {
				if i > 0 {
					b.WriteString(sep)
				}
				switch item := item.(type) {
				case string:
					b.Ident(item)
				case Querier:
					b.Join(item)
				default:
					b.AddError(&TypeError{
						Expr: fmt.Sprintf("%v", item),
						Hint: "concat items must be strings or queriers",
					})
				}
			}
		})
	})
}

// CastString returns an expression casting the given identifier to
// the dialect string type. It is useful for concatenating numeric
// columns with string values.
func CastString(ident string) Querier {
	return ExprFunc(func(b *Builder) {
		typ := "TEXT"
		if b.mysql() {
			typ = "CHAR"
		}
		b.WriteString("CAST").Wrap(func(b *Builder) {
			b.Ident(ident).WriteString(" AS " + typ)
		})
	})
}

// CaseBuilder is a builder for a CASE expression: an ordered list of
// (condition, result) pairs with an optional ELSE result.
type CaseBuilder struct {
	Builder
	whens []caseWhen
	or    any
	hasOr bool
}

type caseWhen struct {
	cond  *Predicate
	value any
}

// Case returns a new CASE expression builder.
//
//	Case().
//		When(LT("age", 21), "minor").
//		When(Between("age", 21, 65), "adult").
//		Otherwise("senior")
func Case() *CaseBuilder {
	return &CaseBuilder{}
}

// When appends a WHEN/THEN pair to the expression. The result value
// is bound as a query argument; use Raw or an Expr for column results.
func (c *CaseBuilder) When(cond *Predicate, value any) *CaseBuilder {
	if cond == nil {
		c.AddError(&TypeError{Expr: "CASE", Hint: "nil WHEN condition"})
		return c
	}
	c.whens = append(c.whens, caseWhen{cond, value})
	return c
}

// Otherwise sets the ELSE result of the expression.
func (c *CaseBuilder) Otherwise(value any) *CaseBuilder {
	c.or, c.hasOr = value, true
	return c
}

// Query implements the Querier interface.
func (c *CaseBuilder) Query() (string, []any) {
	if c.Len() > 0 || len(c.args) > 0 {
		c.Reset()
	}
	if len(c.whens) == 0 {
		c.AddError(&TypeError{Expr: "CASE", Hint: "missing WHEN clauses"})
	}
	c.WriteString("CASE")
	for _, w := range c.whens {
		c.WriteString(" WHEN ")
		c.Join(w.cond)
		c.WriteString(" THEN ")
		c.Arg(w.value)
	}
	if c.hasOr {
		c.WriteString(" ELSE ")
		c.Arg(c.or)
	}
	c.WriteString(" END")
	return c.String(), c.args
}

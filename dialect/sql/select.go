package sql

import (
	"strconv"
)

// TableView is a view that returns a table view. Can be a Table,
// a Selector (as a derived table) or any other future view kind.
type TableView interface {
	view()
	// C returns a formatted string for the table column.
	C(string) string
}

// SelectTable is a table selector.
type SelectTable struct {
	Builder
	as     string
	name   string
	schema string
	quote  bool
}

// Table returns a new table selector.
//
//	t1 := Table("users").As("u")
//	return Select(t1.C("name"))
func Table(name string) *SelectTable {
	return &SelectTable{quote: true, name: name}
}

// Schema sets the schema name of the table.
func (s *SelectTable) Schema(name string) *SelectTable {
	s.schema = name
	return s
}

// As adds the AS clause to the table selector.
func (s *SelectTable) As(alias string) *SelectTable {
	s.as = alias
	return s
}

// C returns a formatted string for the table column.
func (s *SelectTable) C(column string) string {
	name := s.name
	if s.as != "" {
		name = s.as
	}
	b := &Builder{dialect: s.dialect}
	if s.quote {
		b.Ident(name).WriteByte('.').Ident(column)
	} else {
		b.WriteString(name).WriteByte('.').WriteString(column)
	}
	return b.String()
}

// Columns returns a list of formatted strings for the table columns.
func (s *SelectTable) Columns(columns ...string) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, s.C(c))
	}
	return names
}

// Unquote makes the table name to not be quoted with the dialect quotes.
func (s *SelectTable) Unquote() *SelectTable {
	s.quote = false
	return s
}

// Name returns the table name.
func (s *SelectTable) Name() string {
	return s.name
}

// Alias returns the table alias, or an empty string if it has none.
func (s *SelectTable) Alias() string {
	return s.as
}

// ref returns the table reference ("name" or "name AS alias").
func (s *SelectTable) ref() string {
	b := &Builder{dialect: s.dialect}
	if s.schema != "" {
		b.Ident(s.schema).WriteByte('.')
	}
	if !s.quote {
		b.WriteString(s.name)
	} else {
		b.Ident(s.name)
	}
	if s.as != "" {
		b.WriteString(" AS ").Ident(s.as)
	}
	return b.String()
}

// implement the table view.
func (*SelectTable) view() {}

// join table option.
type join struct {
	on    *Predicate
	kind  string
	table TableView
	fetch bool
}

// clone a joiner.
func (j join) clone() join {
	if sel, ok := j.table.(*Selector); ok {
		j.table = sel.Clone()
	}
	j.on = j.on.clone()
	return j
}

// Selector is a builder for the `SELECT` statement. It is built
// incrementally by the fluent calls and rendered once by Query.
type Selector struct {
	Builder
	as        string
	selection []any
	from      []TableView
	joins     []join
	where     *Predicate
	distinct  bool
	or        bool
	not       bool
	groupBy   []string
	having    *Predicate
	order     []any
	limit     *int
	offset    *int
	lock      LockStrength
}

// LockStrength is the strength of a row-level locking clause.
type LockStrength string

// Row-level locking options.
const (
	LockShare  LockStrength = "FOR SHARE"
	LockUpdate LockStrength = "FOR UPDATE"
)

// Select returns a new selector for the `SELECT` statement.
//
//	t1 := Table("users").As("u")
//	t2 := Select("id").From(Table("groups")).Where(EQ("user_id", 10)).As("g")
//	return Select(t1.C("id"), t2.C("id")).
//			From(t1).
//			Join(t2).
//			On(t1.C("id"), t2.C("user_id"))
func Select(columns ...string) *Selector {
	s := &Selector{}
	return s.Select(columns...)
}

// SelectExpr is like Select, but supports passing arbitrary
// expressions for the SELECT clause.
func SelectExpr(exprs ...Querier) *Selector {
	s := &Selector{}
	return s.SelectExpr(exprs...)
}

// Select changes the columns selection of the SELECT statement.
// Empty selection means all columns ("*").
func (s *Selector) Select(columns ...string) *Selector {
	s.selection = make([]any, len(columns))
	for i := range columns {
		s.selection[i] = columns[i]
	}
	return s
}

// AppendSelect appends additional columns to the SELECT statement.
func (s *Selector) AppendSelect(columns ...string) *Selector {
	for i := range columns {
		s.selection = append(s.selection, columns[i])
	}
	return s
}

// SelectExpr changes the columns selection of the SELECT statement
// with custom list of expressions.
func (s *Selector) SelectExpr(exprs ...Querier) *Selector {
	s.selection = make([]any, len(exprs))
	for i := range exprs {
		s.selection[i] = exprs[i]
	}
	return s
}

// AppendSelectExpr appends additional expressions to the SELECT statement.
func (s *Selector) AppendSelectExpr(exprs ...Querier) *Selector {
	for i := range exprs {
		s.selection = append(s.selection, exprs[i])
	}
	return s
}

// AppendSelectExprAs appends additional expressions to the SELECT
// statement with the given alias.
func (s *Selector) AppendSelectExprAs(expr Querier, as string) *Selector {
	s.selection = append(s.selection, ExprFunc(func(b *Builder) {
		b.Wrap(func(b *Builder) {
			b.Join(expr)
		})
		b.WriteString(" AS ").Ident(as)
	}))
	return s
}

// SelectedColumns returns the selected columns of the Selector.
func (s *Selector) SelectedColumns() []string {
	columns := make([]string, 0, len(s.selection))
	for i := range s.selection {
		if c, ok := s.selection[i].(string); ok {
			columns = append(columns, c)
		}
	}
	return columns
}

// From sets the source of `FROM` clause.
func (s *Selector) From(t TableView) *Selector {
	s.from = nil
	return s.AppendFrom(t)
}

// AppendFrom appends a new TableView to the `FROM` clause.
// Multiple sources with no join condition render the cartesian
// product of both tables (a cross join), filtered only by the
// WHERE predicate. This is always an explicit caller choice.
func (s *Selector) AppendFrom(t TableView) *Selector {
	s.from = append(s.from, t)
	if st, ok := t.(state); ok {
		st.SetDialect(s.dialect)
	}
	return s
}

// Distinct adds the DISTINCT keyword to the `SELECT` statement.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// SetDistinct sets explicitly if the returned rows are distinct or indistinct.
func (s *Selector) SetDistinct(v bool) *Selector {
	s.distinct = v
	return s
}

// Limit adds the `LIMIT` clause to the `SELECT` statement.
func (s *Selector) Limit(limit int) *Selector {
	if limit < 0 {
		s.AddError(&TypeError{Expr: "LIMIT " + strconv.Itoa(limit), Hint: "limit must not be negative"})
		return s
	}
	s.limit = &limit
	return s
}

// Offset adds the `OFFSET` clause to the `SELECT` statement.
func (s *Selector) Offset(offset int) *Selector {
	s.offset = &offset
	return s
}

// Where sets or appends the given predicate to the statement.
// Consecutive calls are combined with AND, and nil predicates
// are a no-op, to support dynamic filter composition.
func (s *Selector) Where(p *Predicate) *Selector {
	if p == nil {
		return s
	}
	if s.not {
		p = Not(p)
		s.not = false
	}
	switch {
	case s.where == nil:
		s.where = p
	case s.where != nil && s.or:
		s.where = Or(s.where, p)
		s.or = false
	default:
		s.where = And(s.where, p)
	}
	return s
}

// P returns the predicate of a selector.
func (s *Selector) P() *Predicate {
	return s.where
}

// SetP sets explicitly the predicate function for the selector and clear its previous state.
func (s *Selector) SetP(p *Predicate) *Selector {
	s.where = p
	s.or = false
	s.not = false
	return s
}

// FromSelect copies the predicate from a selector.
func (s *Selector) FromSelect(s2 *Selector) *Selector {
	s.where = s2.where
	return s
}

// Not sets the next coming predicate with not.
func (s *Selector) Not() *Selector {
	s.not = true
	return s
}

// Or sets the next coming predicate with OR operator (disjunction).
func (s *Selector) Or() *Selector {
	s.or = true
	return s
}

// Table returns the first selected table, or nil if there is none.
func (s *Selector) Table() *SelectTable {
	for _, t := range s.from {
		if t, ok := t.(*SelectTable); ok {
			return t
		}
	}
	return nil
}

// TableName returns the name of the first selected table,
// or its alias if it is a derived table.
func (s *Selector) TableName() string {
	switch view := s.from[0].(type) {
	case *SelectTable:
		return view.name
	case *Selector:
		return view.as
	default:
		return ""
	}
}

// Join appends a `JOIN` clause to the statement.
func (s *Selector) Join(t TableView) *Selector {
	return s.join("JOIN", t)
}

// LeftJoin appends a `LEFT JOIN` clause to the statement.
func (s *Selector) LeftJoin(t TableView) *Selector {
	return s.join("LEFT JOIN", t)
}

// RightJoin appends a `RIGHT JOIN` clause to the statement.
func (s *Selector) RightJoin(t TableView) *Selector {
	return s.join("RIGHT JOIN", t)
}

// FullJoin appends a `FULL JOIN` clause to the statement.
func (s *Selector) FullJoin(t TableView) *Selector {
	return s.join("FULL JOIN", t)
}

// join adds a join table to the selector with the given kind.
func (s *Selector) join(kind string, t TableView) *Selector {
	s.joins = append(s.joins, join{
		kind:  kind,
		table: t,
	})
	if st, ok := t.(state); ok {
		st.SetDialect(s.dialect)
	}
	return s
}

// On sets the `ON` clause for the `JOIN` operation.
func (s *Selector) On(c1, c2 string) *Selector {
	s.OnP(P(func(builder *Builder) {
		builder.Ident(c1).WriteOp(OpEQ).Ident(c2)
	}))
	return s
}

// OnP sets or appends the given predicate for the `ON` clause of the statement.
func (s *Selector) OnP(p *Predicate) *Selector {
	if len(s.joins) > 0 {
		idx := len(s.joins) - 1
		s.joins[idx].on = s.joins[idx].on.merge(p)
	}
	return s
}

// Fetch marks the last join clause as a fetch join: the joined rows
// are materialized into the owning object graph in the same round
// trip. The flag is consumed by the schema and session layers.
func (s *Selector) Fetch() *Selector {
	if len(s.joins) > 0 {
		s.joins[len(s.joins)-1].fetch = true
	}
	return s
}

// HasFetchJoin reports if the statement has at least one fetch join.
func (s *Selector) HasFetchJoin() bool {
	for i := range s.joins {
		if s.joins[i].fetch {
			return true
		}
	}
	return false
}

// For sets the row-level locking clause of the statement. SQLite
// has no row-level locking and rejects the statement at render time.
func (s *Selector) For(l LockStrength) *Selector {
	s.lock = l
	return s
}

// ForUpdate locks the selected rows for update.
func (s *Selector) ForUpdate() *Selector {
	return s.For(LockUpdate)
}

// ForShare locks the selected rows in share mode.
func (s *Selector) ForShare() *Selector {
	return s.For(LockShare)
}

// As give this selection an alias.
func (s *Selector) As(alias string) *Selector {
	s.as = alias
	return s
}

// C returns a formatted string for a selected column from this statement.
func (s *Selector) C(column string) string {
	// Get the alias or name of the last table
	// that was joined to the statement.
	if s.as != "" {
		b := &Builder{dialect: s.dialect}
		b.Ident(s.as)
		b.WriteByte('.')
		b.Ident(column)
		return b.String()
	}
	if len(s.from) > 0 {
		return s.from[0].C(column)
	}
	return column
}

// Columns returns a list of formatted strings for a selected columns from this statement.
func (s *Selector) Columns(columns ...string) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, s.C(c))
	}
	return names
}

// GroupBy appends the `GROUP BY` clause to the `SELECT` statement.
func (s *Selector) GroupBy(columns ...string) *Selector {
	s.groupBy = append(s.groupBy, columns...)
	return s
}

// Having appends a predicate for the `HAVING` clause.
func (s *Selector) Having(p *Predicate) *Selector {
	if p == nil {
		return s
	}
	s.having = s.having.merge(p)
	return s
}

// OrderBy appends the `ORDER BY` clause to the `SELECT` statement.
// Multiple calls append additional sort keys in call order, forming
// a stable multi-key sort.
func (s *Selector) OrderBy(columns ...string) *Selector {
	for i := range columns {
		s.order = append(s.order, columns[i])
	}
	return s
}

// OrderExpr appends the `ORDER BY` clause to the `SELECT`
// statement with custom list of expressions.
func (s *Selector) OrderExpr(exprs ...Querier) *Selector {
	for i := range exprs {
		s.order = append(s.order, exprs[i])
	}
	return s
}

// ClearOrder clears the ORDER BY clause to be empty.
func (s *Selector) ClearOrder() *Selector {
	s.order = nil
	return s
}

// Clone returns a duplicate of the selector, including all associated steps. It can be
// used to prepare common SELECT statements and use them differently after the clone is made.
func (s *Selector) Clone() *Selector {
	if s == nil {
		return nil
	}
	joins := make([]join, len(s.joins))
	for i := range s.joins {
		joins[i] = s.joins[i].clone()
	}
	return &Selector{
		Builder:   s.Builder.clone(),
		as:        s.as,
		or:        s.or,
		not:       s.not,
		from:      append([]TableView{}, s.from...),
		limit:     s.limit,
		offset:    s.offset,
		lock:      s.lock,
		distinct:  s.distinct,
		where:     s.where.clone(),
		having:    s.having.clone(),
		joins:     append([]join{}, joins...),
		groupBy:   append([]string{}, s.groupBy...),
		order:     append([]any{}, s.order...),
		selection: append([]any{}, s.selection...),
	}
}

// Asc adds the ASC suffix for the given column.
func Asc(column string) string {
	b := &Builder{}
	b.fromIdent(column)
	b.Ident(column).WriteString(" ASC")
	return b.String()
}

// Desc adds the DESC suffix for the given column.
func Desc(column string) string {
	b := &Builder{}
	b.fromIdent(column)
	b.Ident(column).WriteString(" DESC")
	return b.String()
}

// NullOrdering controls where NULL values sort relative to non-NULL
// values, independent of the ascending/descending direction.
type NullOrdering int

// Null ordering options.
const (
	// NullsDefault keeps the dialect default NULL ordering.
	NullsDefault NullOrdering = iota
	// NullsFirst sorts NULL values before all others.
	NullsFirst
	// NullsLast sorts NULL values after all others.
	NullsLast
)

// OrderByNulls returns an order expression for the given column with
// an explicit direction and NULL ordering. Dialects without native
// NULLS FIRST/LAST support (MySQL) emulate it with an IS NULL sort key.
func OrderByNulls(column string, desc bool, nulls NullOrdering) Querier {
	return ExprFunc(func(b *Builder) {
		if nulls != NullsDefault && b.mysql() {
			// MySQL sorts NULL values first in ascending order.
			// Emulate the requested ordering with a leading key.
			b.Ident(column).WriteString(" IS NULL")
			if nulls == NullsFirst {
				b.WriteString(" DESC")
			}
			b.Comma()
		}
		b.Ident(column)
		if desc {
			b.WriteString(" DESC")
		}
		switch {
		case nulls == NullsDefault || b.mysql():
		case nulls == NullsFirst:
			b.WriteString(" NULLS FIRST")
		default:
			b.WriteString(" NULLS LAST")
		}
	})
}

// Query returns query representation of a `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := s.Builder.clone()
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	s.joinSelection(&b)
	if len(s.from) > 0 {
		b.WriteString(" FROM ")
	}
	for i, t := range s.from {
		if i > 0 {
			b.Comma()
		}
		s.joinView(&b, t)
	}
	for _, join := range s.joins {
		b.Pad().WriteString(join.kind).Pad()
		s.joinView(&b, join.table)
		switch {
		case join.on != nil:
			b.WriteString(" ON ")
			b.Join(join.on)
		default:
			b.AddError(&MissingJoinError{Table: viewName(join.table)})
		}
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		b.Join(s.where)
	}
	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.IdentComma(s.groupBy...)
	}
	if s.having != nil {
		b.WriteString(" HAVING ")
		b.Join(s.having)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		s.joinOrder(&b)
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(*s.offset))
	}
	if s.lock != "" {
		switch s.Dialect() {
		case "sqlite3":
			b.AddError(&TypeError{Expr: string(s.lock), Hint: "sqlite3 does not support row-level locking"})
		default:
			b.Pad().WriteString(string(s.lock))
		}
	}
	s.total = b.total
	s.AddError(b.Err())
	return b.String(), b.args
}

func (s *Selector) joinSelection(b *Builder) {
	if len(s.selection) == 0 {
		b.WriteString("*")
		return
	}
	for i, sel := range s.selection {
		if i > 0 {
			b.Comma()
		}
		switch sel := sel.(type) {
		case string:
			b.Ident(sel)
		case Querier:
			b.Join(sel)
		}
	}
}

func (s *Selector) joinOrder(b *Builder) {
	for i, order := range s.order {
		if i > 0 {
			b.Comma()
		}
		switch order := order.(type) {
		case string:
			b.Ident(order)
		case Querier:
			b.Join(order)
		}
	}
}

func (s *Selector) joinView(b *Builder, t TableView) {
	switch view := t.(type) {
	case *SelectTable:
		view.dialect = s.dialect
		b.WriteString(view.ref())
	case *Selector:
		b.Wrap(func(b *Builder) {
			b.Join(view)
		})
		if view.as != "" {
			b.WriteString(" AS ")
			b.Ident(view.as)
		}
	}
}

// viewName returns the name of the given table view for error reporting.
func viewName(t TableView) string {
	switch view := t.(type) {
	case *SelectTable:
		return view.name
	case *Selector:
		if view.as != "" {
			return view.as
		}
		return view.TableName()
	default:
		return ""
	}
}

// implement the table view interface.
func (*Selector) view() {}

// joinReturning appends the `RETURNING` clause to the statement.
// MySQL does not support it in UPDATE/INSERT statements.
func joinReturning(b *Builder, columns []string) {
	if len(columns) == 0 || b.mysql() {
		return
	}
	b.WriteString(" RETURNING ")
	b.IdentComma(columns...)
}

// columns used by multiple builders to format a list of columns.
func joinColumns(b *Builder, columns []string) {
	b.Wrap(func(b *Builder) {
		b.IdentComma(columns...)
	})
}

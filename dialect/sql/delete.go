package sql

// DeleteBuilder is a builder for the `DELETE` statement.
// Like UpdateBuilder, it bypasses any in-memory identity map and
// leaves invalidation of previously loaded objects to the caller.
type DeleteBuilder struct {
	Builder
	table  string
	schema string
	where  *Predicate
}

// Delete creates a builder for the `DELETE` statement.
//
//	Delete("users").Where(Or(EQ("name", "foo").And().EQ("age", 10), EQ("name", "bar")))
func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

// Schema sets the database name for the table whose row will be deleted.
func (d *DeleteBuilder) Schema(name string) *DeleteBuilder {
	d.schema = name
	return d
}

// Where appends a where predicate to the `DELETE` statement.
// Consecutive calls are combined with AND.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if p == nil {
		return d
	}
	d.where = d.where.merge(p)
	return d
}

// FromSelect makes it possible to delete a sub query.
func (d *DeleteBuilder) FromSelect(s *Selector) *DeleteBuilder {
	d.Where(s.where)
	if t := s.Table(); t != nil {
		d.table = t.name
	}
	return d
}

// Query returns query representation of a `DELETE` statement.
func (d *DeleteBuilder) Query() (string, []any) {
	b := d.Builder.clone()
	b.WriteString("DELETE FROM ")
	if d.schema != "" {
		b.Ident(d.schema).WriteByte('.')
	}
	b.Ident(d.table)
	if d.where != nil {
		b.WriteString(" WHERE ")
		b.Join(d.where)
	}
	d.total = b.total
	d.AddError(b.Err())
	return b.String(), b.args
}

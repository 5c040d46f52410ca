package schema

import (
	"fmt"
	"sync"

	"github.com/vegasql/vega/dialect/sql"
)

// RelKind is the cardinality of a relationship, seen from the owning
// table.
type RelKind string

// Relationship kinds.
const (
	// M2O is a many-to-one relationship: the owning table carries the
	// foreign-key column.
	M2O RelKind = "m2o"
	// O2M is a one-to-many relationship: the target table carries the
	// foreign-key column.
	O2M RelKind = "o2m"
)

// Rel describes a named relationship between two tables.
type Rel struct {
	// Name of the relationship, unique within the owning table.
	Name string `yaml:"name"`
	// Kind of the relationship.
	Kind RelKind `yaml:"kind"`
	// Table is the target table name.
	Table string `yaml:"table"`
	// Column is the foreign-key column. It lives on the owning table
	// for M2O relationships and on the target table for O2M.
	Column string `yaml:"column"`
	// RefColumn is the referenced column. Defaults to the primary key
	// of the referenced table.
	RefColumn string `yaml:"ref_column"`
}

// Table describes a table: its columns, primary key, and outgoing
// relationships.
type Table struct {
	Name       string   `yaml:"name"`
	PrimaryKey string   `yaml:"primary_key"`
	Columns    []string `yaml:"columns"`
	Rels       []*Rel   `yaml:"rels"`
}

// Rel returns the named relationship of the table.
func (t *Table) Rel(name string) (*Rel, bool) {
	for _, r := range t.Rels {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// HasColumn reports if the table has the given column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Registry holds the table metadata the join derivation works from.
// It is safe for concurrent use after registration.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// Add registers a table. It validates the primary key and the
// relationship columns against the declared column lists.
func (r *Registry) Add(tables ...*Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tables {
		if err := validate(t); err != nil {
			return err
		}
		r.tables[t.Name] = t
	}
	return nil
}

// Table returns a registered table by name.
func (r *Registry) Table(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

func validate(t *Table) error {
	if t.Name == "" {
		return fmt.Errorf("schema: table with empty name")
	}
	if t.PrimaryKey == "" || !t.HasColumn(t.PrimaryKey) {
		return fmt.Errorf("schema: table %q: primary key %q not in columns", t.Name, t.PrimaryKey)
	}
	for _, rel := range t.Rels {
		switch rel.Kind {
		case M2O:
			if !t.HasColumn(rel.Column) {
				return fmt.Errorf("schema: table %q: relationship %q: column %q not in columns", t.Name, rel.Name, rel.Column)
			}
		case O2M:
		default:
			return fmt.Errorf("schema: table %q: relationship %q: unknown kind %q", t.Name, rel.Name, rel.Kind)
		}
	}
	return nil
}

// Join appends an inner join over the named relationship to the
// statement and derives its ON condition from the registered
// metadata. It returns the joined table selector for further
// column references.
func (r *Registry) Join(s *sql.Selector, from *sql.SelectTable, relName string) (*sql.SelectTable, error) {
	return r.join(s, from, relName, (*sql.Selector).Join, false)
}

// LeftJoin is like Join with LEFT JOIN semantics.
func (r *Registry) LeftJoin(s *sql.Selector, from *sql.SelectTable, relName string) (*sql.SelectTable, error) {
	return r.join(s, from, relName, (*sql.Selector).LeftJoin, false)
}

// FetchJoin appends a left join over the named relationship, marks
// it as a fetch join, and appends the target columns to the
// select-list aliased as "<rel>_<column>", so the related row is
// materialized in the same round trip.
func (r *Registry) FetchJoin(s *sql.Selector, from *sql.SelectTable, relName string) (*sql.SelectTable, error) {
	return r.join(s, from, relName, (*sql.Selector).LeftJoin, true)
}

func (r *Registry) join(s *sql.Selector, from *sql.SelectTable, relName string, kind func(*sql.Selector, sql.TableView) *sql.Selector, fetch bool) (*sql.SelectTable, error) {
	owner, ok := r.Table(from.Name())
	if !ok {
		return nil, fmt.Errorf("schema: unknown table %q", from.Name())
	}
	rel, ok := owner.Rel(relName)
	if !ok {
		return nil, fmt.Errorf("schema: table %q has no relationship %q", owner.Name, relName)
	}
	target, ok := r.Table(rel.Table)
	if !ok {
		return nil, fmt.Errorf("schema: relationship %q references unknown table %q", relName, rel.Table)
	}
	to := sql.Table(target.Name).As(relName)
	kind(s, to)
	switch rel.Kind {
	case M2O:
		ref := rel.RefColumn
		if ref == "" {
			ref = target.PrimaryKey
		}
		s.On(from.C(rel.Column), to.C(ref))
	case O2M:
		ref := rel.RefColumn
		if ref == "" {
			ref = owner.PrimaryKey
		}
		s.On(from.C(ref), to.C(rel.Column))
	}
	if fetch {
		s.Fetch()
		for _, c := range target.Columns {
			s.AppendSelectExprAs(sql.Expr(to.C(c)), relName+"_"+c)
		}
	}
	return to, nil
}

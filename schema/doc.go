// Package schema holds the table and relationship metadata the query
// layer derives join conditions from.
//
// A Registry maps table names to their columns, primary key, and
// named relationships. Joining over a registered relationship derives
// the ON condition instead of spelling it out:
//
//	reg := schema.NewRegistry()
//	reg.Add(
//	    &schema.Table{Name: "team", PrimaryKey: "id", Columns: []string{"id", "name"}},
//	    &schema.Table{
//	        Name: "member", PrimaryKey: "id",
//	        Columns: []string{"id", "username", "age", "team_id"},
//	        Rels: []*schema.Rel{{Name: "team", Kind: schema.M2O, Table: "team", Column: "team_id"}},
//	    },
//	)
//
//	m := sql.Table("member")
//	q := sql.Select(m.C("username")).From(m)
//	team, _ := reg.Join(q, m, "team")
//	q.Where(sql.EQ(team.C("name"), "teamA"))
//
// FetchJoin additionally appends the target columns to the
// select-list, so the related row is materialized in the same round
// trip.
//
// Definitions can also be loaded from YAML files with Load or
// LoadFile.
package schema

package vega_test

import (
	"context"
	stdsql "database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vegasql/vega"
	"github.com/vegasql/vega/dialect"
	"github.com/vegasql/vega/dialect/sql"
	"github.com/vegasql/vega/schema"
)

// openSQLite returns a driver over a fresh in-memory database seeded
// with two teams and four members.
func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	db, err := stdsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and
	// visible to every statement.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range []string{
		"CREATE TABLE teams (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		"CREATE TABLE members (id INTEGER PRIMARY KEY, username TEXT NOT NULL UNIQUE, age INTEGER, team_id INTEGER REFERENCES teams (id))",
		"INSERT INTO teams (id, name) VALUES (1, 'red'), (2, 'blue')",
		"INSERT INTO members (id, username, age, team_id) VALUES (1, 'ariel', 10, 1), (2, 'boaz', 20, 1), (3, 'carmel', 30, 2), (4, 'dana', 40, 2)",
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return sql.OpenDB(dialect.SQLite, db)
}

func memberRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.Add(&schema.Table{
		Name:       "members",
		PrimaryKey: "id",
		Columns:    []string{"id", "username", "age", "team_id"},
		Rels: []*schema.Rel{
			{Name: "squad", Kind: schema.M2O, Table: "teams", Column: "team_id"},
		},
	}))
	require.NoError(t, r.Add(&schema.Table{
		Name:       "teams",
		PrimaryKey: "id",
		Columns:    []string{"id", "name"},
		Rels: []*schema.Rel{
			{Name: "members", Kind: schema.O2M, Table: "members", Column: "team_id"},
		},
	}))
	return r
}

func usernames(members []member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Username
	}
	return names
}

func TestSQLiteFetch(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()

	members, err := sql.Fetch[member](ctx, drv,
		sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).OrderBy(sql.Desc("age")))
	require.NoError(t, err)
	require.Equal(t, []string{"dana", "carmel", "boaz", "ariel"}, usernames(members))

	m, err := sql.FetchOne[member](ctx, drv,
		sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).Where(sql.EQ("username", "carmel")))
	require.NoError(t, err)
	require.Equal(t, member{ID: 3, Username: "carmel", Age: 30, TeamID: 2}, m)

	_, err = sql.FetchOne[member](ctx, drv,
		sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).Where(sql.EQ("id", 404)))
	require.ErrorIs(t, err, sql.ErrNoRows)

	_, err = sql.FetchOne[member](ctx, drv,
		sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).Where(sql.EQ("team_id", 1)))
	require.ErrorIs(t, err, sql.ErrNotSingular)
}

func TestSQLiteAggregates(t *testing.T) {
	drv := openSQLite(t)
	type stats struct {
		Total  int     `sql:"total"`
		SumAge int     `sql:"sum_age"`
		AvgAge float64 `sql:"avg_age"`
		MaxAge int     `sql:"max_age"`
		MinAge int     `sql:"min_age"`
	}
	got, err := sql.FetchOne[stats](context.Background(), drv,
		sql.Dialect(dialect.SQLite).
			Select(
				sql.As(sql.Count("*"), "total"),
				sql.As(sql.Sum("age"), "sum_age"),
				sql.As(sql.Avg("age"), "avg_age"),
				sql.As(sql.Max("age"), "max_age"),
				sql.As(sql.Min("age"), "min_age"),
			).
			From(sql.Table("members")))
	require.NoError(t, err)
	require.Equal(t, stats{Total: 4, SumAge: 100, AvgAge: 25, MaxAge: 40, MinAge: 10}, got)
}

func TestSQLiteGroupBy(t *testing.T) {
	drv := openSQLite(t)
	type teamSize struct {
		TeamID int `sql:"team_id"`
		Total  int `sql:"total"`
	}
	got, err := sql.Fetch[teamSize](context.Background(), drv,
		sql.Dialect(dialect.SQLite).
			Select("team_id", sql.As(sql.Count("*"), "total")).
			From(sql.Table("members")).
			GroupBy("team_id").
			Having(sql.GT(sql.Count("*"), 1)).
			OrderBy("team_id"))
	require.NoError(t, err)
	require.Equal(t, []teamSize{{TeamID: 1, Total: 2}, {TeamID: 2, Total: 2}}, got)
}

func TestSQLiteOffsetPage(t *testing.T) {
	drv := openSQLite(t)
	members, total, err := sql.FetchPage[member](context.Background(), drv,
		sql.Dialect(dialect.SQLite).
			Select().From(sql.Table("members")).
			OrderBy("age").Offset(1).Limit(2))
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Equal(t, []string{"boaz", "carmel"}, usernames(members))
}

func TestSQLiteKeysetPage(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()
	keys := []sql.OrderKey{{Column: "age"}, {Column: "id"}}

	first, err := sql.Fetch[member](ctx, drv,
		sql.Dialect(dialect.SQLite).
			Select().From(sql.Table("members")).
			Keyset(keys, nil).Limit(2))
	require.NoError(t, err)
	require.Equal(t, []string{"ariel", "boaz"}, usernames(first))

	// The cursor survives its opaque wire form.
	cursor, err := sql.NextCursor(keys, first[len(first)-1])
	require.NoError(t, err)
	token, err := cursor.Encode()
	require.NoError(t, err)
	cursor, err = sql.DecodeCursor(token)
	require.NoError(t, err)

	second, err := sql.Fetch[member](ctx, drv,
		sql.Dialect(dialect.SQLite).
			Select().From(sql.Table("members")).
			Keyset(keys, cursor).Limit(2))
	require.NoError(t, err)
	require.Equal(t, []string{"carmel", "dana"}, usernames(second))
}

func TestSQLiteNullOrdering(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()
	_, err := sql.Exec(ctx, drv,
		sql.Dialect(dialect.SQLite).
			Insert("members").Columns("id", "username", "age", "team_id").
			Values(5, "edna", nil, 1))
	require.NoError(t, err)

	members, err := sql.Fetch[member](ctx, drv,
		sql.Dialect(dialect.SQLite).
			Select().From(sql.Table("members")).
			OrderExpr(sql.OrderByNulls("age", true, sql.NullsLast)))
	require.NoError(t, err)
	require.Equal(t, []string{"dana", "carmel", "boaz", "ariel", "edna"}, usernames(members))

	members, err = sql.Fetch[member](ctx, drv,
		sql.Dialect(dialect.SQLite).
			Select().From(sql.Table("members")).
			OrderExpr(sql.OrderByNulls("age", false, sql.NullsFirst)))
	require.NoError(t, err)
	require.Equal(t, "edna", members[0].Username)
}

func TestSQLiteRegistryJoin(t *testing.T) {
	drv := openSQLite(t)
	r := memberRegistry(t)
	ctx := context.Background()

	from := sql.Table("members")
	s := sql.Dialect(dialect.SQLite).Select().From(from)
	to, err := r.Join(s, from, "squad")
	require.NoError(t, err)
	s.Where(sql.EQ(to.C("name"), "blue")).OrderBy(from.C("age"))

	members, err := sql.Fetch[member](ctx, drv, s.Select(from.C("id"), from.C("username"), from.C("age"), from.C("team_id")))
	require.NoError(t, err)
	require.Equal(t, []string{"carmel", "dana"}, usernames(members))
}

func TestSQLiteFetchJoin(t *testing.T) {
	drv := openSQLite(t)
	r := memberRegistry(t)
	type memberRow struct {
		ID        int
		Username  string
		SquadID   int    `sql:"squad_id"`
		SquadName string `sql:"squad_name"`
	}

	from := sql.Table("members")
	s := sql.Dialect(dialect.SQLite).
		Select(from.C("id"), from.C("username")).
		From(from).
		OrderBy(from.C("id"))
	_, err := r.FetchJoin(s, from, "squad")
	require.NoError(t, err)
	require.True(t, s.HasFetchJoin())

	rows, err := sql.Fetch[memberRow](context.Background(), drv, s)
	require.NoError(t, err)
	require.Equal(t, []memberRow{
		{ID: 1, Username: "ariel", SquadID: 1, SquadName: "red"},
		{ID: 2, Username: "boaz", SquadID: 1, SquadName: "red"},
		{ID: 3, Username: "carmel", SquadID: 2, SquadName: "blue"},
		{ID: 4, Username: "dana", SquadID: 2, SquadName: "blue"},
	}, rows)
}

func TestSQLiteSubqueries(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()

	// Members older than the average age.
	avg := sql.Select(sql.Avg("age")).From(sql.Table("members"))
	members, err := sql.Fetch[member](ctx, drv,
		sql.Dialect(dialect.SQLite).
			Select().From(sql.Table("members")).
			Where(sql.GT("age", avg)).
			OrderBy("age"))
	require.NoError(t, err)
	require.Equal(t, []string{"carmel", "dana"}, usernames(members))

	// Members of the red team, by subquery on the team name.
	reds := sql.Select("id").From(sql.Table("teams")).Where(sql.EQ("name", "red"))
	members, err = sql.Fetch[member](ctx, drv,
		sql.Dialect(dialect.SQLite).
			Select().From(sql.Table("members")).
			Where(sql.In("team_id", reds)).
			OrderBy("age"))
	require.NoError(t, err)
	require.Equal(t, []string{"ariel", "boaz"}, usernames(members))
}

func TestSQLiteCaseExpr(t *testing.T) {
	drv := openSQLite(t)
	type bucketRow struct {
		Username string
		Bucket   string
	}
	rows, err := sql.Fetch[bucketRow](context.Background(), drv,
		sql.Dialect(dialect.SQLite).
			Select("username").From(sql.Table("members")).
			AppendSelectExprAs(sql.Case().When(sql.LT("age", 25), "young").Otherwise("old"), "bucket").
			OrderBy("age"))
	require.NoError(t, err)
	require.Equal(t, []bucketRow{
		{Username: "ariel", Bucket: "young"},
		{Username: "boaz", Bucket: "young"},
		{Username: "carmel", Bucket: "old"},
		{Username: "dana", Bucket: "old"},
	}, rows)
}

type memberCard struct {
	username string
	age      int
}

func (c *memberCard) SetUsername(v string) { c.username = v }
func (c *memberCard) SetAge(v int)         { c.age = v }

func TestSQLiteProjections(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()
	q := func() *sql.Selector {
		return sql.Dialect(dialect.SQLite).
			Select("username", "age").From(sql.Table("members")).
			OrderBy("age").Limit(2)
	}

	t.Run("Setters", func(t *testing.T) {
		cards, err := sql.Fetch(ctx, drv, q(), sql.ProjectSetters[memberCard]())
		require.NoError(t, err)
		require.Equal(t, []memberCard{{username: "ariel", age: 10}, {username: "boaz", age: 20}}, cards)
	})
	t.Run("Constructor", func(t *testing.T) {
		labels, err := sql.Fetch(ctx, drv, q(), sql.ProjectConstructor[string](func(username string, age int) string {
			return username
		}))
		require.NoError(t, err)
		require.Equal(t, []string{"ariel", "boaz"}, labels)
	})
	t.Run("Scalars", func(t *testing.T) {
		ages, err := sql.Fetch[int](ctx, drv,
			sql.Dialect(dialect.SQLite).Select("age").From(sql.Table("members")).OrderBy("age"))
		require.NoError(t, err)
		require.Equal(t, []int{10, 20, 30, 40}, ages)
	})
}

func TestSQLiteDynamicFilters(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()
	search := func(minAge *int, contains *string) ([]member, error) {
		var ps []*sql.Predicate
		if minAge != nil {
			ps = append(ps, sql.GTE("age", *minAge))
		}
		if contains != nil {
			ps = append(ps, sql.Contains("username", *contains))
		}
		return sql.Fetch[member](ctx, drv,
			sql.Dialect(dialect.SQLite).
				Select().From(sql.Table("members")).
				Where(sql.And(ps...)).
				OrderBy("age"))
	}

	age, name := 20, "a"
	members, err := search(&age, &name)
	require.NoError(t, err)
	require.Equal(t, []string{"boaz", "carmel", "dana"}, usernames(members))

	// Absent parameters drop out of the statement entirely.
	members, err = search(nil, nil)
	require.NoError(t, err)
	require.Len(t, members, 4)
}

func TestSQLiteSessionBulk(t *testing.T) {
	drv := openSQLite(t)
	s := vega.NewSession(drv)
	ctx := context.Background()

	members, err := vega.Load[member](ctx, s, "members", "id",
		sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).OrderBy("id"))
	require.NoError(t, err)
	require.Len(t, members, 4)

	affected, err := s.Exec(ctx,
		sql.Dialect(dialect.SQLite).Update("members").Set("age", 28).Where(sql.LT("age", 28)))
	require.NoError(t, err)
	require.EqualValues(t, 2, affected)

	// The bulk statement bypassed the identity map, so the tracked
	// entity still reports its pre-mutation age.
	stale, ok := s.Get("members", 1)
	require.True(t, ok)
	require.Equal(t, 10, stale.(*member).Age)

	// Clearing and reloading observes the new state.
	s.Clear()
	members, err = vega.Load[member](ctx, s, "members", "id",
		sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).OrderBy("id"))
	require.NoError(t, err)
	require.Equal(t, 28, members[0].Age)
	require.Equal(t, 28, members[1].Age)
	require.Equal(t, 30, members[2].Age)
}

func TestSQLiteSessionFlush(t *testing.T) {
	drv := openSQLite(t)
	s := vega.NewSession(drv)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		members, err := vega.Load[member](ctx, s, "members", "id",
			sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).Where(sql.EQ("id", 1)))
		if err != nil {
			return err
		}
		members[0].Age = 11
		return s.Flush(ctx)
	})
	require.NoError(t, err)

	m, err := vega.FetchOne[member](ctx, s, "Member",
		sql.Dialect(dialect.SQLite).Select().From(sql.Table("members")).Where(sql.EQ("id", 1)))
	require.NoError(t, err)
	require.Equal(t, 11, m.Age)
}

func TestSQLiteConstraint(t *testing.T) {
	drv := openSQLite(t)
	s := vega.NewSession(drv)

	_, err := s.Exec(context.Background(),
		sql.Dialect(dialect.SQLite).
			Insert("members").Columns("id", "username", "age", "team_id").
			Values(6, "dana", 25, 1))
	require.Error(t, err)
	require.True(t, vega.IsConstraintError(err))
	require.True(t, sql.IsUniqueConstraintError(err))
}

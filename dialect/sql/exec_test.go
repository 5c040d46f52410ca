package sql

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vegasql/vega/dialect"
)

func mockDriver(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return OpenDB(dialect.MySQL, db), mock
}

func TestFetch(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `age` > ?")).
		WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).
			AddRow(1, "a8m", 30).
			AddRow(2, "nati", 28))

	users, err := Fetch[user](context.Background(), drv, Select().From(Table("users")).Where(GT("age", 18)))
	require.NoError(t, err)
	require.Equal(t, []user{
		{ID: 1, Name: "a8m", Age: 30},
		{ID: 2, Name: "nati", Age: 28},
	}, users)
}

func TestFetchScalars(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `name` FROM `users` ORDER BY `name`")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("a8m").
			AddRow("nati"))

	names, err := Fetch[string](context.Background(), drv, Select("name").From(Table("users")).OrderBy("name"))
	require.NoError(t, err)
	require.Equal(t, []string{"a8m", "nati"}, names)
}

func TestFetchBuildError(t *testing.T) {
	drv, _ := mockDriver(t)
	_, err := Fetch[user](context.Background(), drv, Select().From(Table("users")).Limit(-1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "limit must not be negative")
}

func TestFetchOne(t *testing.T) {
	t.Run("Singular", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `id` = ? LIMIT 2")).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a8m"))

		v, err := FetchOne[user](context.Background(), drv, Select().From(Table("users")).Where(EQ("id", 1)))
		require.NoError(t, err)
		require.Equal(t, user{ID: 1, Name: "a8m"}, v)
	})
	t.Run("NoRows", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		_, err := FetchOne[user](context.Background(), drv, Select().From(Table("users")).Where(EQ("id", 1)))
		require.ErrorIs(t, err, ErrNoRows)
	})
	t.Run("NotSingular", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "a8m").
				AddRow(2, "nati"))

		_, err := FetchOne[user](context.Background(), drv, Select().From(Table("users")))
		require.ErrorIs(t, err, ErrNotSingular)
	})
	t.Run("KeepsOriginalLimit", func(t *testing.T) {
		// FetchOne probes on a clone. The caller statement is unchanged.
		drv, mock := mockDriver(t)
		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		s := Select().From(Table("users"))
		_, err := FetchOne[user](context.Background(), drv, s)
		require.NoError(t, err)
		query, _ := s.Query()
		require.Equal(t, "SELECT * FROM `users`", query)
	})
}

func TestFetchFirst(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` ORDER BY `age` DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow(3, "oldest", 80))

	v, err := FetchFirst[user](context.Background(), drv, Select().From(Table("users")).OrderBy(Desc("age")))
	require.NoError(t, err)
	require.Equal(t, user{ID: 3, Name: "oldest", Age: 80}, v)
}

func TestFetchCount(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users` WHERE `age` > ? LIMIT 2")).
			WithArgs(18).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		n, err := FetchCount(context.Background(), drv, Select().From(Table("users")).Where(GT("age", 18)))
		require.NoError(t, err)
		require.Equal(t, 4, n)
	})
	t.Run("StripsOrderAndPagination", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users` LIMIT 2")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

		s := Select().From(Table("users")).OrderBy("name").Limit(2).Offset(4)
		n, err := FetchCount(context.Background(), drv, s)
		require.NoError(t, err)
		require.Equal(t, 10, n)
	})
	t.Run("GroupedUsesDerivedTable", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM (SELECT `team_id` FROM `users` GROUP BY `team_id`) AS `t` LIMIT 2")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		s := Select("team_id").From(Table("users")).GroupBy("team_id")
		n, err := FetchCount(context.Background(), drv, s)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
	t.Run("DistinctUsesDerivedTable", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM (SELECT DISTINCT `name` FROM `users`) AS `t` LIMIT 2")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		n, err := FetchCount(context.Background(), drv, Select("name").Distinct().From(Table("users")))
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})
}

func TestFetchPage(t *testing.T) {
	drv, mock := mockDriver(t)
	// The page and count statements run concurrently.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` ORDER BY `id` LIMIT 2 OFFSET 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(2, "b").
			AddRow(3, "c"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users` LIMIT 2")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	s := Select().From(Table("users")).OrderBy("id").Limit(2).Offset(1)
	users, total, err := FetchPage[user](context.Background(), drv, s)
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Equal(t, []user{{ID: 2, Name: "b"}, {ID: 3, Name: "c"}}, users)
}

func TestFetchPageSelectorIsolation(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.MatchExpectationsInOrder(false)

	// The page statement renders with its pagination while the count
	// statement runs against an independent derivation, so repeated
	// calls on one selector stay race-free and identical.
	s := Select().From(Table("users")).OrderBy("id").Limit(2).Offset(1)
	for range 10 {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` ORDER BY `id` LIMIT 2 OFFSET 1")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "b"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users` LIMIT 2")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	}
	for range 10 {
		users, total, err := FetchPage[user](context.Background(), drv, s)
		require.NoError(t, err)
		require.Equal(t, 4, total)
		require.Equal(t, []user{{ID: 2, Name: "b"}}, users)
	}

	// The selector itself is left as built.
	query, args := s.Query()
	require.NoError(t, s.Err())
	require.Empty(t, args)
	require.Equal(t, "SELECT * FROM `users` ORDER BY `id` LIMIT 2 OFFSET 1", query)
}

func TestFetchWithMapper(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `name`, `age` FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}).AddRow("a8m", 30))

	type pair struct {
		label string
		value int
	}
	mapper := ProjectConstructor[pair](func(name string, age int) pair {
		return pair{label: name, value: age}
	})
	pairs, err := Fetch(context.Background(), drv, Select("name", "age").From(Table("users")), mapper)
	require.NoError(t, err)
	require.Equal(t, []pair{{label: "a8m", value: 30}}, pairs)
}

func TestExec(t *testing.T) {
	t.Run("Update", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `users` SET `age` = ? WHERE `age` < ?")).
			WithArgs(28, 28).
			WillReturnResult(sqlmock.NewResult(0, 2))

		affected, err := Exec(context.Background(), drv, Update("users").Set("age", 28).Where(LT("age", 28)))
		require.NoError(t, err)
		require.EqualValues(t, 2, affected)
	})
	t.Run("Delete", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users` WHERE `id` = ?")).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := Exec(context.Background(), drv, Delete("users").Where(EQ("id", 1)))
		require.NoError(t, err)
		require.EqualValues(t, 1, affected)
	})
	t.Run("Insert", func(t *testing.T) {
		drv, mock := mockDriver(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`name`) VALUES (?)")).
			WithArgs("a8m").
			WillReturnResult(sqlmock.NewResult(1, 1))

		affected, err := Exec(context.Background(), drv, Insert("users").Columns("name").Values("a8m"))
		require.NoError(t, err)
		require.EqualValues(t, 1, affected)
	})
}

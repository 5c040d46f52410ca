package sql

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID       int
	Name     string
	Age      int
	Nickname *string
	Created  time.Time `sql:"created_at"`
}

type account struct {
	id      int
	balance float64
}

func (a *account) SetID(id int)              { a.id = id }
func (a *account) SetBalance(value float64)  { a.balance = value }
func (a *account) SetIgnored(a1, a2 int) int { return 0 } // wrong arity, not a setter.

func queryRowsT(t *testing.T, rows *sqlmock.Rows) ColumnScanner {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	r, err := db.Query("SELECT")
	require.NoError(t, err)
	return r
}

func TestProjectFields(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "age"}).
			AddRow(1, "a8m", 30).
			AddRow(2, "nati", 28)
		users, err := ProjectFields[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, user{ID: 1, Name: "a8m", Age: 30}, users[0])
		require.Equal(t, user{ID: 2, Name: "nati", Age: 28}, users[1])
	})
	t.Run("NullBecomesZero", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "age"}).
			AddRow(1, nil, nil)
		users, err := ProjectFields[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, user{ID: 1}, users[0])
	})
	t.Run("NullPointerField", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "nickname"}).
			AddRow(1, "ninja").
			AddRow(2, nil)
		users, err := ProjectFields[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.NotNil(t, users[0].Nickname)
		require.Equal(t, "ninja", *users[0].Nickname)
		require.Nil(t, users[1].Nickname)
	})
	t.Run("TagOverridesName", func(t *testing.T) {
		created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(1, created)
		users, err := ProjectFields[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, created, users[0].Created)
	})
	t.Run("UnmatchedColumnIgnored", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "team_rank"}).
			AddRow(1, 5)
		users, err := ProjectFields[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, user{ID: 1}, users[0])
	})
	t.Run("QualifiedColumn", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"users.id", "users.name"}).
			AddRow(1, "a8m")
		users, err := ProjectFields[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, user{ID: 1, Name: "a8m"}, users[0])
	})
	t.Run("NonStructTarget", func(t *testing.T) {
		m := ProjectFields[int]()
		require.Error(t, m.Err())
		require.True(t, IsProjection(m.Err()))
	})
	t.Run("Empty", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name"})
		users, err := ProjectFields[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Empty(t, users)
	})
}

func TestProjectSetters(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "balance"}).
			AddRow(1, 99.5)
		accounts, err := ProjectSetters[account]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, 1, accounts[0].id)
		require.Equal(t, 99.5, accounts[0].balance)
	})
	t.Run("NullSkipsSetter", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "balance"}).
			AddRow(1, nil)
		accounts, err := ProjectSetters[account]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Zero(t, accounts[0].balance)
	})
	t.Run("UnmatchedColumnIgnored", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "iban"}).
			AddRow(1, "DE1234")
		accounts, err := ProjectSetters[account]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, 1, accounts[0].id)
	})
	t.Run("NonStructTarget", func(t *testing.T) {
		m := ProjectSetters[string]()
		require.Error(t, m.Err())
	})
}

func TestProjectConstructor(t *testing.T) {
	type member struct {
		name string
		age  int
	}
	newMember := func(name string, age int) member {
		return member{name: name, age: age}
	}
	t.Run("Basic", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"name", "age"}).
			AddRow("a8m", 30)
		members, err := ProjectConstructor[member](newMember).ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, member{name: "a8m", age: 30}, members[0])
	})
	t.Run("NullBecomesZeroArgument", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"name", "age"}).
			AddRow(nil, 30)
		members, err := ProjectConstructor[member](newMember).ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, member{age: 30}, members[0])
	})
	t.Run("ArityMismatch", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"name"}).
			AddRow("a8m")
		_, err := ProjectConstructor[member](newMember).ScanAll(queryRowsT(t, rows))
		require.Error(t, err)
		require.True(t, IsProjection(err))
		require.Contains(t, err.Error(), "expects 2 arguments")
	})
	t.Run("NotAFunction", func(t *testing.T) {
		m := ProjectConstructor[member]("not a func")
		require.Error(t, m.Err())
		require.True(t, IsProjection(m.Err()))
	})
	t.Run("WrongReturnType", func(t *testing.T) {
		m := ProjectConstructor[member](func(name string) string { return name })
		require.Error(t, m.Err())
	})
}

func TestDefaultMapper(t *testing.T) {
	t.Run("Scalar", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"age"}).
			AddRow(30).
			AddRow(nil)
		ages, err := defaultMapper[int]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, []int{30, 0}, ages)
	})
	t.Run("ScalarRequiresSingleColumn", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "age"}).
			AddRow(1, 30)
		_, err := defaultMapper[int]().ScanAll(queryRowsT(t, rows))
		require.Error(t, err)
		require.True(t, IsProjection(err))
	})
	t.Run("TimeIsScalar", func(t *testing.T) {
		now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"created_at"}).
			AddRow(now)
		times, err := defaultMapper[time.Time]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, []time.Time{now}, times)
	})
	t.Run("StructByField", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "a8m")
		users, err := defaultMapper[user]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Equal(t, user{ID: 1, Name: "a8m"}, users[0])
	})
	t.Run("Tuple", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"name", "total"}).
			AddRow("teamA", 3).
			AddRow("teamB", 2)
		tuples, err := defaultMapper[*Tuple]().ScanAll(queryRowsT(t, rows))
		require.NoError(t, err)
		require.Len(t, tuples, 2)
		require.Equal(t, []string{"name", "total"}, tuples[0].Columns())
		name, ok := tuples[0].Get("name")
		require.True(t, ok)
		require.Equal(t, "teamA", name)
		total, ok := tuples[1].Get("total")
		require.True(t, ok)
		require.EqualValues(t, 2, total)
		_, ok = tuples[0].Get("missing")
		require.False(t, ok)
	})
}

func TestColumnValues(t *testing.T) {
	nick := "ninja"
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	values, err := ColumnValues(&user{ID: 1, Name: "a8m", Age: 30, Nickname: &nick, Created: created})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"id":         1,
		"name":       "a8m",
		"age":        30,
		"nickname":   &nick,
		"created_at": created,
	}, values)

	_, err = ColumnValues(42)
	require.Error(t, err)
	require.True(t, IsProjection(err))
}

func TestBaseColumn(t *testing.T) {
	require.Equal(t, "name", baseColumn("name"))
	require.Equal(t, "name", baseColumn("users.name"))
	require.Equal(t, "name", baseColumn("`users`.`name`"))
	require.Equal(t, "name", baseColumn(`"users"."name"`))
}

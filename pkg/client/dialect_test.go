package client

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDialects_Lookup(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"pg", "pg"},
		{"postgres", "pg"},
		{"PostgreSQL", "pg"},
		{"pgx", "pgx"},
		{"mysql2", "mysql"},
		{"mariadb", "mysql"},
		{"sqlite3", "sqlite"},
		{"better-sqlite3", "sqlite"},
		{" sqlserver ", "mssql"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			d, ok := DefaultDialects().Lookup(tt.kind)
			require.True(t, ok)
			assert.Equal(t, tt.want, d.Name)
		})
	}

	_, ok := DefaultDialects().Lookup("oracledb")
	assert.False(t, ok)
}

func TestDefaultDialects_List(t *testing.T) {
	assert.Equal(t, []string{"mssql", "mysql", "pg", "pgx", "sqlite"}, DefaultDialects().List())
}

func TestDialectRegistry_RegisterDuplicatePanics(t *testing.T) {
	r := NewDialectRegistry()
	r.Register(&Dialect{Name: "one", Aliases: []string{"uno"}})

	assert.Panics(t, func() { r.Register(&Dialect{Name: "UNO"}) })
	assert.Panics(t, func() { r.Register(&Dialect{Name: "two", Aliases: []string{"one"}}) })

	// A rejected registration must not leave partial entries behind.
	_, ok := r.Lookup("two")
	assert.False(t, ok)
}

func TestDialect_PrepareDoesNotMutateInput(t *testing.T) {
	d, ok := DefaultDialects().Lookup("mariadb")
	require.True(t, ok)

	in := Options{Connection: map[string]any{"host": "db"}}
	out, err := d.Prepare(in)
	require.NoError(t, err)

	assert.Equal(t, "Z", out.Connection["timezone"])
	assert.NotNil(t, out.TypeCast)
	assert.NotContains(t, in.Connection, "timezone")
	assert.Nil(t, in.TypeCast)
}

// go-sql-driver/mysql reports no column length, so the default cast keeps
// TINYINT values as integers and a caller-supplied cast is needed for booleans.
func TestDialect_MySQLDefaultCastWithoutLength(t *testing.T) {
	d, _ := DefaultDialects().Lookup("mysql")
	out, err := d.Prepare(Options{Connection: map[string]any{}})
	require.NoError(t, err)

	field := Field{Name: "active", Type: "TINYINT"}
	assert.Equal(t, int64(1), out.TypeCast(field, int64(1)))

	byName := func(f Field, v any) any {
		if f.Name == "active" {
			return TinyIntAsBool(Field{Type: f.Type, Length: 1}, v)
		}
		return v
	}
	out, err = d.Prepare(Options{Connection: map[string]any{}, TypeCast: byName})
	require.NoError(t, err)
	assert.Equal(t, true, out.TypeCast(field, int64(1)))
}

func TestDialect_PrepareKeepsCustomTypeCast(t *testing.T) {
	d, _ := DefaultDialects().Lookup("mysql")
	called := false
	cast := func(f Field, v any) any { called = true; return v }

	out, err := d.Prepare(Options{TypeCast: cast, Connection: map[string]any{"timezone": "local"}})
	require.NoError(t, err)

	out.TypeCast(Field{}, nil)
	assert.True(t, called)
	assert.Equal(t, "local", out.Connection["timezone"])
}

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		conn map[string]any
		want string
	}{
		{
			name: "defaults",
			conn: map[string]any{"database": "main"},
			want: "host=localhost port=5432 dbname=main sslmode=disable",
		},
		{
			name: "quoted password",
			conn: map[string]any{"host": "db", "port": 5433, "user": "app", "password": "p w'x", "database": "main", "sslmode": "require"},
			want: `host=db port=5433 user=app password='p w\'x' dbname=main sslmode=require`,
		},
		{
			name: "explicit connection string",
			conn: map[string]any{"connectionString": "postgres://u@h/db", "host": "ignored"},
			want: "postgres://u@h/db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := postgresDSN(tt.conn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN(map[string]any{
		"host":     "db",
		"user":     "app",
		"password": "secret",
		"database": "main",
		"timezone": "Z",
	})
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "main", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.Equal(t, "'+00:00'", cfg.Params["time_zone"])
}

func TestMySQLDSN_InvalidTimezone(t *testing.T) {
	_, err := mysqlDSN(map[string]any{"timezone": "Not/AZone"})
	assert.Error(t, err)
}

func TestMySQLTimezone_FixedOffset(t *testing.T) {
	loc, offset, err := mysqlTimezone("+05:30")
	require.NoError(t, err)
	assert.Equal(t, "'+05:30'", offset)

	_, secs := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600+30*60, secs)
}

func TestMSSQLDSN(t *testing.T) {
	got, err := mssqlDSN(map[string]any{"host": "db", "user": "sa", "password": "pw", "database": "main"})
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://sa:pw@db:1433?database=main", got)
}

func TestSQLiteDSN(t *testing.T) {
	got, err := sqliteDSN(map[string]any{"filename": "/tmp/app.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/app.db", got)

	_, err = sqliteDSN(map[string]any{})
	assert.Error(t, err)
}

func TestTinyIntAsBool(t *testing.T) {
	tiny := Field{Name: "active", Type: "TINYINT", Length: 1}

	tests := []struct {
		name  string
		field Field
		in    any
		want  any
	}{
		{"one", tiny, int64(1), true},
		{"zero", tiny, int64(0), false},
		{"bytes", tiny, []byte("1"), true},
		{"string", tiny, "0", false},
		{"null", tiny, nil, nil},
		{"wider tinyint", Field{Type: "TINYINT", Length: 4}, int64(1), int64(1)},
		{"other type", Field{Type: "INT", Length: 1}, int64(1), int64(1)},
		{"length not reported", Field{Type: "TINYINT"}, int64(1), int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TinyIntAsBool(tt.field, tt.in))
		})
	}
}

func TestBuildInsert(t *testing.T) {
	rows := []map[string]any{
		{"a": 1, "b": 2},
		{"a": 3},
	}

	tests := []struct {
		name     string
		dialect  *Dialect
		nullDflt bool
		want     string
		wantErr  error
	}{
		{
			name:    "postgres default",
			dialect: newPostgres(),
			want:    `INSERT INTO "t" ("a", "b") VALUES ($1, $2), ($3, DEFAULT)`,
		},
		{
			name:     "postgres null default",
			dialect:  newPostgres(),
			nullDflt: true,
			want:     `INSERT INTO "t" ("a", "b") VALUES ($1, $2), ($3, NULL)`,
		},
		{
			name:    "mssql",
			dialect: newMSSQL(),
			want:    `INSERT INTO [t] ([a], [b]) VALUES (@p1, @p2), (@p3, DEFAULT)`,
		},
		{
			name:    "mysql",
			dialect: newMySQL(),
			want:    "INSERT INTO `t` (`a`, `b`) VALUES (?, ?), (?, DEFAULT)",
		},
		{
			name:    "sqlite without null default",
			dialect: newSQLite(),
			wantErr: ErrDefaultUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{dialect: tt.dialect, opts: Options{UseNullAsDefault: tt.nullDflt}}
			query, args, err := c.buildInsert("t", rows)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, []any{1, 2, 3}, args)
		})
	}
}

func TestBuildInsert_Empty(t *testing.T) {
	c := &Client{dialect: newPostgres()}

	_, _, err := c.buildInsert("t", nil)
	assert.Error(t, err)

	_, _, err = c.buildInsert("t", []map[string]any{{}})
	assert.Error(t, err)
}

package client

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	_ "github.com/lib/pq"              // PostgreSQL driver
)

// newPostgres creates the lib/pq backed PostgreSQL dialect.
func newPostgres() *Dialect {
	return &Dialect{
		Name:            "pg",
		Aliases:         []string{"postgres", "postgresql"},
		DriverName:      "postgres",
		ProbeQuery:      "SELECT 1",
		SupportsDefault: true,
		DSN:             postgresDSN,
		Quote:           quoteDouble,
		Placeholder:     placeholderDollar,
		MigrationDriver: func(db *sql.DB, table string) (database.Driver, error) {
			return postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
		},
	}
}

// newPgx creates the pgx backed PostgreSQL dialect.
func newPgx() *Dialect {
	return &Dialect{
		Name:            "pgx",
		DriverName:      "pgx",
		ProbeQuery:      "SELECT 1",
		SupportsDefault: true,
		DSN:             postgresDSN,
		Quote:           quoteDouble,
		Placeholder:     placeholderDollar,
		MigrationDriver: func(db *sql.DB, table string) (database.Driver, error) {
			return migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: table})
		},
	}
}

// postgresDSN builds a key/value connection string understood by lib/pq and pgx.
func postgresDSN(conn map[string]any) (string, error) {
	if s := connectionString(conn); s != "" {
		return s, nil
	}

	pairs := []struct{ key, value string }{
		{"host", getString(conn, "host", "localhost")},
		{"port", strconv.Itoa(getInt(conn, "port", 5432))},
		{"user", getString(conn, "user", "")},
		{"password", getString(conn, "password", "")},
		{"dbname", getString(conn, "database", "")},
		{"sslmode", getString(conn, "sslmode", getString(conn, "ssl_mode", "disable"))},
		{"application_name", getString(conn, "applicationName", "")},
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quotePostgresValue(p.value))
	}
	return strings.Join(parts, " "), nil
}

func quotePostgresValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

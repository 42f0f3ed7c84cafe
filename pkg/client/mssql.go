package client

import (
	"database/sql"
	"net"
	"net/url"
	"strconv"

	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlserver"
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
)

// newMSSQL creates the SQL Server dialect.
func newMSSQL() *Dialect {
	return &Dialect{
		Name:            "mssql",
		Aliases:         []string{"sqlserver"},
		DriverName:      "sqlserver",
		ProbeQuery:      "SELECT 1",
		SupportsDefault: true,
		DSN:             mssqlDSN,
		Quote:           quoteBracket,
		Placeholder:     placeholderAtP,
		MigrationDriver: func(db *sql.DB, table string) (database.Driver, error) {
			return sqlserver.WithInstance(db, &sqlserver.Config{MigrationsTable: table})
		},
	}
}

func mssqlDSN(conn map[string]any) (string, error) {
	if s := connectionString(conn); s != "" {
		return s, nil
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(getString(conn, "host", "localhost"), strconv.Itoa(getInt(conn, "port", 1433))),
	}
	if user := getString(conn, "user", ""); user != "" {
		u.User = url.UserPassword(user, getString(conn, "password", ""))
	}

	q := url.Values{}
	if db := getString(conn, "database", ""); db != "" {
		q.Set("database", db)
	}
	if enc := getString(conn, "encrypt", ""); enc != "" {
		q.Set("encrypt", enc)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

package client

import (
	"database/sql"
	"errors"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// newSQLite creates the SQLite dialect. SQLite rejects DEFAULT inside a VALUES
// list, so multi-row inserts with missing columns need UseNullAsDefault.
func newSQLite() *Dialect {
	return &Dialect{
		Name:        "sqlite",
		Aliases:     []string{"sqlite3", "better-sqlite3"},
		DriverName:  "sqlite",
		ProbeQuery:  "SELECT 1",
		DSN:         sqliteDSN,
		Quote:       quoteDouble,
		Placeholder: placeholderQuestion,
		MigrationDriver: func(db *sql.DB, table string) (database.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: table})
		},
	}
}

func sqliteDSN(conn map[string]any) (string, error) {
	if s := connectionString(conn); s != "" {
		return s, nil
	}
	filename := getString(conn, "filename", "")
	if filename == "" {
		return "", errors.New("sqlite connection requires a filename")
	}
	return filename, nil
}

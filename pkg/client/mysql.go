package client

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
)

// newMySQL creates the MySQL family dialect (mysql, mysql2, mariadb).
func newMySQL() *Dialect {
	return &Dialect{
		Name:            "mysql",
		Aliases:         []string{"mysql2", "mariadb"},
		DriverName:      "mysql",
		ProbeQuery:      "SELECT 1",
		SupportsDefault: true,
		DSN:             mysqlDSN,
		Normalize:       normalizeMySQL,
		Quote:           quoteBacktick,
		Placeholder:     placeholderQuestion,
		MigrationDriver: func(db *sql.DB, table string) (database.Driver, error) {
			return migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: table})
		},
	}
}

// normalizeMySQL defaults the session timezone to UTC and installs the
// TINYINT(1) to bool cast unless the caller supplied a cast of their own.
//
// go-sql-driver/mysql does not report column lengths (ColumnTypeLength is not
// implemented), so Field.Length is always 0 and the default cast leaves MySQL
// TINYINT values as integers. Callers that want booleans from MySQL must set
// TypeCast themselves, for example by matching on column name.
func normalizeMySQL(opts *Options) error {
	if getString(opts.Connection, "timezone", "") == "" {
		opts.Connection["timezone"] = "Z"
	}
	if opts.TypeCast == nil {
		opts.TypeCast = TinyIntAsBool
	}
	return nil
}

func mysqlDSN(conn map[string]any) (string, error) {
	var cfg *mysql.Config
	if s := connectionString(conn); s != "" {
		parsed, err := mysql.ParseDSN(s)
		if err != nil {
			return "", fmt.Errorf("failed to parse mysql dsn: %w", err)
		}
		cfg = parsed
	} else {
		cfg = mysql.NewConfig()
		cfg.User = getString(conn, "user", "")
		cfg.Passwd = getString(conn, "password", "")
		cfg.DBName = getString(conn, "database", "")
		if socket := getString(conn, "socketPath", ""); socket != "" {
			cfg.Net = "unix"
			cfg.Addr = socket
		} else {
			cfg.Net = "tcp"
			cfg.Addr = net.JoinHostPort(getString(conn, "host", "localhost"), strconv.Itoa(getInt(conn, "port", 3306)))
		}
	}

	cfg.ParseTime = getBool(conn, "parseTime", true)
	if getBool(conn, "multipleStatements", false) {
		cfg.MultiStatements = true
	}

	if tz := getString(conn, "timezone", ""); tz != "" {
		loc, offset, err := mysqlTimezone(tz)
		if err != nil {
			return "", err
		}
		cfg.Loc = loc
		if offset != "" {
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			if _, ok := cfg.Params["time_zone"]; !ok {
				cfg.Params["time_zone"] = offset
			}
		}
	}

	return cfg.FormatDSN(), nil
}

// mysqlTimezone resolves a connection timezone to the location used for
// time.Time values and, when fixed, the session time_zone value.
func mysqlTimezone(tz string) (*time.Location, string, error) {
	switch strings.ToUpper(tz) {
	case "Z", "UTC", "+00:00":
		return time.UTC, "'+00:00'", nil
	case "LOCAL":
		return time.Local, "", nil
	}

	if len(tz) == 6 && (tz[0] == '+' || tz[0] == '-') && tz[3] == ':' {
		hours, errH := strconv.Atoi(tz[1:3])
		minutes, errM := strconv.Atoi(tz[4:6])
		if errH == nil && errM == nil {
			secs := hours*3600 + minutes*60
			if tz[0] == '-' {
				secs = -secs
			}
			return time.FixedZone(tz, secs), "'" + tz + "'", nil
		}
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, "", fmt.Errorf("invalid mysql timezone %q: %w", tz, err)
	}
	return loc, "", nil
}

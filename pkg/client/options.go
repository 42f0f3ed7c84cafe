package client

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/nucleus/dbregistry/pkg/identmap"
)

// Options describes how to build a Client.
type Options struct {
	// Connection holds driver connection parameters (host, port, user, password,
	// database, filename, connectionString, ...).
	Connection map[string]any
	Pool       Pool
	Migrations Migrations

	// AcquireConnectionTimeout bounds the connectivity probe. Zero means no bound
	// beyond the caller's context.
	AcquireConnectionTimeout time.Duration
	// UseNullAsDefault fills columns missing from a multi-row insert with NULL
	// instead of DEFAULT.
	UseNullAsDefault bool

	TypeCast TypeCastFunc
	Hooks    identmap.Hooks
}

// Pool maps onto database/sql pool settings. Zero values keep the defaults.
type Pool struct {
	Min               int `yaml:"min" validate:"gte=0"`
	Max               int `yaml:"max" validate:"gte=0"`
	IdleTimeoutMillis int `yaml:"idleTimeoutMillis" validate:"gte=0"`
	MaxLifetimeMillis int `yaml:"maxLifetimeMillis" validate:"gte=0"`
}

// Migrations configures golang-migrate for a connection.
type Migrations struct {
	Auto      bool   `yaml:"auto"`
	Directory string `yaml:"directory" validate:"required_if=Auto true"`
	TableName string `yaml:"tableName"`
}

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

// Field describes a result column as reported by the driver.
type Field struct {
	Name string
	// Type is the database type name, upper-cased by most drivers (e.g. TINYINT).
	Type string
	// Length is the reported column length, zero when the driver does not report one.
	Length int64
}

// TypeCastFunc converts a scanned value before it is placed in a result row.
type TypeCastFunc func(field Field, value any) any

// TinyIntAsBool converts TINYINT(1) values to booleans and leaves every other
// column untouched. It relies on the driver reporting a column length of 1;
// TINYINT columns without a reported length are left as they are.
func TinyIntAsBool(field Field, value any) any {
	if !strings.EqualFold(field.Type, "TINYINT") || field.Length != 1 {
		return value
	}
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return v
	case int64:
		return v == 1
	case []byte:
		return string(v) == "1"
	case string:
		return v == "1"
	default:
		return value
	}
}

func (o Options) clone() Options {
	out := o
	out.Connection = maps.Clone(o.Connection)
	if out.Connection == nil {
		out.Connection = map[string]any{}
	}
	return out
}

// --- connection map helpers ---

func getString(m map[string]any, key, defaultVal string) string {
	switch v := m[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case fmt.Stringer:
		return v.String()
	}
	return defaultVal
}

func getInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBool(m map[string]any, key string, defaultVal bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// connectionString returns an explicit DSN when the caller supplied one.
func connectionString(m map[string]any) string {
	for _, key := range []string{"connectionString", "dsn", "url"} {
		if s := getString(m, key, ""); s != "" {
			return s
		}
	}
	return ""
}

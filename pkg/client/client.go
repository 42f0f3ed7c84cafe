// Package client wraps a database/sql pool with the per-driver behavior a named
// connection needs: DSN building, identifier quoting, result key mapping, type
// casting, and schema migrations.
//
// Architecture:
//
//	Dialect  - per client kind strategy (DSN, quoting, placeholders, migrations)
//	Client   - an open pool plus the hook chains installed for the connection
//
// Built-in dialects: pg/postgres/postgresql (lib/pq), pgx, mysql/mysql2/mariadb,
// sqlite/sqlite3/better-sqlite3 (modernc), mssql/sqlserver.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nucleus/dbregistry/pkg/identmap"
)

// ErrDefaultUnsupported is returned when a multi-row insert leaves a column out
// of some rows and the dialect cannot express DEFAULT in a VALUES list.
var ErrDefaultUnsupported = errors.New("dialect does not support DEFAULT in multi-row insert; enable UseNullAsDefault")

// Client is an open connection pool for one named connection.
type Client struct {
	db      *sql.DB
	dialect *Dialect
	dsn     string
	opts    Options

	identifiers identmap.IdentifierChain
	responses   identmap.ResponseChain

	closeOnce sync.Once
	closeErr  error
}

// Open builds the driver connection string and opens the pool. It does not
// contact the database; call Ping to confirm connectivity.
func Open(d *Dialect, opts Options) (*Client, error) {
	if d == nil {
		return nil, errors.New("dialect is required")
	}

	prepared, err := d.Prepare(opts)
	if err != nil {
		return nil, err
	}

	dsn, err := d.DSN(prepared.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s connection string: %w", d.Name, err)
	}

	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(db, prepared.Pool)

	return &Client{
		db:          db,
		dialect:     d,
		dsn:         dsn,
		opts:        prepared,
		identifiers: prepared.Hooks.Identifier,
		responses:   prepared.Hooks.Response,
	}, nil
}

func configurePool(db *sql.DB, p Pool) {
	maxOpen := defaultMaxOpenConns
	if p.Max > 0 {
		maxOpen = p.Max
	}
	maxIdle := defaultMaxIdleConns
	if p.Min > 0 {
		maxIdle = p.Min
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	lifetime := defaultConnMaxLifetime
	if p.MaxLifetimeMillis > 0 {
		lifetime = time.Duration(p.MaxLifetimeMillis) * time.Millisecond
	}
	db.SetConnMaxLifetime(lifetime)
	if p.IdleTimeoutMillis > 0 {
		db.SetConnMaxIdleTime(time.Duration(p.IdleTimeoutMillis) * time.Millisecond)
	}
}

// Ping runs the dialect's probe query, bounded by AcquireConnectionTimeout.
func (c *Client) Ping(ctx context.Context) error {
	if c.opts.AcquireConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.AcquireConnectionTimeout)
		defer cancel()
	}

	probe := c.dialect.ProbeQuery
	if probe == "" {
		probe = "SELECT 1"
	}

	var one int
	if err := c.db.QueryRowContext(ctx, probe).Scan(&one); err != nil {
		return fmt.Errorf("probe query failed: %w", err)
	}
	return nil
}

// DB returns the underlying pool.
func (c *Client) DB() *sql.DB { return c.db }

// Kind returns the canonical client kind of the dialect in use.
func (c *Client) Kind() string { return c.dialect.Name }

// Dialect returns the dialect in use.
func (c *Client) Dialect() *Dialect { return c.dialect }

// Close closes the pool. Subsequent calls return the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.db.Close()
	})
	return c.closeErr
}

// WrapIdentifier runs a possibly dotted identifier through the identifier
// chain and quotes each part for the driver. "*" is left bare.
func (c *Client) WrapIdentifier(identifier string) string {
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		if part == "*" {
			continue
		}
		parts[i] = c.dialect.Quote(c.identifiers.Apply(part))
	}
	return strings.Join(parts, ".")
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return res, nil
}

// Query runs query and returns its rows with type casting and the response
// chain applied.
func (c *Client) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	fields := make([]Field, len(types))
	for i, ct := range types {
		fields[i] = Field{Name: ct.Name(), Type: ct.DatabaseTypeName()}
		if length, ok := ct.Length(); ok {
			fields[i].Length = length
		}
	}

	records := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(fields))
		valuePtrs := make([]any, len(fields))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		record := make(map[string]any, len(fields))
		for i, f := range fields {
			v := normalizeValue(f, values[i])
			if c.opts.TypeCast != nil {
				v = c.opts.TypeCast(f, v)
			}
			record[f.Name] = v
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return asRows(c.responses.Apply(records))
}

// Select reads columns from table where every key of where equals its value.
// Column names and where keys go through WrapIdentifier.
func (c *Client) Select(ctx context.Context, table string, columns []string, where map[string]any) ([]map[string]any, error) {
	cols := "*"
	if len(columns) > 0 {
		wrapped := make([]string, len(columns))
		for i, col := range columns {
			wrapped[i] = c.WrapIdentifier(col)
		}
		cols = strings.Join(wrapped, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, c.WrapIdentifier(table))

	keys := sortedKeys(where)
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, where[key])
		fmt.Fprintf(&sb, "%s = %s", c.WrapIdentifier(key), c.dialect.Placeholder(len(args)))
	}

	return c.Query(ctx, sb.String(), args...)
}

// Insert writes rows into table. The column list is the sorted union of the
// rows' keys; a row missing a column gets NULL when UseNullAsDefault is set and
// DEFAULT otherwise.
func (c *Client) Insert(ctx context.Context, table string, rows ...map[string]any) (sql.Result, error) {
	query, args, err := c.buildInsert(table, rows)
	if err != nil {
		return nil, err
	}
	return c.Exec(ctx, query, args...)
}

func (c *Client) buildInsert(table string, rows []map[string]any) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, errors.New("insert requires at least one row")
	}

	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}
	if len(columns) == 0 {
		return "", nil, errors.New("insert requires at least one column")
	}
	slices.Sort(columns)

	wrapped := make([]string, len(columns))
	for i, col := range columns {
		wrapped[i] = c.WrapIdentifier(col)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", c.WrapIdentifier(table), strings.Join(wrapped, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		values := make([]string, len(columns))
		for j, col := range columns {
			v, ok := row[col]
			switch {
			case ok:
				args = append(args, v)
				values[j] = c.dialect.Placeholder(len(args))
			case c.opts.UseNullAsDefault:
				values[j] = "NULL"
			case c.dialect.SupportsDefault:
				values[j] = "DEFAULT"
			default:
				return "", nil, ErrDefaultUnsupported
			}
		}
		sb.WriteString("(" + strings.Join(values, ", ") + ")")
	}

	return sb.String(), args, nil
}

// normalizeValue turns driver byte slices for textual columns into strings.
func normalizeValue(f Field, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	t := strings.ToUpper(f.Type)
	if strings.Contains(t, "BLOB") || strings.Contains(t, "BINARY") || t == "BYTEA" || t == "IMAGE" {
		return b
	}
	return string(b)
}

// asRows coerces the output of the response chain back to rows.
func asRows(result any) ([]map[string]any, error) {
	switch v := result.(type) {
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("response hook returned non-row element %T", item)
			}
			out = append(out, row)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("response hook returned %T, expected rows", result)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

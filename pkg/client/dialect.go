package client

import (
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4/database"
)

// Dialect is the per-client-kind strategy used to build and talk to a connection.
type Dialect struct {
	// Name is the canonical client kind, e.g. "pg" or "mysql".
	Name string
	// Aliases are alternative client kinds resolving to this dialect.
	Aliases []string
	// DriverName is the database/sql driver to open.
	DriverName string
	// ProbeQuery is the trivial query used to confirm a connection is live.
	ProbeQuery string
	// SupportsDefault reports whether DEFAULT may appear in an insert's VALUES list.
	SupportsDefault bool

	DSN         func(conn map[string]any) (string, error)
	Normalize   func(opts *Options) error
	Quote       func(identifier string) string
	Placeholder func(n int) string

	// MigrationDriver wraps an open database for golang-migrate. Nil disables
	// migrations for the dialect.
	MigrationDriver func(db *sql.DB, table string) (database.Driver, error)
}

// Prepare returns a copy of opts with the dialect's driver-specific defaults applied.
func (d *Dialect) Prepare(opts Options) (Options, error) {
	out := opts.clone()
	if d.Normalize != nil {
		if err := d.Normalize(&out); err != nil {
			return Options{}, fmt.Errorf("failed to normalize %s options: %w", d.Name, err)
		}
	}
	return out, nil
}

// DialectRegistry holds dialects indexed by client kind.
type DialectRegistry struct {
	dialects map[string]*Dialect
	mu       sync.RWMutex
}

// NewDialectRegistry creates an empty dialect registry.
func NewDialectRegistry() *DialectRegistry {
	return &DialectRegistry{
		dialects: make(map[string]*Dialect),
	}
}

// Register adds a dialect under its name and aliases.
// Panics if any of them is already registered.
func (r *DialectRegistry) Register(d *Dialect) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{d.Name}, d.Aliases...)
	for _, key := range keys {
		if _, exists := r.dialects[strings.ToLower(key)]; exists {
			panic(fmt.Sprintf("dialect already registered: %s", key))
		}
	}
	for _, key := range keys {
		r.dialects[strings.ToLower(key)] = d
	}
}

// Lookup returns the dialect for a client kind. Matching is case-insensitive.
func (r *DialectRegistry) Lookup(kind string) (*Dialect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dialects[strings.ToLower(strings.TrimSpace(kind))]
	return d, ok
}

// List returns the canonical names of all registered dialects, sorted.
func (r *DialectRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	names := make([]string, 0, len(r.dialects))
	for _, d := range r.dialects {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		names = append(names, d.Name)
	}
	slices.Sort(names)
	return names
}

// --- Default Global Registry ---

var defaultDialects = NewDialectRegistry()

// DefaultDialects returns the dialect registry holding the built-in dialects.
func DefaultDialects() *DialectRegistry {
	return defaultDialects
}

// Register adds a dialect to the default registry.
func Register(d *Dialect) {
	defaultDialects.Register(d)
}

// --- quoting and placeholder styles ---

func quoteDouble(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteBacktick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func quoteBracket(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

func placeholderDollar(n int) string { return "$" + strconv.Itoa(n) }
func placeholderQuestion(int) string { return "?" }
func placeholderAtP(n int) string    { return "@p" + strconv.Itoa(n) }

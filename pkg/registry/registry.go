// Package registry keeps named database connections for a host process.
//
// A Registry is created once by the host and passed to whatever needs a
// connection. Provision validates a Config, opens and probes a client, and
// publishes it under its name and aliases. The first connection published
// also becomes "default" unless that name is already registered.
package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nucleus/dbregistry/pkg/client"
)

// Logger is the structured logging sink used by the registry. *slog.Logger
// satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Lifecycle lets the registry defer work until the host is about to start.
type Lifecycle interface {
	OnBeforeStart(name string, fn func(ctx context.Context) error)
}

// Log categories attached to every registry log line.
const (
	CategoryInfo      = "db.info"
	CategoryError     = "db.error"
	CategoryMigration = "db.migration.info"
)

// Registry maps connection names to clients. Several names may share a client.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*client.Client
	reserved map[string]struct{}

	dialects  *client.DialectRegistry
	validate  *validator.Validate
	lifecycle Lifecycle
	logger    Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logging sink. The default discards everything.
func WithLogger(l Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLifecycle sets the hook used to schedule automatic migrations.
func WithLifecycle(l Lifecycle) Option {
	return func(r *Registry) {
		r.lifecycle = l
	}
}

// WithDialects replaces the built-in dialect table.
func WithDialects(d *client.DialectRegistry) Option {
	return func(r *Registry) {
		if d != nil {
			r.dialects = d
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		conns:    make(map[string]*client.Client),
		reserved: make(map[string]struct{}),
		dialects: client.DefaultDialects(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.validate = newValidator(r.dialects)
	return r
}

// Has reports whether a connection is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[name]
	return ok
}

// Get returns the connection registered under name.
func (r *Registry) Get(name string) (*client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return c, nil
}

// Set registers c under name, replacing any existing entry.
func (r *Registry) Set(name string, c *client.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[name] = c
}

// SetDefault points "default" at the connection registered under name.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[name]
	if !ok {
		return &NotFoundError{Name: name}
	}
	r.conns[DefaultName] = c
	return nil
}

// Names returns every registered name, aliases and "default" included, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close closes every distinct registered client once and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*client.Client)
	r.mu.Unlock()

	names := make([]string, 0, len(conns))
	for name := range conns {
		names = append(names, name)
	}
	slices.Sort(names)

	closed := make(map[*client.Client]struct{}, len(conns))
	var errs []error
	for _, name := range names {
		c := conns[name]
		if _, done := closed[c]; done || c == nil {
			continue
		}
		closed[c] = struct{}{}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reserve claims name for an in-flight provision.
func (r *Registry) reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[name]; ok {
		return &DuplicateNameError{Name: name}
	}
	if _, ok := r.reserved[name]; ok {
		return &DuplicateNameError{Name: name}
	}
	r.reserved[name] = struct{}{}
	return nil
}

func (r *Registry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, name)
}

// publish turns the reservation for name into a registration and adds the
// aliases and "default" entries that are not registered yet. A name reserved
// by another in-flight provision still counts as free; if that provision
// succeeds its own publish replaces the entry. It returns the aliases actually
// registered.
func (r *Registry) publish(name string, aliases []string, c *client.Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.reserved, name)
	r.conns[name] = c

	var added []string
	for _, alias := range aliases {
		if _, ok := r.conns[alias]; ok {
			continue
		}
		r.conns[alias] = c
		added = append(added, alias)
	}

	if _, ok := r.conns[DefaultName]; !ok {
		r.conns[DefaultName] = c
	}
	return added
}

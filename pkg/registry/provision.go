package registry

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nucleus/dbregistry/pkg/client"
	"github.com/nucleus/dbregistry/pkg/identmap"
)

// Provision validates cfg, opens and probes the connection, and registers it
// under cfg.Name and any free aliases.
//
// The name is reserved for the whole attempt, so concurrent provisions of one
// name yield a single success. On failure nothing is registered and the
// returned error matches ErrConfig, ErrDuplicateName or ErrConnection.
func (r *Registry) Provision(ctx context.Context, cfg Config) (*client.Client, error) {
	cfg = cfg.withDefaults()
	attempt := uuid.NewString()

	if err := r.validate.Struct(cfg); err != nil {
		return nil, &ConfigError{Name: cfg.Name, Message: validationMessage(err), Cause: err}
	}
	if cfg.Migrations.Auto && r.lifecycle == nil {
		return nil, &ConfigError{Name: cfg.Name, Message: "automatic migrations need a lifecycle to run in"}
	}

	if err := r.reserve(cfg.Name); err != nil {
		return nil, err
	}
	published := false
	defer func() {
		if !published {
			r.release(cfg.Name)
		}
	}()

	dialect, _ := r.dialects.Lookup(cfg.Client)

	opts := cfg.clientOptions()
	hooks, err := composeHooks(cfg)
	if err != nil {
		return nil, &ConfigError{Name: cfg.Name, Message: err.Error(), Cause: err}
	}
	opts.Hooks = hooks

	c, err := client.Open(dialect, opts)
	if err != nil {
		r.logger.Error("failed to open connection",
			"category", CategoryError, "connection", cfg.Name, "client", dialect.Name, "attempt", attempt, "error", err)
		return nil, &ConnectionError{Name: cfg.Name, Cause: err}
	}

	start := time.Now()
	if err := c.Ping(ctx); err != nil {
		r.logger.Error("connection probe failed",
			"category", CategoryError, "connection", cfg.Name, "client", dialect.Name, "attempt", attempt, "error", err)
		c.Close()
		return nil, &ConnectionError{Name: cfg.Name, Cause: err}
	}

	if cfg.Migrations.Auto {
		r.scheduleMigration(cfg.Name, attempt, c)
	}

	aliases := r.publish(cfg.Name, cfg.Alias, c)
	published = true

	r.logger.Info("connection registered",
		"category", CategoryInfo,
		"connection", cfg.Name,
		"client", dialect.Name,
		"aliases", aliases,
		"attempt", attempt,
		"probe_ms", time.Since(start).Milliseconds(),
	)
	return c, nil
}

// ProvisionAll provisions every config concurrently and returns the clients in
// input order. All attempts run to completion; the first error is returned and
// the connections that succeeded stay registered.
func (r *Registry) ProvisionAll(ctx context.Context, cfgs []Config) ([]*client.Client, error) {
	clients := make([]*client.Client, len(cfgs))

	var g errgroup.Group
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			c, err := r.Provision(ctx, cfg)
			if err != nil {
				return err
			}
			clients[i] = c
			return nil
		})
	}

	return clients, g.Wait()
}

// composeHooks builds the identifier and response chains for cfg. Custom hooks
// run before case mapping in both directions.
func composeHooks(cfg Config) (identmap.Hooks, error) {
	var mapper *identmap.Mapper
	if cfg.SnakeCaseMapping {
		m, err := identmap.NewSnakeCase(cfg.IdentifierSeparator, cfg.IdentifierCacheSize)
		if err != nil {
			return identmap.Hooks{}, err
		}
		mapper = m
	}
	return identmap.Compose(mapper, cfg.WrapIdentifier, cfg.PostProcessResponse), nil
}

func (r *Registry) scheduleMigration(name, attempt string, c *client.Client) {
	r.lifecycle.OnBeforeStart("migrate:"+name, func(ctx context.Context) error {
		start := time.Now()
		if err := c.Migrate(ctx); err != nil {
			r.logger.Error("migration failed",
				"category", CategoryError, "connection", name, "attempt", attempt, "error", err)
			return err
		}
		r.logger.Info("migrations applied",
			"category", CategoryMigration,
			"connection", name,
			"attempt", attempt,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fe.Namespace() + " failed on '" + fe.Tag() + "'"
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
	}
	return msg
}

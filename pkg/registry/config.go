package registry

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nucleus/dbregistry/pkg/client"
	"github.com/nucleus/dbregistry/pkg/identmap"
)

// DefaultName is the connection name used when a config leaves Name empty, and
// the name the first registered connection is published under.
const DefaultName = "default"

// Config describes one named connection to provision.
type Config struct {
	Name       string         `yaml:"name"`
	Alias      []string       `yaml:"alias" validate:"omitempty,dive,required"`
	Client     string         `yaml:"client" validate:"required,dialect"`
	Connection map[string]any `yaml:"connection"`

	Pool       client.Pool       `yaml:"pool"`
	Migrations client.Migrations `yaml:"migrations"`

	// AcquireConnectionTimeout bounds the connectivity probe, in milliseconds.
	AcquireConnectionTimeout int  `yaml:"acquireConnectionTimeout" validate:"gte=0"`
	UseNullAsDefault         bool `yaml:"useNullAsDefault"`
	// SnakeCaseMapping maps camelCase identifiers to snake_case columns and
	// result keys back again.
	SnakeCaseMapping bool `yaml:"snakeCaseMapping"`
	// IdentifierCacheSize bounds each case-mapping cache with an LRU. Zero
	// keeps the caches unbounded.
	IdentifierCacheSize int `yaml:"identifierCacheSize" validate:"gte=0"`
	// IdentifierSeparator splits compound identifiers before mapping.
	IdentifierSeparator string `yaml:"identifierSeparator"`

	WrapIdentifier      identmap.IdentifierStep `yaml:"-"`
	PostProcessResponse identmap.ResponseStep   `yaml:"-"`
	TypeCast            client.TypeCastFunc     `yaml:"-"`
}

// withDefaults returns cfg with empty fields filled in. The caller's
// Connection map is never shared with the returned config.
func (cfg Config) withDefaults() Config {
	out := cfg
	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		out.Name = DefaultName
	}
	out.Connection = make(map[string]any, len(cfg.Connection))
	for k, v := range cfg.Connection {
		out.Connection[k] = v
	}
	return out
}

// clientOptions converts the config to client options. Hooks are installed
// separately by the provisioning pipeline.
func (cfg Config) clientOptions() client.Options {
	return client.Options{
		Connection:               cfg.Connection,
		Pool:                     cfg.Pool,
		Migrations:               cfg.Migrations,
		AcquireConnectionTimeout: time.Duration(cfg.AcquireConnectionTimeout) * time.Millisecond,
		UseNullAsDefault:         cfg.UseNullAsDefault,
		TypeCast:                 cfg.TypeCast,
	}
}

// newValidator creates the config validator. The "dialect" tag accepts client
// kinds known to dialects.
func newValidator(dialects *client.DialectRegistry) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("dialect", func(fl validator.FieldLevel) bool {
		_, ok := dialects.Lookup(fl.Field().String())
		return ok
	})
	return v
}

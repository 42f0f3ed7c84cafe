package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nucleus/dbregistry/internal/config"
	"github.com/nucleus/dbregistry/internal/lifecycle"
	"github.com/nucleus/dbregistry/internal/logx"
	"github.com/nucleus/dbregistry/pkg/registry"
)

type globalFlags struct {
	configFile string
	defaultTo  string
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           "dbregistry",
		Short:         "Provision and monitor named database connections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "connections file (overrides DBREGISTRY_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.defaultTo, "default", "", "connection promoted to default (overrides DBREGISTRY_DEFAULT)")

	cmd.AddCommand(newServeCommand(&flags))
	cmd.AddCommand(newCheckCommand(&flags))
	cmd.AddCommand(newMigrateCommand(&flags))
	return cmd
}

// app is everything a command needs after bootstrap.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	hooks     *lifecycle.Hooks
	registry  *registry.Registry
	conns     []registry.Config
}

func bootstrap(flags *globalFlags) (*app, error) {
	cfg := config.Load()
	if flags.configFile != "" {
		cfg.ConnectionsFile = flags.configFile
	}
	if flags.defaultTo != "" {
		cfg.DefaultConnection = flags.defaultTo
	}

	logger, closer, err := logx.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	conns, err := config.LoadConnections(cfg.ConnectionsFile)
	if err != nil {
		closer.Close()
		return nil, err
	}

	hooks := &lifecycle.Hooks{}
	return &app{
		cfg:       cfg,
		logger:    logger,
		logCloser: closer,
		hooks:     hooks,
		registry:  registry.New(registry.WithLogger(logger), registry.WithLifecycle(hooks)),
		conns:     conns,
	}, nil
}

// provision registers every configured connection and applies the default
// override. Connections that succeeded stay registered on error.
func (rt *app) provision(ctx context.Context) error {
	if _, err := rt.registry.ProvisionAll(ctx, rt.conns); err != nil {
		return fmt.Errorf("failed to provision connections: %w", err)
	}
	if rt.cfg.DefaultConnection != "" {
		if err := rt.registry.SetDefault(rt.cfg.DefaultConnection); err != nil {
			return fmt.Errorf("failed to set default connection: %w", err)
		}
	}
	return nil
}

func (rt *app) Close() error {
	err := rt.registry.Close()
	rt.logCloser.Close()
	return err
}

package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nucleus/dbregistry/internal/health"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Provision connections, run migrations and serve gRPC health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.provision(ctx); err != nil {
				return err
			}
			if err := rt.hooks.RunBeforeStart(ctx); err != nil {
				return err
			}

			checker := health.NewChecker(rt.registry, rt.logger)
			checker.Sync(ctx)
			if rt.cfg.HealthIntervalSecs > 0 {
				go checker.Watch(ctx, time.Duration(rt.cfg.HealthIntervalSecs)*time.Second)
			}

			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", rt.cfg.GRPCPort))
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			s := grpc.NewServer()
			healthpb.RegisterHealthServer(s, checker.Server())
			// Enable reflection for debugging with grpcurl
			reflection.Register(s)

			go func() {
				<-ctx.Done()
				rt.logger.Info("shutting down", "category", "db.info")
				s.GracefulStop()
			}()

			rt.logger.Info("dbregistry listening",
				"category", "db.info", "port", rt.cfg.GRPCPort, "connections", rt.registry.Names())
			if err := s.Serve(lis); err != nil {
				return fmt.Errorf("failed to serve: %w", err)
			}
			return nil
		},
	}
}

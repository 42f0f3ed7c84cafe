// Package health mirrors the connection registry into a gRPC health service.
// Every registered name is a service; the empty service name reports whether
// all of them are reachable.
package health

import (
	"context"
	"io"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nucleus/dbregistry/pkg/client"
)

// Source is the read side of a connection registry.
type Source interface {
	Names() []string
	Get(name string) (*client.Client, error)
}

// Checker probes registered connections and publishes their status.
type Checker struct {
	source Source
	server *health.Server
	logger *slog.Logger
}

// NewChecker creates a checker. The overall status starts as NOT_SERVING until
// the first Sync.
func NewChecker(source Source, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &Checker{source: source, server: srv, logger: logger}
}

// Server returns the gRPC health server to register.
func (c *Checker) Server() *health.Server {
	return c.server
}

// Sync probes every distinct connection once and updates the status of each
// name pointing at it. It reports whether all connections are reachable.
func (c *Checker) Sync(ctx context.Context) bool {
	results := make(map[*client.Client]bool)
	healthy := true

	for _, name := range c.source.Names() {
		conn, err := c.source.Get(name)
		if err != nil {
			continue
		}

		ok, probed := results[conn]
		if !probed {
			if err := conn.Ping(ctx); err != nil {
				c.logger.Error("connection probe failed", "category", "db.error", "connection", name, "error", err)
				ok = false
			} else {
				ok = true
			}
			results[conn] = ok
		}

		status := healthpb.HealthCheckResponse_SERVING
		if !ok {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			healthy = false
		}
		c.server.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", overall)
	return healthy
}

// Watch calls Sync every interval until ctx is done, then marks every service
// NOT_SERVING.
func (c *Checker) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Sync(ctx)
		}
	}
}

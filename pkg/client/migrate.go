package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsTable = "schema_migrations"

// ErrMigrationsUnsupported is returned by Migrate for dialects without a
// golang-migrate driver.
var ErrMigrationsUnsupported = errors.New("dialect does not support migrations")

// Migrate applies every pending up migration from the configured directory.
//
// golang-migrate drivers close the database they wrap, so migrations run on a
// dedicated pool opened with the same connection string. Canceling ctx stops
// after the migration in progress.
func (c *Client) Migrate(ctx context.Context) error {
	if c.opts.Migrations.Directory == "" {
		return errors.New("migrations directory is not configured")
	}
	if c.dialect.MigrationDriver == nil {
		return fmt.Errorf("%w: %s", ErrMigrationsUnsupported, c.dialect.Name)
	}

	dir, err := filepath.Abs(c.opts.Migrations.Directory)
	if err != nil {
		return fmt.Errorf("failed to resolve migrations directory: %w", err)
	}

	table := c.opts.Migrations.TableName
	if table == "" {
		table = defaultMigrationsTable
	}

	db, err := sql.Open(c.dialect.DriverName, c.dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := c.dialect.MigrationDriver(db, table)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(dir), c.dialect.Name, driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	return upWithCancel(ctx, m.GracefulStop, m.Up)
}

// upWithCancel runs up and asks it to stop through stop when ctx is canceled.
// The context error is reported only when the stop request was consumed, that
// is when up actually returned early; a cancel that lands after up finished
// leaves the result untouched.
func upWithCancel(ctx context.Context, stop chan bool, up func() error) error {
	done := make(chan struct{})
	sent := make(chan bool, 1)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-done:
				sent <- false
			case stop <- true:
				sent <- true
			}
		case <-done:
			sent <- false
		}
	}()

	err := up()
	close(done)

	interrupted := <-sent
	if interrupted {
		// An unread request means up returned without seeing it.
		select {
		case <-stop:
			interrupted = false
		default:
		}
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	if interrupted {
		return ctx.Err()
	}
	return nil
}

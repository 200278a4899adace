package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Dir is where the goose SQL migrations live, relative to the repo root.
const Dir = "pkg/migrate/migrations"

func setDialect() error {
	// Shopwalk runs on Postgres; sqlite is only used by the test suites,
	// which create their schemas directly.
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Exec runs one of the plain goose commands (up, down, status) against conn.
func Exec(ctx context.Context, conn *sql.DB, dir, command string) error {
	if conn == nil {
		return fmt.Errorf("migrate: nil database connection")
	}
	if dir == "" {
		dir = Dir
	}
	if err := setDialect(); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, conn, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// ExecTo moves the schema to an exact version, in whichever direction the
// current version requires. A no-op when the database is already there.
func ExecTo(ctx context.Context, conn *sql.DB, dir string, version int64) error {
	if conn == nil {
		return fmt.Errorf("migrate: nil database connection")
	}
	if dir == "" {
		dir = Dir
	}
	if err := setDialect(); err != nil {
		return err
	}

	current, err := goose.GetDBVersion(conn)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	switch {
	case current == version:
		return nil
	case current < version:
		if err := goose.UpToContext(ctx, conn, dir, version); err != nil {
			return fmt.Errorf("goose up-to %d: %w", version, err)
		}
	default:
		if err := goose.DownToContext(ctx, conn, dir, version); err != nil {
			return fmt.Errorf("goose down-to %d: %w", version, err)
		}
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/db"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/migrate"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: migrate [-dir path] <command>

commands:
  up             apply all pending migrations
  down           roll back the most recent migration
  status         print migration status
  to <version>   migrate up or down to an exact version
  new <name>     scaffold an empty timestamped migration
  lint           check migration filenames and goose markers`)
	os.Exit(2)
}

func main() {
	dir := flag.String("dir", migrate.Dir, "migrations directory")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	if err := run(context.Background(), *dir, args); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string, args []string) error {
	// new and lint work on files only; they skip config and the database.
	switch args[0] {
	case "new":
		if len(args) < 2 {
			return fmt.Errorf("new requires a migration name")
		}
		path, err := migrate.Scaffold(dir, args[1])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "lint":
		if err := migrate.Lint(dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	conn, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	switch args[0] {
	case "up", "down", "status":
		return migrate.Exec(ctx, conn, dir, args[0])
	case "to":
		if len(args) < 2 {
			return fmt.Errorf("to requires a target version")
		}
		version, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: expected YYYYMMDDHHMMSS", args[1])
		}
		return migrate.ExecTo(ctx, conn, dir, version)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

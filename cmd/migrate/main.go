package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"briefing/internal/config"
	"briefing/internal/storage"
	"briefing/migrations"
)

const usage = `Usage: migrate [-db path] <command>

The database defaults to DATABASE_PATH, read the same way as by briefing.

Commands:
  up          Migrate to the latest version
  up-one      Migrate one version up
  down        Roll back one version
  status      Show migration status
  version     Show current version
  reset       Roll back all migrations
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "migrate:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }
	dbPath := flags.String("db", cfg.DatabasePath, "path to sqlite database")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errors.New("expected exactly one command")
	}

	explicit := false
	flags.Visit(func(f *flag.Flag) { explicit = explicit || f.Name == "db" })
	if !explicit && cfg.StateBackend != storage.BackendSQLite {
		return fmt.Errorf("STATE_BACKEND is %q, not %q; pass -db to migrate anyway", cfg.StateBackend, storage.BackendSQLite)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}

	cmd := flags.Arg(0)
	switch cmd {
	case "up":
		results, err := provider.Up(ctx)
		printResults(out, results...)
		if err == nil && len(results) == 0 {
			fmt.Fprintln(out, "no migrations to apply")
		}
		return commandErr(cmd, err)
	case "up-one":
		result, err := provider.UpByOne(ctx)
		printResults(out, result)
		return commandErr(cmd, err)
	case "down":
		result, err := provider.Down(ctx)
		printResults(out, result)
		return commandErr(cmd, err)
	case "reset":
		results, err := provider.DownTo(ctx, 0)
		printResults(out, results...)
		return commandErr(cmd, err)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return commandErr(cmd, err)
		}
		for _, s := range statuses {
			applied := "-"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(out, "%-8s %-20s %s\n", s.State, applied, filepath.Base(s.Source.Path))
		}
		return nil
	case "version":
		v, err := provider.GetDBVersion(ctx)
		if err != nil {
			return commandErr(cmd, err)
		}
		fmt.Fprintln(out, v)
		return nil
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printResults(out io.Writer, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Fprintf(out, "%-4s %s (%s)\n", r.Direction, filepath.Base(r.Source.Path), r.Duration.Round(time.Millisecond))
	}
}

func commandErr(cmd string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/target/mmk-jobqueue/config"
	"github.com/target/mmk-jobqueue/internal/bootstrap"
	"github.com/target/mmk-jobqueue/internal/migrate"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 30 * time.Second
)

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations for the configured driver",
			run:         runMigrations,
		},
		"list": {
			name:        "list",
			description: "List the most recently updated queue items",
			run:         runList,
		},
		"show": {
			name:        "show",
			description: "Print one queue item as JSON",
			run:         runShow,
		},
		"delete": {
			name:        "delete",
			description: "Delete one queue item",
			run:         runDelete,
		},
		"enqueue-invitation": {
			name:        "enqueue-invitation",
			description: "Start the invitation chain for a membership",
			run:         runEnqueueInvitation,
		},
		"schedule-recurring": {
			name:        "schedule-recurring",
			description: "Seed the recurring maintenance jobs if they are not already pending",
			run:         runScheduleRecurring,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: mmk-jobqueue-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands()[name]
		if err := writef(w, "  %-24s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
	DryRun  bool
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)
	fs.BoolVar(&opts.DryRun, "dry-run", false, "List pending migrations without applying them")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}

	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	dbCfg := cmdCtx.Config.DB
	dbCfg.RunMigrationsOnStart = !opts.DryRun

	if opts.DryRun {
		return listPendingMigrations(ctx, cmdCtx, dbCfg)
	}

	cmdCtx.Logger.Info("running database migrations", "driver", dbCfg.Driver)

	store, err := bootstrap.OpenStore(ctx, bootstrap.DatabaseConfig{
		DBConfig: dbCfg,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if closeErr := store.Close(); closeErr != nil {
		cmdCtx.Logger.Warn("store close failed", "error", closeErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func listPendingMigrations(ctx context.Context, cmdCtx *commandContext, dbCfg config.DBConfig) error {
	store, err := bootstrap.OpenStore(ctx, bootstrap.DatabaseConfig{
		DBConfig: dbCfg,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("store close failed", "error", closeErr)
		}
	}()

	pending, err := migrate.Pending(ctx, store.DB, migrate.Dialect(store.Driver))
	if err != nil {
		return fmt.Errorf("list pending migrations: %w", err)
	}
	if len(pending) == 0 {
		return writeln(cmdCtx.Out, "Schema is up to date.")
	}
	for _, m := range pending {
		if err := writef(cmdCtx.Out, "pending %s\n", m.Version); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}

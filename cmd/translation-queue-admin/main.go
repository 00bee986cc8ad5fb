package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/target/translation-queue/config"
	"github.com/target/translation-queue/internal/bootstrap"
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
	defaultCommandTimeout   = 2 * time.Minute
)

func main() {
	logger := bootstrap.InitLogger(false)

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
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"enqueue": {
			name:        "enqueue",
			description: "Queue one field of an entity for translation",
			run:         runEnqueue,
		},
		"mark-outdated": {
			name:        "mark-outdated",
			description: "Mark every job of an entity as outdated",
			run:         runMarkOutdated,
		},
		"run-once": {
			name:        "run-once",
			description: "Execute a single processor run (optionally as a dry run)",
			run:         runProcessorOnce,
		},
		"stats": {
			name:        "stats",
			description: "Print job counts per state",
			run:         runStats,
		},
		"retry-failed": {
			name:        "retry-failed",
			description: "Requeue failed jobs below the retry ceiling",
			run:         runRetryFailed,
		},
		"resync-outdated": {
			name:        "resync-outdated",
			description: "Return outdated jobs to pending",
			run:         runResyncOutdated,
		},
		"cleanup": {
			name:        "cleanup",
			description: "Delete old terminal jobs",
			run:         runCleanup,
		},
		"lock-status": {
			name:        "lock-status",
			description: "Report whether a processor run holds the run lock",
			run:         runLockStatus,
		},
		"force-unlock": {
			name:        "force-unlock",
			description: "Clear a stuck run lock regardless of owner",
			run:         runForceUnlock,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: translation-queue-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	all := commands()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := writef(w, "  %-18s %s\n", name, all[name].description); err != nil {
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
	_, err := fmt.Fprintln(w, args...)
	return err
}

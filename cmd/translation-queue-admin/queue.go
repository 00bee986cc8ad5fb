package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/translation-queue/internal/bootstrap"
	"github.com/target/translation-queue/internal/domain/model"
)

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Timeout <= 0 {
		return opts, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func parseEnqueueFlags(args []string) (model.EnqueueRequest, error) {
	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		req        model.EnqueueRequest
		objectType string
	)
	fs.StringVar(&objectType, "type", "", "object type (post, term, menu, comment, widget, string)")
	fs.StringVar(&req.ObjectID, "id", "", "object identifier")
	fs.StringVar(&req.Field, "field", "", "field reference, e.g. post_content or meta:_yoast_wpseo_title")
	fs.StringVar(&req.HashSource, "hash", "", "hash of the current source value")
	if err := fs.Parse(args); err != nil {
		return req, err
	}
	req.ObjectType = model.ObjectType(objectType)
	req.Normalize()
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func runEnqueue(cmdCtx *commandContext, args []string) error {
	req, err := parseEnqueueFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		runner, err := rt.processor(cmdCtx)
		if err != nil {
			return err
		}
		job, err := runner.Queue().Enqueue(ctx, req)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "job %s %s (%s/%s %s)\n", job.ID, job.State, job.ObjectType, job.ObjectID, job.Field)
	})
}

type entityOptions struct {
	ObjectType model.ObjectType
	ObjectID   string
}

func parseEntityFlags(name string, args []string) (entityOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var objectType, objectID string
	fs.StringVar(&objectType, "type", "", "object type")
	fs.StringVar(&objectID, "id", "", "object identifier")
	if err := fs.Parse(args); err != nil {
		return entityOptions{}, err
	}
	req := model.EnqueueRequest{ObjectType: model.ObjectType(objectType), ObjectID: objectID}
	req.Normalize()
	if !req.ObjectType.Valid() {
		return entityOptions{}, fmt.Errorf("unsupported object type %q", objectType)
	}
	if req.ObjectID == "" {
		return entityOptions{}, errors.New("--id is required")
	}
	return entityOptions{ObjectType: req.ObjectType, ObjectID: req.ObjectID}, nil
}

func runMarkOutdated(cmdCtx *commandContext, args []string) error {
	opts, err := parseEntityFlags("mark-outdated", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		runner, err := rt.processor(cmdCtx)
		if err != nil {
			return err
		}
		n, err := runner.Queue().MarkOutdated(ctx, opts.ObjectType, opts.ObjectID)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "marked %d job(s) outdated\n", n)
	})
}

type runOnceOptions struct {
	DryRun  bool
	Timeout time.Duration
}

func parseRunOnceFlags(args []string) (runOnceOptions, error) {
	fs := flag.NewFlagSet("run-once", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := runOnceOptions{}
	fs.BoolVar(&opts.DryRun, "dry-run", false, "store previews instead of writing translations")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "maximum time for the run")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Timeout <= 0 {
		return opts, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func runProcessorOnce(cmdCtx *commandContext, args []string) error {
	opts, err := parseRunOnceFlags(args)
	if err != nil {
		return err
	}
	if opts.DryRun {
		cmdCtx.Config.Translation.DryRun = true
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		runner, err := rt.processor(cmdCtx)
		if err != nil {
			return err
		}
		res, err := runner.RunOnce(ctx)
		if err != nil {
			return err
		}
		return printRunResult(cmdCtx.Out, res)
	})
}

func printRunResult(w io.Writer, res model.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode run result: %w", err)
	}
	return nil
}

type statsOptions struct {
	JSON bool
}

func parseStatsFlags(args []string) (statsOptions, error) {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := statsOptions{}
	fs.BoolVar(&opts.JSON, "json", false, "print counts as JSON")
	err := fs.Parse(args)
	return opts, err
}

func runStats(cmdCtx *commandContext, args []string) error {
	opts, err := parseStatsFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		runner, err := rt.processor(cmdCtx)
		if err != nil {
			return err
		}
		counts, err := runner.Queue().GetStateCounts(ctx)
		if err != nil {
			return err
		}
		if opts.JSON {
			return json.NewEncoder(cmdCtx.Out).Encode(counts)
		}
		return printStateCounts(cmdCtx.Out, counts)
	})
}

func printStateCounts(w io.Writer, counts model.StateCounts) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "STATE\tJOBS"); err != nil {
		return err
	}
	var total int64
	for _, st := range model.AllJobStates() {
		total += counts[st]
		if err := writef(tw, "%s\t%d\n", st, counts[st]); err != nil {
			return err
		}
	}
	if err := writef(tw, "total\t%d\n", total); err != nil {
		return err
	}
	return tw.Flush()
}

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"strings"

	"github.com/target/translation-queue/internal/domain/model"
)

func runRetryFailed(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		runner, err := rt.maintenance(cmdCtx)
		if err != nil {
			return err
		}
		n, err := runner.Service().RetryFailedJobs(ctx)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "requeued %d failed job(s)\n", n)
	})
}

func runResyncOutdated(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		runner, err := rt.maintenance(cmdCtx)
		if err != nil {
			return err
		}
		n, err := runner.Service().ResyncOutdatedJobs(ctx)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "resynced %d outdated job(s)\n", n)
	})
}

type cleanupOptions struct {
	States        []model.JobState
	RetentionDays int
}

func parseCleanupFlags(args []string, defaults cleanupOptions) (cleanupOptions, error) {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := defaults
	var states string
	defaultStates := make([]string, 0, len(defaults.States))
	for _, st := range defaults.States {
		defaultStates = append(defaultStates, string(st))
	}
	fs.StringVar(&states, "states", strings.Join(defaultStates, ","), "comma-separated job states to delete")
	fs.IntVar(&opts.RetentionDays, "retention-days", defaults.RetentionDays, "delete jobs not updated for this many days")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	parsed, err := model.ParseJobStates(states)
	if err != nil {
		return opts, err
	}
	opts.States = parsed
	if opts.RetentionDays < 1 {
		return opts, errors.New("--retention-days must be at least 1")
	}
	return opts, nil
}

func runCleanup(cmdCtx *commandContext, args []string) error {
	opts, err := parseCleanupFlags(args, cleanupOptions{
		States:        cmdCtx.Config.Maintenance.CleanupStates,
		RetentionDays: cmdCtx.Config.Maintenance.RetentionDays,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		runner, err := rt.maintenance(cmdCtx)
		if err != nil {
			return err
		}
		n, err := runner.Service().CleanupOldJobs(ctx, opts.States, opts.RetentionDays)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "deleted %d job(s)\n", n)
	})
}

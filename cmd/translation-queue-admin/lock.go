package main

import (
	"context"
	"errors"
	"flag"
	"io"
)

func runLockStatus(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		if rt.Redis == nil {
			return writeln(cmdCtx.Out, "redis disabled; the run lock is process-local")
		}
		runner, err := rt.processor(cmdCtx)
		if err != nil {
			return err
		}
		locked, err := runner.Lock().IsLocked(ctx)
		if err != nil {
			return err
		}
		if locked {
			return writeln(cmdCtx.Out, "locked")
		}
		return writeln(cmdCtx.Out, "unlocked")
	})
}

type forceUnlockOptions struct {
	Yes bool
}

func parseForceUnlockFlags(args []string) (forceUnlockOptions, error) {
	fs := flag.NewFlagSet("force-unlock", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := forceUnlockOptions{}
	fs.BoolVar(&opts.Yes, "yes", false, "confirm clearing the lock")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if !opts.Yes {
		return opts, errors.New("refusing to clear the run lock without --yes")
	}
	return opts, nil
}

func runForceUnlock(cmdCtx *commandContext, args []string) error {
	if _, err := parseForceUnlockFlags(args); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withRuntime(cmdCtx, func(rt *infra) error {
		if rt.Redis == nil {
			return errors.New("redis disabled; nothing to unlock")
		}
		runner, err := rt.processor(cmdCtx)
		if err != nil {
			return err
		}
		if err := runner.Lock().ForceRelease(ctx); err != nil {
			return err
		}
		cmdCtx.Logger.Warn("run lock force released")
		return writeln(cmdCtx.Out, "run lock cleared")
	})
}

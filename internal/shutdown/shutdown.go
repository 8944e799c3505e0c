// Package shutdown coordinates stopping a long-running serve loop.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Func releases one component within the deadline of ctx.
type Func func(ctx context.Context) error

// Sequence runs fns in order and joins their errors. Later steps still run
// when an earlier one fails.
func Sequence(fns ...Func) Func {
	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// RunWithGracefulShutdown starts runner and blocks until it returns, ctx is
// cancelled, or SIGINT/SIGTERM arrives. In the latter two cases the runner's
// context is cancelled and shutdown gets timeout to finish.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	shutdown Func,
) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return run(ctx, logger, timeout, sigChan, runner, shutdown)
}

func run(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	sigs <-chan os.Signal,
	runner func(ctx context.Context) error,
	shutdown Func,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	select {
	case sig := <-sigs:
		logger.Info("received signal, initiating shutdown", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, initiating shutdown")
	case err := <-runDone:
		return err
	}
	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if shutdown != nil {
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}

	select {
	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
	}

	logger.Info("shutdown complete")
	return nil
}

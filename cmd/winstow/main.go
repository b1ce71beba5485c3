package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/winstow/winstow/internal/adapters"
	"github.com/winstow/winstow/internal/cli"
	"github.com/winstow/winstow/internal/domain"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx := setupSignalHandler()

	rootCmd := NewRootCommand(version)
	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	if err != nil {
		var usage cli.ErrUsage
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", usage)
			_ = rootCmd.Usage()
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// setupSignalHandler cancels the returned context on the first SIGINT or
// SIGTERM, giving the executor's cooperative-cancellation check a chance
// to stop between actions. There is no rollback; work applied before the
// signal is left as-is.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx
}

// newLogger builds the console or JSON logger requested by the CLI flags.
// Winstow has no separate quiet mode: verbose raises the level to Debug,
// otherwise Info.
func newLogger(verboseFlag bool, verboseCount int, jsonOutput bool) domain.Logger {
	level := "info"
	if verboseFlag || verboseCount > 0 {
		level = "debug"
	}
	if jsonOutput {
		return adapters.NewJSONLogger(os.Stderr, level)
	}
	return adapters.NewConsoleLogger(os.Stderr, level)
}

// toAbs resolves p (which may be relative, or already absolute) against
// the current working directory, independent of domain.AbsolutePath's own
// validation, which then enforces reserved-name and escape rules.
func toAbs(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", p, err)
	}
	return abs, nil
}

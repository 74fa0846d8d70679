package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/supplymart/internal/app"
	"github.com/specialistvlad/supplymart/internal/cli"
	"github.com/specialistvlad/supplymart/internal/hcl_adapter"
	"github.com/specialistvlad/supplymart/internal/quality"
)

// main is the entrypoint for the supplymart application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// A missing .env file is fine; the environment may be set another way.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	martApp, err := app.NewApp(outW, appConfig, hcl_adapter.NewLoader())
	if err != nil {
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}
	return martApp.Run(ctx)
}

// exitCode maps a run error to the process exit code.
func exitCode(err error) int {
	var exitErr *cli.ExitError
	var violation *quality.QualityRuleViolation
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.As(err, &violation):
		return 3
	default:
		// Stage failures and anything unexpected.
		return 1
	}
}

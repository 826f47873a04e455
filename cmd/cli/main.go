package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/loopylangur/PsyNeuLink/internal/app"
	"github.com/loopylangur/PsyNeuLink/internal/cli"
	"github.com/loopylangur/PsyNeuLink/internal/hclconf"
	"github.com/loopylangur/PsyNeuLink/internal/runenv"

	"github.com/spf13/afero"
)

// main is the entrypoint for the pipeline runner.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, parseErr := cli.Parse(args, outW)
	if parseErr != nil {
		return parseErr
	}
	if shouldExit {
		return nil
	}

	// The ambient environment is captured exactly once; everything below
	// receives it as an explicit value.
	env := runenv.Capture(os.Environ())

	// The app panics on critical config errors, so we recover here to turn
	// them into a clean error for the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	loader := hclconf.NewLoader(afero.NewOsFs(), env)
	pipelineApp := app.NewApp(outW, appConfig, loader, env)

	return pipelineApp.Run(context.Background(), appConfig)
}

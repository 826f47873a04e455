// Package app wires the application together: logger, configuration loader,
// pipeline models, and the per-run execution plan.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/runenv"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string

	LogFormat   string
	LogLevel    string
	WorkerCount int
	StatusPort  int
	DryRun      bool
}

// NewConfig validates the raw configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	env       *runenv.Environment
	pipelines []*config.Pipeline

	httpServer *http.Server
	statusAddr string

	mu   sync.Mutex
	jobs []*job.Job
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its pipelines loaded and validated; a failure to load
// configuration is a fatal startup error and panics, recovered in main.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, env *runenv.Environment) *App {
	logger, err := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	if err != nil {
		panic(fmt.Errorf("failed to configure logging: %w", err))
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	pipelines, err := loader.Load(ctx, appConfig.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "pipelines", len(pipelines))

	return &App{
		outW:      outW,
		logger:    logger,
		env:       env,
		pipelines: pipelines,
	}
}

// Pipelines returns the loaded pipeline models. This is primarily for testing.
func (a *App) Pipelines() []*config.Pipeline {
	return a.pipelines
}

func (a *App) setJobs(jobs []*job.Job) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.jobs = append(a.jobs, jobs...)
}

func (a *App) snapshotJobs() []*job.Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*job.Job, len(a.jobs))
	copy(out, a.jobs)
	return out
}

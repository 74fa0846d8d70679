package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/supplymart/internal/config"
	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/pipeline"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/specialistvlad/supplymart/internal/warehouse"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	model     *config.Model
	pipeline  *pipeline.Pipeline
	warehouse *warehouse.Warehouse

	mu         sync.Mutex
	stage      string
	state      pipeline.State
	httpServer *http.Server
}

// NewApp loads the pipeline file and prepares a build. Flags in appConfig
// take precedence over the pipeline file.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(model, appConfig)
	logger.Debug("Configuration loaded and translated into unified model.",
		"raw_dir", model.RawDir,
		"sources", len(model.Sources),
		"calendar", model.Calendar.String(),
	)

	p, err := pipeline.New(pipeline.Settings{
		Sources:      model.ResolvedSources(),
		Calendar:     model.Calendar,
		Expectations: model.Expectations,
		RowCounts:    model.RowCounts,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	logger.Debug("Pipeline prepared.", "rules", len(p.Rules()))

	return &App{
		outW:      outW,
		logger:    logger,
		config:    appConfig,
		model:     model,
		pipeline:  p,
		warehouse: warehouse.New(),
	}, nil
}

func applyOverrides(m *config.Model, c *Config) {
	if c.RawDir != "" {
		m.RawDir = c.RawDir
	}
	if c.Workbook != "" {
		m.Export.Workbook = c.Workbook
	}
	if c.Report != "" {
		m.Export.Report = c.Report
	}
	if c.PublishDSN != "" {
		if m.Publish == nil {
			m.Publish = &config.Publish{}
		}
		m.Publish.DSN = c.PublishDSN
	}
}

// Model returns the loaded configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Warehouse returns the warehouse the app builds into.
func (a *App) Warehouse() *warehouse.Warehouse {
	return a.warehouse
}

// Report returns the verification report of the last run, if any.
func (a *App) Report() *quality.Report {
	return a.pipeline.Report()
}

// observe records the stage the build is in for the health endpoint.
func (a *App) observe(stage string, state pipeline.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stage, a.state = stage, state
}

func (a *App) currentStage() (string, pipeline.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stage, a.state
}

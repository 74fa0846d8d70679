package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/export"
	"github.com/specialistvlad/supplymart/internal/mart"
	"github.com/specialistvlad/supplymart/internal/publish"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/specialistvlad/supplymart/internal/warehouse"
)

// Run builds the mart, writes the configured exports and publishes the mart
// when the quality gate passes. A failed gate is returned as a
// *quality.QualityRuleViolation after the exports are written.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}

	a.logger.Info("Build started.", "stages", len(a.pipeline.Stages()), "rules", len(a.pipeline.Rules()))
	result, err := a.pipeline.Run(ctx, a.warehouse, a.observe)
	if err != nil {
		if result != nil {
			a.logger.Error("Build failed.", "failed", result.Failed, "skipped", result.Skipped, "error", err)
		}
		return err
	}

	report := a.pipeline.Report()
	a.logger.Info("Build finished.",
		"tables", len(a.warehouse.Tables(warehouse.Marts)),
		"passed", report.Passed,
		"rules", report.Rules,
		"failed", report.Failed,
	)

	m, err := a.loadMart(ctx)
	if err != nil {
		return err
	}
	if err := a.export(m, report); err != nil {
		return err
	}

	gateErr := report.Err()
	if a.model.Publish != nil && a.model.Publish.DSN != "" {
		if gateErr != nil {
			a.logger.Warn("Quality gate failed, mart not published.")
		} else if err := a.publish(ctx, m); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return gateErr
}

func (a *App) loadMart(ctx context.Context) (*mart.Mart, error) {
	h := a.warehouse.Acquire(ctx, "export")
	defer h.Release()
	return mart.Load(h)
}

func (a *App) export(m *mart.Mart, report *quality.Report) error {
	var errs []error
	if path := a.model.Export.Workbook; path != "" {
		if err := export.WriteWorkbook(path, m, report); err != nil {
			errs = append(errs, fmt.Errorf("writing workbook: %w", err))
		} else {
			a.logger.Info("Workbook written.", "path", path)
		}
	}
	if path := a.model.Export.Report; path != "" {
		if err := export.WriteReport(path, report); err != nil {
			errs = append(errs, fmt.Errorf("writing report: %w", err))
		} else {
			a.logger.Info("Quality report written.", "path", path)
		}
	}
	return errors.Join(errs...)
}

func (a *App) publish(ctx context.Context, m *mart.Mart) error {
	p, err := publish.Open(a.model.Publish.DSN, a.model.Publish.BatchSize)
	if err != nil {
		return err
	}
	defer p.Close()
	return p.Publish(ctx, m)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/supplymart/internal/calendar"
	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/ingest"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/specialistvlad/supplymart/internal/staging"
	"github.com/specialistvlad/supplymart/internal/warehouse"
)

// Stage names in run order.
const (
	StageLoadRaw      = "load_raw"
	StageStaging      = "staging"
	StageIntermediate = "intermediate"
	StageMarts        = "marts"
	StageVerify       = "verify"
)

// Intermediate table names.
const (
	IntCustomers    = "int_customers"
	IntProviders    = "int_providers"
	IntRawMaterials = "int_raw_materials"
	IntIngredients  = "int_ingredients"
	IntFlavoursSCD2 = "int_flavours_scd2"
	IntRecipes      = "int_recipes"
)

// Settings configure one pipeline.
type Settings struct {
	Sources  []ingest.Source
	Calendar calendar.Range
	// Expectations override the expected outcome of catalog rules by name.
	Expectations map[string]quality.Expectation
	// RowCounts add a row count rule per mart table.
	RowCounts map[string]quality.Expectation
}

// Pipeline builds the supply-chain mart.
type Pipeline struct {
	sources  []ingest.Source
	calendar calendar.Range
	rules    []quality.Rule
	report   *quality.Report
}

// New validates the settings and prepares the rule set.
func New(s Settings) (*Pipeline, error) {
	seen := make(map[string]bool, len(s.Sources))
	for _, src := range s.Sources {
		if !slices.Contains(staging.RawSources, src.Name) {
			return nil, fmt.Errorf("unknown raw source %q", src.Name)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("raw source %q declared twice", src.Name)
		}
		seen[src.Name] = true
	}

	if _, err := calendar.Build(s.Calendar); err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	rules, err := quality.ApplyOverrides(quality.Catalog(s.Calendar), s.Expectations)
	if err != nil {
		return nil, err
	}
	counts, err := quality.RowCountRules(s.RowCounts)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		sources:  slices.Clone(s.Sources),
		calendar: s.Calendar,
		rules:    append(rules, counts...),
	}, nil
}

// Stages returns the stages in run order.
func (p *Pipeline) Stages() []Stage {
	return []Stage{
		NewStage(StageLoadRaw, p.loadRaw),
		NewStage(StageStaging, p.stage),
		NewStage(StageIntermediate, p.intermediate),
		NewStage(StageMarts, p.marts),
		NewStage(StageVerify, p.verify),
	}
}

// Rules returns the rules the verify stage evaluates.
func (p *Pipeline) Rules() []quality.Rule {
	return p.rules
}

// Report returns the report of the last verify stage, or nil when it has not
// run.
func (p *Pipeline) Report() *quality.Report {
	return p.report
}

// Run builds the mart into wh. A failed quality gate is not a stage failure;
// check Report for it.
func (p *Pipeline) Run(ctx context.Context, wh *warehouse.Warehouse, observe func(string, State)) (*Result, error) {
	p.report = nil
	o, err := NewOrchestrator(wh, p.Stages()...)
	if err != nil {
		return nil, err
	}
	if observe != nil {
		o.Observe(observe)
	}
	return o.Run(ctx)
}

// loadRaw reads every declared source. A missing or undeclared source is
// skipped with a warning and leaves an empty raw table behind.
func (p *Pipeline) loadRaw(ctx context.Context, h *warehouse.Handle) error {
	logger := ctxlog.FromContext(ctx)

	declared := make(map[string]bool, len(p.sources))
	for _, src := range p.sources {
		declared[src.Name] = true
	}
	for _, name := range staging.RawSources {
		if declared[name] {
			continue
		}
		logger.Warn("Raw source not declared, skipping.", "source", name)
		if err := warehouse.Replace(h, warehouse.Raw, name, []ingest.Record{}); err != nil {
			return err
		}
	}

	for _, src := range p.sources {
		records, err := ingest.Load(ctx, src)
		var missing *ingest.MissingInputError
		switch {
		case errors.As(err, &missing):
			logger.Warn("Raw source not found, skipping.", "source", missing.Source, "path", missing.Path)
			records = nil
		case err != nil:
			return err
		}
		if err := warehouse.Replace(h, warehouse.Raw, src.Name, records); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) verify(ctx context.Context, h *warehouse.Handle) error {
	m, err := loadMart(h)
	if err != nil {
		return err
	}
	p.report = quality.Verify(ctx, m, p.rules)
	return nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/supplymart/internal/calendar"
	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/facts"
	"github.com/specialistvlad/supplymart/internal/ingest"
	"github.com/specialistvlad/supplymart/internal/mart"
	"github.com/specialistvlad/supplymart/internal/resolve"
	"github.com/specialistvlad/supplymart/internal/scd2"
	"github.com/specialistvlad/supplymart/internal/staging"
	"github.com/specialistvlad/supplymart/internal/warehouse"
)

// FlavourVersion is one row of the historized flavour dimension.
type FlavourVersion = scd2.Version[staging.Flavour, int64]

var flavourHistory = scd2.Spec[staging.Flavour, int64]{
	Key:     func(f staging.Flavour) int64 { return f.FlavourID },
	Batch:   func(f staging.Flavour) int { return f.BatchNumber },
	Date:    func(f staging.Flavour) time.Time { return f.GenerationDate },
	Changed: func(open, next staging.Flavour) bool { return open.Description != next.Description },
}

func versionOf(b staging.Batch) resolve.Version {
	return resolve.Version{Batch: b.BatchNumber, Generated: b.GenerationDate}
}

// stage cleans every raw table into its staging table.
func (p *Pipeline) stage(_ context.Context, h *warehouse.Handle) error {
	steps := []func() error{
		func() error { return stageTable(h, staging.RawCustomers, staging.Customers, staging.StageCustomers) },
		func() error { return stageTable(h, staging.RawProviders, staging.Providers, staging.StageProviders) },
		func() error {
			return stageTable(h, staging.RawRawMaterials, staging.RawMaterials, staging.StageRawMaterials)
		},
		func() error {
			return stageTable(h, staging.RawIngredients, staging.Ingredients, staging.StageIngredients)
		},
		func() error { return stageTable(h, staging.RawFlavours, staging.Flavours, staging.StageFlavours) },
		func() error { return stageTable(h, staging.RawRecipes, staging.Recipes, staging.StageRecipes) },
		func() error {
			return stageTable(h, staging.RawSalesTransactions, staging.SalesTransactions, staging.StageSalesTransactions)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func stageTable[T any](h *warehouse.Handle, raw, name string, fn func([]ingest.Record) ([]T, error)) error {
	records, err := warehouse.Read[ingest.Record](h, warehouse.Raw, raw)
	if err != nil {
		return err
	}
	rows, err := fn(records)
	if err != nil {
		return err
	}
	return warehouse.Replace(h, warehouse.Staging, name, rows)
}

// intermediate resolves re-supplied entities, historizes flavours and keys
// recipes.
func (p *Pipeline) intermediate(ctx context.Context, h *warehouse.Handle) error {
	logger := ctxlog.FromContext(ctx)

	customers, err := warehouse.Read[staging.Customer](h, warehouse.Staging, staging.Customers)
	if err != nil {
		return err
	}
	providers, err := warehouse.Read[staging.Provider](h, warehouse.Staging, staging.Providers)
	if err != nil {
		return err
	}
	materials, err := warehouse.Read[staging.RawMaterial](h, warehouse.Staging, staging.RawMaterials)
	if err != nil {
		return err
	}
	ingredients, err := warehouse.Read[staging.Ingredient](h, warehouse.Staging, staging.Ingredients)
	if err != nil {
		return err
	}
	flavours, err := warehouse.Read[staging.Flavour](h, warehouse.Staging, staging.Flavours)
	if err != nil {
		return err
	}
	recipes, err := warehouse.Read[staging.Recipe](h, warehouse.Staging, staging.Recipes)
	if err != nil {
		return err
	}

	intCustomers := resolve.Latest(customers,
		func(c staging.Customer) int64 { return c.CustomerID },
		func(c staging.Customer) resolve.Version { return versionOf(c.Batch) })
	intProviders := resolve.Latest(providers,
		func(r staging.Provider) int64 { return r.ProviderID },
		func(r staging.Provider) resolve.Version { return versionOf(r.Batch) })
	intMaterials := resolve.Latest(materials,
		func(r staging.RawMaterial) int64 { return r.RawMaterialID },
		func(r staging.RawMaterial) resolve.Version { return versionOf(r.Batch) })
	intIngredients := resolve.Latest(ingredients,
		func(r staging.Ingredient) int64 { return r.IngredientID },
		func(r staging.Ingredient) resolve.Version { return versionOf(r.Batch) })

	logger.Info("Resolved latest versions.",
		"customers_superseded", resolve.Superseded(customers, intCustomers),
		"providers_superseded", resolve.Superseded(providers, intProviders),
		"raw_materials_superseded", resolve.Superseded(materials, intMaterials),
		"ingredients_superseded", resolve.Superseded(ingredients, intIngredients),
	)

	history, err := scd2.Historize(flavours, flavourHistory)
	if err != nil {
		return fmt.Errorf("historize flavours: %w", err)
	}
	if err := scd2.Validate(history); err != nil {
		return fmt.Errorf("flavour timeline: %w", err)
	}
	stats := scd2.Summarise(history)
	logger.Info("Flavour history built.",
		"flavours", stats.Keys,
		"changed_descriptions", stats.Changed,
		"versions", stats.Versions,
	)

	var errs []error
	errs = append(errs,
		warehouse.Replace(h, warehouse.Intermediate, IntCustomers, intCustomers),
		warehouse.Replace(h, warehouse.Intermediate, IntProviders, intProviders),
		warehouse.Replace(h, warehouse.Intermediate, IntRawMaterials, intMaterials),
		warehouse.Replace(h, warehouse.Intermediate, IntIngredients, intIngredients),
		warehouse.Replace(h, warehouse.Intermediate, IntFlavoursSCD2, history),
		warehouse.Replace(h, warehouse.Intermediate, IntRecipes, facts.KeyRecipes(recipes)),
	)
	return errors.Join(errs...)
}

// marts builds every dimension and fact table.
func (p *Pipeline) marts(ctx context.Context, h *warehouse.Handle) error {
	customers, err := warehouse.Read[staging.Customer](h, warehouse.Intermediate, IntCustomers)
	if err != nil {
		return err
	}
	providers, err := warehouse.Read[staging.Provider](h, warehouse.Intermediate, IntProviders)
	if err != nil {
		return err
	}
	materials, err := warehouse.Read[staging.RawMaterial](h, warehouse.Intermediate, IntRawMaterials)
	if err != nil {
		return err
	}
	ingredients, err := warehouse.Read[staging.Ingredient](h, warehouse.Intermediate, IntIngredients)
	if err != nil {
		return err
	}
	history, err := warehouse.Read[FlavourVersion](h, warehouse.Intermediate, IntFlavoursSCD2)
	if err != nil {
		return err
	}
	recipes, err := warehouse.Read[facts.Recipe](h, warehouse.Intermediate, IntRecipes)
	if err != nil {
		return err
	}
	sales, err := warehouse.Read[staging.SalesTransaction](h, warehouse.Staging, staging.SalesTransactions)
	if err != nil {
		return err
	}
	dates, err := calendar.Build(p.calendar)
	if err != nil {
		return err
	}

	m := &mart.Mart{
		Customers:    mart.Customers(customers),
		Providers:    mart.Providers(providers),
		RawMaterials: mart.RawMaterials(materials),
		Ingredients:  facts.Ingredients(ingredients),
		Flavours:     mart.Flavours(history),
		Recipes:      facts.Recipes(recipes),
		Dates:        dates,
		Sales:        facts.SalesTransactions(sales),
		Inventory:    facts.ProviderInventory(ingredients, providers),
		Compositions: facts.RecipeComposition(recipes),
	}
	ctxlog.FromContext(ctx).Debug("Mart assembled.", "tables", len(m.Tables()))
	return m.Store(h)
}

func loadMart(h *warehouse.Handle) (*mart.Mart, error) {
	m, err := mart.Load(h)
	if err != nil {
		return nil, fmt.Errorf("loading mart: %w", err)
	}
	return m, nil
}

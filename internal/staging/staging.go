package staging

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/specialistvlad/supplymart/internal/ingest"
)

// Raw source names.
const (
	RawCustomers         = "customers"
	RawProviders         = "providers"
	RawRawMaterials      = "raw_materials"
	RawIngredients       = "ingredients"
	RawFlavours          = "flavours"
	RawRecipes           = "recipes"
	RawSalesTransactions = "sales_transactions"
)

// Staging table names.
const (
	Customers         = "stg_customers"
	Providers         = "stg_providers"
	RawMaterials      = "stg_raw_materials"
	Ingredients       = "stg_ingredients"
	Flavours          = "stg_flavours"
	Recipes           = "stg_recipes"
	SalesTransactions = "stg_sales_transactions"
)

// RawSources lists every raw source in load order.
var RawSources = []string{
	RawCustomers,
	RawProviders,
	RawRawMaterials,
	RawIngredients,
	RawFlavours,
	RawRecipes,
	RawSalesTransactions,
}

// Batch stamps every staged row with its re-supply sequence.
type Batch struct {
	GenerationDate time.Time
	BatchNumber    int
}

type Customer struct {
	CustomerID int64
	Name       string
	City       string
	Country    string
	Batch
}

type Provider struct {
	ProviderID int64
	Name       string
	City       string
	Country    string
	Batch
}

type RawMaterial struct {
	RawMaterialID int64
	Name          string
	Batch
}

type Ingredient struct {
	IngredientID    int64
	Name            string
	ChemicalFormula string
	WeightInGrams   decimal.Decimal
	CostPerGram     decimal.Decimal
	ProviderID      int64
	Batch
}

type Flavour struct {
	FlavourID   int64
	Name        string
	Description string
	Batch
}

// Recipe is one recipe line. Recipe ids are opaque strings.
type Recipe struct {
	RecipeID         string
	RawMaterialID    int64
	RawMaterialRatio decimal.Decimal
	FlavourID        int64
	FlavourRatio     decimal.Decimal
	IngredientID     int64
	IngredientRatio  decimal.Decimal
	HeatProcess      *string
	YieldPercentage  decimal.Decimal
	Batch
}

type SalesTransaction struct {
	TransactionID   int64
	CustomerID      int64
	FlavourID       int64
	QuantityLiters  int64
	TransactionDate time.Time
	Country         string
	Town            string
	PostalCode      string
	AmountDollars   decimal.Decimal
	Batch
}

func (r *row) batchInfo() Batch {
	return Batch{
		GenerationDate: r.date("generation_date"),
		BatchNumber:    r.batch("batch_number"),
	}
}

func StageCustomers(records []ingest.Record) ([]Customer, error) {
	return parseAll(Customers, records, func(r *row) Customer {
		return Customer{
			CustomerID: r.integer("customer_id"),
			Name:       r.text("name"),
			City:       r.text("location_city"),
			Country:    r.text("location_country"),
			Batch:      r.batchInfo(),
		}
	})
}

func StageProviders(records []ingest.Record) ([]Provider, error) {
	return parseAll(Providers, records, func(r *row) Provider {
		return Provider{
			ProviderID: r.integer("provider_id"),
			Name:       r.text("name"),
			City:       r.text("location_city"),
			Country:    r.text("location_country"),
			Batch:      r.batchInfo(),
		}
	})
}

func StageRawMaterials(records []ingest.Record) ([]RawMaterial, error) {
	return parseAll(RawMaterials, records, func(r *row) RawMaterial {
		return RawMaterial{
			RawMaterialID: r.integer("raw_material_id"),
			Name:          r.text("name"),
			Batch:         r.batchInfo(),
		}
	})
}

func StageIngredients(records []ingest.Record) ([]Ingredient, error) {
	return parseAll(Ingredients, records, func(r *row) Ingredient {
		return Ingredient{
			IngredientID:    r.integer("ingredient_id"),
			Name:            r.text("name"),
			ChemicalFormula: r.text("chemical_formula"),
			WeightInGrams:   r.decimal("weight_in_grams"),
			CostPerGram:     r.decimal("cost_per_gram"),
			ProviderID:      r.integer("provider_id"),
			Batch:           r.batchInfo(),
		}
	})
}

func StageFlavours(records []ingest.Record) ([]Flavour, error) {
	return parseAll(Flavours, records, func(r *row) Flavour {
		return Flavour{
			FlavourID:   r.integer("flavour_id"),
			Name:        r.text("name"),
			Description: r.text("description"),
			Batch:       r.batchInfo(),
		}
	})
}

// StageRecipes renames yield to YieldPercentage and nulls a blank heat
// process.
func StageRecipes(records []ingest.Record) ([]Recipe, error) {
	return parseAll(Recipes, records, func(r *row) Recipe {
		return Recipe{
			RecipeID:         r.required("recipe_id"),
			RawMaterialID:    r.integer("raw_material_id"),
			RawMaterialRatio: r.decimal("raw_material_ratio"),
			FlavourID:        r.integer("flavour_id"),
			FlavourRatio:     r.decimal("flavour_ratio"),
			IngredientID:     r.integer("ingredient_id"),
			IngredientRatio:  r.decimal("ingredient_ratio"),
			HeatProcess:      r.nullable("heat_process"),
			YieldPercentage:  r.decimal("yield"),
			Batch:            r.batchInfo(),
		}
	})
}

// StageSalesTransactions upper-cases the country and renames amount_dollar
// to AmountDollars.
func StageSalesTransactions(records []ingest.Record) ([]SalesTransaction, error) {
	return parseAll(SalesTransactions, records, func(r *row) SalesTransaction {
		return SalesTransaction{
			TransactionID:   r.integer("transaction_id"),
			CustomerID:      r.integer("customer_id"),
			FlavourID:       r.integer("flavour_id"),
			QuantityLiters:  r.integer("quantity_liters"),
			TransactionDate: r.date("transaction_date"),
			Country:         strings.ToUpper(r.text("transaction_country")),
			Town:            r.text("transaction_town"),
			PostalCode:      r.text("postal_code"),
			AmountDollars:   r.decimal("amount_dollar"),
			Batch:           r.batchInfo(),
		}
	})
}

// Package facts composes fact rows and the derived measures of the mart.
//
// Every function here is a projection: one output row per input row, in
// input order, no deduplication and no aggregation across rows. Derived
// values use decimal arithmetic with fixed rounding so a rerun produces the
// same digits. A division by zero yields null, never an error.
package facts

import (
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/specialistvlad/supplymart/internal/calendar"
	"github.com/specialistvlad/supplymart/internal/mart"
	"github.com/specialistvlad/supplymart/internal/staging"
	"github.com/specialistvlad/supplymart/internal/surrogate"
)

const (
	// ValuePlaces is the precision of monetary values.
	ValuePlaces = 2
	// SharePlaces is the precision of recipe component shares.
	SharePlaces = 4
)

// Recipe is a staged recipe line keyed by recipe id and batch.
type Recipe struct {
	RecipeKey string
	staging.Recipe
	TotalRatio decimal.Decimal
}

// RecipeKey derives the key of one recipe line.
func RecipeKey(recipeID string, batch int) string {
	return surrogate.Key(recipeID, strconv.Itoa(batch))
}

// KeyRecipes derives the recipe key and the total of the three component
// ratios.
func KeyRecipes(in []staging.Recipe) []Recipe {
	out := make([]Recipe, len(in))
	for i, r := range in {
		out[i] = Recipe{
			RecipeKey:  RecipeKey(r.RecipeID, r.BatchNumber),
			Recipe:     r,
			TotalRatio: r.RawMaterialRatio.Add(r.FlavourRatio).Add(r.IngredientRatio),
		}
	}
	return out
}

// Value is weight times unit cost rounded to cents.
func Value(weight, costPerUnit decimal.Decimal) decimal.Decimal {
	return weight.Mul(costPerUnit).Round(ValuePlaces)
}

// Share is part / total rounded to SharePlaces, or null when total is zero.
func Share(part, total decimal.Decimal) decimal.NullDecimal {
	if total.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: part.DivRound(total, SharePlaces), Valid: true}
}

func Recipes(in []Recipe) []mart.Recipe {
	out := make([]mart.Recipe, len(in))
	for i, r := range in {
		out[i] = mart.Recipe{
			RecipeKey:       r.RecipeKey,
			RecipeID:        r.RecipeID,
			HeatProcess:     r.HeatProcess,
			YieldPercentage: r.YieldPercentage,
			BatchNumber:     r.BatchNumber,
		}
	}
	return out
}

func Ingredients(in []staging.Ingredient) []mart.Ingredient {
	out := make([]mart.Ingredient, len(in))
	for i, g := range in {
		out[i] = mart.Ingredient{
			IngredientID:         g.IngredientID,
			IngredientName:       g.Name,
			ChemicalFormula:      g.ChemicalFormula,
			WeightInGrams:        g.WeightInGrams,
			CostPerGram:          g.CostPerGram,
			TotalIngredientValue: Value(g.WeightInGrams, g.CostPerGram),
			ProviderID:           g.ProviderID,
		}
	}
	return out
}

// SalesTransactions adds the calendar attributes of the transaction date.
func SalesTransactions(in []staging.SalesTransaction) []mart.SalesTransaction {
	out := make([]mart.SalesTransaction, len(in))
	for i, s := range in {
		out[i] = mart.SalesTransaction{
			TransactionID:          s.TransactionID,
			CustomerID:             s.CustomerID,
			FlavourID:              s.FlavourID,
			QuantityLiters:         s.QuantityLiters,
			TransactionDate:        s.TransactionDate,
			TransactionCountry:     s.Country,
			TransactionTown:        s.Town,
			PostalCode:             s.PostalCode,
			AmountDollars:          s.AmountDollars,
			TransactionYear:        s.TransactionDate.Year(),
			TransactionQuarter:     calendar.Quarter(s.TransactionDate),
			TransactionYearQuarter: calendar.YearQuarter(s.TransactionDate),
		}
	}
	return out
}

// ProviderInventory pairs each ingredient with its resolved provider. An
// ingredient whose provider is unknown is kept with empty provider columns.
func ProviderInventory(ingredients []staging.Ingredient, providers []staging.Provider) []mart.ProviderInventory {
	byID := make(map[int64]staging.Provider, len(providers))
	for _, p := range providers {
		byID[p.ProviderID] = p
	}

	out := make([]mart.ProviderInventory, len(ingredients))
	for i, g := range ingredients {
		row := mart.ProviderInventory{
			IngredientID:         g.IngredientID,
			IngredientName:       g.Name,
			ChemicalFormula:      g.ChemicalFormula,
			WeightInGrams:        g.WeightInGrams,
			CostPerGram:          g.CostPerGram,
			TotalIngredientValue: Value(g.WeightInGrams, g.CostPerGram),
		}
		if p, ok := byID[g.ProviderID]; ok {
			row.ProviderID = &p.ProviderID
			row.ProviderName = &p.Name
			row.ProviderCity = &p.City
			row.ProviderCountry = &p.Country
		}
		out[i] = row
	}
	return out
}

// RecipeComposition adds each component's share of the total ratio.
func RecipeComposition(in []Recipe) []mart.RecipeComposition {
	out := make([]mart.RecipeComposition, len(in))
	for i, r := range in {
		out[i] = mart.RecipeComposition{
			RecipeKey:        r.RecipeKey,
			RecipeID:         r.RecipeID,
			RawMaterialID:    r.RawMaterialID,
			RawMaterialRatio: r.RawMaterialRatio,
			FlavourID:        r.FlavourID,
			FlavourRatio:     r.FlavourRatio,
			IngredientID:     r.IngredientID,
			IngredientRatio:  r.IngredientRatio,
			TotalRatio:       r.TotalRatio,
			RawMaterialPct:   Share(r.RawMaterialRatio, r.TotalRatio),
			FlavourPct:       Share(r.FlavourRatio, r.TotalRatio),
			IngredientPct:    Share(r.IngredientRatio, r.TotalRatio),
			HeatProcess:      r.HeatProcess,
			YieldPercentage:  r.YieldPercentage,
			BatchNumber:      r.BatchNumber,
		}
	}
	return out
}

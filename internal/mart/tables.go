package mart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mart table names.
const (
	DimCustomers         = "dim_customers"
	DimProviders         = "dim_providers"
	DimRawMaterials      = "dim_raw_materials"
	DimIngredients       = "dim_ingredients"
	DimFlavours          = "dim_flavours"
	DimRecipes           = "dim_recipes"
	DimDate              = "dim_date"
	FctSalesTransactions = "fct_sales_transactions"
	FctProviderInventory = "fct_provider_inventory"
	FctRecipeComposition = "fct_recipe_composition"
)

// TableNames lists every mart table in build order.
var TableNames = []string{
	DimCustomers,
	DimProviders,
	DimRawMaterials,
	DimIngredients,
	DimFlavours,
	DimRecipes,
	DimDate,
	FctSalesTransactions,
	FctProviderInventory,
	FctRecipeComposition,
}

type Customer struct {
	CustomerID      int64  `json:"customer_id" gorm:"primaryKey;autoIncrement:false"`
	CustomerName    string `json:"customer_name"`
	CustomerCity    string `json:"customer_city"`
	CustomerCountry string `json:"customer_country"`
}

type Provider struct {
	ProviderID      int64  `json:"provider_id" gorm:"primaryKey;autoIncrement:false"`
	ProviderName    string `json:"provider_name"`
	ProviderCity    string `json:"provider_city"`
	ProviderCountry string `json:"provider_country"`
}

type RawMaterial struct {
	RawMaterialID   int64  `json:"raw_material_id" gorm:"primaryKey;autoIncrement:false"`
	RawMaterialName string `json:"raw_material_name"`
}

type Ingredient struct {
	IngredientID         int64           `json:"ingredient_id" gorm:"primaryKey;autoIncrement:false"`
	IngredientName       string          `json:"ingredient_name"`
	ChemicalFormula      string          `json:"chemical_formula"`
	WeightInGrams        decimal.Decimal `json:"weight_in_grams" gorm:"type:decimal(65,30)"`
	CostPerGram          decimal.Decimal `json:"cost_per_gram" gorm:"type:decimal(65,30)"`
	TotalIngredientValue decimal.Decimal `json:"total_ingredient_value" gorm:"type:decimal(18,2)"`
	ProviderID           int64           `json:"provider_id"`
}

// Flavour is one version of a historized flavour.
type Flavour struct {
	FlavourScdKey      string     `json:"flavour_scd_key" gorm:"primaryKey;size:36"`
	FlavourID          int64      `json:"flavour_id" gorm:"index"`
	FlavourName        string     `json:"flavour_name"`
	FlavourDescription string     `json:"flavour_description"`
	ValidFrom          time.Time  `json:"valid_from" gorm:"type:date"`
	ValidTo            *time.Time `json:"valid_to" gorm:"type:date"`
	IsCurrent          bool       `json:"is_current"`
}

type Recipe struct {
	RecipeKey       string          `json:"recipe_key" gorm:"primaryKey;size:36"`
	RecipeID        string          `json:"recipe_id"`
	HeatProcess     *string         `json:"heat_process"`
	YieldPercentage decimal.Decimal `json:"yield_percentage" gorm:"type:decimal(65,30)"`
	BatchNumber     int             `json:"batch_number"`
}

// Date is one day of the calendar dimension. DayOfWeek counts from Sunday = 0.
type Date struct {
	DateKey     time.Time `json:"date_key" gorm:"primaryKey;type:date"`
	Year        int       `json:"year"`
	Quarter     int       `json:"quarter"`
	Month       int       `json:"month"`
	DayOfMonth  int       `json:"day_of_month"`
	DayOfWeek   int       `json:"day_of_week"`
	MonthName   string    `json:"month_name"`
	DayName     string    `json:"day_name"`
	YearQuarter string    `json:"year_quarter"`
}

type SalesTransaction struct {
	TransactionID          int64           `json:"transaction_id" gorm:"primaryKey;autoIncrement:false"`
	CustomerID             int64           `json:"customer_id" gorm:"index"`
	FlavourID              int64           `json:"flavour_id" gorm:"index"`
	QuantityLiters         int64           `json:"quantity_liters"`
	TransactionDate        time.Time       `json:"transaction_date" gorm:"type:date"`
	TransactionCountry     string          `json:"transaction_country"`
	TransactionTown        string          `json:"transaction_town"`
	PostalCode             string          `json:"postal_code"`
	AmountDollars          decimal.Decimal `json:"amount_dollars" gorm:"type:decimal(65,30)"`
	TransactionYear        int             `json:"transaction_year"`
	TransactionQuarter     int             `json:"transaction_quarter"`
	TransactionYearQuarter string          `json:"transaction_year_quarter"`
}

// ProviderInventory is an ingredient with its provider, if the provider is
// known. Provider columns are nil for an orphaned ingredient.
type ProviderInventory struct {
	IngredientID         int64           `json:"ingredient_id" gorm:"primaryKey;autoIncrement:false"`
	IngredientName       string          `json:"ingredient_name"`
	ChemicalFormula      string          `json:"chemical_formula"`
	WeightInGrams        decimal.Decimal `json:"weight_in_grams" gorm:"type:decimal(65,30)"`
	CostPerGram          decimal.Decimal `json:"cost_per_gram" gorm:"type:decimal(65,30)"`
	TotalIngredientValue decimal.Decimal `json:"total_ingredient_value" gorm:"type:decimal(18,2)"`
	ProviderID           *int64          `json:"provider_id"`
	ProviderName         *string         `json:"provider_name"`
	ProviderCity         *string         `json:"provider_city"`
	ProviderCountry      *string         `json:"provider_country"`
}

// RecipeComposition is one recipe line with each component's share of the
// total ratio. Shares are null when the total ratio is zero.
type RecipeComposition struct {
	RecipeKey        string              `json:"recipe_key" gorm:"primaryKey;size:36"`
	RecipeID         string              `json:"recipe_id"`
	RawMaterialID    int64               `json:"raw_material_id"`
	RawMaterialRatio decimal.Decimal     `json:"raw_material_ratio" gorm:"type:decimal(65,30)"`
	FlavourID        int64               `json:"flavour_id"`
	FlavourRatio     decimal.Decimal     `json:"flavour_ratio" gorm:"type:decimal(65,30)"`
	IngredientID     int64               `json:"ingredient_id"`
	IngredientRatio  decimal.Decimal     `json:"ingredient_ratio" gorm:"type:decimal(65,30)"`
	TotalRatio       decimal.Decimal     `json:"total_ratio" gorm:"type:decimal(65,30)"`
	RawMaterialPct   decimal.NullDecimal `json:"raw_material_pct" gorm:"type:decimal(9,4)"`
	FlavourPct       decimal.NullDecimal `json:"flavour_pct" gorm:"type:decimal(9,4)"`
	IngredientPct    decimal.NullDecimal `json:"ingredient_pct" gorm:"type:decimal(9,4)"`
	HeatProcess      *string             `json:"heat_process"`
	YieldPercentage  decimal.Decimal     `json:"yield_percentage" gorm:"type:decimal(65,30)"`
	BatchNumber      int                 `json:"batch_number"`
}

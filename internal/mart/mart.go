package mart

import (
	"github.com/specialistvlad/supplymart/internal/scd2"
	"github.com/specialistvlad/supplymart/internal/staging"
	"github.com/specialistvlad/supplymart/internal/warehouse"
)

// Mart holds one complete build of every mart table.
type Mart struct {
	Customers    []Customer
	Providers    []Provider
	RawMaterials []RawMaterial
	Ingredients  []Ingredient
	Flavours     []Flavour
	Recipes      []Recipe
	Dates        []Date
	Sales        []SalesTransaction
	Inventory    []ProviderInventory
	Compositions []RecipeComposition
}

// Table is a named view of one mart table. Rows is a slice of a row type
// from this package.
type Table struct {
	Name string
	Rows any
	Len  int
}

// Tables returns every table in build order.
func (m *Mart) Tables() []Table {
	return []Table{
		{DimCustomers, m.Customers, len(m.Customers)},
		{DimProviders, m.Providers, len(m.Providers)},
		{DimRawMaterials, m.RawMaterials, len(m.RawMaterials)},
		{DimIngredients, m.Ingredients, len(m.Ingredients)},
		{DimFlavours, m.Flavours, len(m.Flavours)},
		{DimRecipes, m.Recipes, len(m.Recipes)},
		{DimDate, m.Dates, len(m.Dates)},
		{FctSalesTransactions, m.Sales, len(m.Sales)},
		{FctProviderInventory, m.Inventory, len(m.Inventory)},
		{FctRecipeComposition, m.Compositions, len(m.Compositions)},
	}
}

// RowCount returns the number of rows of a table, or false for an unknown
// table.
func (m *Mart) RowCount(name string) (int, bool) {
	for _, t := range m.Tables() {
		if t.Name == name {
			return t.Len, true
		}
	}
	return 0, false
}

// Store buffers every table into the marts partition of h.
func (m *Mart) Store(h *warehouse.Handle) error {
	var err error
	store(h, DimCustomers, m.Customers, &err)
	store(h, DimProviders, m.Providers, &err)
	store(h, DimRawMaterials, m.RawMaterials, &err)
	store(h, DimIngredients, m.Ingredients, &err)
	store(h, DimFlavours, m.Flavours, &err)
	store(h, DimRecipes, m.Recipes, &err)
	store(h, DimDate, m.Dates, &err)
	store(h, FctSalesTransactions, m.Sales, &err)
	store(h, FctProviderInventory, m.Inventory, &err)
	store(h, FctRecipeComposition, m.Compositions, &err)
	return err
}

// Load reads a complete build from the marts partition.
func Load(h *warehouse.Handle) (*Mart, error) {
	m := &Mart{}
	var err error
	load(h, DimCustomers, &m.Customers, &err)
	load(h, DimProviders, &m.Providers, &err)
	load(h, DimRawMaterials, &m.RawMaterials, &err)
	load(h, DimIngredients, &m.Ingredients, &err)
	load(h, DimFlavours, &m.Flavours, &err)
	load(h, DimRecipes, &m.Recipes, &err)
	load(h, DimDate, &m.Dates, &err)
	load(h, FctSalesTransactions, &m.Sales, &err)
	load(h, FctProviderInventory, &m.Inventory, &err)
	load(h, FctRecipeComposition, &m.Compositions, &err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func store[T any](h *warehouse.Handle, name string, rows []T, err *error) {
	if *err == nil {
		*err = warehouse.Replace(h, warehouse.Marts, name, rows)
	}
}

func load[T any](h *warehouse.Handle, name string, dst *[]T, err *error) {
	if *err == nil {
		*dst, *err = warehouse.Read[T](h, warehouse.Marts, name)
	}
}

func Customers(in []staging.Customer) []Customer {
	out := make([]Customer, len(in))
	for i, c := range in {
		out[i] = Customer{
			CustomerID:      c.CustomerID,
			CustomerName:    c.Name,
			CustomerCity:    c.City,
			CustomerCountry: c.Country,
		}
	}
	return out
}

func Providers(in []staging.Provider) []Provider {
	out := make([]Provider, len(in))
	for i, p := range in {
		out[i] = Provider{
			ProviderID:      p.ProviderID,
			ProviderName:    p.Name,
			ProviderCity:    p.City,
			ProviderCountry: p.Country,
		}
	}
	return out
}

func RawMaterials(in []staging.RawMaterial) []RawMaterial {
	out := make([]RawMaterial, len(in))
	for i, r := range in {
		out[i] = RawMaterial{RawMaterialID: r.RawMaterialID, RawMaterialName: r.Name}
	}
	return out
}

// Flavours projects the historized flavour timeline.
func Flavours(in []scd2.Version[staging.Flavour, int64]) []Flavour {
	out := make([]Flavour, len(in))
	for i, v := range in {
		out[i] = Flavour{
			FlavourScdKey:      v.SurrogateKey,
			FlavourID:          v.Key,
			FlavourName:        v.Row.Name,
			FlavourDescription: v.Row.Description,
			ValidFrom:          v.ValidFrom,
			ValidTo:            v.ValidTo,
			IsCurrent:          v.IsCurrent,
		}
	}
	return out
}

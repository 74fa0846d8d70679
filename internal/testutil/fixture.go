package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/supplymart/internal/ingest"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/specialistvlad/supplymart/internal/staging"
	"github.com/stretchr/testify/require"
)

// The reference data set is small but carries every shape the pipeline has
// to handle:
//   - customer 1 is re-supplied in batch 2 and must resolve to "Acme Corp"
//   - provider 11 is re-supplied within batch 1; the later date wins
//   - ingredient 202 references provider 99, which does not exist
//   - ingredient dates use three different layouts
//   - flavour 1 changes description in batch 2, flavour 2 does not,
//     flavour 3 only appears in batch 1 and flavour 4 only in batch 2
//   - recipe R2 has a blank heat process, R3 references ingredient 5,
//     which does not exist, and R1 is re-supplied in batch 2
//   - sale 1001 has a zero quantity and a zero amount
var referenceRawFiles = map[string]string{
	staging.RawCustomers + ".csv": `customer_id,name,location_city,location_country,generation_date,batch_number
1,Acme,Paris,France,2024-01-01,1
2, Globex ,Berlin,Germany,2024-01-01,1
1,Acme Corp,Lyon,France,2024-03-01,2
3,Initech,Austin,USA,2024-03-01,2
`,
	staging.RawProviders + ".csv": `provider_id,name,location_city,location_country,generation_date,batch_number
10,Chem Co,Basel,Switzerland,2024-01-01,1
11,Aroma Ltd,Grasse,France,2024-01-01,1
11,Aroma SA,Grasse,France,2024-01-15,1
`,
	staging.RawRawMaterials + ".csv": `raw_material_id,name,generation_date,batch_number
100,Sugar,2024-01-01,1
101,Citric Acid,2024-01-01,1
`,
	staging.RawIngredients + ".csv": `ingredient_id,name,chemical_formula,weight_in_grams,cost_per_gram,provider_id,generation_date,batch_number
200,Citral,C10H16O,150,0.25,10,01/10/2024,1
201,Vanillin,C8H8O3,80.5,1.333,11,1/10/24,1
202,Proline,C5H9NO2,20,0.5,99,10-Jan-24,1
`,
	staging.RawFlavours + ".csv": `flavour_id,name,description,generation_date,batch_number
1,Lemon,Fresh lemon,2024-01-01,1
2,Mint,Cool mint,2024-01-01,1
3,Vanilla,Sweet vanilla,2024-01-01,1
1,Lemon,Zesty lemon peel,2024-06-01,2
2,Mint,Cool mint,2024-06-01,2
4,Cherry,Dark cherry,2024-06-01,2
`,
	staging.RawRecipes + ".csv": `recipe_id,raw_material_id,raw_material_ratio,flavour_id,flavour_ratio,ingredient_id,ingredient_ratio,heat_process,yield,generation_date,batch_number
R1,100,0.5,1,0.3,200,0.2,Baked,90,2024-01-01,1
R2,101,0.6,2,0.25,201,0.15, ,85.5,2024-01-01,1
R3,100,0.4,3,0.4,5,0.2,Boiled,70,2024-01-01,1
R1,100,0.55,1,0.25,200,0.2,Baked,92,2024-06-01,2
`,
	staging.RawSalesTransactions + ".csv": `transaction_id,customer_id,flavour_id,quantity_liters,transaction_date,transaction_country,transaction_town,postal_code,amount_dollar,generation_date,batch_number
1000,1,1,10,2024-02-15,fr,Paris,75001,120.50,2024-02-16,1
1001,2,2,0,03/20/2024,de,Berlin,10115,0,2024-03-21,1
1002,3,4,5,7-Aug-24,us ,Austin,73301,60.00,2024-08-08,1
`,
}

// referenceConfig points at raw/ next to the config file and pins the known
// defects of the reference data set.
const referenceConfig = `
warehouse {
  raw_dir = "raw"
}

source "customers" {
  file = "customers.csv"
}
source "providers" {
  file = "providers.csv"
}
source "raw_materials" {
  file = "raw_materials.csv"
}
source "ingredients" {
  file = "ingredients.csv"
}
source "flavours" {
  file = "flavours.csv"
}
source "recipes" {
  file = "recipes.csv"
}
source "sales_transactions" {
  file = "sales_transactions.csv"
}

calendar {
  start = "2024-01-01"
  end   = "2024-12-31"
}

expect "fk_ingredient_provider" {
  exact = 1
}
expect "fk_recipe_ingredient" {
  min = 1
  max = 10
}
expect "sales_zero_amount" {
  exact = 1
}
expect "sales_zero_quantity" {
  exact = 1
}

row_count "dim_customers" {
  exact = 3
}
row_count "dim_flavours" {
  exact = 4
}
`

// ReferenceRawFiles returns the raw CSV sources keyed by file name.
func ReferenceRawFiles() map[string]string {
	out := make(map[string]string, len(referenceRawFiles))
	for k, v := range referenceRawFiles {
		out[k] = v
	}
	return out
}

// ReferenceConfig returns the HCL pipeline file for the reference data set.
func ReferenceConfig() string {
	return referenceConfig
}

// ReferenceExpectations mirrors the expect blocks of ReferenceConfig.
func ReferenceExpectations() map[string]quality.Expectation {
	return map[string]quality.Expectation{
		"fk_ingredient_provider": quality.Exact(1),
		"fk_recipe_ingredient":   quality.Between(1, 10),
		"sales_zero_amount":      quality.Exact(1),
		"sales_zero_quantity":    quality.Exact(1),
	}
}

// ReferenceSources lists every raw source of the reference data set in dir.
func ReferenceSources(dir string) []ingest.Source {
	sources := make([]ingest.Source, 0, len(staging.RawSources))
	for _, name := range staging.RawSources {
		sources = append(sources, ingest.Source{
			Name:   name,
			Path:   filepath.Join(dir, name+".csv"),
			Format: ingest.FormatCSV,
		})
	}
	return sources
}

// WriteFiles writes files relative to dir, creating directories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// WriteReferenceRaw writes the raw sources into a fresh directory and
// returns it.
func WriteReferenceRaw(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, ReferenceRawFiles())
	return dir
}

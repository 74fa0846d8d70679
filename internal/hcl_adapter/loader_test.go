package hcl_adapter_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/supplymart/internal/config"
	"github.com/specialistvlad/supplymart/internal/hcl_adapter"
	"github.com/specialistvlad/supplymart/internal/ingest"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/specialistvlad/supplymart/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, files map[string]string, paths ...string) (*config.Model, error) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)
	if len(paths) == 0 {
		paths = []string{dir}
	}
	for i, p := range paths {
		if !filepath.IsAbs(p) {
			paths[i] = filepath.Join(dir, p)
		}
	}
	return hcl_adapter.NewLoader().Load(context.Background(), paths...)
}

func TestLoader_ReferenceConfig(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"mart.hcl": testutil.ReferenceConfig()})

	// --- Act ---
	model, err := hcl_adapter.NewLoader().Load(context.Background(), filepath.Join(dir, "mart.hcl"))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "raw"), model.RawDir)
	assert.Equal(t, testutil.ReferenceSources(filepath.Join(dir, "raw")), model.ResolvedSources())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), model.Calendar.Start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), model.Calendar.End)
	assert.Equal(t, testutil.ReferenceExpectations(), model.Expectations)
	assert.Equal(t, map[string]quality.Expectation{
		"dim_customers": quality.Exact(3),
		"dim_flavours":  quality.Exact(4),
	}, model.RowCounts)
	assert.Nil(t, model.Publish)
}

func TestLoader_ShippedConfig(t *testing.T) {
	t.Setenv("SUPPLYMART_PUBLISH_DSN", "")

	model, err := hcl_adapter.NewLoader().Load(context.Background(), filepath.Join("..", "..", "configs", "mart.hcl"))

	require.NoError(t, err)
	assert.Len(t, model.Sources, 7)
	assert.Equal(t, config.DefaultCalendar, model.Calendar)
	assert.Equal(t, map[string]quality.Expectation{
		"fk_ingredient_provider": quality.Exact(2),
		"fk_recipe_ingredient":   quality.Between(1, 59999),
		"sales_zero_amount":      quality.Exact(22),
		"sales_zero_quantity":    quality.Exact(475),
	}, model.Expectations)
	require.NotNil(t, model.Publish)
	assert.Empty(t, model.Publish.DSN, "publishing stays off until the DSN is set")
	assert.Equal(t, 500, model.Publish.BatchSize)
}

func TestLoader_MergesFilesAndResolvesPaths(t *testing.T) {
	t.Setenv("MART_DSN", "mart:secret@tcp(db:3306)/mart")

	model, err := load(t, map[string]string{
		"conf/main.hcl": `
warehouse {
  raw_dir = "../data"
}
source "sales_transactions" {
  file = "sales.xlsx"
}
source "customers" {
  file   = "/srv/customers.dat"
  format = "csv"
}
export {
  workbook = "out/mart.xlsx"
  report   = "out/report.yaml"
}
`,
		"conf/checks/extra.hcl": `
expect "sales_zero_amount" {
  min = 1
}
row_count "fct_sales_transactions" {
  min = 1
  max = 10
}
publish {
  dsn        = env("MART_DSN")
  batch_size = 100
}
`,
	}, "conf")

	require.NoError(t, err)
	root := filepath.Dir(model.RawDir)
	assert.Equal(t, "data", filepath.Base(model.RawDir))
	assert.Equal(t, []ingest.Source{
		{Name: "sales_transactions", Path: filepath.Join(root, "data", "sales.xlsx"), Format: ingest.FormatXLSX},
		{Name: "customers", Path: "/srv/customers.dat", Format: ingest.FormatCSV},
	}, model.ResolvedSources())
	assert.Equal(t, filepath.Join(root, "conf", "out", "mart.xlsx"), model.Export.Workbook)
	assert.Equal(t, filepath.Join(root, "conf", "out", "report.yaml"), model.Export.Report)
	assert.Equal(t, config.DefaultCalendar, model.Calendar)
	assert.Equal(t, quality.Between(1, quality.Unbounded), model.Expectations["sales_zero_amount"])
	assert.Equal(t, quality.Between(1, 10), model.RowCounts["fct_sales_transactions"])
	require.NotNil(t, model.Publish)
	assert.Equal(t, "mart:secret@tcp(db:3306)/mart", model.Publish.DSN)
	assert.Equal(t, 100, model.Publish.BatchSize)
}

func TestLoader_Defaults(t *testing.T) {
	model, err := load(t, map[string]string{"empty.hcl": ""})

	require.NoError(t, err)
	assert.Equal(t, config.DefaultSources(), model.Sources)
	assert.Equal(t, config.DefaultCalendar, model.Calendar)
	assert.Empty(t, model.Expectations)
	assert.Equal(t, config.Export{}, model.Export)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"a.hcl": `source "customers" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			files:   map[string]string{"a.hcl": `pipeline {}`},
			wantErr: "failed to decode HCL file",
		},
		{
			name: "source declared twice",
			files: map[string]string{
				"a.hcl": `source "customers" { file = "a.csv" }`,
				"b.hcl": `source "customers" { file = "b.csv" }`,
			},
			wantErr: `source "customers" is declared in both`,
		},
		{
			name: "calendar in two files",
			files: map[string]string{
				"a.hcl": "calendar {\n start = \"2024-01-01\"\n end = \"2024-12-31\"\n}",
				"b.hcl": "calendar {\n start = \"2024-01-01\"\n end = \"2024-12-31\"\n}",
			},
			wantErr: "calendar block is declared in both",
		},
		{
			name:    "bad calendar date",
			files:   map[string]string{"a.hcl": "calendar {\n start = \"01/01/2024\"\n end = \"2024-12-31\"\n}"},
			wantErr: "calendar start",
		},
		{
			name:    "unknown format",
			files:   map[string]string{"a.hcl": "source \"customers\" {\n file = \"c.csv\"\n format = \"json\"\n}"},
			wantErr: `unknown format "json"`,
		},
		{
			name:    "exact with min",
			files:   map[string]string{"a.hcl": "expect \"sales_zero_amount\" {\n exact = 1\n min = 0\n}"},
			wantErr: "sets exact together with min or max",
		},
		{
			name:    "no bounds",
			files:   map[string]string{"a.hcl": `expect "sales_zero_amount" {}`},
			wantErr: "needs exact or min/max",
		},
		{
			name:    "fractional count",
			files:   map[string]string{"a.hcl": "row_count \"dim_customers\" {\n exact = 1.5\n}"},
			wantErr: "row_count",
		},
		{
			name:    "inverted bounds",
			files:   map[string]string{"a.hcl": "row_count \"dim_customers\" {\n min = 5\n max = 2\n}"},
			wantErr: "below minimum",
		},
		{
			name:    "no hcl files",
			files:   map[string]string{"notes.txt": "nothing"},
			wantErr: "no matching files found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.files)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

package publish

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/specialistvlad/supplymart/internal/mart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recorder captures every statement gorm would have sent.
type recorder struct {
	mu         sync.Mutex
	statements []string
}

func (r *recorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *recorder) Info(context.Context, string, ...interface{})     {}
func (r *recorder) Warn(context.Context, string, ...interface{})     {}
func (r *recorder) Error(context.Context, string, ...interface{})    {}

func (r *recorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, sql)
}

func (r *recorder) matching(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.statements {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func dryRun(t *testing.T) (*gorm.DB, *recorder) {
	t.Helper()
	rec := &recorder{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "mart:secret@tcp(127.0.0.1:3306)/mart?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestPublish(t *testing.T) {
	// --- Arrange ---
	db, rec := dryRun(t)
	p := New(db, 1)
	m := &mart.Mart{
		Customers: []mart.Customer{
			{CustomerID: 1, CustomerName: "Acme", CustomerCity: "Lyon", CustomerCountry: "France"},
			{CustomerID: 2, CustomerName: "Globex", CustomerCity: "Berlin", CustomerCountry: "Germany"},
		},
		Ingredients: []mart.Ingredient{
			{IngredientID: 200, IngredientName: "Citral", TotalIngredientValue: decimal.RequireFromString("37.50")},
		},
	}

	// --- Act ---
	err := p.Publish(context.Background(), m)

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, rec.matching("DROP TABLE IF EXISTS"), len(mart.TableNames))
	assert.Len(t, rec.matching("CREATE TABLE"), len(mart.TableNames))
	assert.Len(t, rec.matching("CREATE TABLE `dim_customers`"), 1)
	assert.Len(t, rec.matching("CREATE TABLE `fct_recipe_composition`"), 1)

	inserts := rec.matching("INSERT INTO `dim_customers`")
	assert.Len(t, inserts, 2, "a batch size of one inserts row by row")
	assert.Contains(t, inserts[0], "'Acme'")
	assert.Len(t, rec.matching("INSERT INTO `dim_ingredients`"), 1)
	assert.Empty(t, rec.matching("INSERT INTO `dim_flavours`"), "empty tables are created but not filled")
}

func TestPublish_KeepsMeasurePrecision(t *testing.T) {
	// --- Arrange ---
	db, rec := dryRun(t)
	ratio := decimal.RequireFromString("0.123456789012")
	m := &mart.Mart{
		Compositions: []mart.RecipeComposition{{
			RecipeKey:        "k1",
			RecipeID:         "R1",
			RawMaterialRatio: ratio,
			TotalRatio:       ratio,
			RawMaterialPct:   decimal.NewNullDecimal(decimal.RequireFromString("1")),
		}},
	}

	// --- Act ---
	err := New(db, 0).Publish(context.Background(), m)

	// --- Assert ---
	require.NoError(t, err)
	create := rec.matching("CREATE TABLE `fct_recipe_composition`")
	require.Len(t, create, 1)
	assert.Contains(t, create[0], "`raw_material_ratio` decimal(65,30)")
	assert.Contains(t, create[0], "`raw_material_pct` decimal(9,4)", "shares are rounded before insert")

	inserts := rec.matching("INSERT INTO `fct_recipe_composition`")
	require.Len(t, inserts, 1)
	assert.Contains(t, inserts[0], "0.123456789012")
}

func TestPublish_Cancelled(t *testing.T) {
	db, rec := dryRun(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(db, 0).Publish(ctx, &mart.Mart{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.matching("DROP TABLE"))
}

func TestNew_DefaultBatchSize(t *testing.T) {
	db, _ := dryRun(t)
	assert.Equal(t, DefaultBatchSize, New(db, 0).batchSize)
	assert.Equal(t, 25, New(db, 25).batchSize)
}

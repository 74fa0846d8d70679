package quality

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/specialistvlad/supplymart/internal/calendar"
	"github.com/specialistvlad/supplymart/internal/mart"
)

// Baselines of the known source defects in the reference data set.
const (
	BaselineOrphanIngredientProviders = 2
	BaselineZeroAmountSales           = 22
	BaselineZeroQuantitySales         = 475
	BaselineOrphanRecipeIngredientMax = 59999
)

var (
	ratioTotalMin = decimal.RequireFromString("0.99")
	ratioTotalMax = decimal.RequireFromString("1.01")
	one           = decimal.NewFromInt(1)
	hundred       = decimal.NewFromInt(100)
)

// Catalog returns the full rule set for a mart whose calendar spans cal.
func Catalog(cal calendar.Range) []Rule {
	rules := []Rule{
		primaryKey(mart.DimCustomers, "customer_id", func(m *mart.Mart) []mart.Customer { return m.Customers },
			func(r mart.Customer) string { return id(r.CustomerID) }),
		primaryKey(mart.DimProviders, "provider_id", func(m *mart.Mart) []mart.Provider { return m.Providers },
			func(r mart.Provider) string { return id(r.ProviderID) }),
		primaryKey(mart.DimRawMaterials, "raw_material_id", func(m *mart.Mart) []mart.RawMaterial { return m.RawMaterials },
			func(r mart.RawMaterial) string { return id(r.RawMaterialID) }),
		primaryKey(mart.DimIngredients, "ingredient_id", func(m *mart.Mart) []mart.Ingredient { return m.Ingredients },
			func(r mart.Ingredient) string { return id(r.IngredientID) }),
		primaryKey(mart.DimFlavours, "flavour_scd_key", func(m *mart.Mart) []mart.Flavour { return m.Flavours },
			func(r mart.Flavour) string { return r.FlavourScdKey }),
		primaryKey(mart.DimDate, "date_key", func(m *mart.Mart) []mart.Date { return m.Dates },
			func(r mart.Date) string { return day(r.DateKey) }),
		primaryKey(mart.DimRecipes, "recipe_key", func(m *mart.Mart) []mart.Recipe { return m.Recipes },
			func(r mart.Recipe) string { return r.RecipeKey }),
		primaryKey(mart.FctSalesTransactions, "transaction_id", func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) string { return id(r.TransactionID) }),
		primaryKey(mart.FctProviderInventory, "ingredient_id", func(m *mart.Mart) []mart.ProviderInventory { return m.Inventory },
			func(r mart.ProviderInventory) string { return id(r.IngredientID) }),
		primaryKey(mart.FctRecipeComposition, "recipe_key", func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) string { return r.RecipeKey }),

		foreignKey("fk_sales_customer", "sales reference a known customer", Hard, Zero(),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) string { return id(r.CustomerID) },
			func(m *mart.Mart) []mart.Customer { return m.Customers },
			func(r mart.Customer) (string, bool) { return id(r.CustomerID), true }),
		foreignKey("fk_sales_flavour", "sales reference a current flavour", Hard, Zero(),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) string { return id(r.FlavourID) },
			func(m *mart.Mart) []mart.Flavour { return m.Flavours },
			currentFlavour),
		foreignKey("fk_sales_date", "transaction dates exist in the date dimension", Hard, Zero(),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) string { return day(r.TransactionDate) },
			func(m *mart.Mart) []mart.Date { return m.Dates },
			func(r mart.Date) (string, bool) { return day(r.DateKey), true }),
		foreignKey("fk_ingredient_provider", "ingredients referencing an unknown provider (known source defect)",
			Regression, Exact(BaselineOrphanIngredientProviders),
			func(m *mart.Mart) []mart.Ingredient { return m.Ingredients },
			func(r mart.Ingredient) string { return id(r.ProviderID) },
			func(m *mart.Mart) []mart.Provider { return m.Providers },
			func(r mart.Provider) (string, bool) { return id(r.ProviderID), true }),
		foreignKey("fk_recipe_raw_material", "recipes reference a known raw material", Hard, Zero(),
			func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) string { return id(r.RawMaterialID) },
			func(m *mart.Mart) []mart.RawMaterial { return m.RawMaterials },
			func(r mart.RawMaterial) (string, bool) { return id(r.RawMaterialID), true }),
		foreignKey("fk_recipe_flavour", "recipes reference a current flavour", Hard, Zero(),
			func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) string { return id(r.FlavourID) },
			func(m *mart.Mart) []mart.Flavour { return m.Flavours },
			currentFlavour),
		foreignKey("fk_recipe_ingredient", "recipes referencing an unknown ingredient (known source defect)",
			Regression, Between(1, BaselineOrphanRecipeIngredientMax),
			func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) string { return id(r.IngredientID) },
			func(m *mart.Mart) []mart.Ingredient { return m.Ingredients },
			func(r mart.Ingredient) (string, bool) { return id(r.IngredientID), true }),

		{
			Name:        "scd2_single_current",
			Family:      Hard,
			Description: "every flavour has exactly one current version",
			Expect:      Zero(),
			Check:       checkSingleCurrent,
		},
		where("scd2_closed_have_valid_to", "closed flavour versions have a valid_to", Hard, Zero(),
			func(m *mart.Mart) []mart.Flavour { return m.Flavours },
			func(r mart.Flavour) bool { return !r.IsCurrent && r.ValidTo == nil },
			func(r mart.Flavour) string { return r.FlavourScdKey }),
		where("scd2_current_open", "current flavour versions have no valid_to", Hard, Zero(),
			func(m *mart.Mart) []mart.Flavour { return m.Flavours },
			func(r mart.Flavour) bool { return r.IsCurrent && r.ValidTo != nil },
			func(r mart.Flavour) string { return r.FlavourScdKey }),
		{
			Name:        "scd2_gapless",
			Family:      Hard,
			Description: "each closed flavour version ends where the next one starts",
			Expect:      Zero(),
			Check:       checkGapless,
		},

		where("recipe_ratio_total", "recipe ratios sum to 1 within 0.01", Hard, Zero(),
			func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) bool {
				return r.TotalRatio.LessThan(ratioTotalMin) || r.TotalRatio.GreaterThan(ratioTotalMax)
			},
			func(r mart.RecipeComposition) string { return r.RecipeID }),
		where("recipe_ratio_bounds", "recipe component ratios lie in [0, 1]", Hard, Zero(),
			func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) bool {
				return !within(r.RawMaterialRatio, decimal.Zero, one) ||
					!within(r.FlavourRatio, decimal.Zero, one) ||
					!within(r.IngredientRatio, decimal.Zero, one)
			},
			func(r mart.RecipeComposition) string { return r.RecipeID }),
		where("recipe_share_sum", "recipe component shares lie in [0, 1] and sum to 1 within 0.01", Hard, Zero(),
			func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) bool { return !sharesValid(r) },
			func(r mart.RecipeComposition) string { return r.RecipeID }),
		where("recipe_yield_bounds", "yield percentages lie in [0, 100]", Hard, Zero(),
			func(m *mart.Mart) []mart.RecipeComposition { return m.Compositions },
			func(r mart.RecipeComposition) bool { return !within(r.YieldPercentage, decimal.Zero, hundred) },
			func(r mart.RecipeComposition) string { return r.RecipeID }),

		where("sales_amount_non_negative", "no sale has a negative amount", Hard, Zero(),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) bool { return r.AmountDollars.IsNegative() },
			func(r mart.SalesTransaction) string { return id(r.TransactionID) }),
		where("sales_zero_amount", "sales with a zero amount (known source defect)",
			Regression, Exact(BaselineZeroAmountSales),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) bool { return r.AmountDollars.IsZero() },
			func(r mart.SalesTransaction) string { return id(r.TransactionID) }),
		where("sales_quantity_non_negative", "no sale has a negative quantity", Hard, Zero(),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) bool { return r.QuantityLiters < 0 },
			func(r mart.SalesTransaction) string { return id(r.TransactionID) }),
		where("sales_zero_quantity", "sales with a zero quantity (known source defect)",
			Regression, Exact(BaselineZeroQuantitySales),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) bool { return r.QuantityLiters == 0 },
			func(r mart.SalesTransaction) string { return id(r.TransactionID) }),
		where("inventory_value_positive", "inventory values are positive", Hard, Zero(),
			func(m *mart.Mart) []mart.ProviderInventory { return m.Inventory },
			func(r mart.ProviderInventory) bool { return !r.TotalIngredientValue.IsPositive() },
			func(r mart.ProviderInventory) string { return id(r.IngredientID) }),
		where("ingredient_weight_positive", "ingredient weights are positive", Hard, Zero(),
			func(m *mart.Mart) []mart.Ingredient { return m.Ingredients },
			func(r mart.Ingredient) bool { return !r.WeightInGrams.IsPositive() },
			func(r mart.Ingredient) string { return id(r.IngredientID) }),
		where("sales_date_in_calendar", "transaction dates lie in "+cal.String(), Hard, Zero(),
			func(m *mart.Mart) []mart.SalesTransaction { return m.Sales },
			func(r mart.SalesTransaction) bool { return !cal.Contains(r.TransactionDate) },
			func(r mart.SalesTransaction) string { return id(r.TransactionID) }),
		{
			Name:        "calendar_complete",
			Family:      Hard,
			Description: "the date dimension holds every day of " + cal.String() + " once",
			Expect:      Zero(),
			Check:       func(m *mart.Mart) Finding { return checkCalendar(m, cal) },
		},
	}
	return rules
}

// ApplyOverrides replaces the expectation of named rules. Naming a rule that
// is not in the catalog is an error.
func ApplyOverrides(rules []Rule, overrides map[string]Expectation) ([]Rule, error) {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	out := slices.Clone(rules)
	for _, name := range names {
		expect := overrides[name]
		if err := expect.Validate(); err != nil {
			return nil, fmt.Errorf("expectation for rule %q: %w", name, err)
		}
		idx := slices.IndexFunc(out, func(r Rule) bool { return r.Name == name })
		if idx < 0 {
			return nil, fmt.Errorf("expectation for unknown rule %q", name)
		}
		out[idx].Expect = expect
	}
	return out, nil
}

// RowCountRules builds one rule per table asserting its row count. For
// dim_flavours the distinct flavour ids are counted, not the versions.
func RowCountRules(counts map[string]Expectation) ([]Rule, error) {
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	rules := make([]Rule, 0, len(tables))
	for _, table := range tables {
		expect := counts[table]
		if err := expect.Validate(); err != nil {
			return nil, fmt.Errorf("row count for table %q: %w", table, err)
		}
		if !slices.Contains(mart.TableNames, table) {
			return nil, fmt.Errorf("row count for unknown table %q", table)
		}
		rule := Rule{
			Name:        "row_count_" + table,
			Family:      Hard,
			Description: "rows in " + table,
			Expect:      expect,
			Check: func(m *mart.Mart) Finding {
				n, _ := m.RowCount(table)
				return Finding{Count: n}
			},
		}
		if table == mart.DimFlavours {
			rule.Description = "distinct flavour ids in " + table
			rule.Check = func(m *mart.Mart) Finding {
				ids := make(map[int64]struct{}, len(m.Flavours))
				for _, f := range m.Flavours {
					ids[f.FlavourID] = struct{}{}
				}
				return Finding{Count: len(ids)}
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func primaryKey[T any](table, column string, rows func(*mart.Mart) []T, key func(T) string) Rule {
	return Rule{
		Name:        "pk_" + table,
		Family:      Hard,
		Description: table + "." + column + " is present and unique in a non-empty table",
		Expect:      Zero(),
		Check: func(m *mart.Mart) Finding {
			var f finder
			rs := rows(m)
			if len(rs) == 0 {
				f.add("(empty table)")
				return f.finding()
			}
			seen := make(map[string]bool, len(rs))
			for _, r := range rs {
				k := key(r)
				switch {
				case k == "":
					f.add("(null)")
				case seen[k]:
					f.add(k)
				default:
					seen[k] = true
				}
			}
			return f.finding()
		},
	}
}

// foreignKey counts child rows whose reference is missing from the parent
// rows that the parent key function accepts.
func foreignKey[C, P any](
	name, description string,
	family Family,
	expect Expectation,
	children func(*mart.Mart) []C,
	ref func(C) string,
	parents func(*mart.Mart) []P,
	key func(P) (string, bool),
) Rule {
	return Rule{
		Name:        name,
		Family:      family,
		Description: description,
		Expect:      expect,
		Check: func(m *mart.Mart) Finding {
			known := make(map[string]bool)
			for _, p := range parents(m) {
				if k, ok := key(p); ok {
					known[k] = true
				}
			}
			var f finder
			for _, c := range children(m) {
				if r := ref(c); !known[r] {
					f.add(r)
				}
			}
			return f.finding()
		},
	}
}

func where[T any](name, description string, family Family, expect Expectation,
	rows func(*mart.Mart) []T, bad func(T) bool, key func(T) string) Rule {
	return Rule{
		Name:        name,
		Family:      family,
		Description: description,
		Expect:      expect,
		Check: func(m *mart.Mart) Finding {
			var f finder
			for _, r := range rows(m) {
				if bad(r) {
					f.add(key(r))
				}
			}
			return f.finding()
		},
	}
}

func currentFlavour(r mart.Flavour) (string, bool) {
	return id(r.FlavourID), r.IsCurrent
}

func checkSingleCurrent(m *mart.Mart) Finding {
	current := make(map[int64]int)
	var order []int64
	for _, r := range m.Flavours {
		if _, ok := current[r.FlavourID]; !ok {
			order = append(order, r.FlavourID)
			current[r.FlavourID] = 0
		}
		if r.IsCurrent {
			current[r.FlavourID]++
		}
	}
	var f finder
	for _, fid := range order {
		if current[fid] != 1 {
			f.add(id(fid))
		}
	}
	return f.finding()
}

func checkGapless(m *mart.Mart) Finding {
	byID := make(map[int64][]mart.Flavour)
	var order []int64
	for _, r := range m.Flavours {
		if _, ok := byID[r.FlavourID]; !ok {
			order = append(order, r.FlavourID)
		}
		byID[r.FlavourID] = append(byID[r.FlavourID], r)
	}

	var f finder
	for _, fid := range order {
		chain := slices.Clone(byID[fid])
		slices.SortStableFunc(chain, func(a, b mart.Flavour) int { return a.ValidFrom.Compare(b.ValidFrom) })
		for i, v := range chain {
			if v.IsCurrent || v.ValidTo == nil {
				continue
			}
			if i+1 == len(chain) || !v.ValidTo.Equal(chain[i+1].ValidFrom) {
				f.add(v.FlavourScdKey)
			}
		}
	}
	return f.finding()
}

// checkCalendar counts missing days, days outside the range and repeated
// days.
func checkCalendar(m *mart.Mart, cal calendar.Range) Finding {
	present := make(map[string]int, len(m.Dates))
	var f finder
	for _, d := range m.Dates {
		k := day(d.DateKey)
		present[k]++
		if !cal.Contains(d.DateKey) || present[k] > 1 {
			f.add(k)
		}
	}
	end := calendar.Day(cal.End)
	for d := calendar.Day(cal.Start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if present[day(d)] == 0 {
			f.add(day(d))
		}
	}
	return f.finding()
}

func sharesValid(r mart.RecipeComposition) bool {
	sum := decimal.Zero
	for _, s := range []decimal.NullDecimal{r.RawMaterialPct, r.FlavourPct, r.IngredientPct} {
		if !s.Valid || !within(s.Decimal, decimal.Zero, one) {
			return false
		}
		sum = sum.Add(s.Decimal)
	}
	return within(sum, ratioTotalMin, ratioTotalMax)
}

func within(v, lo, hi decimal.Decimal) bool {
	return !v.LessThan(lo) && !v.GreaterThan(hi)
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

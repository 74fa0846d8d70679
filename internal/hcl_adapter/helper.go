package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/supplymart/internal/quality"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder fills omitted optional attributes with a zero-width
// placeholder expression, so a nil check is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// intAttr evaluates an optional whole-number attribute.
func intAttr(expr hcl.Expression, evalCtx *hcl.EvalContext) (int, bool, error) {
	if !isExprDefined(expr) {
		return 0, false, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, false, diags
	}
	if val.IsNull() {
		return 0, false, nil
	}
	var n int
	if err := gocty.FromCtyValue(val, &n); err != nil {
		return 0, false, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	return n, true, nil
}

// expectation turns an expect or row_count block into bounds. exact cannot
// be combined with min or max; an omitted max is unbounded.
func expectation(b *boundsBlock, evalCtx *hcl.EvalContext) (quality.Expectation, error) {
	exact, hasExact, err := intAttr(b.Exact, evalCtx)
	if err != nil {
		return quality.Expectation{}, err
	}
	lo, hasMin, err := intAttr(b.Min, evalCtx)
	if err != nil {
		return quality.Expectation{}, err
	}
	hi, hasMax, err := intAttr(b.Max, evalCtx)
	if err != nil {
		return quality.Expectation{}, err
	}

	var e quality.Expectation
	switch {
	case hasExact && (hasMin || hasMax):
		return e, fmt.Errorf("%q sets exact together with min or max", b.Name)
	case hasExact:
		e = quality.Exact(exact)
	case hasMax && hi < 0:
		return e, fmt.Errorf("%q: max cannot be negative", b.Name)
	case hasMin || hasMax:
		e = quality.Expectation{Min: lo, Max: quality.Unbounded}
		if hasMax {
			e.Max = hi
		}
	default:
		return e, fmt.Errorf("%q needs exact or min/max", b.Name)
	}

	if err := e.Validate(); err != nil {
		return e, fmt.Errorf("%q: %w", b.Name, err)
	}
	return e, nil
}

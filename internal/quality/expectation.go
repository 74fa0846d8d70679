package quality

import (
	"errors"
	"fmt"
	"strconv"
)

// Unbounded marks a range without an upper limit.
const Unbounded = -1

// Expectation is the violation count a rule accepts.
type Expectation struct {
	Min int
	Max int
}

// Zero accepts no violations.
func Zero() Expectation {
	return Expectation{Min: 0, Max: 0}
}

// Exact accepts exactly n violations.
func Exact(n int) Expectation {
	return Expectation{Min: n, Max: n}
}

// Between accepts lo to hi violations, inclusive. Use Unbounded for hi to
// leave the range open.
func Between(lo, hi int) Expectation {
	return Expectation{Min: lo, Max: hi}
}

// Validate rejects negative or inverted bounds.
func (e Expectation) Validate() error {
	if e.Min < 0 {
		return errors.New("expected minimum cannot be negative")
	}
	if e.Max != Unbounded && e.Max < e.Min {
		return fmt.Errorf("expected maximum %d is below minimum %d", e.Max, e.Min)
	}
	return nil
}

// Allows reports whether an observed count meets the expectation.
func (e Expectation) Allows(n int) bool {
	return n >= e.Min && (e.Max == Unbounded || n <= e.Max)
}

func (e Expectation) String() string {
	switch {
	case e.Max == Unbounded:
		return "at least " + strconv.Itoa(e.Min)
	case e.Min == e.Max:
		return strconv.Itoa(e.Min)
	default:
		return fmt.Sprintf("between %d and %d", e.Min, e.Max)
	}
}

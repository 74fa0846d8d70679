package quality

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/mart"
)

// SampleSize bounds the offending keys kept per rule.
const SampleSize = 5

// Family separates genuine constraints from known-defect baselines.
type Family string

const (
	Hard       Family = "hard"
	Regression Family = "regression"
)

// Finding is what a rule observed.
type Finding struct {
	Count int
	// Keys holds up to SampleSize distinct offending keys in the order they
	// were found.
	Keys []string
}

// Rule is one named invariant over a finished mart.
type Rule struct {
	Name        string
	Family      Family
	Description string
	Expect      Expectation
	Check       func(m *mart.Mart) Finding
}

// Outcome is the result of evaluating one rule.
type Outcome struct {
	Rule        string   `json:"rule" yaml:"rule"`
	Family      Family   `json:"family" yaml:"family"`
	Description string   `json:"description" yaml:"description"`
	Passed      bool     `json:"passed" yaml:"passed"`
	Observed    int      `json:"observed" yaml:"observed"`
	Expected    string   `json:"expected" yaml:"expected"`
	Sample      []string `json:"sample,omitempty" yaml:"sample,omitempty"`
}

// Report is the verification result of one run.
type Report struct {
	Passed   bool      `json:"passed" yaml:"passed"`
	Rules    int       `json:"rules" yaml:"rules"`
	Failed   int       `json:"failed" yaml:"failed"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Failures returns the outcomes that did not pass.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Passed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Outcome looks up the outcome of a rule by name.
func (r *Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Rule == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Err returns a *QualityRuleViolation when any rule failed, nil otherwise.
func (r *Report) Err() error {
	if r.Passed {
		return nil
	}
	return &QualityRuleViolation{Failed: r.Failures()}
}

// QualityRuleViolation reports rules whose observed count fell outside the
// expectation.
type QualityRuleViolation struct {
	Failed []Outcome
}

func (e *QualityRuleViolation) Error() string {
	parts := make([]string, len(e.Failed))
	for i, o := range e.Failed {
		parts[i] = fmt.Sprintf("%s (observed %d, expected %s, sample [%s])",
			o.Rule, o.Observed, o.Expected, strings.Join(o.Sample, ", "))
	}
	return fmt.Sprintf("%d quality rule(s) failed: %s", len(e.Failed), strings.Join(parts, "; "))
}

// Verify evaluates every rule against m.
func Verify(ctx context.Context, m *mart.Mart, rules []Rule) *Report {
	logger := ctxlog.FromContext(ctx)

	report := &Report{Passed: true, Rules: len(rules), Outcomes: make([]Outcome, 0, len(rules))}
	for _, rule := range rules {
		found := rule.Check(m)
		o := Outcome{
			Rule:        rule.Name,
			Family:      rule.Family,
			Description: rule.Description,
			Passed:      rule.Expect.Allows(found.Count),
			Observed:    found.Count,
			Expected:    rule.Expect.String(),
			Sample:      found.Keys,
		}
		report.Outcomes = append(report.Outcomes, o)

		if o.Passed {
			logger.Debug("Quality rule passed.", "rule", o.Rule, "observed", o.Observed)
			continue
		}
		report.Passed = false
		report.Failed++
		logger.Error("Quality rule failed.",
			"rule", o.Rule,
			"family", o.Family,
			"observed", o.Observed,
			"expected", o.Expected,
			"sample", o.Sample,
		)
	}

	logger.Info("Quality verification finished.", "rules", report.Rules, "failed", report.Failed, "passed", report.Passed)
	return report
}

// finder accumulates violations and a bounded sample of distinct keys.
type finder struct {
	count int
	keys  []string
	seen  map[string]bool
}

func (f *finder) add(key string) {
	f.count++
	if len(f.keys) >= SampleSize || f.seen[key] {
		return
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[key] = true
	f.keys = append(f.keys, key)
}

func (f *finder) finding() Finding {
	return Finding{Count: f.count, Keys: f.keys}
}

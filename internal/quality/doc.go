// Package quality verifies a finished mart against a catalog of invariant
// rules.
//
// A rule counts the violations of one predicate and declares the count it
// expects: zero, an exact number, or a range. Hard rules expect zero for
// genuine constraints. Regression rules expect a known nonzero count that
// documents an accepted source defect, so they fail only when the defect
// drifts from its baseline.
//
// Verify evaluates every rule and returns a Report with one Outcome per rule
// and an overall pass flag. Report.Err turns a failed report into a
// *QualityRuleViolation.
package quality

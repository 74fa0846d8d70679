// Package dag holds the dependency graph between pipeline stages. It is
// responsible for validating that the declared stage chain is acyclic and
// for producing the deterministic order the orchestrator executes it in.
//
// Stages are identified by name. An edge from A to B means B consumes what
// A materialized, so B may only run after A committed successfully. When a
// stage fails, Downstream lists every stage that must be skipped.
package dag

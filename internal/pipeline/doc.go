// Package pipeline sequences the rebuild of the mart.
//
// The Orchestrator runs a static chain of stages over one warehouse. Each
// stage acquires its own storage handle, materializes its tables in full and
// commits them only when it succeeds. The first failing stage stops the run:
// its buffered tables are discarded, every stage after it is skipped, and the
// error is returned as a *StageExecutionError naming the stage. Stages that
// already committed keep their tables.
//
// Pipeline provides the stages of the supply-chain mart:
//
//	load_raw -> staging -> intermediate -> marts -> verify
package pipeline

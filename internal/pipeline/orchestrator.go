package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/dag"
	"github.com/specialistvlad/supplymart/internal/warehouse"
)

// Stage is one full-rebuild step of the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, h *warehouse.Handle) error
}

type stageFunc struct {
	name string
	fn   func(ctx context.Context, h *warehouse.Handle) error
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Run(ctx context.Context, h *warehouse.Handle) error { return s.fn(ctx, h) }

// NewStage adapts a function to a Stage.
func NewStage(name string, fn func(ctx context.Context, h *warehouse.Handle) error) Stage {
	return stageFunc{name: name, fn: fn}
}

// State is the lifecycle state of a stage within one run.
type State string

const (
	Running State = "running"
	Done    State = "done"
	Failed  State = "failed"
	Skipped State = "skipped"
)

// Result lists what happened to each stage of a run.
type Result struct {
	Completed []string
	Failed    string
	Skipped   []string
}

// Orchestrator runs stages as a linear dependency chain.
type Orchestrator struct {
	wh       *warehouse.Warehouse
	graph    *dag.Graph
	stages   map[string]Stage
	observer func(stage string, state State)
}

// NewOrchestrator chains the stages in the order given: each stage depends
// on the one before it.
func NewOrchestrator(wh *warehouse.Warehouse, stages ...Stage) (*Orchestrator, error) {
	if len(stages) == 0 {
		return nil, errors.New("no stages to run")
	}
	o := &Orchestrator{
		wh:     wh,
		graph:  dag.New(),
		stages: make(map[string]Stage, len(stages)),
	}
	for i, s := range stages {
		name := s.Name()
		if _, dup := o.stages[name]; dup {
			return nil, fmt.Errorf("duplicate stage name '%s'", name)
		}
		o.stages[name] = s
		o.graph.AddNode(name)
		if i > 0 {
			if err := o.graph.AddEdge(stages[i-1].Name(), name); err != nil {
				return nil, fmt.Errorf("chaining stage '%s': %w", name, err)
			}
		}
	}
	return o, nil
}

// Observe registers a callback for stage state changes. It is called from
// the goroutine running the orchestrator.
func (o *Orchestrator) Observe(fn func(stage string, state State)) {
	o.observer = fn
}

func (o *Orchestrator) notify(stage string, state State) {
	if o.observer != nil {
		o.observer(stage, state)
	}
}

// Run executes every stage in dependency order. Cancelling ctx lets the
// running stage finish and skips the rest.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := o.graph.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("ordering stages: %w", err)
	}
	logger.Debug("Stage order resolved.", "stages", order)

	result := &Result{}
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			o.skipFrom(ctx, name, true, "run cancelled", result)
			return result, &StageExecutionError{Stage: name, Err: err}
		}

		if err := o.runStage(ctx, name); err != nil {
			result.Failed = name
			o.notify(name, Failed)
			logger.Error("Stage failed.", "stage", name, "error", err)
			o.skipFrom(ctx, name, false, "upstream failure", result)
			return result, &StageExecutionError{Stage: name, Err: err}
		}
		result.Completed = append(result.Completed, name)
		o.notify(name, Done)
	}

	logger.Info("All stages completed.", "stages", len(result.Completed))
	return result, nil
}

func (o *Orchestrator) runStage(ctx context.Context, name string) error {
	stageCtx, logger := ctxlog.With(ctx, "stage", name)
	started := time.Now()

	after, err := o.graph.Dependencies(name)
	if err != nil {
		return err
	}

	o.notify(name, Running)
	logger.Info("Stage started.", "after", after)

	h := o.wh.Acquire(stageCtx, name)
	defer h.Release()

	if err := o.stages[name].Run(stageCtx, h); err != nil {
		return err
	}
	if err := h.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Info("Stage finished.", "duration", time.Since(started).Round(time.Millisecond))
	return nil
}

// skipFrom marks the stages downstream of name as skipped, and name itself
// when inclusive is set.
func (o *Orchestrator) skipFrom(ctx context.Context, name string, inclusive bool, reason string, result *Result) {
	logger := ctxlog.FromContext(ctx)

	var skipped []string
	if inclusive {
		skipped = append(skipped, name)
	}
	downstream, err := o.graph.Downstream(name)
	if err != nil {
		logger.Error("Could not resolve downstream stages.", "stage", name, "error", err)
	}
	skipped = append(skipped, downstream...)

	for _, s := range skipped {
		logger.Warn("Skipping stage.", "stage", s, "reason", reason, "at", name)
		o.notify(s, Skipped)
	}
	result.Skipped = append(result.Skipped, skipped...)
}

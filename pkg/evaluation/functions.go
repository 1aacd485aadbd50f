package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"mercator-hq/snippets/pkg/condition"
	"mercator-hq/snippets/pkg/execution"
	"mercator-hq/snippets/pkg/snippet"
	"mercator-hq/snippets/pkg/store"
	"mercator-hq/snippets/pkg/telemetry/logging"
	"mercator-hq/snippets/pkg/telemetry/metrics"
)

// Pass names used in logs and metrics.
const (
	PassEarly       = "early"
	PassConditional = "conditional"
)

type functionPhase int

const (
	phaseNew functionPhase = iota
	phaseEarlyDone
	phaseConditionalDone
)

// FunctionDispatcher executes function snippets for one request.
type FunctionDispatcher struct {
	store     store.Store
	evaluator condition.Evaluator
	executor  execution.Executor
	request   RequestInfo
	opts      Options
	logger    *slog.Logger
	metrics   Recorder

	phase      functionPhase
	conditions []snippet.Snippet
	gated      []snippet.Snippet
}

// NewFunctionDispatcher creates a dispatcher for one request.
func NewFunctionDispatcher(st store.Store, ev condition.Evaluator, ex execution.Executor, req RequestInfo, opts Options) *FunctionDispatcher {
	return &FunctionDispatcher{
		store:     st,
		evaluator: ev,
		executor:  ex,
		request:   req,
		opts:      opts,
		logger:    opts.logger().With("component", "evaluation.functions"),
		metrics:   opts.recorder(),
	}
}

// SafeModeActive reports whether snippet evaluation is disabled, either by
// the global flag or by the execute_snippets filter chain.
func (d *FunctionDispatcher) SafeModeActive(ctx context.Context) bool {
	return d.opts.safeModeActive(ctx)
}

// earlyScopes returns the scopes loaded by the early pass.
func (d *FunctionDispatcher) earlyScopes() []snippet.Scope {
	location := snippet.ScopeFrontEnd
	if d.request.IsAdmin {
		location = snippet.ScopeAdmin
	}
	return []snippet.Scope{snippet.ScopeGlobal, snippet.ScopeSingleUse, location, snippet.ScopeCondition}
}

// EvaluateEarly runs every active function snippet without a condition and
// defers conditions and conditional snippets to EvaluateConditional.
//
// It returns false when safe mode is active and nothing was evaluated. An
// execution error stops the pass and is returned together with true, since
// earlier snippets already ran.
func (d *FunctionDispatcher) EvaluateEarly(ctx context.Context) (bool, error) {
	if d.phase != phaseNew {
		return false, ErrPhaseOrder
	}
	d.phase = phaseEarlyDone

	ctx = logging.WithPhase(ctx, PassEarly)
	if d.SafeModeActive(ctx) {
		d.metrics.RecordSafeMode(PassEarly)
		logging.FromContext(ctx, d.logger).Debug("safe mode active, skipping snippets")
		return false, nil
	}

	rows, err := d.store.FetchActive(ctx, d.earlyScopes())
	d.metrics.RecordStoreQuery("function")
	if err != nil {
		return false, fmt.Errorf("failed to fetch function snippets: %w", err)
	}

	edit := ParseEditTarget(d.request, d.opts.routePrefix(), d.store.Tables())
	if edit != nil {
		logging.FromContext(ctx, d.logger).Debug("request edits a snippet", "edit_target", edit.String())
	}

	for _, s := range rows {
		switch {
		case s.Scope == snippet.ScopeCondition:
			d.conditions = append(d.conditions, s)
		case s.HasCondition():
			d.gated = append(d.gated, s)
		default:
			if err := d.evaluateSnippet(ctx, s, edit, PassEarly); err != nil {
				return true, err
			}
		}
	}

	return true, nil
}

// EvaluateConditional evaluates each deferred condition once and runs the
// deferred snippets whose condition holds. A snippet whose condition was not
// loaded is skipped. The currently-editing guard does not apply here.
func (d *FunctionDispatcher) EvaluateConditional(ctx context.Context) error {
	if d.phase != phaseEarlyDone {
		return ErrPhaseOrder
	}
	d.phase = phaseConditionalDone

	ctx = logging.WithPhase(ctx, PassConditional)
	if d.SafeModeActive(ctx) {
		d.metrics.RecordSafeMode(PassConditional)
		logging.FromContext(ctx, d.logger).Debug("safe mode active, skipping conditional snippets")
		return nil
	}

	results := make(map[int64]bool, len(d.conditions))
	for _, c := range d.conditions {
		if _, seen := results[c.ID]; seen {
			continue
		}
		results[c.ID] = evaluateCondition(ctx, d.evaluator, c, d.logger, d.metrics)
	}

	for _, s := range d.gated {
		holds, known := results[s.ConditionID]
		if !known || !holds {
			d.metrics.RecordExecution(PassConditional, metrics.OutcomeGated, 0)
			continue
		}
		if err := d.evaluateSnippet(ctx, s, nil, PassConditional); err != nil {
			return err
		}
	}

	return nil
}

// evaluateSnippet applies single-use deactivation, the edit guard and the
// allow_execute filters, then executes s.
func (d *FunctionDispatcher) evaluateSnippet(ctx context.Context, s snippet.Snippet, edit *snippet.EditTarget, pass string) error {
	ctx = logging.WithSnippet(ctx, s.ID, s.Table)
	logger := logging.FromContext(ctx, d.logger)

	if s.Scope == snippet.ScopeSingleUse {
		if err := d.quickDeactivate(ctx, s.ID, s.Table); err != nil {
			d.metrics.RecordExecution(pass, metrics.OutcomeFailed, 0)
			return &DeactivationError{ID: s.ID, Table: s.Table, Cause: err}
		}
	}

	if edit.Matches(s) {
		d.metrics.RecordExecution(pass, metrics.OutcomeEditing, 0)
		logger.Debug("skipping snippet being edited")
		return nil
	}

	if !d.opts.Filters.AllowExecute(ctx, true, s.ID, s.Table) {
		d.metrics.RecordExecution(pass, metrics.OutcomeVetoed, 0)
		logger.Debug("snippet execution vetoed by filter")
		return nil
	}

	start := time.Now()
	err := d.executor.Execute(ctx, s.Code, s.ID)
	elapsed := time.Since(start)
	if err != nil {
		d.metrics.RecordExecution(pass, metrics.OutcomeFailed, elapsed)
		logger.Error("snippet execution failed", "error", err, "duration", elapsed)
		return &ExecutionError{ID: s.ID, Table: s.Table, Cause: err}
	}

	d.metrics.RecordExecution(pass, metrics.OutcomeExecuted, elapsed)
	logger.Debug("snippet executed", "duration", elapsed)
	return nil
}

// quickDeactivate removes a shared network snippet from the shared list, or
// clears the row's active flag otherwise.
func (d *FunctionDispatcher) quickDeactivate(ctx context.Context, id int64, table string) error {
	if d.store.Tables().IsNetwork(table) {
		shared, err := d.store.SharedNetworkIDs(ctx)
		if err != nil {
			return err
		}
		if i := slices.Index(shared, id); i >= 0 {
			remaining := slices.Delete(slices.Clone(shared), i, i+1)
			if err := d.store.SetSharedNetworkIDs(ctx, remaining); err != nil {
				return err
			}
			d.store.InvalidateActive(table)
			d.metrics.RecordDeactivation(metrics.DeactivationShared)
			return nil
		}
	}

	if err := d.store.Deactivate(ctx, id, table); err != nil {
		return err
	}
	d.store.InvalidateSnippets(table)
	d.metrics.RecordDeactivation(metrics.DeactivationRow)
	return nil
}

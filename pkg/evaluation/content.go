package evaluation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/snippets/pkg/condition"
	"mercator-hq/snippets/pkg/snippet"
	"mercator-hq/snippets/pkg/store"
	"mercator-hq/snippets/pkg/telemetry/logging"
)

// contentScopes is the single query issued by a ContentDispatcher.
var contentScopes = []snippet.Scope{
	snippet.ScopeHeadContent,
	snippet.ScopeFooterContent,
	snippet.ScopeCondition,
}

// ContentDispatcher prints head and footer content snippets for one request.
//
// The active snippets are loaded on the first render and reused afterwards.
// Conditions are evaluated while loading, at most once per id. A content
// snippet is printed when it has no condition, when its condition is
// unknown, or when its condition holds.
//
// In safe mode no condition is evaluated: ungated content is still printed
// and gated content is skipped.
type ContentDispatcher struct {
	store     store.Store
	evaluator condition.Evaluator
	opts      Options
	logger    *slog.Logger
	metrics   Recorder

	populated  bool
	safeMode   bool
	active     map[snippet.Scope][]snippet.Snippet
	conditions map[int64]bool
}

// NewContentDispatcher creates a dispatcher for one request.
func NewContentDispatcher(st store.Store, ev condition.Evaluator, opts Options) *ContentDispatcher {
	return &ContentDispatcher{
		store:     st,
		evaluator: ev,
		opts:      opts,
		logger:    opts.logger().With("component", "evaluation.content"),
		metrics:   opts.recorder(),
	}
}

// RenderHead writes the head content snippets to w.
func (d *ContentDispatcher) RenderHead(ctx context.Context, w io.Writer) error {
	return d.render(ctx, w, snippet.ScopeHeadContent)
}

// RenderFooter writes the footer content snippets to w.
func (d *ContentDispatcher) RenderFooter(ctx context.Context, w io.Writer) error {
	return d.render(ctx, w, snippet.ScopeFooterContent)
}

func (d *ContentDispatcher) render(ctx context.Context, w io.Writer, scope snippet.Scope) error {
	if !d.populated {
		if err := d.populate(ctx); err != nil {
			return err
		}
	}

	for _, s := range d.active[scope] {
		if !d.shouldPrint(s) {
			d.metrics.RecordContentSkipped(scope.String())
			continue
		}
		if _, err := io.WriteString(w, "\n"+s.Code+"\n"); err != nil {
			return fmt.Errorf("failed to write %s snippet %d: %w", scope, s.ID, err)
		}
		d.metrics.RecordContentEmitted(scope.String())
	}
	return nil
}

// shouldPrint fails open: an unknown condition does not suppress output.
// Gated content is never printed in safe mode.
func (d *ContentDispatcher) shouldPrint(s snippet.Snippet) bool {
	if !s.HasCondition() {
		return true
	}
	if d.safeMode {
		return false
	}
	result, known := d.conditions[s.ConditionID]
	return !known || result
}

func (d *ContentDispatcher) populate(ctx context.Context) error {
	rows, err := d.store.FetchActive(ctx, contentScopes)
	d.metrics.RecordStoreQuery("content")
	if err != nil {
		return fmt.Errorf("failed to fetch content snippets: %w", err)
	}

	d.active = make(map[snippet.Scope][]snippet.Snippet)
	d.conditions = make(map[int64]bool)
	d.safeMode = d.opts.safeModeActive(ctx)
	if d.safeMode {
		d.metrics.RecordSafeMode("content")
		d.logger.Debug("safe mode active, skipping conditions",
			"request_id", logging.GetRequestID(ctx),
		)
	}

	for _, s := range rows {
		if s.Scope == snippet.ScopeCondition {
			if d.safeMode {
				continue
			}
			if _, seen := d.conditions[s.ID]; !seen {
				d.conditions[s.ID] = evaluateCondition(ctx, d.evaluator, s, d.logger, d.metrics)
			}
			continue
		}
		d.active[s.Scope] = append(d.active[s.Scope], s)
	}

	d.populated = true
	d.logger.Debug("content snippets loaded",
		"request_id", logging.GetRequestID(ctx),
		"head", len(d.active[snippet.ScopeHeadContent]),
		"footer", len(d.active[snippet.ScopeFooterContent]),
		"conditions", len(d.conditions),
	)
	return nil
}

// evaluateCondition runs one condition snippet. Errors count as false.
func evaluateCondition(ctx context.Context, ev condition.Evaluator, s snippet.Snippet, logger *slog.Logger, rec Recorder) bool {
	ctx = logging.WithSnippet(ctx, s.ID, s.Table)
	ok, err := ev.Evaluate(ctx, s.Code)
	if err != nil {
		logging.FromContext(ctx, logger).Warn("condition evaluation failed",
			"error", err,
		)
		rec.RecordConditionEvaluation("error")
		return false
	}
	rec.RecordConditionEvaluation(fmt.Sprint(ok))
	return ok
}

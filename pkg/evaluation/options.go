package evaluation

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/snippets/pkg/hooks"
)

// Recorder receives dispatch metrics. *metrics.Collector implements it.
type Recorder interface {
	RecordExecution(phase, outcome string, duration time.Duration)
	RecordContentEmitted(scope string)
	RecordContentSkipped(scope string)
	RecordConditionEvaluation(result string)
	RecordSafeMode(dispatcher string)
	RecordDeactivation(mode string)
	RecordStoreQuery(dispatcher string)
}

// Options configures the dispatchers.
type Options struct {
	// SafeMode disables both function passes and condition evaluation in
	// the content dispatcher.
	SafeMode bool

	// Filters holds the execute_snippets and allow_execute chains. Nil
	// allows everything.
	Filters *hooks.Filters

	// RoutePrefix is the snippet edit route used by the currently-editing
	// guard. Empty uses DefaultRoutePrefix.
	RoutePrefix string

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics Recorder
}

// safeModeActive reports whether snippet evaluation is disabled, either by
// the global flag or by the execute_snippets filter chain.
func (o Options) safeModeActive(ctx context.Context) bool {
	return o.SafeMode || !o.Filters.ExecuteSnippets(ctx, true)
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) recorder() Recorder {
	if o.Metrics == nil {
		return nopRecorder{}
	}
	return o.Metrics
}

func (o Options) routePrefix() string {
	if o.RoutePrefix == "" {
		return DefaultRoutePrefix
	}
	return o.RoutePrefix
}

type nopRecorder struct{}

func (nopRecorder) RecordExecution(string, string, time.Duration) {}
func (nopRecorder) RecordContentEmitted(string)                   {}
func (nopRecorder) RecordContentSkipped(string)                   {}
func (nopRecorder) RecordConditionEvaluation(string)              {}
func (nopRecorder) RecordSafeMode(string)                         {}
func (nopRecorder) RecordDeactivation(string)                     {}
func (nopRecorder) RecordStoreQuery(string)                       {}

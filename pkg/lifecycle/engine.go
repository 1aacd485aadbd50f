package lifecycle

import (
	"io"
	"log/slog"
	"net/url"
	"time"

	"mercator-hq/snippets/pkg/condition"
	"mercator-hq/snippets/pkg/evaluation"
	"mercator-hq/snippets/pkg/execution"
	"mercator-hq/snippets/pkg/hooks"
	"mercator-hq/snippets/pkg/lua"
	"mercator-hq/snippets/pkg/store"
	"mercator-hq/snippets/pkg/telemetry/tracing"
)

// EvaluatorFactory builds the condition evaluator of one request.
type EvaluatorFactory func(req evaluation.RequestInfo) condition.Evaluator

// ExecutorFactory builds the executor of one request. Snippet output goes
// to out.
type ExecutorFactory func(req evaluation.RequestInfo, out io.Writer) execution.Executor

// SafeModeSource reports the current global safe-mode flag.
type SafeModeSource func() bool

// Engine holds what is shared between requests.
type Engine struct {
	store        store.Store
	filters      *hooks.Filters
	safeMode     SafeModeSource
	routePrefix  string
	metrics      evaluation.Recorder
	logger       *slog.Logger
	tracer       *tracing.Tracer
	newEvaluator EvaluatorFactory
	newExecutor  ExecutorFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithFilters sets the execution filter chains.
func WithFilters(f *hooks.Filters) Option {
	return func(e *Engine) { e.filters = f }
}

// WithSafeMode sets the safe-mode source, read once per request.
func WithSafeMode(src SafeModeSource) Option {
	return func(e *Engine) { e.safeMode = src }
}

// WithRoutePrefix sets the snippet edit route.
func WithRoutePrefix(prefix string) Option {
	return func(e *Engine) { e.routePrefix = prefix }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m evaluation.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the tracer for lifecycle stage spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithEvaluatorFactory replaces the Lua condition evaluator.
func WithEvaluatorFactory(f EvaluatorFactory) Option {
	return func(e *Engine) { e.newEvaluator = f }
}

// WithExecutorFactory replaces the Lua executor.
func WithExecutorFactory(f ExecutorFactory) Option {
	return func(e *Engine) { e.newExecutor = f }
}

// NewEngine creates an engine over st. Conditions and snippets run in the
// Lua sandbox with the given timeout unless replaced by options.
func NewEngine(st store.Store, timeout time.Duration, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		safeMode: func() bool { return false },
		logger:   slog.Default(),
		newEvaluator: func(req evaluation.RequestInfo) condition.Evaluator {
			return condition.NewLuaEvaluator(LuaRequest(req), timeout)
		},
		newExecutor: func(req evaluation.RequestInfo, out io.Writer) execution.Executor {
			return execution.NewLuaExecutor(LuaRequest(req), out, timeout)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's store.
func (e *Engine) Store() store.Store {
	return e.store
}

// RoutePrefix returns the snippet edit route in effect.
func (e *Engine) RoutePrefix() string {
	if e.routePrefix == "" {
		return evaluation.DefaultRoutePrefix
	}
	return e.routePrefix
}

// NewLifecycle builds fresh dispatchers for one request. Function snippet
// output is written to out.
func (e *Engine) NewLifecycle(req evaluation.RequestInfo, out io.Writer) *Lifecycle {
	opts := evaluation.Options{
		SafeMode:    e.safeMode(),
		Filters:     e.filters,
		RoutePrefix: e.routePrefix,
		Logger:      e.logger,
		Metrics:     e.metrics,
	}

	evaluator := e.newEvaluator(req)
	functions := evaluation.NewFunctionDispatcher(e.store, evaluator, e.newExecutor(req, out), req, opts)
	content := evaluation.NewContentDispatcher(e.store, evaluator, opts)

	lc := New(functions, content, e.logger)
	lc.tracer = e.tracer
	return lc
}

// LuaRequest converts request info into the table exposed to Lua code.
func LuaRequest(req evaluation.RequestInfo) lua.Request {
	lr := lua.Request{
		Method:  req.Method,
		Path:    req.URI,
		IsAdmin: req.IsAdmin,
		IsJSON:  req.IsJSON,
	}

	u, err := url.Parse(req.URI)
	if err != nil {
		return lr
	}
	lr.Path = u.Path

	values := u.Query()
	if len(values) > 0 {
		lr.Query = make(map[string]string, len(values))
		for k := range values {
			lr.Query[k] = values.Get(k)
		}
	}
	return lr
}

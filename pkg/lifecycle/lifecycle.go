package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/snippets/pkg/evaluation"
	"mercator-hq/snippets/pkg/telemetry/logging"
	"mercator-hq/snippets/pkg/telemetry/tracing"
)

// ErrOutOfOrder is returned when an entry point is called before its
// predecessor or more than once.
var ErrOutOfOrder = errors.New("lifecycle entry point called out of order")

// Stage names one lifecycle entry point.
type Stage int

const (
	StageEarly Stage = iota
	StageConditional
	StageHead
	StageFooter
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageEarly:
		return "early"
	case StageConditional:
		return "conditional"
	case StageHead:
		return "head"
	case StageFooter:
		return "footer"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Lifecycle owns the dispatchers of a single request.
type Lifecycle struct {
	functions *evaluation.FunctionDispatcher
	content   *evaluation.ContentDispatcher
	requestID string
	logger    *slog.Logger
	tracer    *tracing.Tracer

	mu   sync.Mutex
	done [StageFooter + 1]bool
}

// New creates a lifecycle around the given dispatchers. The request id is a
// fresh UUID.
func New(functions *evaluation.FunctionDispatcher, content *evaluation.ContentDispatcher, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		functions: functions,
		content:   content,
		requestID: uuid.NewString(),
		logger:    logger.With("component", "lifecycle"),
	}
}

// RequestID returns the id attached to every log line of this request.
func (l *Lifecycle) RequestID() string {
	return l.requestID
}

// WithRequestID replaces the generated request id, typically with one
// assigned by the HTTP host. An empty id is ignored.
func (l *Lifecycle) WithRequestID(id string) *Lifecycle {
	if id != "" {
		l.requestID = id
	}
	return l
}

// Done reports whether stage has run.
func (l *Lifecycle) Done(stage Stage) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done[stage]
}

// enter checks the ordering rules for stage and marks it as run.
func (l *Lifecycle) enter(stage Stage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok := !l.done[stage]
	switch stage {
	case StageConditional:
		ok = ok && l.done[StageEarly]
	case StageHead:
		ok = ok && l.done[StageConditional] && !l.done[StageFooter]
	case StageFooter:
		ok = ok && l.done[StageConditional]
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutOfOrder, stage)
	}

	l.done[stage] = true
	return nil
}

func (l *Lifecycle) context(ctx context.Context) context.Context {
	return logging.WithRequestID(ctx, l.requestID)
}

// startStage opens the span of stage.
func (l *Lifecycle) startStage(ctx context.Context, stage Stage) (context.Context, trace.Span) {
	return l.tracer.Start(l.context(ctx), "lifecycle."+stage.String(),
		trace.WithAttributes(
			tracing.AttrRequestID.String(l.requestID),
			tracing.AttrStage.String(stage.String()),
		),
	)
}

// EvaluateEarly runs the early function pass.
func (l *Lifecycle) EvaluateEarly(ctx context.Context) (bool, error) {
	if err := l.enter(StageEarly); err != nil {
		return false, err
	}
	ctx, span := l.startStage(ctx, StageEarly)
	defer span.End()

	ran, err := l.functions.EvaluateEarly(ctx)
	span.SetAttributes(tracing.AttrExecuted.Bool(ran))
	tracing.SetStatus(span, err)
	return ran, err
}

// EvaluateConditional runs the conditional function pass.
func (l *Lifecycle) EvaluateConditional(ctx context.Context) error {
	if err := l.enter(StageConditional); err != nil {
		return err
	}
	ctx, span := l.startStage(ctx, StageConditional)
	defer span.End()

	err := l.functions.EvaluateConditional(ctx)
	tracing.SetStatus(span, err)
	return err
}

// RenderHead writes head content snippets to w.
func (l *Lifecycle) RenderHead(ctx context.Context, w io.Writer) error {
	if err := l.enter(StageHead); err != nil {
		return err
	}
	ctx, span := l.startStage(ctx, StageHead)
	defer span.End()

	err := l.content.RenderHead(ctx, w)
	tracing.SetStatus(span, err)
	return err
}

// RenderFooter writes footer content snippets to w.
func (l *Lifecycle) RenderFooter(ctx context.Context, w io.Writer) error {
	if err := l.enter(StageFooter); err != nil {
		return err
	}
	ctx, span := l.startStage(ctx, StageFooter)
	defer span.End()

	err := l.content.RenderFooter(ctx, w)
	tracing.SetStatus(span, err)
	return err
}

// Run drives the whole request: both function passes, head content, body,
// footer content. body may be nil.
func (l *Lifecycle) Run(ctx context.Context, w io.Writer, body func(io.Writer) error) error {
	logger := logging.FromContext(l.context(ctx), l.logger)

	ran, err := l.EvaluateEarly(ctx)
	if err != nil {
		return fmt.Errorf("early evaluation failed: %w", err)
	}
	if !ran {
		logger.Debug("snippets skipped, safe mode active")
	}

	if err := l.EvaluateConditional(ctx); err != nil {
		return fmt.Errorf("conditional evaluation failed: %w", err)
	}

	if err := l.RenderHead(ctx, w); err != nil {
		return fmt.Errorf("head rendering failed: %w", err)
	}

	if body != nil {
		if err := body(w); err != nil {
			return fmt.Errorf("body rendering failed: %w", err)
		}
	}

	if err := l.RenderFooter(ctx, w); err != nil {
		return fmt.Errorf("footer rendering failed: %w", err)
	}

	return nil
}

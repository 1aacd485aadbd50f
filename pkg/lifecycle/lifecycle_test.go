package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/snippets/internal/testutil"
	"mercator-hq/snippets/pkg/condition"
	"mercator-hq/snippets/pkg/evaluation"
	"mercator-hq/snippets/pkg/execution"
	"mercator-hq/snippets/pkg/snippet"
	"mercator-hq/snippets/pkg/store"
	"mercator-hq/snippets/pkg/telemetry/logging"
	"mercator-hq/snippets/pkg/telemetry/tracing"
)

func newTestEngine(t *testing.T, ex *testutil.RecordingExecutor, opts ...Option) (*Engine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(store.Options{})
	base := []Option{
		WithLogger(logging.Discard()),
		WithEvaluatorFactory(func(evaluation.RequestInfo) condition.Evaluator {
			return condition.Static(true)
		}),
		WithExecutorFactory(func(evaluation.RequestInfo, io.Writer) execution.Executor {
			return ex
		}),
	}
	return NewEngine(st, time.Second, append(base, opts...)...), st
}

func TestLifecycle_Order(t *testing.T) {
	ex := &testutil.RecordingExecutor{}
	engine, _ := newTestEngine(t, ex)
	lc := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard)
	ctx := context.Background()
	var out bytes.Buffer

	if err := lc.EvaluateConditional(ctx); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("conditional before early: got %v", err)
	}
	if err := lc.RenderHead(ctx, &out); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("head before passes: got %v", err)
	}
	if _, err := lc.EvaluateEarly(ctx); err != nil {
		t.Fatalf("EvaluateEarly failed: %v", err)
	}
	if _, err := lc.EvaluateEarly(ctx); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("second early: got %v", err)
	}
	if err := lc.RenderFooter(ctx, &out); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("footer before conditional: got %v", err)
	}
	if err := lc.EvaluateConditional(ctx); err != nil {
		t.Fatalf("EvaluateConditional failed: %v", err)
	}
	if err := lc.RenderFooter(ctx, &out); err != nil {
		t.Fatalf("RenderFooter failed: %v", err)
	}
	if err := lc.RenderHead(ctx, &out); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("head after footer: got %v", err)
	}
	if err := lc.RenderFooter(ctx, &out); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("second footer: got %v", err)
	}

	for _, s := range []Stage{StageEarly, StageConditional, StageFooter} {
		if !lc.Done(s) {
			t.Errorf("expected stage %s done", s)
		}
	}
	if lc.Done(StageHead) {
		t.Error("head should not be marked done")
	}
}

func TestLifecycle_Run(t *testing.T) {
	ex := &testutil.RecordingExecutor{}
	engine, st := newTestEngine(t, ex)
	ctx := context.Background()

	st.Insert(ctx, snippet.Snippet{ID: 1, Scope: snippet.ScopeGlobal, Code: "g"}, true)
	st.Insert(ctx, snippet.Snippet{ID: 2, Scope: snippet.ScopeHeadContent, Code: "<meta>"}, true)
	st.Insert(ctx, snippet.Snippet{ID: 3, Scope: snippet.ScopeFooterContent, Code: "<script>"}, true)

	lc := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard)
	var out bytes.Buffer
	err := lc.Run(ctx, &out, func(w io.Writer) error {
		_, err := io.WriteString(w, "BODY")
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got, want := out.String(), "\n<meta>\nBODY\n<script>\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if len(ex.Calls()) != 1 {
		t.Errorf("expected 1 execution, got %d", len(ex.Calls()))
	}
	if lc.RequestID() == "" {
		t.Error("expected a request id")
	}
}

func TestLifecycle_RunSafeMode(t *testing.T) {
	ex := &testutil.RecordingExecutor{}
	ev := &testutil.CountingEvaluator{Results: map[string]bool{"cond": true}}
	engine, st := newTestEngine(t, ex,
		WithSafeMode(func() bool { return true }),
		WithEvaluatorFactory(func(evaluation.RequestInfo) condition.Evaluator { return ev }),
	)
	ctx := context.Background()
	st.Insert(ctx, snippet.Snippet{Scope: snippet.ScopeGlobal}, true)
	st.Insert(ctx, snippet.Snippet{ID: 7, Scope: snippet.ScopeCondition, Code: "cond"}, true)
	st.Insert(ctx, snippet.Snippet{Scope: snippet.ScopeHeadContent, Code: "h"}, true)
	st.Insert(ctx, snippet.Snippet{Scope: snippet.ScopeHeadContent, Code: "gated", ConditionID: 7}, true)

	var out bytes.Buffer
	if err := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard).Run(ctx, &out, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(ex.Calls()) != 0 {
		t.Error("no snippet should execute in safe mode")
	}
	if ev.Total() != 0 {
		t.Errorf("evaluated %d conditions in safe mode", ev.Total())
	}
	if out.String() != "\nh\n" {
		t.Errorf("content output = %q", out.String())
	}
}

func TestLifecycle_RunExecutionError(t *testing.T) {
	ex := &testutil.RecordingExecutor{Err: map[int64]error{1: errors.New("fatal")}}
	engine, st := newTestEngine(t, ex)
	ctx := context.Background()
	st.Insert(ctx, snippet.Snippet{ID: 1, Scope: snippet.ScopeGlobal}, true)

	err := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard).Run(ctx, io.Discard, nil)
	var execErr *evaluation.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
}

func TestLifecycle_RequestIDsAreUnique(t *testing.T) {
	engine, _ := newTestEngine(t, &testutil.RecordingExecutor{})
	a := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard)
	b := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard)
	if a.RequestID() == b.RequestID() {
		t.Error("expected distinct request ids")
	}
}

func TestEngine_LuaDefaults(t *testing.T) {
	st := store.NewMemoryStore(store.Options{})
	ctx := context.Background()
	st.Insert(ctx, snippet.Snippet{ID: 1, Scope: snippet.ScopeCondition, Code: `request.query.lang == "fr"`}, true)
	st.Insert(ctx, snippet.Snippet{ID: 2, Scope: snippet.ScopeFrontEnd, Code: `echo("bonjour")`, ConditionID: 1}, true)
	st.Insert(ctx, snippet.Snippet{ID: 3, Scope: snippet.ScopeFrontEnd, Code: `echo("[", request.path, "]")`}, true)

	engine := NewEngine(st, time.Second, WithLogger(logging.Discard()))

	var functionOut bytes.Buffer
	lc := engine.NewLifecycle(evaluation.RequestInfo{Method: "GET", URI: "/hello?lang=fr"}, &functionOut)
	if err := lc.Run(ctx, io.Discard, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := functionOut.String(); got != "[/hello]bonjour" {
		t.Errorf("function output = %q", got)
	}
}

func TestLuaRequest(t *testing.T) {
	lr := LuaRequest(evaluation.RequestInfo{Method: "POST", URI: "/a/b?x=1&x=2&y=", IsAdmin: true})
	if lr.Path != "/a/b" || lr.Method != "POST" || !lr.IsAdmin {
		t.Errorf("unexpected request %+v", lr)
	}
	if lr.Query["x"] != "1" || lr.Query["y"] != "" {
		t.Errorf("unexpected query %v", lr.Query)
	}

	bad := LuaRequest(evaluation.RequestInfo{URI: "/%zz"})
	if !strings.Contains(bad.Path, "%zz") {
		t.Errorf("malformed uri should be kept verbatim, got %q", bad.Path)
	}
}

func TestStageString(t *testing.T) {
	if StageConditional.String() != "conditional" || Stage(9).String() != "stage(9)" {
		t.Error("unexpected stage names")
	}
}

func TestLifecycle_WithRequestID(t *testing.T) {
	engine, _ := newTestEngine(t, &testutil.RecordingExecutor{})
	lc := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard)
	generated := lc.RequestID()

	if lc.WithRequestID("").RequestID() != generated {
		t.Error("empty id should keep the generated one")
	}
	if lc.WithRequestID("req-1").RequestID() != "req-1" {
		t.Error("expected host request id")
	}
}

func TestLifecycle_StageSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	engine, _ := newTestEngine(t, &testutil.RecordingExecutor{}, WithTracer(tracing.NewFromProvider(tp)))
	lc := engine.NewLifecycle(evaluation.RequestInfo{}, io.Discard).WithRequestID("req-42")
	if err := lc.Run(context.Background(), io.Discard, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"lifecycle.early", "lifecycle.conditional", "lifecycle.head", "lifecycle.footer"}
	spans := rec.Ended()
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(spans))
	}
	for i, span := range spans {
		if span.Name() != want[i] {
			t.Errorf("span %d = %q, want %q", i, span.Name(), want[i])
		}
		found := false
		for _, kv := range span.Attributes() {
			if kv.Key == tracing.AttrRequestID && kv.Value.AsString() == "req-42" {
				found = true
			}
		}
		if !found {
			t.Errorf("span %q lacks the request id", span.Name())
		}
	}
}

// Package condition evaluates condition snippets.
//
// A condition snippet holds code whose truthiness gates other snippets. The
// dispatchers treat an evaluation error as false and never abort a request
// because of one.
package condition

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/snippets/pkg/lua"
)

// Evaluator decides whether a condition snippet holds for the current request.
type Evaluator interface {
	Evaluate(ctx context.Context, code string) (bool, error)
}

// Func adapts a function to the Evaluator interface.
type Func func(ctx context.Context, code string) (bool, error)

// Evaluate calls f.
func (f Func) Evaluate(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

// Static returns an Evaluator that always yields result.
func Static(result bool) Evaluator {
	return Func(func(context.Context, string) (bool, error) {
		return result, nil
	})
}

// LuaEvaluator evaluates condition code in a fresh sandboxed Lua state per
// call. Code that parses as an expression is evaluated as one; anything
// else runs as a chunk and its returned value is used.
type LuaEvaluator struct {
	request lua.Request
	timeout time.Duration
}

// NewLuaEvaluator creates an evaluator bound to one request.
func NewLuaEvaluator(req lua.Request, timeout time.Duration) *LuaEvaluator {
	return &LuaEvaluator{request: req, timeout: timeout}
}

// Evaluate runs code and reports its Lua truthiness.
func (e *LuaEvaluator) Evaluate(ctx context.Context, code string) (bool, error) {
	state := lua.NewState(
		lua.WithTimeout(e.timeout),
		lua.WithRequest(e.request),
	)
	defer state.Close()

	if expr := "return (" + code + "\n)"; lua.Parses(expr) {
		code = expr
	}

	v, err := state.Eval(ctx, code)
	if err != nil {
		return false, fmt.Errorf("condition evaluation failed: %w", err)
	}
	return lua.Truthy(v), nil
}

// Package execution runs function snippets.
//
// From the dispatchers' point of view execution is fire-and-forget: an
// Executor either runs the code or returns the error it produced, which the
// dispatchers pass to the host unchanged.
package execution

import (
	"context"
	"fmt"
	"io"
	"time"

	glua "github.com/yuin/gopher-lua"

	"mercator-hq/snippets/pkg/lua"
)

// Executor runs one function snippet.
type Executor interface {
	Execute(ctx context.Context, code string, id int64) error
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, code string, id int64) error

// Execute calls f.
func (f Func) Execute(ctx context.Context, code string, id int64) error {
	return f(ctx, code, id)
}

// LuaExecutor runs snippets in a fresh sandboxed Lua state per call. Output
// from echo and print goes to the request's writer.
type LuaExecutor struct {
	request lua.Request
	output  io.Writer
	timeout time.Duration
}

// NewLuaExecutor creates an executor bound to one request. A nil output
// discards snippet output.
func NewLuaExecutor(req lua.Request, output io.Writer, timeout time.Duration) *LuaExecutor {
	if output == nil {
		output = io.Discard
	}
	return &LuaExecutor{request: req, output: output, timeout: timeout}
}

// Execute runs code with the global snippet_id set to id.
func (e *LuaExecutor) Execute(ctx context.Context, code string, id int64) error {
	state := lua.NewState(
		lua.WithTimeout(e.timeout),
		lua.WithOutput(e.output),
		lua.WithRequest(e.request),
	)
	defer state.Close()

	state.SetGlobal("snippet_id", glua.LNumber(id))

	if err := state.DoString(ctx, code); err != nil {
		return fmt.Errorf("snippet %d: %w", id, err)
	}
	return nil
}

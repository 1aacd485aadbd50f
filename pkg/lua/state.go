package lua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// DefaultTimeout bounds a single DoString or Eval call.
const DefaultTimeout = 2 * time.Second

// Request is the request data visible to snippet code.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	IsAdmin bool
	IsJSON  bool
}

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes Go-side
// access. A State is meant to live for one evaluation.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	output  io.Writer
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithTimeout sets the per-call execution timeout. Zero disables it.
func WithTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// WithOutput directs print and echo to w.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		s.output = w
	}
}

// WithRequest publishes req as the "request" global.
func WithRequest(req Request) StateOption {
	return func(s *State) {
		s.SetRequest(req)
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})

	s := &State{
		L:       L,
		timeout: DefaultTimeout,
		output:  io.Discard,
	}

	openSafeLibraries(L)
	installSandbox(L)
	s.installOutput()

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// installSandbox removes globals that reach outside the state.
func installSandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"require",
		"module",
		"collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// installOutput replaces print and registers echo. Both write to s.output,
// looked up at call time so WithOutput can be applied after construction.
func (s *State) installOutput() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			if i > 1 {
				io.WriteString(s.output, "\t")
			}
			io.WriteString(s.output, L.ToStringMeta(L.Get(i)).String())
		}
		io.WriteString(s.output, "\n")
		return 0
	}))

	s.L.SetGlobal("echo", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			io.WriteString(s.output, L.ToStringMeta(L.Get(i)).String())
		}
		return 0
	}))
}

// SetRequest publishes req as the read-only "request" global.
func (s *State) SetRequest(req Request) {
	L := s.L

	query := L.NewTable()
	for k, v := range req.Query {
		query.RawSetString(k, lua.LString(v))
	}

	data := L.NewTable()
	data.RawSetString("method", lua.LString(req.Method))
	data.RawSetString("path", lua.LString(req.Path))
	data.RawSetString("query", readOnly(L, query))
	data.RawSetString("is_admin", lua.LBool(req.IsAdmin))
	data.RawSetString("is_json", lua.LBool(req.IsJSON))

	L.SetGlobal("request", readOnly(L, data))
}

// readOnly returns an empty proxy table that reads from data and rejects
// writes.
func readOnly(L *lua.LState, data *lua.LTable) *lua.LTable {
	proxy := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__index", data)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("attempt to modify read-only table")
		return 0
	}))
	mt.RawSetString("__metatable", lua.LFalse)
	L.SetMetatable(proxy, mt)
	return proxy
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// DoString executes code. It blocks until the code returns, fails, or the
// timeout or ctx expires.
func (s *State) DoString(ctx context.Context, code string) error {
	_, err := s.run(ctx, code, 0)
	return err
}

// Eval executes code and returns its first return value, or LNil.
func (s *State) Eval(ctx context.Context, code string) (lua.LValue, error) {
	return s.run(ctx, code, 1)
}

func (s *State) run(ctx context.Context, code string, nret int) (result lua.LValue, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil, ErrStateClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			result, err = lua.LNil, fmt.Errorf("lua panic: %v", r)
		}
	}()

	fn, err := s.L.LoadString(code)
	if err != nil {
		return lua.LNil, err
	}

	top := s.L.GetTop()
	s.L.Push(fn)
	if err := s.L.PCall(0, nret, nil); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return lua.LNil, fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return lua.LNil, ctxErr
		}
		return lua.LNil, err
	}

	if nret == 0 {
		return lua.LNil, nil
	}
	result = s.L.Get(-1)
	s.L.SetTop(top)
	return result, nil
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// Truthy reports Lua truthiness: only nil and false are false.
func Truthy(v lua.LValue) bool {
	return lua.LVAsBool(v)
}

// Parses reports whether code is syntactically valid Lua.
func Parses(code string) bool {
	_, err := parse.Parse(strings.NewReader(code), "<string>")
	return err == nil
}

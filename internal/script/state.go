package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Default limits for a Lua state.
const (
	DefaultCallStackSize = 256
	DefaultCallTimeout   = 5 * time.Second
)

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes calls
// made from Go; Go functions invoked by Lua must not call back into State.
type State struct {
	L *lua.LState

	mu sync.Mutex

	callStackSize int
	callTimeout   time.Duration
	print         func(string)

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithCallStackSize bounds the Lua call stack.
func WithCallStackSize(n int) StateOption {
	return func(s *State) {
		if n > 0 {
			s.callStackSize = n
		}
	}
}

// WithCallTimeout bounds every call into Lua. Zero disables the bound.
func WithCallTimeout(d time.Duration) StateOption {
	return func(s *State) {
		if d >= 0 {
			s.callTimeout = d
		}
	}
}

// WithPrint redirects the Lua print function.
func WithPrint(fn func(string)) StateOption {
	return func(s *State) {
		s.print = fn
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{
		callStackSize: DefaultCallStackSize,
		callTimeout:   DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: s.callStackSize,
	})
	openSafeLibraries(s.L)
	s.installSandbox()
	return s
}

// openSafeLibraries opens base, table, string and math. io, os, debug,
// package and coroutine stay closed.
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

func (s *State) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		if s.print == nil {
			return 0
		}
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		s.print(strings.Join(parts, "\t"))
		return 0
	}))
}

// DoString compiles code under chunkName and runs it.
func (s *State) DoString(ctx context.Context, chunkName, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, err := s.L.Load(strings.NewReader(code), chunkName)
	if err != nil {
		return err
	}
	_, err = s.callLocked(ctx, fn)
	return err
}

// CallFunction calls fn with args and returns its results.
func (s *State) CallFunction(ctx context.Context, fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	return s.callLocked(ctx, fn, args...)
}

func (s *State) callLocked(ctx context.Context, fn *lua.LFunction, args ...lua.LValue) (results []lua.LValue, err error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("lua panic: %v", r)
			}
		}()
		err = s.L.PCall(len(args), lua.MultRet, nil)
	}()
	if err != nil {
		s.L.SetTop(top)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrCallTimeout, err)
		}
		return nil, err
	}

	n := s.L.GetTop() - top
	results = make([]lua.LValue, n)
	for i := range n {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(n)
	return results, nil
}

// GetGlobal returns a global variable.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// RegisterModule installs a global table of Go functions and returns it.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) *lua.LTable {
	s.mu.Lock()
	defer s.mu.Unlock()

	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
	return mod
}

// IsClosed reports whether Close was called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state.
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

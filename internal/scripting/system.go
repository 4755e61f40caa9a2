// Package scripting ties the scripting subsystem together.
//
// A System owns the client registry and the loaded script clients. Scripts
// are loaded first; Run or Start then seals the registry and hands control
// to the dispatcher, which polls the host and broadcasts every event to the
// clients through System.NotifyClients.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/scriptbridge/internal/client"
	"github.com/dshills/scriptbridge/internal/dispatch"
	"github.com/dshills/scriptbridge/internal/host"
	"github.com/dshills/scriptbridge/internal/logging"
	"github.com/dshills/scriptbridge/internal/script"
)

// System is the scripting subsystem.
type System struct {
	mu sync.RWMutex

	host     host.Host
	registry *client.Registry
	clients  map[string]*script.Client
	logger   *logging.Logger

	// loading holds names whose scripts are initializing.
	loading map[string]bool

	loopConfig    dispatch.Config
	stateHook     func(dispatch.State)
	callStackSize int
	callTimeout   time.Duration

	loop *dispatch.Loop
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger shared by the system and its clients.
func WithLogger(logger *logging.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoopConfig sets the dispatcher cadence.
func WithLoopConfig(cfg dispatch.Config) Option {
	return func(s *System) {
		s.loopConfig = cfg
	}
}

// WithLuaLimits bounds every client's call stack and call duration.
func WithLuaLimits(callStackSize int, callTimeout time.Duration) Option {
	return func(s *System) {
		s.callStackSize = callStackSize
		s.callTimeout = callTimeout
	}
}

// WithStateHook observes dispatcher state changes.
func WithStateHook(fn func(dispatch.State)) Option {
	return func(s *System) {
		s.stateHook = fn
	}
}

// New creates a System over the engine services h.
func New(h host.Host, opts ...Option) *System {
	s := &System{
		host:          h,
		registry:      client.NewRegistry(),
		clients:       make(map[string]*script.Client),
		loading:       make(map[string]bool),
		logger:        logging.NullLogger,
		loopConfig:    dispatch.DefaultConfig(),
		callStackSize: script.DefaultCallStackSize,
		callTimeout:   script.DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadScript reads the script at path and initializes it as a client named
// after the file. The client becomes visible to the dispatcher only after
// its initialization succeeded and its bindings were flushed.
//
// The name is reserved while the script initializes, so a second script of
// the same name never runs. Sections a script flushed itself before failing
// stay defined in the engine; they only route to a client that does not
// exist, and their key presses are dropped.
func (s *System) LoadScript(ctx context.Context, path string) (*script.Client, error) {
	resolved, source, err := script.ReadScript(path)
	if err != nil {
		return nil, err
	}
	name := script.ClientName(path)

	if err := s.reserve(name); err != nil {
		return nil, err
	}
	defer s.release(name)

	c := script.NewClient(name, s.host, s.logger,
		script.WithLimits(s.callStackSize, s.callTimeout),
		script.WithIndexFunc(func() int {
			idx, _ := s.registry.IndexOf(name)
			return idx
		}),
	)

	if err := s.initialize(ctx, c, resolved, source); err != nil {
		_ = c.Close()
		s.logger.Error("script %s failed to load: %v", name, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.Register(name); err != nil {
		_ = c.Close()
		return nil, err
	}
	s.clients[name] = c

	s.logger.Debug("loaded %s as client %s (%d bindings)", resolved, name, c.Bindings().Len())
	return c, nil
}

// reserve claims name for a script about to initialize.
func (s *System) reserve(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Sealed() {
		return &client.Error{Op: "register", Name: name, Err: client.ErrRegistrationClosed}
	}
	if s.loading[name] || s.registry.Contains(name) {
		return &client.Error{Op: "register", Name: name, Err: client.ErrDuplicateClient}
	}
	s.loading[name] = true
	return nil
}

func (s *System) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loading, name)
}

// initialize runs the script's top level and flushes bindings the script
// left unflushed.
func (s *System) initialize(ctx context.Context, c *script.Client, path, source string) error {
	if err := c.Load(ctx, path, source); err != nil {
		return err
	}
	if c.Bindings().Dirty() {
		if err := c.Bindings().Flush(ctx, s.host); err != nil {
			return &script.LoadError{Path: path, Err: err}
		}
	}
	return nil
}

// LoadAll loads every path. A failing script does not prevent the others
// from loading; all failures are returned joined.
func (s *System) LoadAll(ctx context.Context, paths ...string) ([]*script.Client, error) {
	var (
		loaded []*script.Client
		errs   []error
	)
	for _, path := range paths {
		c, err := s.LoadScript(ctx, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, c)
	}
	return loaded, errors.Join(errs...)
}

// NotifyClients broadcasts ev to every client in registration order. Every
// client is notified; the first failure is returned.
func (s *System) NotifyClients(ctx context.Context, ev host.Event) error {
	clients := s.Clients()
	ev = s.routeKeyBinding(ev, clients)

	var first error
	for _, c := range clients {
		if err := c.Notify(ctx, ev); err != nil && first == nil {
			first = fmt.Errorf("notify %s: %w", c.Name(), err)
		}
	}
	return first
}

// routeKeyBinding qualifies an unqualified key-binding message with the
// client owning the binding so that a key press fires exactly one
// callback. Synthetic names repeat across clients; when several clients own
// the name, the first in registration order wins.
func (s *System) routeKeyBinding(ev host.Event, clients []*script.Client) host.Event {
	if ev.ID != host.EventClientMessage {
		return ev
	}
	args := ev.Args()
	if len(args) < 3 || args[0] != script.KeyBindingMessage || strings.Contains(args[1], "/") {
		return ev
	}

	var owners []string
	for _, c := range clients {
		if _, ok := c.Bindings().Lookup(args[1]); ok {
			owners = append(owners, c.Name())
		}
	}
	if len(owners) == 0 {
		return ev
	}
	if len(owners) > 1 {
		s.logger.Warn("key-binding %s is bound by %s, routing to %s",
			args[1], strings.Join(owners, ", "), owners[0])
	}

	routed := append([]string(nil), args...)
	routed[1] = owners[0] + "/" + args[1]
	return host.ClientMessage(routed...)
}

// IndexOf returns the registration index of the named client.
func (s *System) IndexOf(name string) (int, error) {
	return s.registry.IndexOf(name)
}

// Client returns the named client.
func (s *System) Client(name string) (*script.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[name]
	return c, ok
}

// Clients returns the clients in registration order.
func (s *System) Clients() []*script.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.registry.Names()
	out := make([]*script.Client, 0, len(names))
	for _, name := range names {
		out = append(out, s.clients[name])
	}
	return out
}

// Run seals the registry and runs the dispatcher on the calling goroutine.
func (s *System) Run(ctx context.Context) error {
	loop, err := s.newLoop()
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}

// Start seals the registry and runs the dispatcher on a worker goroutine.
// The host is shut down only after mainDone is closed.
func (s *System) Start(ctx context.Context, mainDone <-chan struct{}) error {
	loop, err := s.newLoop()
	if err != nil {
		return err
	}
	return loop.Start(ctx, mainDone)
}

// Wait blocks until a dispatcher started with Start finished.
func (s *System) Wait() error {
	s.mu.RLock()
	loop := s.loop
	s.mu.RUnlock()

	if loop == nil {
		return dispatch.ErrNotRunning
	}
	return loop.Wait()
}

// Loop returns the dispatcher, or nil before Run or Start.
func (s *System) Loop() *dispatch.Loop {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loop
}

func (s *System) newLoop() (*dispatch.Loop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loop != nil {
		return nil, dispatch.ErrAlreadyRunning
	}
	s.registry.Seal()

	opts := []dispatch.Option{
		dispatch.WithConfig(s.loopConfig),
		dispatch.WithLogger(s.logger),
	}
	if s.stateHook != nil {
		opts = append(opts, dispatch.WithStateHook(s.stateHook))
	}
	s.loop = dispatch.New(s.host, s, opts...)
	s.logger.Info("dispatching to %d clients", s.registry.Len())
	return s.loop, nil
}

// Close releases every client's Lua state.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, c := range s.clients {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

package script

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/scriptbridge/internal/host"
	"github.com/dshills/scriptbridge/internal/keybind"
	"github.com/dshills/scriptbridge/internal/logging"
)

// KeyBindingMessage is the first argument of the client message the engine
// sends when a bound key changes state: ["key-binding", name, state, ...].
const KeyBindingMessage = "key-binding"

// Client is one script: a Lua state, its key binding registry and its
// event handlers.
type Client struct {
	name   string
	id     uuid.UUID
	path   string
	cmd    host.Commander
	logger *logging.Logger

	state    *State
	bridge   *Bridge
	bindings *keybind.Registry

	// events maps event wire names to registered handlers.
	events map[string][]*lua.LFunction

	index     func() int
	stateOpts []StateOption

	// callCtx is the context of the host call in progress. Lua callbacks
	// run synchronously inside it.
	callCtx context.Context
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLimits sets the Lua call stack size and per-call timeout.
func WithLimits(callStackSize int, callTimeout time.Duration) ClientOption {
	return func(c *Client) {
		c.stateOpts = append(c.stateOpts, WithCallStackSize(callStackSize), WithCallTimeout(callTimeout))
	}
}

// WithIndexFunc supplies the client's registry index for mp.client_index.
func WithIndexFunc(fn func() int) ClientOption {
	return func(c *Client) {
		c.index = fn
	}
}

// NewClient creates a client named name issuing commands through cmd.
func NewClient(name string, cmd host.Commander, logger *logging.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = logging.NullLogger
	}
	c := &Client{
		name:     name,
		id:       uuid.New(),
		cmd:      cmd,
		logger:   logger.WithPrefix(name),
		bindings: keybind.NewRegistry(name),
		events:   make(map[string][]*lua.LFunction),
		index:    func() int { return -1 },
		callCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}

	stateOpts := append(c.stateOpts, WithPrint(func(msg string) {
		c.logger.Info("%s", msg)
	}))
	c.state = NewState(stateOpts...)
	c.bridge = NewBridge(c.state.L)
	c.installModule()
	return c
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.name
}

// ID returns the client's instance id.
func (c *Client) ID() string {
	return c.id.String()
}

// Path returns the script path passed to Load.
func (c *Client) Path() string {
	return c.path
}

// Bindings returns the client's key binding registry.
func (c *Client) Bindings() *keybind.Registry {
	return c.bindings
}

// Load runs the script's top level, which is its initialization phase.
func (c *Client) Load(ctx context.Context, path, source string) error {
	c.path = path
	c.logger.Info("okay from extension %s: %t", c.name, true)

	restore := c.enter(ctx)
	defer restore()

	if err := c.state.DoString(ctx, path, source); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return nil
}

// Notify delivers ev to the script. Key-binding messages go to the binding
// registry, other client messages to script-message handlers, and every
// event to the handlers registered for its name. Errors raised by Lua
// handlers are logged and do not fail the delivery.
func (c *Client) Notify(ctx context.Context, ev host.Event) error {
	if c.state.IsClosed() {
		return ErrStateClosed
	}

	restore := c.enter(ctx)
	defer restore()

	c.logger.Debug("received event: %s", ev.ID)

	if ev.ID == host.EventClientMessage {
		c.handleMessage(ev.Args())
	}

	name := ev.ID.String()
	for _, fn := range c.events[name] {
		c.invoke("event "+name, fn, c.bridge.ToLuaValue(ev.Payload), lua.LString(name))
	}
	return nil
}

func (c *Client) handleMessage(args []string) {
	if len(args) == 0 {
		return
	}

	if args[0] != KeyBindingMessage {
		c.bindings.Message(args[0], args[1:])
		return
	}

	if len(args) < 3 {
		c.logger.Warn("malformed key-binding message: %s", strings.Join(args, " "))
		return
	}

	name := args[1]
	if target, binding, ok := strings.Cut(name, "/"); ok {
		if target != c.name {
			return
		}
		name = binding
	}
	if _, ok := c.bindings.Lookup(name); !ok {
		return
	}
	if _, err := c.bindings.Dispatch(name, args[2]); err != nil {
		c.logger.Warn("key-binding %s: %v", name, err)
	}
}

// enter makes ctx the context of Lua callbacks until the returned
// function runs.
func (c *Client) enter(ctx context.Context) func() {
	prev := c.callCtx
	c.callCtx = ctx
	return func() { c.callCtx = prev }
}

// invoke calls a Lua handler and logs its failure.
func (c *Client) invoke(what string, fn *lua.LFunction, args ...lua.LValue) {
	if _, err := c.state.CallFunction(c.callCtx, fn, args...); err != nil {
		c.logger.Error("%s: %v", what, err)
	}
}

// Close releases the Lua state.
func (c *Client) Close() error {
	return c.state.Close()
}

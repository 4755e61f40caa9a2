package script

import (
	"context"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/scriptbridge/internal/host"
	"github.com/dshills/scriptbridge/internal/keybind"
	"github.com/dshills/scriptbridge/internal/logging"
)

// ModuleName is the global the client API is installed under.
const ModuleName = "mp"

// installModule registers the mp table.
func (c *Client) installModule() {
	mod := c.state.RegisterModule(ModuleName, map[string]lua.LGFunction{
		"get_script_name":         c.getScriptName,
		"client_index":            c.clientIndex,
		"extension_ok":            c.extensionOK,
		"log":                     c.log,
		"info":                    c.logAt(logging.LevelInfo),
		"debug":                   c.logAt(logging.LevelDebug),
		"warn":                    c.logAt(logging.LevelWarn),
		"error":                   c.logAt(logging.LevelError),
		"fatal":                   c.logAt(logging.LevelFatal),
		"commandv":                c.commandv,
		"add_binding":             c.addBinding,
		"add_key_binding":         c.addKeyBinding(false),
		"add_forced_key_binding":  c.addKeyBinding(true),
		"flush_key_bindings":      c.flushKeyBindings,
		"register_event":          c.registerEvent,
		"register_script_message": c.registerScriptMessage,
	})
	mod.RawSetString("client_name", lua.LString(c.name))
}

// ctx returns the context Go functions called from Lua run under.
func (c *Client) ctx(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return c.callCtx
}

func (c *Client) getScriptName(L *lua.LState) int {
	L.Push(lua.LString(c.name))
	return 1
}

func (c *Client) clientIndex(L *lua.LState) int {
	L.Push(lua.LNumber(c.index()))
	return 1
}

func (c *Client) extensionOK(L *lua.LState) int {
	L.Push(lua.LTrue)
	return 1
}

// log implements mp.log(level, ...). Arguments are joined by spaces.
func (c *Client) log(L *lua.LState) int {
	level, _ := logging.ParseLevel(L.CheckString(1))
	c.logger.Log(level, "%s", strings.Join(c.bridge.Strings(2), " "))
	return 0
}

func (c *Client) logAt(level logging.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		c.logger.Log(level, "%s", strings.Join(c.bridge.Strings(1), " "))
		return 0
	}
}

// commandv implements mp.commandv(...). It returns true, or nil and an
// error message.
func (c *Client) commandv(L *lua.LState) int {
	args := c.bridge.Strings(1)
	if len(args) == 0 {
		L.ArgError(1, "command expected")
		return 0
	}
	if err := c.cmd.Commandv(c.ctx(L), args...); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// addBinding implements mp.add_binding(key, name, fn, opts). key and name
// may be nil. It returns the binding name.
func (c *Client) addBinding(L *lua.LState) int {
	key := L.OptString(1, "")
	name := L.OptString(2, "")
	fn := L.CheckFunction(3)
	opts := c.bridge.Options(L.OptTable(4, nil))
	return c.bind(L, key, name, fn, opts)
}

// addKeyBinding implements mp.add_key_binding and
// mp.add_forced_key_binding.
func (c *Client) addKeyBinding(forced bool) lua.LGFunction {
	return func(L *lua.LState) int {
		key := L.OptString(1, "")
		name := L.OptString(2, "")
		fn := L.CheckFunction(3)
		opts := c.bridge.Options(L.OptTable(4, nil)).WithForced(forced)
		return c.bind(L, key, name, fn, opts)
	}
}

func (c *Client) bind(L *lua.LState, key, name string, fn *lua.LFunction, opts keybind.Options) int {
	h, err := c.bindings.Add(key, name, opts)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}

	err = h.Bind(func(ev keybind.Event) {
		c.invoke("binding "+ev.Name, fn, c.bridge.EventTable(ev))
	})
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}

	L.Push(lua.LString(h.Name()))
	return 1
}

func (c *Client) flushKeyBindings(L *lua.LState) int {
	if err := c.bindings.Flush(c.ctx(L), c.cmd); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// registerEvent implements mp.register_event(name, fn).
func (c *Client) registerEvent(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	id, err := host.ParseEventID(name)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	c.events[id.String()] = append(c.events[id.String()], fn)
	return 0
}

// registerScriptMessage implements mp.register_script_message(name, fn).
// The handler receives the message arguments as strings.
func (c *Client) registerScriptMessage(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	err := c.bindings.RegisterMessage(name, func(ev keybind.Event) {
		args := make([]lua.LValue, len(ev.Args))
		for i, a := range ev.Args {
			args[i] = lua.LString(a)
		}
		c.invoke("script-message "+name, fn, args...)
	})
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

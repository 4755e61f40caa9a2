package script

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/scriptbridge/internal/keybind"
)

// Bridge converts values between Go and Lua.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToGoValue converts a Lua value to a Go value. Tables with keys 1..n
// become []any, other tables map[string]any. Functions become nil and
// cycles are cut.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGo(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return b.tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func (b *Bridge) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = b.toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = b.toGo(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := b.L.CreateTable(len(val), 0)
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := b.L.CreateTable(len(val), 0)
		for _, item := range val {
			t.Append(b.ToLuaValue(item))
		}
		return t
	case map[string]any:
		t := b.L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, b.ToLuaValue(item))
		}
		return t
	case map[string]string:
		t := b.L.CreateTable(0, len(val))
		for k, s := range val {
			t.RawSetString(k, lua.LString(s))
		}
		return t
	case fmt.Stringer:
		return lua.LString(val.String())
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// EventTable builds the table passed to binding callbacks:
// {name=, state=, args={...}}.
func (b *Bridge) EventTable(ev keybind.Event) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("name", lua.LString(ev.Name))
	if ev.State != "" {
		t.RawSetString("state", lua.LString(ev.State))
	}
	t.RawSetString("args", b.ToLuaValue(append([]string{}, ev.Args...)))
	return t
}

// Options reads binding options from a Lua table. forced, repeatable and
// complex map to their fields; any other boolean key lands in Extra.
func (b *Bridge) Options(t *lua.LTable) keybind.Options {
	var opts keybind.Options
	if t == nil {
		return opts
	}

	var extra []string
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		on := lua.LVAsBool(v)
		switch string(key) {
		case "forced":
			opts.Forced = on
		case "repeatable":
			opts.Repeatable = on
		case "complex":
			opts.Complex = on
		default:
			if v.Type() == lua.LTBool {
				extra = append(extra, string(key))
			}
		}
	})

	sort.Strings(extra)
	for _, key := range extra {
		opts = opts.WithFlag(key, lua.LVAsBool(t.RawGetString(key)))
	}
	return opts
}

// Strings converts the stack values from index start on to strings,
// honoring __tostring.
func (b *Bridge) Strings(start int) []string {
	top := b.L.GetTop()
	if top < start {
		return nil
	}
	out := make([]string, 0, top-start+1)
	for i := start; i <= top; i++ {
		out = append(out, b.L.ToStringMeta(b.L.Get(i)).String())
	}
	return out
}

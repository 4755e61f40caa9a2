package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scriptbridge/internal/host"
	"github.com/dshills/scriptbridge/internal/host/memhost"
	"github.com/dshills/scriptbridge/internal/keybind"
	"github.com/dshills/scriptbridge/internal/logging"
)

func newTestClient(t *testing.T, name, source string, opts ...ClientOption) (*Client, *memhost.Host) {
	t.Helper()
	h := memhost.New()
	logger := logging.New(logging.NewHostSink(h), logging.LevelDebug)
	c := NewClient(name, h, logger, opts...)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Load(context.Background(), name+".lua", source))
	return c, h
}

func logMessages(h *memhost.Host, level string) []string {
	var out []string
	for _, rec := range h.Logs() {
		if rec.Level == level {
			out = append(out, rec.Message)
		}
	}
	return out
}

const fooScript = `
a_calls = 0
b_calls = 0
last_state = nil

mp.add_binding("a", nil, function(e)
	a_calls = a_calls + 1
	last_state = e.state
end)
mp.add_binding("b", nil, function() b_calls = b_calls + 1 end, {forced = true, repeatable = true})
`

func TestFooScenario(t *testing.T) {
	c, _ := newTestClient(t, "foo", fooScript)
	ctx := context.Background()

	normal, forced := c.Bindings().Sections()
	assert.Equal(t, "a script-binding foo/__keybinding1", normal.Text)
	assert.Equal(t, "b script-binding foo/__keybinding2", forced.Text)

	require.NoError(t, c.Notify(ctx, host.ClientMessage("key-binding", "__keybinding1", "d")))
	require.NoError(t, c.Notify(ctx, host.ClientMessage("key-binding", "__keybinding1", "r")))
	require.NoError(t, c.Notify(ctx, host.ClientMessage("key-binding", "foo/__keybinding2", "r")))

	assert.Equal(t, 1, lua2int(c, "a_calls"))
	assert.Equal(t, 1, lua2int(c, "b_calls"))
	assert.Equal(t, "d", c.state.GetGlobal("last_state").String())
}

func lua2int(c *Client, name string) int {
	v, _ := c.bridge.ToGoValue(c.state.GetGlobal(name)).(int64)
	return int(v)
}

func TestKeyBindingForOtherClientIgnored(t *testing.T) {
	c, h := newTestClient(t, "foo", fooScript)
	ctx := context.Background()

	require.NoError(t, c.Notify(ctx, host.ClientMessage("key-binding", "bar/__keybinding1", "d")))
	require.NoError(t, c.Notify(ctx, host.ClientMessage("key-binding", "__keybinding99", "d")))
	assert.Equal(t, 0, lua2int(c, "a_calls"))
	assert.Empty(t, logMessages(h, "warn"))
}

func TestMalformedKeyBinding(t *testing.T) {
	c, h := newTestClient(t, "foo", fooScript)
	require.NoError(t, c.Notify(context.Background(), host.ClientMessage("key-binding", "__keybinding1")))
	require.NoError(t, c.Notify(context.Background(), host.ClientMessage("key-binding", "__keybinding1", "x")))

	warns := logMessages(h, "warn")
	require.Len(t, warns, 2)
	assert.Contains(t, warns[0], "malformed key-binding message")
	assert.Contains(t, warns[1], "invalid key state")
}

func TestLogging(t *testing.T) {
	_, h := newTestClient(t, "osc", `
mp.info("hello", 42)
mp.warn("careful")
mp.log("warning", "renamed")
mp.log("critical", "boom")
mp.debug("dbg")
print("printed", true)
`)

	logs := h.Logs()
	var got []string
	for _, rec := range logs {
		got = append(got, rec.String())
	}
	assert.Equal(t, []string{
		"[info] (osc) okay from extension osc: true",
		"[info] (osc) hello 42",
		"[warn] (osc) careful",
		"[warn] (osc) renamed",
		"[fatal] (osc) boom",
		"[debug] (osc) dbg",
		"[info] (osc) printed\ttrue",
	}, got)
}

func TestCommandv(t *testing.T) {
	c, h := newTestClient(t, "foo", `
ok = mp.commandv("seek", 10, "relative")
`)
	assert.Equal(t, [][]string{{"seek", "10", "relative"}}, h.Commands())
	assert.Equal(t, "true", c.state.GetGlobal("ok").String())

	h.FailCommand(errors.New("rejected"))
	require.NoError(t, c.state.DoString(context.Background(), "t", `ok, err = mp.commandv("quit")`))
	assert.Equal(t, "nil", c.state.GetGlobal("ok").String())
	assert.Contains(t, c.state.GetGlobal("err").String(), "rejected")
}

func TestFlushFromScript(t *testing.T) {
	_, h := newTestClient(t, "foo", `
mp.add_key_binding("a", "toggle", function() end)
mp.add_forced_key_binding("MBTN_LEFT", nil, function() end)
mp.flush_key_bindings()
`)
	assert.Equal(t, [][]string{
		{"define-section", "input_foo", "a script-binding foo/toggle", "default"},
		{"enable-section", "input_foo", "allow-hide-cursor+allow-vo-dragging"},
		{"define-section", "input_forced_foo", "MBTN_LEFT script-binding foo/__keybinding2", "forced"},
		{"enable-section", "input_forced_foo", "allow-hide-cursor+allow-vo-dragging"},
	}, h.Commands())
}

func TestAddBindingReturnsName(t *testing.T) {
	c, _ := newTestClient(t, "foo", `
n1 = mp.add_binding("a", nil, function() end)
n2 = mp.add_binding(nil, "status", function() end)
`)
	assert.Equal(t, "__keybinding1", c.state.GetGlobal("n1").String())
	assert.Equal(t, "status", c.state.GetGlobal("n2").String())
	assert.Equal(t, 2, c.Bindings().Len())
}

func TestBindingOptions(t *testing.T) {
	c, _ := newTestClient(t, "foo", `
mp.add_binding("a", "x", function() end, {repeatable = true, complex = true, scalable = true, label = "ignored"})
`)
	b, ok := c.Bindings().Lookup("x")
	require.True(t, ok)
	assert.Equal(t, keybind.Options{
		Repeatable: true,
		Complex:    true,
		Extra:      map[string]bool{"scalable": true},
	}, b.Options)
}

func TestDuplicateBindingAbortsLoad(t *testing.T) {
	h := memhost.New()
	c := NewClient("foo", h, nil)
	defer c.Close()

	err := c.Load(context.Background(), "foo.lua", `
mp.add_binding("a", "toggle", function() end)
mp.add_binding("b", "toggle", function() end)
`)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "foo.lua", lerr.Path)
	assert.Contains(t, err.Error(), keybind.ErrDuplicateBindingName.Error())
}

func TestScriptMessages(t *testing.T) {
	c, _ := newTestClient(t, "foo", `
got = ""
mp.register_script_message("set-title", function(a, b) got = a .. "|" .. b end)
status_args = nil
mp.add_binding(nil, "status", function(e) status_args = e.args[1] end)
`)
	ctx := context.Background()
	require.NoError(t, c.Notify(ctx, host.ClientMessage("set-title", "hello", "world")))
	require.NoError(t, c.Notify(ctx, host.ClientMessage("status", "verbose")))
	require.NoError(t, c.Notify(ctx, host.ClientMessage("unknown")))

	assert.Equal(t, "hello|world", c.state.GetGlobal("got").String())
	assert.Equal(t, "verbose", c.state.GetGlobal("status_args").String())
}

func TestRegisterEvent(t *testing.T) {
	c, _ := newTestClient(t, "foo", `
seen = {}
mp.register_event("seek", function(payload, name) table.insert(seen, name) end)
mp.register_event("file-loaded", function(payload, name) table.insert(seen, name .. ":" .. payload.path) end)
`)
	ctx := context.Background()
	require.NoError(t, c.Notify(ctx, host.NewEvent(host.EventSeek, nil)))
	require.NoError(t, c.Notify(ctx, host.NewEvent(host.EventPlaybackRestart, nil)))
	require.NoError(t, c.Notify(ctx, host.NewEvent(host.EventFileLoaded, map[string]any{"path": "a.mkv"})))

	assert.Equal(t, []any{"seek", "file-loaded:a.mkv"}, c.bridge.ToGoValue(c.state.GetGlobal("seen")))
}

func TestRegisterUnknownEvent(t *testing.T) {
	c := NewClient("foo", memhost.New(), nil)
	defer c.Close()
	err := c.Load(context.Background(), "foo.lua", `mp.register_event("no-such-event", function() end)`)
	assert.Error(t, err)
}

func TestHandlerErrorsAreLogged(t *testing.T) {
	c, h := newTestClient(t, "foo", `
mp.register_event("seek", function() error("handler exploded") end)
`)
	require.NoError(t, c.Notify(context.Background(), host.NewEvent(host.EventSeek, nil)))

	errs := logMessages(h, "error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "handler exploded")
}

func TestClientIdentity(t *testing.T) {
	c, _ := newTestClient(t, "foo", `
name = mp.client_name
script_name = mp.get_script_name()
idx = mp.client_index()
ok = mp.extension_ok()
`, WithIndexFunc(func() int { return 3 }))

	assert.Equal(t, "foo", c.Name())
	assert.Equal(t, "foo.lua", c.Path())
	assert.Len(t, c.ID(), 36)
	assert.Equal(t, "foo", c.state.GetGlobal("name").String())
	assert.Equal(t, "foo", c.state.GetGlobal("script_name").String())
	assert.Equal(t, "3", c.state.GetGlobal("idx").String())
	assert.Equal(t, "true", c.state.GetGlobal("ok").String())
}

func TestNotifyAfterClose(t *testing.T) {
	c := NewClient("foo", memhost.New(), nil)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Notify(context.Background(), host.NewEvent(host.EventSeek, nil)), ErrStateClosed)
}

func TestCallTimeout(t *testing.T) {
	c := NewClient("spin", memhost.New(), nil, WithLimits(0, 50*time.Millisecond))
	defer c.Close()

	err := c.Load(context.Background(), "spin.lua", `while true do end`)
	require.ErrorIs(t, err, ErrCallTimeout)
}

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scriptbridge/internal/logging"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Second, cfg.Loop.PollTimeout.Std())
	assert.Equal(t, 10*time.Millisecond, cfg.Loop.IdleSleep.Std())
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptbridge.toml")
	writeFile(t, path, `
scripts = ["osc.lua", "stats"]

[log]
level = "warning"
verbose = true

[loop]
poll_timeout = "250ms"
background = true

[lua]
call_stack_size = 500
`)

	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, []string{"osc.lua", "stats"}, cfg.Scripts)
	assert.Equal(t, "warning", cfg.Log.Level)
	assert.Equal(t, logging.LevelWarn, cfg.LogLevel())
	assert.True(t, cfg.Log.Verbose)
	assert.Equal(t, 250*time.Millisecond, cfg.Loop.PollTimeout.Std())
	assert.Equal(t, 10*time.Millisecond, cfg.Loop.IdleSleep.Std(), "absent keys keep defaults")
	assert.True(t, cfg.Loop.Background)
	assert.Equal(t, 500, cfg.Lua.CallStackSize)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadFile(filepath.Join(t.TempDir(), "absent.toml"), &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":        "[log\nlevel = 1",
		"unknown key":   "colour = \"red\"",
		"bad duration":  "[loop]\npoll_timeout = \"soon\"",
		"type mismatch": "scripts = 3",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			writeFile(t, path, content)

			cfg := Default()
			err := LoadFile(path, &cfg)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, path, perr.Path)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, env(map[string]string{
		"SCRIPTBRIDGE_LOG_LEVEL":         "debug",
		"SCRIPTBRIDGE_LOOP_POLL_TIMEOUT": "0s",
		"SCRIPTBRIDGE_LOOP_BACKGROUND":   "true",
		"SCRIPTBRIDGE_SCRIPTS":           "a.lua, b.lua,,",
		"OTHER_LOG_LEVEL":                "error",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Zero(t, cfg.Loop.PollTimeout)
	assert.True(t, cfg.Loop.Background)
	assert.Equal(t, []string{"a.lua", "b.lua"}, cfg.Scripts)
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, env(map[string]string{"SCRIPTBRIDGE_LOOP_BACKGROUND": "maybe"}))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "SCRIPTBRIDGE_LOOP_BACKGROUND", perr.Path)
}

func TestEnvVars(t *testing.T) {
	vars := EnvVars()
	assert.Contains(t, vars, "SCRIPTBRIDGE_LOG_LEVEL")
	assert.Contains(t, vars, "SCRIPTBRIDGE_SCRIPTS")
	assert.Len(t, vars, len(envMapping))
}

func TestLoadAppliesEnvOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptbridge.toml")
	writeFile(t, path, "[log]\nlevel = \"error\"\n")
	t.Setenv("SCRIPTBRIDGE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Loop.IdleSleep = -1
	cfg.Lua.CallStackSize = -5
	cfg.Scripts = []string{""}

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	for _, field := range []string{"log.level", "loop.idle_sleep", "lua.call_stack_size", "scripts"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Scripts = []string{"osc.lua"}
	cfg.ScriptDirs = []string{"scripts"}

	data, err := Encode(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll_timeout")

	var got Config
	require.NoError(t, Parse(data, &got))
	assert.Equal(t, cfg, got)
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptbridge.toml")
	writeFile(t, path, "[log]\nlevel = \"info\"\n")

	var (
		mu     sync.Mutex
		levels []string
	)
	w, err := NewWatcher(path, func(cfg Config) {
		mu.Lock()
		defer mu.Unlock()
		levels = append(levels, cfg.Log.Level)
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	writeFile(t, path, "[log]\nlevel = \"debug\"\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(levels) > 0 && levels[len(levels)-1] == "debug"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherReportsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptbridge.toml")
	writeFile(t, path, "")

	errs := make(chan error, 8)
	w, err := NewWatcher(path, func(Config) {}, WithDebounce(10*time.Millisecond), WithErrorHandler(func(err error) {
		errs <- err
	}))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	writeFile(t, path, "[log]\nlevel = \"loud\"\n")

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrInvalidConfig)
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptbridge.toml")
	writeFile(t, path, "")

	called := make(chan struct{}, 1)
	w, err := NewWatcher(path, func(Config) { called <- struct{}{} }, WithDebounce(5*time.Millisecond))
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1")
	select {
	case <-called:
		t.Fatal("reload triggered by an unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrWatcherClosed)
}

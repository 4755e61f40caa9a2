package config

import (
	"errors"
	"time"

	"github.com/dshills/scriptbridge/internal/logging"
)

// Config is the complete scriptbridge configuration.
type Config struct {
	// Scripts are loaded in order, one client per script.
	Scripts []string `toml:"scripts"`

	// ScriptDirs are scanned for *.lua files and script directories.
	ScriptDirs []string `toml:"script_dirs"`

	Log  LogConfig  `toml:"log"`
	Loop LoopConfig `toml:"loop"`
	Lua  LuaConfig  `toml:"lua"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error, fatal.
	Level string `toml:"level"`

	// Verbose enables a debug record per dispatched event.
	Verbose bool `toml:"verbose"`
}

// LoopConfig controls the dispatcher.
type LoopConfig struct {
	// PollTimeout is the host wait timeout. Negative blocks indefinitely.
	PollTimeout Duration `toml:"poll_timeout"`

	// IdleSleep is the pause after an empty non-blocking poll.
	IdleSleep Duration `toml:"idle_sleep"`

	// Background runs the dispatcher on a worker goroutine.
	Background bool `toml:"background"`
}

// LuaConfig limits script execution.
type LuaConfig struct {
	// CallStackSize bounds the Lua call stack depth.
	CallStackSize int `toml:"call_stack_size"`

	// CallTimeout bounds a single script call. Zero disables it.
	CallTimeout Duration `toml:"call_timeout"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
		},
		Loop: LoopConfig{
			PollTimeout: Duration(time.Second),
			IdleSleep:   Duration(10 * time.Millisecond),
		},
		Lua: LuaConfig{
			CallStackSize: 256,
			CallTimeout:   Duration(5 * time.Second),
		},
	}
}

// Validate checks every field and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, &ValidationError{Field: "log.level", Reason: "unknown level " + c.Log.Level})
	}
	if c.Loop.IdleSleep < 0 {
		errs = append(errs, &ValidationError{Field: "loop.idle_sleep", Reason: "must not be negative"})
	}
	if c.Lua.CallStackSize < 0 {
		errs = append(errs, &ValidationError{Field: "lua.call_stack_size", Reason: "must not be negative"})
	}
	if c.Lua.CallTimeout < 0 {
		errs = append(errs, &ValidationError{Field: "lua.call_timeout", Reason: "must not be negative"})
	}
	for _, s := range c.Scripts {
		if s == "" {
			errs = append(errs, &ValidationError{Field: "scripts", Reason: "empty path"})
			break
		}
	}
	return errors.Join(errs...)
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() logging.Level {
	l, _ := logging.ParseLevel(c.Log.Level)
	return l
}

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCRIPTBRIDGE_"

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

type envSetter func(cfg *Config, value string) error

// envMapping maps variable names (without prefix) to setters.
var envMapping = map[string]envSetter{
	"LOG_LEVEL": func(c *Config, v string) error {
		c.Log.Level = v
		return nil
	},
	"LOG_VERBOSE": func(c *Config, v string) error {
		return setBool(&c.Log.Verbose, v)
	},
	"LOOP_POLL_TIMEOUT": func(c *Config, v string) error {
		return setDuration(&c.Loop.PollTimeout, v)
	},
	"LOOP_IDLE_SLEEP": func(c *Config, v string) error {
		return setDuration(&c.Loop.IdleSleep, v)
	},
	"LOOP_BACKGROUND": func(c *Config, v string) error {
		return setBool(&c.Loop.Background, v)
	},
	"LUA_CALL_STACK_SIZE": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Lua.CallStackSize = n
		return nil
	},
	"LUA_CALL_TIMEOUT": func(c *Config, v string) error {
		return setDuration(&c.Lua.CallTimeout, v)
	},
	"SCRIPTS": func(c *Config, v string) error {
		c.Scripts = splitList(v)
		return nil
	},
	"SCRIPT_DIRS": func(c *Config, v string) error {
		c.ScriptDirs = splitList(v)
		return nil
	},
}

// EnvVars returns the supported variable names, prefix included.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, EnvPrefix+name)
	}
	return names
}

// ApplyEnv overrides cfg with SCRIPTBRIDGE_* variables read through lookup.
// Empty values are treated as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for name, set := range envMapping {
		key := EnvPrefix + name
		val, ok := lookup(key)
		if !ok {
			continue
		}
		if err := set(cfg, strings.TrimSpace(val)); err != nil {
			return &ParseError{Path: key, Message: fmt.Sprintf("invalid value %q", val), Err: err}
		}
	}
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setDuration(dst *Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = Duration(d)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

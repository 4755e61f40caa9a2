// Package config provides the configuration for scriptbridge.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (internal/cli)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← SCRIPTBRIDGE_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← scriptbridge.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A missing config file is not an error. Durations are written as Go
// duration strings ("1s", "250ms").
//
// # Example File
//
//	scripts = ["osc.lua", "stats"]
//	script_dirs = ["/etc/scriptbridge/scripts"]
//
//	[log]
//	level = "info"
//	verbose = false
//
//	[loop]
//	poll_timeout = "1s"
//	idle_sleep = "10ms"
//	background = true
//
//	[lua]
//	call_stack_size = 256
//	call_timeout = "5s"
//
// # Live Reload
//
// Watcher observes the config file and hands every successfully reloaded
// Config to a callback:
//
//	w, err := config.NewWatcher(path, func(cfg config.Config) {
//		logger.SetLevel(cfg.LogLevel())
//	})
//	defer w.Close()
package config

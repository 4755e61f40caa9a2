package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dshills/scriptbridge/internal/config"
	"github.com/dshills/scriptbridge/internal/dispatch"
	"github.com/dshills/scriptbridge/internal/host"
	"github.com/dshills/scriptbridge/internal/host/memhost"
	"github.com/dshills/scriptbridge/internal/logging"
	"github.com/dshills/scriptbridge/internal/script"
	"github.com/dshills/scriptbridge/internal/scripting"
)

// session is a scripting subsystem over an in-memory engine.
type session struct {
	cfg    config.Config
	host   *memhost.Host
	logger *logging.Logger
	system *scripting.System

	loadErrors []string
}

// loadConfig reads the configuration and applies the global flags over it.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.LogLevel != "" {
		if _, ok := logging.ParseLevel(opts.LogLevel); !ok {
			return cfg, NewExitError(ExitCommandError, fmt.Sprintf("invalid log level %q", opts.LogLevel))
		}
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Verbose {
		cfg.Log.Verbose = true
	}
	return cfg, nil
}

// newSession builds the subsystem. Log records are always recorded by the
// engine; with verbose set they are mirrored to stderr.
func newSession(cfg config.Config, stderr io.Writer, events ...host.Event) *session {
	h := memhost.New(memhost.WithEvents(events...))

	var sink logging.Sink = logging.NewHostSink(h)
	if cfg.Log.Verbose {
		sink = logging.MultiSink{sink, logging.NewWriterSink(stderr)}
	}
	logger := logging.New(sink, cfg.LogLevel())

	sys := scripting.New(h,
		scripting.WithLogger(logger),
		scripting.WithLoopConfig(dispatch.Config{
			PollTimeout: cfg.Loop.PollTimeout.Std(),
			IdleSleep:   cfg.Loop.IdleSleep.Std(),
			Verbose:     cfg.Log.Verbose,
		}),
		scripting.WithLuaLimits(cfg.Lua.CallStackSize, cfg.Lua.CallTimeout.Std()),
	)

	return &session{cfg: cfg, host: h, logger: logger, system: sys}
}

// scriptPaths returns the scripts named on the command line, then those
// named in the configuration, then those found in the script directories.
func scriptPaths(cfg config.Config, args []string) ([]string, error) {
	paths := append([]string(nil), args...)
	paths = append(paths, cfg.Scripts...)

	found, err := script.Discover(cfg.ScriptDirs...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "discovering scripts", err)
	}
	return append(paths, found...), nil
}

// load loads every script. Failures are kept in loadErrors; the remaining
// scripts still load.
func (s *session) load(ctx context.Context, paths []string) {
	for _, path := range paths {
		if _, err := s.system.LoadScript(ctx, path); err != nil {
			s.loadErrors = append(s.loadErrors, err.Error())
		}
	}
}

func (s *session) clientNames() []string {
	var names []string
	for _, c := range s.system.Clients() {
		names = append(names, c.Name())
	}
	return names
}

func (s *session) close() {
	_ = s.system.Close()
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/scriptbridge/internal/config"
	"github.com/dshills/scriptbridge/internal/host"
	"github.com/dshills/scriptbridge/internal/host/memhost"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Scenario   string
	Background bool
	Watch      bool
}

// RunResult summarizes a dispatcher run.
type RunResult struct {
	RunID      string     `json:"run_id"`
	Clients    []string   `json:"clients"`
	Reason     string     `json:"reason"`
	Failure    string     `json:"failure,omitempty"`
	Polled     uint64     `json:"polled"`
	Idle       uint64     `json:"idle"`
	Delivered  uint64     `json:"delivered"`
	Shutdowns  int        `json:"shutdowns"`
	Commands   [][]string `json:"commands"`
	Logs       []string   `json:"logs"`
	LoadErrors []string   `json:"load_errors,omitempty"`
}

// String renders the result as text.
func (r RunResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "clients: %s\n", strings.Join(r.Clients, ", "))
	fmt.Fprintf(&sb, "terminated: %s (polled %d, idle %d, delivered %d, shutdowns %d)\n",
		r.Reason, r.Polled, r.Idle, r.Delivered, r.Shutdowns)
	if r.Failure != "" {
		fmt.Fprintf(&sb, "failure: %s\n", r.Failure)
	}
	if len(r.Commands) > 0 {
		sb.WriteString("commands:\n")
		for _, args := range r.Commands {
			sb.WriteString("  ")
			sb.WriteString(formatCommand(args))
			sb.WriteString("\n")
		}
	}
	if len(r.Logs) > 0 {
		sb.WriteString("logs:\n")
		for _, line := range r.Logs {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}
	for _, e := range r.LoadErrors {
		fmt.Fprintf(&sb, "load error: %s\n", e)
	}
	return sb.String()
}

// formatCommand renders a command with every argument after the first
// quoted.
func formatCommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	parts := []string{args[0]}
	for _, a := range args[1:] {
		parts = append(parts, strconv.Quote(a))
	}
	return strings.Join(parts, " ")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [scripts...]",
		Short: "Load scripts and replay an engine event scenario",
		Long: `Load Lua client scripts and run the dispatcher over an in-memory engine.

The engine replays the events of a YAML scenario file. A shutdown event is
appended when the scenario does not end with one. Commands the scripts
sent to the engine and the log records they produced are printed after
the run.

Example:
  scriptbridge run --scenario events.yaml osc.lua stats/
  scriptbridge run -c scriptbridge.toml --background --format json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Scenario, "scenario", "s", "", "path to YAML event scenario")
	cmd.Flags().BoolVar(&opts.Background, "background", false, "run the dispatcher on a worker goroutine")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload the log level when the config file changes")

	return cmd
}

func runScripts(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("background") {
		cfg.Loop.Background = opts.Background
	}

	events, err := scenarioEvents(opts.Scenario)
	if err != nil {
		return err
	}
	paths, err := scriptPaths(cfg, args)
	if err != nil {
		return err
	}
	formatter.VerboseLog("loading %d script(s), replaying %d event(s)", len(paths), len(events))

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(cfg, cmd.ErrOrStderr(), events...)
	defer s.close()
	s.load(ctx, paths)

	if opts.Watch && opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, func(c config.Config) {
			s.logger.SetLevel(c.LogLevel())
			formatter.VerboseLog("config reloaded, log level %s", c.LogLevel())
		}, config.WithErrorHandler(func(err error) {
			formatter.VerboseLog("config reload failed: %v", err)
		}))
		if err != nil {
			return WrapExitError(ExitCommandError, "watching config", err)
		}
		defer w.Close()
	}

	runErr := dispatchSession(ctx, s, cfg.Loop.Background)

	loop := s.system.Loop()
	stats := loop.Stats()
	result := RunResult{
		RunID:      loop.RunID(),
		Clients:    s.clientNames(),
		Reason:     loop.Reason().String(),
		Polled:     stats.Polled,
		Idle:       stats.Idle,
		Delivered:  stats.Delivered,
		Shutdowns:  s.host.ShutdownCount(),
		Commands:   s.host.Commands(),
		LoadErrors: s.loadErrors,
	}
	if failure := loop.Failure(); failure != nil {
		result.Failure = failure.Error()
	}
	for _, rec := range s.host.Logs() {
		result.Logs = append(result.Logs, rec.String())
	}
	if err := formatter.Success(result); err != nil {
		return err
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "host shutdown failed", runErr)
	}
	if result.Failure != "" {
		return NewExitError(ExitFailure, "terminated on host failure")
	}
	if len(s.loadErrors) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d script(s) failed to load", len(s.loadErrors)))
	}
	return nil
}

// dispatchSession runs the dispatcher. In background mode the command
// goroutine plays the main thread: it releases the worker and waits for it.
func dispatchSession(ctx context.Context, s *session, background bool) error {
	if !background {
		return s.system.Run(ctx)
	}
	mainDone := make(chan struct{})
	if err := s.system.Start(ctx, mainDone); err != nil {
		return err
	}
	close(mainDone)
	return s.system.Wait()
}

// scenarioEvents reads the scenario and makes sure it ends with SHUTDOWN.
func scenarioEvents(path string) ([]host.Event, error) {
	shutdown := host.NewEvent(host.EventShutdown, nil)
	if path == "" {
		return []host.Event{shutdown}, nil
	}

	sc, err := memhost.LoadScenario(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid scenario", err)
	}
	events := sc.Events()
	if !sc.EndsWithShutdown() {
		events = append(events, shutdown)
	}
	return events, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

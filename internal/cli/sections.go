package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ClientSections is the compiled input sections of one client.
type ClientSections struct {
	Client   string     `json:"client"`
	Bindings int        `json:"bindings"`
	Commands [][]string `json:"commands"`
}

// SectionsResult lists the sections of every loaded client.
type SectionsResult struct {
	Clients    []ClientSections `json:"clients"`
	LoadErrors []string         `json:"load_errors,omitempty"`
}

// String renders the result as text.
func (r SectionsResult) String() string {
	var sb strings.Builder
	for _, c := range r.Clients {
		fmt.Fprintf(&sb, "# %s (%d bindings)\n", c.Client, c.Bindings)
		for _, args := range c.Commands {
			sb.WriteString(formatCommand(args))
			sb.WriteString("\n")
		}
	}
	for _, e := range r.LoadErrors {
		fmt.Fprintf(&sb, "load error: %s\n", e)
	}
	return sb.String()
}

// NewSectionsCommand creates the sections command.
func NewSectionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sections [scripts...]",
		Short: "Print the input sections scripts register",
		Long: `Load Lua client scripts and print the define-section and enable-section
commands each client registers with the engine.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSections(rootOpts, args, cmd)
		},
	}
}

func runSections(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	paths, err := scriptPaths(cfg, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scripts given")
	}

	s := newSession(cfg, cmd.ErrOrStderr())
	defer s.close()
	s.load(commandContext(cmd), paths)

	result := SectionsResult{LoadErrors: s.loadErrors}
	for _, c := range s.system.Clients() {
		formatter.VerboseLog("client %s loaded from %s", c.Name(), c.Path())
		result.Clients = append(result.Clients, ClientSections{
			Client:   c.Name(),
			Bindings: c.Bindings().Len(),
			Commands: c.Bindings().Commands(),
		})
	}
	if err := formatter.Success(result); err != nil {
		return err
	}
	if len(s.loadErrors) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d script(s) failed to load", len(s.loadErrors)))
	}
	return nil
}

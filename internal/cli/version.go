package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// String renders the build info as text.
func (b BuildInfo) String() string {
	return fmt.Sprintf("scriptbridge %s\ncommit: %s\nbuilt: %s\ngo: %s\n", b.Version, b.Commit, b.Date, runtime.Version())
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(info)
		},
	}
}

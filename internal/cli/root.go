package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the form4qa command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "form4qa",
		Short: "Form 4 QA tracker",
		Long: `Track quality assurance for Form 4 road treatment schedules.

Ingests Form 4 workbooks, derives the compliance tests each treatment
line needs, records progress and exports the combined state to xlsx.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewProjectsCommand(opts))

	return cmd
}

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List stored projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.svc.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return newPrinter(rootOpts, cmd.OutOrStdout()).emit(items, func(w io.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "No projects")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTREATMENTS\tTESTS\tUPDATED")
				for _, p := range items {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", p.ID, p.Name, p.Treatments, p.Requirements, p.Updated.Format("2006-01-02 15:04"))
				}
				_ = tw.Flush()
			})
		},
	}
}

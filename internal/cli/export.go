package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Write the project workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()
			return runExport(cmd.Context(), a, args[0], output, newPrinter(rootOpts, cmd.OutOrStdout()))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or directory (default: <name>_QA_Progress_<date>.xlsx)")
	return cmd
}

func runExport(ctx context.Context, a *app, id, output string, out *printer) error {
	data, name, err := a.svc.Export(ctx, id)
	if err != nil {
		return err
	}
	path := name
	if output != "" {
		path = output
		if fi, err := os.Stat(output); err == nil && fi.IsDir() {
			path = filepath.Join(output, name)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return out.emit(map[string]any{"path": path, "bytes": len(data)}, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %s\n", path)
	})
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

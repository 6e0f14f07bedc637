package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"form4qa/internal/ingest"

	"github.com/spf13/cobra"
)

type ingestOptions struct {
	name      string
	projectID string
	tracking  bool
}

type ingestOutput struct {
	ProjectID string         `json:"projectId"`
	Name      string         `json:"name"`
	Records   int            `json:"records"`
	Tests     int            `json:"testingRequirements"`
	Errors    []ingest.Issue `json:"errors,omitempty"`
	Warnings  []ingest.Issue `json:"warnings,omitempty"`
}

func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest <file.xlsx>",
		Short: "Load a Form 4 workbook into a project",
		Long: `Load a Form 4 workbook into a new project, or replace the records of an
existing one with --project. With --tracking the file is read as a previously
maintained QA tracking workbook instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()
			return runIngest(cmd.Context(), a, opts, args[0], newPrinter(rootOpts, cmd.OutOrStdout()))
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "name of the new project (default: file name)")
	cmd.Flags().StringVar(&opts.projectID, "project", "", "existing project id to replace")
	cmd.Flags().BoolVar(&opts.tracking, "tracking", false, "read a QA tracking workbook (Form4 and Compaction Testing sheets)")
	return cmd
}

func runIngest(ctx context.Context, a *app, opts *ingestOptions, path string, out *printer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	id, name := opts.projectID, opts.name
	if id == "" {
		if name == "" {
			name = baseName(path)
		}
		p, err := a.svc.CreateProject(ctx, name)
		if err != nil {
			return err
		}
		id = p.ID
	}

	res := ingestOutput{ProjectID: id}
	if opts.tracking {
		tr, err := a.svc.ImportTracking(ctx, id, f)
		if err != nil {
			return a.discard(ctx, opts, id, err)
		}
		res.Records, res.Tests = len(tr.TreatmentRecords), len(tr.ExistingTests)
	} else {
		r, err := a.svc.IngestForm4(ctx, id, f)
		if err != nil {
			return a.discard(ctx, opts, id, err)
		}
		res.Records, res.Tests = len(r.TreatmentRecords), len(r.TestingRequirements)
		res.Errors, res.Warnings = r.Errors, r.Warnings
	}
	p, err := a.svc.GetProject(ctx, id)
	if err != nil {
		return err
	}
	res.Name = p.Name

	return out.emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "Project %s (%s)\n", res.Name, res.ProjectID)
		fmt.Fprintf(w, "  %d treatment records, %d testing requirements\n", res.Records, res.Tests)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  error:   %s\n", e)
		}
		for _, wn := range res.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", wn)
		}
	})
}

// discard removes a project created for a failed ingestion.
func (a *app) discard(ctx context.Context, opts *ingestOptions, id string, cause error) error {
	if opts.projectID == "" {
		_ = a.svc.DeleteProject(ctx, id)
	}
	return cause
}

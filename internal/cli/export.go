package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/viewer"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out      string
	Password string
	Accepted bool
}

// ExportResult is the JSON output of export.
type ExportResult struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a proposal as a standalone HTML page",
		Long: `Render a proposal as a single HTML page using its theme.

The letter keeps basic emphasis (p, br, em, strong); other markup is
stripped. Protected proposals need the shared secret.

Examples:
  eternal export 3f2a9c... --out story.html
  eternal export 3f2a9c... --password moonlight > story.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "shared secret for protected proposals")
	cmd.Flags().BoolVar(&opts.Accepted, "accepted", false, "render the finale as already accepted")

	return cmd
}

func runExport(opts *ExportOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Format == "json" && (opts.Out == "" || opts.Out == "-") {
		return f.Fail(ExitCommandError, CodeInvalidInput, "--out is required with --format json", nil)
	}

	st, _, closeStore, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, CodeStorage, "failed to open database", err)
	}
	defer closeStore()

	outcome, err := viewer.Open(cmdContext(cmd), st, id, opts.Now())
	if err != nil {
		return f.Fail(ExitCommandError, storageCode(err), "failed to open proposal", err)
	}
	if outcome.Redirected() {
		return f.Fail(ExitFailure, CodeNotFound, fmt.Sprintf("no proposal %s", id), nil)
	}

	session := outcome.Session
	if err := unlock(session, opts.Password); err != nil {
		return f.Fail(ExitFailure, CodeLocked, err.Error(), nil)
	}
	if opts.Accepted {
		if err := session.Answer(true); err != nil {
			return f.Fail(ExitFailure, CodeLocked, "failed to answer", err)
		}
	}

	if opts.Out == "" || opts.Out == "-" {
		return renderHTML(session, cmd.OutOrStdout(), f)
	}

	if err := writeFile(opts.Out, session.RenderHTML); err != nil {
		return f.Fail(ExitCommandError, CodeInvalidInput, "failed to write output file", err)
	}
	opts.Logger.Info("exported proposal", "id", id, "path", opts.Out)

	if opts.Format == "json" {
		return f.Success(ExportResult{ID: id, Path: opts.Out})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.Out)
	return nil
}

// writeFile renders into path. A failed render or close removes the partial
// file.
func writeFile(path string, render func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func renderHTML(s *viewer.Session, w io.Writer, f *OutputFormatter) error {
	if err := s.RenderHTML(w); err != nil {
		return f.Fail(ExitCommandError, CodeInvalidInput, "failed to render page", err)
	}
	return nil
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/store"
)

// ImportResult is the output of the import command.
type ImportResult struct {
	File string `json:"file"`
	store.ImportReport
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import proposals from a browser export",
		Long: `Append proposals from a JSON file. The file may hold either the
proposal array itself or a local storage dump containing the
"eternal_proposals" key. Records whose id is already stored are skipped.

Examples:
  eternal import ./proposals.json
  eternal import ./localstorage.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return f.Fail(ExitCommandError, CodeImport, "failed to read import file", err)
	}
	records, err := decodeExport(data)
	if err != nil {
		return f.Fail(ExitCommandError, CodeImport, "failed to parse import file", err)
	}
	opts.Logger.Debug("parsed import file", "path", path, "records", len(records))

	st, _, closeStore, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, CodeStorage, "failed to open database", err)
	}
	defer closeStore()

	report, err := st.Import(cmdContext(cmd), records)
	if err != nil {
		return f.Fail(ExitCommandError, storageCode(err), "failed to import proposals", err)
	}
	opts.Logger.Info("imported proposals", "added", report.Added, "skipped", len(report.Skipped))

	if opts.Format == "json" {
		return f.Success(ImportResult{File: path, ImportReport: report})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Imported %d proposal(s) from %s\n", report.Added, path)
	for _, id := range report.Skipped {
		if id == "" {
			fmt.Fprintln(w, "  skipped: record without id")
			continue
		}
		fmt.Fprintf(w, "  skipped: %s (already stored)\n", id)
	}
	return nil
}

// decodeExport accepts a proposal array or a local storage object whose
// store key holds the array as a JSON string.
func decodeExport(data []byte) ([]proposal.Proposal, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}

	if data[0] == '{' {
		var dump map[string]json.RawMessage
		if err := json.Unmarshal(data, &dump); err != nil {
			return nil, err
		}
		raw, ok := dump[store.Key]
		if !ok {
			return nil, fmt.Errorf("no %q key in local storage export", store.Key)
		}
		// Browsers store values as strings; accept an inline array too.
		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil {
			raw = json.RawMessage(inner)
		}
		data = raw
	}

	var records []proposal.Proposal
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

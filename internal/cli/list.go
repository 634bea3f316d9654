package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/route"
	"github.com/roach88/eternal/internal/store"
)

// ListItem is the public summary of one stored proposal. The shared secret
// is never included.
type ListItem struct {
	ID          string `json:"id"`
	CreatorName string `json:"creator_name"`
	PartnerName string `json:"partner_name"`
	Title       string `json:"title"`
	Theme       string `json:"theme"`
	Memories    int    `json:"memories"`
	Protected   bool   `json:"protected"`
	Expired     bool   `json:"expired,omitempty"`
	CreatedAt   string `json:"created_at"`
	Route       string `json:"route"`
}

// ListResult is the output of the list command.
type ListResult struct {
	Proposals []ListItem `json:"proposals"`
	Total     int        `json:"total"`
	UpdatedAt string     `json:"updated_at,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored proposals",
		Long: `List every stored proposal in creation order (route /).

Examples:
  eternal list
  eternal list --db ./story.db --format json
  eternal list --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	st, backend, closeStore, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, CodeStorage, "failed to open database", err)
	}
	defer closeStore()

	ctx := cmdContext(cmd)
	f.VerboseLog("Reading %s", opts.Config.Database)
	result, err := listProposals(ctx, st, opts.Now())
	if err != nil {
		return f.Fail(ExitCommandError, CodeStorage, "failed to list proposals", err)
	}
	if opts.Verbose {
		if at, ok, err := backend.UpdatedAt(ctx, store.Key); err == nil && ok {
			result.UpdatedAt = at.UTC().Format(time.RFC3339)
		}
	}

	if opts.Format == "json" {
		return f.Success(result)
	}
	printList(cmd, result)
	return nil
}

func listProposals(ctx context.Context, st *store.Store, now time.Time) (ListResult, error) {
	records, err := st.ListAll(ctx)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Proposals: make([]ListItem, 0, len(records)), Total: len(records)}
	for _, p := range records {
		result.Proposals = append(result.Proposals, summarize(p, now))
	}
	return result, nil
}

func summarize(p proposal.Proposal, now time.Time) ListItem {
	return ListItem{
		ID:          p.ID,
		CreatorName: p.CreatorName,
		PartnerName: p.PartnerName,
		Title:       p.Title,
		Theme:       string(p.Theme),
		Memories:    len(p.Memories),
		Protected:   p.Protected(),
		Expired:     p.Expired(now),
		CreatedAt:   p.Created().UTC().Format(time.RFC3339),
		Route:       route.ViewerPath(p.ID),
	}
}

func printList(cmd *cobra.Command, result ListResult) {
	w := cmd.OutOrStdout()
	if result.Total == 0 {
		fmt.Fprintln(w, "No proposals yet. Run `eternal create` to write one.")
		return
	}

	for _, item := range result.Proposals {
		names := fmt.Sprintf("%s & %s", orDash(item.CreatorName), orDash(item.PartnerName))
		fmt.Fprintf(w, "%s  %-28s %-8s %d memories  %s", item.Route, names, item.Theme, item.Memories, item.CreatedAt)
		if item.Protected {
			fmt.Fprint(w, "  [secret]")
		}
		if item.Expired {
			fmt.Fprint(w, "  [expired]")
		}
		fmt.Fprintln(w)
		if item.Title != "" {
			fmt.Fprintf(w, "    %s\n", item.Title)
		}
	}
	fmt.Fprintf(w, "\n%d proposal(s)\n", result.Total)
	if result.UpdatedAt != "" {
		fmt.Fprintf(w, "Last saved: %s\n", result.UpdatedAt)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// cmdContext returns the command's context, or Background when unset.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// storageCode picks the E-code for a Record Store error.
func storageCode(err error) string {
	switch {
	case errors.Is(err, store.ErrCorrupt):
		return CodeCorrupt
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	}
	return CodeStorage
}

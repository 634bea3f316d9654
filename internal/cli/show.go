package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/route"
	"github.com/roach88/eternal/internal/viewer"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Password string
	Answer   string // "yes" | "no" | ""
}

// ShowResult is the JSON output of show.
type ShowResult struct {
	Redirect  string        `json:"redirect,omitempty"`
	Proposals []ListItem    `json:"proposals,omitempty"`
	Story     *StoryView    `json:"story,omitempty"`
	Answer    *AnswerResult `json:"answer,omitempty"`
}

// StoryView is the readable part of a proposal.
type StoryView struct {
	ID           string            `json:"id"`
	CreatorName  string            `json:"creator_name"`
	PartnerName  string            `json:"partner_name"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	MainImageURL string            `json:"main_image_url,omitempty"`
	MusicURL     string            `json:"music_url,omitempty"`
	Theme        string            `json:"theme"`
	Memories     []proposal.Memory `json:"memories"`
	CreatedAt    string            `json:"created_at"`
}

// AnswerResult reports the finale.
type AnswerResult struct {
	Accepted bool `json:"accepted"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "View a proposal",
		Long: `Replay a stored proposal (route /p/{id}).

Protected proposals need the shared secret. Unknown or expired ids
return to the listing.

Examples:
  eternal show 3f2a9c...
  eternal show 3f2a9c... --password moonlight
  eternal show 3f2a9c... --answer yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Password, "password", "", "shared secret for protected proposals")
	cmd.Flags().StringVar(&opts.Answer, "answer", "", "answer the question (yes|no)")

	return cmd
}

func parseAnswer(s string) (accept, set bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return false, false, nil
	case "yes", "y":
		return true, true, nil
	case "no", "n":
		return false, true, nil
	}
	return false, false, fmt.Errorf("answer must be yes or no, got %q", s)
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	accept, answered, err := parseAnswer(opts.Answer)
	if err != nil {
		return f.Fail(ExitCommandError, CodeInvalidInput, "invalid --answer", err)
	}

	st, _, closeStore, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, CodeStorage, "failed to open database", err)
	}
	defer closeStore()

	ctx := cmdContext(cmd)
	now := opts.Now()
	outcome, err := viewer.Open(ctx, st, id, now)
	if err != nil {
		return f.Fail(ExitCommandError, storageCode(err), "failed to open proposal", err)
	}

	if outcome.Redirected() {
		opts.Logger.Debug("proposal unavailable, redirecting", "id", id, "to", outcome.Redirect.Path())
		list, err := listProposals(ctx, st, now)
		if err != nil {
			return f.Fail(ExitCommandError, CodeStorage, "failed to list proposals", err)
		}
		if opts.Format == "json" {
			return f.Success(ShowResult{Redirect: outcome.Redirect.Path(), Proposals: list.Proposals})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing at %s. Back to %s.\n\n", route.ViewerPath(id), outcome.Redirect.Path())
		printList(cmd, list)
		return nil
	}

	session := outcome.Session
	if err := unlock(session, opts.Password); err != nil {
		return f.Fail(ExitFailure, CodeLocked, err.Error(), nil)
	}

	if answered {
		if err := session.Answer(accept); err != nil {
			return f.Fail(ExitFailure, CodeLocked, "failed to answer", err)
		}
	}

	if opts.Format == "json" {
		result := ShowResult{Story: storyView(session.Proposal())}
		if accepted, ok := session.Answered(); ok {
			result.Answer = &AnswerResult{Accepted: accepted}
		}
		return f.Success(result)
	}

	if err := session.RenderText(cmd.OutOrStdout()); err != nil {
		return f.Fail(ExitCommandError, CodeStorage, "failed to render proposal", err)
	}
	if _, ok := session.Answered(); !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "\n(answer with: eternal show %s --answer yes)\n", id)
	}
	return nil
}

// unlock opens a protected session or explains why it stays locked.
func unlock(s *viewer.Session, password string) error {
	if !s.Locked() {
		return nil
	}
	if password == "" {
		return fmt.Errorf("this story is protected: pass the shared secret with --password")
	}
	if !s.Unlock(password) {
		return fmt.Errorf("that secret doesn't open this story")
	}
	return nil
}

func storyView(p proposal.Proposal) *StoryView {
	memories := p.Memories
	if memories == nil {
		memories = []proposal.Memory{}
	}
	return &StoryView{
		ID:           p.ID,
		CreatorName:  p.CreatorName,
		PartnerName:  p.PartnerName,
		Title:        p.Title,
		Message:      p.Message,
		MainImageURL: p.MainImageURL,
		MusicURL:     p.MusicURL,
		Theme:        string(p.Theme),
		Memories:     memories,
		CreatedAt:    summarize(p, p.Created()).CreatedAt,
	}
}

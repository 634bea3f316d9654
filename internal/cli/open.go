package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/route"
)

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	show := &ShowOptions{RootOptions: rootOpts}
	create := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "open <path-or-url>",
		Short: "Navigate to a route",
		Long: `Dispatch a navigation path or share link to the matching command:

  /         list
  /create   create
  /p/{id}   show {id}

Full links and hash routes are accepted.

Examples:
  eternal open /
  eternal open https://eternal.example/#/p/3f2a9c... --password moonlight`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			r, err := route.Parse(args[0])
			if err != nil {
				return f.Fail(ExitCommandError, CodeInvalidInput, "unknown route", err)
			}
			rootOpts.Logger.Debug("navigating", "route", r.Path(), "kind", r.Kind.String())

			switch r.Kind {
			case route.Create:
				return runCreate(create, cmd)
			case route.Viewer:
				return runShow(show, r.ID, cmd)
			default:
				return runList(rootOpts, cmd)
			}
		},
	}

	cmd.Flags().StringVar(&show.Password, "password", "", "shared secret for protected proposals")
	cmd.Flags().StringVar(&show.Answer, "answer", "", "answer the question (yes|no)")

	return cmd
}

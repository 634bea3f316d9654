package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/theme"
)

// ThemesResult is the output of the themes command.
type ThemesResult struct {
	Themes  []theme.Theme `json:"themes"`
	Default string        `json:"default"`
}

// NewThemesCommand creates the themes command.
func NewThemesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			catalog, err := theme.Default()
			if err != nil {
				return f.Fail(ExitCommandError, CodeInvalidInput, "failed to load theme catalog", err)
			}
			result := ThemesResult{Themes: catalog.All(), Default: string(rootOpts.Config.Theme())}
			if rootOpts.Format == "json" {
				return f.Success(result)
			}

			w := cmd.OutOrStdout()
			for _, t := range result.Themes {
				marker := " "
				if string(t.ID) == result.Default {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %-9s %-22s %s on %s, accent %s, %s\n",
					marker, t.ID, t.Name, t.Colors.Text, t.Colors.Background, t.Colors.Accent, t.Animation)
			}
			return nil
		},
	}
}

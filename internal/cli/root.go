package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/config"
	"github.com/roach88/eternal/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides config and ETERNAL_DB when set

	// Getenv, Now and HashCost are replaced in tests. A zero HashCost
	// means proposal.DefaultHashCost.
	Getenv   func(string) string
	Now      func() time.Time
	HashCost int

	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the eternal CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Getenv: os.Getenv, Now: time.Now})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eternal",
		Short: "Eternal - proposal stories that last",
		Long: `Author a proposal story step by step (names, memories, a letter,
a theme and an optional shared secret) and replay it later.

Navigation paths map onto commands:
  /         eternal list
  /create   eternal create
  /p/{id}   eternal show {id}`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewOpenCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewThemesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup resolves configuration and logging once flags are parsed.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	cfg, err := config.Load(o.ConfigPath, o.Getenv)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	o.Config = cfg

	// Configure logging based on config and verbose flag
	level := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	return nil
}

// openStore opens the configured database. The returned close function must
// be called when the command finishes.
func (o *RootOptions) openStore() (*store.Store, *store.SQLiteBackend, func(), error) {
	o.Logger.Debug("opening database", "path", o.Config.Database)
	backend, err := store.OpenSQLite(o.Config.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	st := store.New(backend,
		store.WithIDGenerator(o.Config.IDGenerator()),
		store.WithLogger(o.Logger),
	)
	closeFn := func() {
		if err := backend.Close(); err != nil {
			o.Logger.Error("error closing database", "error", err)
		}
	}
	return st, backend, closeFn, nil
}

// formatter returns an OutputFormatter bound to the command's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eternal/internal/harness"
	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/route"
	"github.com/roach88/eternal/internal/wizard"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Script string // run a YAML scenario instead of reading commands
}

// CreateResult is the output of a successful create.
type CreateResult struct {
	ID       string `json:"id"`
	Route    string `json:"route"`
	Memories int    `json:"memories"`
	Theme    string `json:"theme"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Author a new proposal",
		Long: `Author a proposal through the six steps (route /create):

  basics -> memories -> letter -> design -> privacy -> review

Commands are read one per line from stdin:
  set <field> <value>          edit a field of the current step (\n for a new line)
  add                          add a memory (memories step)
  edit <n> <field> <value>     edit memory n (date, title, description, imageUrl)
  remove <n>                   remove memory n
  next | back                  move between steps
  show                         print the draft
  finalize                     save and print the share route (review step)
  quit                         discard the draft

Nothing is saved before finalize.

Examples:
  eternal create
  eternal create --script ./proposal.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "YAML scenario to run instead of interactive input")

	return cmd
}

type systemClock struct{ now func() time.Time }

func (c systemClock) Now() time.Time { return c.now() }

func (o *RootOptions) hashCost() int {
	if o.HashCost > 0 {
		return o.HashCost
	}
	return proposal.DefaultHashCost
}

func runCreate(opts *CreateOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	st, _, closeStore, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, CodeStorage, "failed to open database", err)
	}
	defer closeStore()

	if opts.Script != "" {
		return runCreateScript(opts, cmd, st)
	}

	w := wizard.New(st,
		wizard.WithClock(systemClock{opts.Now}),
		wizard.WithHashCost(opts.hashCost()),
		wizard.WithLogger(opts.Logger),
		wizard.WithDefaultTheme(opts.Config.Theme()),
	)

	// Prompts go to stderr in JSON mode so stdout stays a single response.
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		out = f.GetErrWriter()
	}

	session := &authoringSession{wizard: w, out: out}
	res, done, err := session.run(cmdContext(cmd), cmd.InOrStdin())
	if errors.Is(err, errReadInput) {
		return f.Fail(ExitCommandError, CodeInvalidInput, "failed to read input", err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, storageCode(err), "failed to save proposal", err)
	}
	if !done {
		if opts.Format == "json" {
			return f.Fail(ExitFailure, CodeInvalidInput, "draft discarded", nil)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Draft discarded. Nothing was saved.")
		return nil
	}
	return printCreated(opts.RootOptions, cmd, res)
}

func runCreateScript(opts *CreateOptions, cmd *cobra.Command, st wizard.Store) error {
	f := opts.formatter(cmd)
	scenario, err := harness.LoadScenario(opts.Script)
	if err != nil {
		return f.Fail(ExitCommandError, CodeInvalidInput, "failed to load script", err)
	}

	result, err := harness.Run(scenario,
		harness.WithStore(st),
		harness.WithClock(systemClock{opts.Now}),
		harness.WithHashCost(opts.hashCost()),
		harness.WithDefaultTheme(opts.Config.Theme()),
		harness.WithLogger(opts.Logger),
	)
	if err != nil {
		return f.Fail(ExitCommandError, CodeInvalidInput, "failed to run script", err)
	}
	if !result.Pass {
		return f.Fail(ExitFailure, CodeInvalidInput, "script failed", errors.New(strings.Join(result.Errors, "; ")))
	}
	if result.Proposal == nil {
		return f.Fail(ExitFailure, CodeInvalidInput, "script did not finalize", nil)
	}
	return printCreated(opts.RootOptions, cmd, wizard.Result{
		Proposal: *result.Proposal,
		Route:    route.Route{Kind: route.Viewer, ID: result.Proposal.ID},
	})
}

func printCreated(opts *RootOptions, cmd *cobra.Command, res wizard.Result) error {
	out := CreateResult{
		ID:       res.Proposal.ID,
		Route:    res.Route.Path(),
		Memories: len(res.Proposal.Memories),
		Theme:    string(res.Proposal.Theme),
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(out)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Proposal created: %s\n", out.ID)
	fmt.Fprintf(w, "Share it: %s\n", out.Route)
	return nil
}

// authoringSession reads line commands and applies them to a wizard.
type authoringSession struct {
	wizard *wizard.Wizard
	out    io.Writer
}

var (
	// errQuit ends the session without saving.
	errQuit = errors.New("quit")

	errReadInput = errors.New("read input")
)

// maxInputLine caps one command line, which can carry a whole letter.
const maxInputLine = 1 << 20

// valueEscapes turns the two-character sequence \n into a line break so a
// letter can span paragraphs on one input line.
var valueEscapes = strings.NewReplacer(`\\`, `\`, `\n`, "\n")

// run processes commands until finalize, quit or end of input. done is true
// only when the proposal was saved.
func (s *authoringSession) run(ctx context.Context, in io.Reader) (res wizard.Result, done bool, err error) {
	s.printStep()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
	for {
		s.prompt()
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			if err := scanner.Err(); err != nil {
				return wizard.Result{}, false, fmt.Errorf("%w: %v", errReadInput, err)
			}
			return wizard.Result{}, false, nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, rest, _ := strings.Cut(line, " ")
		if name == "finalize" {
			res, err := s.wizard.Finalize(ctx)
			switch {
			case err == nil:
				return res, true, nil
			case errors.Is(err, wizard.ErrNotAtReview), errors.Is(err, wizard.ErrFinalized):
				fmt.Fprintf(s.out, "! %v\n", err)
				continue
			default:
				return wizard.Result{}, false, err
			}
		}

		if err := s.apply(name, strings.TrimSpace(rest)); err != nil {
			if errors.Is(err, errQuit) {
				return wizard.Result{}, false, nil
			}
			fmt.Fprintf(s.out, "! %v\n", err)
		}
	}
}

func (s *authoringSession) apply(name, rest string) error {
	w := s.wizard
	switch name {
	case "set":
		fieldName, value, _ := strings.Cut(rest, " ")
		field, err := wizard.ParseField(fieldName)
		if err != nil {
			return err
		}
		return w.Set(field, valueEscapes.Replace(strings.TrimSpace(value)))

	case "add":
		if _, err := w.AddMemory(); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Added memory #%d\n", len(w.Draft().Memories))
		return nil

	case "edit":
		parts := strings.SplitN(rest, " ", 3)
		if len(parts) < 2 {
			return errors.New("usage: edit <n> <field> <value>")
		}
		id, err := s.memoryID(parts[0])
		if err != nil {
			return err
		}
		field, err := wizard.ParseMemoryField(parts[1])
		if err != nil {
			return err
		}
		value := ""
		if len(parts) == 3 {
			value = valueEscapes.Replace(strings.TrimSpace(parts[2]))
		}
		_, err = w.EditMemory(id, field, value)
		return err

	case "remove":
		id, err := s.memoryID(rest)
		if err != nil {
			return err
		}
		_, err = w.RemoveMemory(id)
		return err

	case "next":
		if w.Next() {
			s.printStep()
		} else {
			fmt.Fprintln(s.out, "Already at the last step.")
		}
		return nil

	case "back":
		if w.Back() {
			s.printStep()
		} else {
			fmt.Fprintln(s.out, "Already at the first step.")
		}
		return nil

	case "show":
		s.printDraft()
		return nil

	case "help":
		s.printHelp()
		return nil

	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q (type help)", name)
}

// memoryID resolves a 1-based memory number from the prompt.
func (s *authoringSession) memoryID(arg string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	memories := s.wizard.Draft().Memories
	if err != nil || n < 1 || n > len(memories) {
		return "", fmt.Errorf("no memory %q (have %d)", arg, len(memories))
	}
	return memories[n-1].ID, nil
}

func (s *authoringSession) prompt() {
	w := s.wizard
	fmt.Fprintf(s.out, "[%d/%d %s] > ", w.Index()+1, len(wizard.Steps), w.Step())
}

var stepHints = map[wizard.Step]string{
	wizard.Basics:   "Who is this story about?",
	wizard.Memories: "Add the moments that led here: add, edit <n> <field> <value>, remove <n>.",
	wizard.Letter:   "Write from the heart.",
	wizard.Design:   "Pick a theme: classic, ethereal, modern or dark. Optionally a music URL.",
	wizard.Privacy:  "Optionally set a shared secret and an expiry in hours.",
	wizard.Review:   "Check the draft with show, then finalize.",
}

func (s *authoringSession) printStep() {
	step := s.wizard.Step()
	fmt.Fprintf(s.out, "\n== %s ==\n%s\n", strings.ToUpper(step.String()), stepHints[step])
	if fields := wizard.FieldsFor(step); len(fields) > 0 {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = string(f)
		}
		fmt.Fprintf(s.out, "Fields: %s\n", strings.Join(names, ", "))
	}
}

func (s *authoringSession) printDraft() {
	d := s.wizard.Draft()
	fmt.Fprintf(s.out, "creatorName:  %s\n", d.CreatorName)
	fmt.Fprintf(s.out, "partnerName:  %s\n", d.PartnerName)
	fmt.Fprintf(s.out, "title:        %s\n", d.Title)
	fmt.Fprintf(s.out, "mainImageUrl: %s\n", d.MainImageURL)
	fmt.Fprintf(s.out, "memories:     %d\n", len(d.Memories))
	for i, m := range d.Memories {
		fmt.Fprintf(s.out, "  %d. [%s] %s - %s\n", i+1, m.Date, m.Title, m.Description)
	}
	fmt.Fprintf(s.out, "message:      %s\n", d.Message)
	fmt.Fprintf(s.out, "theme:        %s\n", d.Theme)
	fmt.Fprintf(s.out, "musicUrl:     %s\n", d.MusicURL)
	secret := "no"
	if d.Protected() {
		secret = "yes"
	}
	fmt.Fprintf(s.out, "secret:       %s\n", secret)
	if d.ExpiryHours > 0 {
		fmt.Fprintf(s.out, "expiryHours:  %g\n", d.ExpiryHours)
	}
}

func (s *authoringSession) printHelp() {
	fmt.Fprintln(s.out, "set <field> <value> | add | edit <n> <field> <value> | remove <n> | next | back | show | finalize | quit")
}

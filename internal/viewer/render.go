package viewer

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	texttemplate "text/template"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/theme"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{
	"formatDate": formatDate,
	"inc":        func(i int) int { return i + 1 },
}

var (
	pageTemplate  = template.Must(template.New("page.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/page.html.tmpl"))
	storyTemplate = texttemplate.Must(texttemplate.New("story.txt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/story.txt.tmpl"))
)

// letterPolicy keeps basic emphasis in the letter and strips everything else.
var letterPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("p", "br", "strong", "em")
	return p
}()

type pageData struct {
	Proposal proposal.Proposal
	Theme    theme.Theme
	Message  template.HTML
	Accepted bool
	Year     int
}

func (s *Session) data() pageData {
	return pageData{
		Proposal: s.proposal,
		Theme:    s.theme,
		Message:  SanitizeLetter(s.proposal.Message),
		Accepted: s.accepted,
		Year:     s.openedAt.Year(),
	}
}

// RenderText writes the story for a terminal.
func (s *Session) RenderText(w io.Writer) error {
	if s.locked {
		return ErrLocked
	}
	if err := storyTemplate.Execute(w, s.data()); err != nil {
		return fmt.Errorf("render text: %w", err)
	}
	return nil
}

// RenderHTML writes a standalone page that can be shared without the
// application. The page embeds the theme colours and the sanitized letter.
func (s *Session) RenderHTML(w io.Writer) error {
	if s.locked {
		return ErrLocked
	}
	if err := pageTemplate.Execute(w, s.data()); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// SanitizeLetter strips markup from a letter except for basic emphasis.
func SanitizeLetter(msg string) template.HTML {
	return template.HTML(letterPolicy.Sanitize(msg))
}

// formatDate renders ISO calendar dates long-form; anything else is shown
// as entered.
func formatDate(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

// Package render prints session replies, transcripts, and listings for the
// terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/echonews/internal/ipc"
	"github.com/rbright/echonews/internal/news"
)

const (
	defaultWidth = 80
	maxBubble    = 60
)

// Theme defines the color scheme for printed output.
type Theme struct {
	User lipgloss.Color
	Echo lipgloss.Color
	Dim  lipgloss.Color
}

var DefaultTheme = Theme{
	User: lipgloss.Color("#89b4fa"),
	Echo: lipgloss.Color("#a6e3a1"),
	Dim:  lipgloss.Color("#6e7681"),
}

type styles struct {
	user    lipgloss.Style
	echo    lipgloss.Style
	speaker lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, t Theme) styles {
	bubble := r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return styles{
		user:    bubble.BorderForeground(t.User),
		echo:    bubble.BorderForeground(t.Echo),
		speaker: r.NewStyle().Foreground(t.Dim).Italic(true),
		label:   r.NewStyle().Bold(true),
		dim:     r.NewStyle().Foreground(t.Dim),
	}
}

// Printer writes styled output. Color is dropped automatically when out is
// not a terminal.
type Printer struct {
	out    io.Writer
	width  int
	styles styles
}

// New returns a printer for out. width <= 0 uses 80 columns.
func New(out io.Writer, width int) *Printer {
	if width <= 0 {
		width = defaultWidth
	}
	return &Printer{
		out:    out,
		width:  width,
		styles: newStyles(lipgloss.NewRenderer(out), DefaultTheme),
	}
}

// Response prints a session reply in the layout its command calls for.
func (p *Printer) Response(resp ipc.Response) {
	switch resp.Message {
	case "transcript":
		p.Transcript(resp.Entries)
	case "bookmarks":
		p.list(resp.Entries, "no bookmarks yet")
	case "bookmarked", "already bookmarked":
		p.line(resp.Message)
		p.list(resp.Entries, "")
	case "interests":
		if resp.Text != "" {
			p.line(resp.Text)
		}
		p.list(resp.Entries, "")
	case "quiz":
		p.Quiz(resp.Text, resp.Entries)
	case "status":
		p.fields(resp.Entries)
		if resp.Text != "" {
			p.line(p.styles.dim.Render("now narrating:"))
			p.line(resp.Text)
		}
	default:
		switch {
		case strings.TrimSpace(resp.Text) != "":
			p.line(resp.Text)
		case resp.Message != "":
			p.line(resp.Message)
		}
	}
}

// Transcript draws the conversation as chat bubbles: the user on the right,
// echo on the left.
func (p *Printer) Transcript(entries []ipc.Entry) {
	if len(entries) == 0 {
		p.line(p.styles.dim.Render("transcript is empty"))
		return
	}
	for _, e := range entries {
		p.bubble(e.Label, e.Text)
	}
}

func (p *Printer) bubble(speaker string, text string) {
	style := p.styles.echo
	align := lipgloss.Left
	name := "echo"
	if speaker == "user" {
		style = p.styles.user
		align = lipgloss.Right
		name = "you"
	}

	limit := min(maxBubble, p.width-4)
	if w := lipgloss.Width(text) + 2; w < limit {
		limit = w
	}
	box := style.Width(limit).Render(text)
	header := p.styles.speaker.Render(name)

	p.line(lipgloss.PlaceHorizontal(p.width, align, header))
	p.line(lipgloss.PlaceHorizontal(p.width, align, box))
}

// Topics prints the interest catalog, marking selected topics.
func (p *Printer) Topics(catalog []news.Topic, selected []string) {
	chosen := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		chosen[name] = struct{}{}
	}
	for _, t := range catalog {
		mark := " "
		if _, ok := chosen[t.Name]; ok {
			mark = "*"
		}
		p.line(fmt.Sprintf("%s %s %s  %s", mark, t.Icon, p.styles.label.Render(t.Name), p.styles.dim.Render(t.Description)))
	}
}

// Quiz prints the questions followed by the answer key.
func (p *Printer) Quiz(text string, answers []ipc.Entry) {
	p.line(strings.TrimRight(text, "\n"))
	if len(answers) == 0 {
		return
	}
	p.line("")
	for _, a := range answers {
		p.line(p.styles.dim.Render(fmt.Sprintf("%s: %s", a.Label, a.Text)))
	}
}

func (p *Printer) list(entries []ipc.Entry, empty string) {
	if len(entries) == 0 {
		if empty != "" {
			p.line(p.styles.dim.Render(empty))
		}
		return
	}
	for i, e := range entries {
		p.line(fmt.Sprintf("%d. %s", i+1, p.styles.label.Render(e.Label)))
		if e.Text != "" {
			p.line("   " + p.styles.dim.Render(e.Text))
		}
	}
}

func (p *Printer) fields(entries []ipc.Entry) {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Label))
	}
	for _, e := range entries {
		pad := strings.Repeat(" ", width-len(e.Label)+2)
		p.line(p.styles.label.Render(e.Label) + pad + e.Text)
	}
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.out, s)
}

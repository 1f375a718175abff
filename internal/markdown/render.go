package markdown

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

const (
	codeTheme     = "onedark"
	codeFormatter = "terminal256"

	minWrapWidth = 20
	maxWrapWidth = 120
)

// RenderState carries the per-block interactive state shown in code block
// headers.
type RenderState struct {
	// Focused is the code block that copy acts on; -1 for none.
	Focused int
	Copied  func(index int) bool
}

// Renderer renders Documents for a given terminal width.
type Renderer struct {
	width int
	prose *glamour.TermRenderer

	header  lipgloss.Style
	focused lipgloss.Style
	copied  lipgloss.Style
	frame   lipgloss.Style
}

// NewRenderer builds a renderer that wraps prose at width columns.
func NewRenderer(width int) (*Renderer, error) {
	wrap := width
	if wrap > maxWrapWidth {
		wrap = maxWrapWidth
	}
	if wrap < minWrapWidth {
		wrap = minWrapWidth
	}
	prose, err := glamour.NewTermRenderer(
		glamour.WithStyles(proseStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, fmt.Errorf("create prose renderer: %w", err)
	}
	return &Renderer{
		width: width,
		prose: prose,
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8")).
			Background(lipgloss.Color("#1e293b")).
			Padding(0, 1),
		focused: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e2e8f0")).
			Background(lipgloss.Color("#334155")).
			Bold(true).
			Padding(0, 1),
		copied: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0f172a")).
			Background(lipgloss.Color("#4ade80")).
			Bold(true).
			Padding(0, 1),
		frame: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#334155")).
			PaddingLeft(1).
			MarginLeft(2),
	}, nil
}

// Width returns the width the renderer was built for.
func (r *Renderer) Width() int {
	return r.width
}

// Render produces the terminal output for doc.
func (r *Renderer) Render(doc Document, state RenderState) (string, error) {
	var b strings.Builder
	for _, seg := range doc.Segments {
		switch seg.Kind {
		case SegmentProse:
			out, err := r.prose.Render(seg.Text)
			if err != nil {
				return "", fmt.Errorf("render prose: %w", err)
			}
			b.WriteString(out)
		case SegmentCode:
			block := doc.CodeBlocks[seg.Block]
			b.WriteString(r.renderCode(block, state))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func (r *Renderer) renderCode(block CodeBlock, state RenderState) string {
	label := "Copy"
	buttonStyle := r.header
	if state.Focused == block.Index {
		buttonStyle = r.focused
	}
	if state.Copied != nil && state.Copied(block.Index) {
		label = "Copied!"
		buttonStyle = r.copied
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		r.header.Render(block.Language),
		" ",
		buttonStyle.Render(label),
	)

	code, err := Highlight(block.Code, block.Language)
	if err != nil {
		code = block.Code
	}
	return "\n" + lipgloss.NewStyle().MarginLeft(2).Render(header) + "\n" + r.frame.Render(code) + "\n"
}

// Highlight colours code for a 256-colour terminal using the lexer for
// language, guessing from the content when the language is unknown.
func Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get(codeTheme)
	if style == nil {
		style = chromastyles.Fallback
	}
	formatter := formatters.Get(codeFormatter)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", language, err)
	}
	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return "", fmt.Errorf("format %s: %w", language, err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// proseStyle fixes the look of headings, links, quotes, lists, images and
// rules. Content is never altered.
func proseStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	cfg.H1 = ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
		Prefix:          " ",
		Suffix:          " ",
		Color:           stringPtr("#f8fafc"),
		BackgroundColor: stringPtr("#3b82f6"),
		Bold:            boolPtr(true),
	}}
	cfg.H2 = ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
		Prefix: "▍ ",
		Color:  stringPtr("#e2e8f0"),
		Bold:   boolPtr(true),
	}}
	cfg.H3 = ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
		Prefix: "› ",
		Color:  stringPtr("#cbd5e1"),
		Bold:   boolPtr(true),
	}}
	cfg.Link = ansi.StylePrimitive{
		Color:     stringPtr("#60a5fa"),
		Underline: boolPtr(true),
	}
	cfg.LinkText = ansi.StylePrimitive{
		Color: stringPtr("#60a5fa"),
		Bold:  boolPtr(true),
	}
	cfg.BlockQuote = ansi.StyleBlock{
		StylePrimitive: ansi.StylePrimitive{
			Color:  stringPtr("#f8fafc"),
			Italic: boolPtr(true),
		},
		Indent:      uintPtr(1),
		IndentToken: stringPtr("┃ "),
	}
	cfg.List = ansi.StyleList{
		StyleBlock:  cfg.List.StyleBlock,
		LevelIndent: 4,
	}
	cfg.Code = ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
		Prefix:          " ",
		Suffix:          " ",
		Color:           stringPtr("#f472b6"),
		BackgroundColor: stringPtr("#1e293b"),
	}}
	cfg.Image = ansi.StylePrimitive{
		Color:     stringPtr("#a78bfa"),
		Underline: boolPtr(true),
	}
	cfg.ImageText = ansi.StylePrimitive{
		Color:  stringPtr("#a78bfa"),
		Format: "🖼  {{.text}}",
	}
	cfg.HorizontalRule = ansi.StylePrimitive{
		Color:  stringPtr("#475569"),
		Format: "\n────────────────────────────────\n",
	}
	return cfg
}

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }
func uintPtr(u uint) *uint       { return &u }

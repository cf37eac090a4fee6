// Package markdown provides styled markdown rendering for the TUI.
package markdown

import (
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Styles accepted by New.
const (
	StyleDark  = "dark"
	StyleLight = "light"
)

// noMarginStyle is a JSON style that removes document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer wraps glamour with vidbrain's chat configuration.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
	style    string
}

// New creates a markdown renderer with the given width and style.
// An empty style means StyleDark.
//
// glamour.WithAutoStyle is avoided: it queries the terminal from inside the
// running program and the replies leak into bubbletea's input stream.
// Use DetectStyle before the program starts instead.
func New(width int, style string) (*Renderer, error) {
	if style == "" {
		style = StyleDark
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{renderer: r, width: width, style: style}, nil
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Style returns the glamour style in use.
func (r *Renderer) Style() string {
	return r.style
}

// Render transforms markdown to styled terminal output.
func (r *Renderer) Render(markdown string) (string, error) {
	return r.renderer.Render(markdown)
}

// DetectStyle returns style unchanged when set, otherwise picks dark or
// light from the terminal background. Call it before tea.NewProgram.
func DetectStyle(style string) string {
	if style != "" {
		return style
	}
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

// Toggle flips between the dark and light styles.
func Toggle(style string) string {
	if style == StyleLight {
		return StyleDark
	}
	return StyleLight
}

// Package help contains the keybinding help overlay.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/vidbrain/internal/keys"
	"github.com/zjrosen/vidbrain/internal/ui/overlay"
	"github.com/zjrosen/vidbrain/internal/ui/styles"
)

var sectionTitles = []string{"Sidebar", "Upload", "Chat", "General"}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.OverlayTitleColor).
			PaddingLeft(2)

	dividerStyle = lipgloss.NewStyle().
			Foreground(styles.OverlayBorderColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.OverlayTitleColor).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondaryColor).
			Width(9)

	descStyle = lipgloss.NewStyle().
			Foreground(styles.TextMutedColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.OverlayBorderColor)

	footerStyle = lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			MarginTop(1)
)

// Model holds the help view state.
type Model struct {
	keys   keys.KeyMap
	width  int
	height int
}

// New creates a help view for km.
func New(km keys.KeyMap) Model {
	return Model{keys: km}
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Overlay renders the help box centered on background.
func (m Model) Overlay(background string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.render(), background)
}

func (m Model) render() string {
	columnStyle := lipgloss.NewStyle().MarginRight(4)

	groups := m.keys.FullHelp()
	cols := make([]string, 0, len(groups))
	for i, group := range groups {
		var b strings.Builder
		b.WriteString(sectionStyle.Render(sectionTitles[i]))
		b.WriteString("\n")
		for _, binding := range group {
			b.WriteString(renderBinding(binding))
		}
		if i < len(groups)-1 {
			cols = append(cols, columnStyle.Render(b.String()))
		} else {
			cols = append(cols, b.String())
		}
	}

	columns := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	boxWidth := lipgloss.Width(columns) + 4

	body := lipgloss.NewStyle().
		Padding(0, 2).
		Render(columns + "\n" + footerStyle.Render("Press ? or Esc to close"))

	return boxStyle.Width(boxWidth).Render(
		titleStyle.Render("Keybindings") + "\n" +
			dividerStyle.Render(strings.Repeat("─", boxWidth)) + "\n" +
			body,
	)
}

func renderBinding(b key.Binding) string {
	h := b.Help()
	return keyStyle.Render(h.Key) + descStyle.Render(h.Desc) + "\n"
}

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/keys"
	"github.com/zjrosen/vidbrain/internal/registry"
	"github.com/zjrosen/vidbrain/internal/ui/styles"
	"github.com/zjrosen/vidbrain/internal/video"
)

const (
	zoneNewChat     = "sidebar-new-chat"
	zoneVideoPrefix = "sidebar-video-"

	sidebarMaxWidth = 32
	sidebarMinWidth = 20
)

var (
	newChatStyle = lipgloss.NewStyle().
			Foreground(styles.ButtonTextColor).
			Background(styles.ButtonPrimaryBgColor).
			Padding(0, 1)

	itemStyle       = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor)
	activeItemStyle = lipgloss.NewStyle().Foreground(styles.SelectionIndicatorColor).Bold(true)
	itemMetaStyle   = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	emptyListStyle  = lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true)
)

// selectVideoMsg is emitted when a sidebar entry is chosen.
type selectVideoMsg struct {
	ID string
}

// newChatMsg is emitted by the New Chat button.
type newChatMsg struct{}

// sidebar lists the videos of this run. The entry whose id is active is
// highlighted; the cursor moves independently while the sidebar has focus.
type sidebar struct {
	keys     keys.KeyMap
	registry *registry.Registry
	baseURL  string

	cursor  int
	focused bool
	width   int
	height  int
}

func newSidebar(reg *registry.Registry, baseURL string) sidebar {
	return sidebar{
		keys:     keys.DefaultKeyMap(),
		registry: reg,
		baseURL:  baseURL,
	}
}

func sidebarWidth(total int) int {
	return min(max(total/3, sidebarMinWidth), sidebarMaxWidth)
}

func (s sidebar) SetSize(width, height int) sidebar {
	s.width = width
	s.height = height
	return s
}

// Sync moves the cursor onto the active video.
func (s sidebar) Sync() sidebar {
	id, ok := s.registry.ActiveVideoID()
	if !ok {
		s.cursor = min(s.cursor, max(s.registry.Len()-1, 0))
		return s
	}
	for i, e := range s.registry.Videos() {
		if e.ID == id {
			s.cursor = i
		}
	}
	return s
}

func (s sidebar) Update(msg tea.Msg) (sidebar, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		n := s.registry.Len()
		switch {
		case key.Matches(msg, s.keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, s.keys.Down):
			if s.cursor < n-1 {
				s.cursor++
			}
		case key.Matches(msg, s.keys.Select):
			return s, s.choose(s.cursor)
		}

	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
			return s, nil
		}
		if z := zone.Get(zoneNewChat); z != nil && z.InBounds(msg) {
			return s, func() tea.Msg { return newChatMsg{} }
		}
		for i := range s.registry.Len() {
			if z := zone.Get(zoneID(i)); z != nil && z.InBounds(msg) {
				s.cursor = i
				return s, s.choose(i)
			}
		}
	}
	return s, nil
}

func (s sidebar) choose(i int) tea.Cmd {
	videos := s.registry.Videos()
	if i < 0 || i >= len(videos) {
		return nil
	}
	id := videos[i].ID
	return func() tea.Msg { return selectVideoMsg{ID: id} }
}

func zoneID(i int) string {
	return fmt.Sprintf("%s%d", zoneVideoPrefix, i)
}

func (s sidebar) View() string {
	inner := max(s.width-2, 1)
	var b strings.Builder

	b.WriteString(zone.Mark(zoneNewChat, newChatStyle.Render("+ New Chat")) + "\n\n")

	videos := s.registry.Videos()
	if len(videos) == 0 {
		b.WriteString(emptyListStyle.Render("No videos uploaded yet."))
	}

	activeID, conversing := s.registry.ActiveVideoID()
	for i, e := range videos {
		b.WriteString(zone.Mark(zoneID(i), s.item(e, i, conversing && e.ID == activeID, inner)) + "\n")
	}

	if s.focused && s.cursor < len(videos) {
		// thumbnail link for the entry under the cursor
		thumb := agent.ThumbnailURL(s.baseURL, videos[s.cursor].Filename)
		b.WriteString("\n" + itemMetaStyle.Render(styles.TruncateString(thumb, inner)))
	}

	return styles.RenderWithTitleBorder(
		b.String(), "VideoBrain", s.width, s.height, s.focused,
		styles.OverlayTitleColor, styles.BorderHighlightFocusColor,
	)
}

func (s sidebar) item(e video.Entity, i int, active bool, width int) string {
	indicator := "  "
	if s.focused && i == s.cursor {
		indicator = styles.SelectionIndicatorStyle.Render("> ")
	}

	name := styles.TruncateString(e.Filename, max(width-2, 1))
	if active {
		name = activeItemStyle.Render(name)
	} else {
		name = itemStyle.Render(name)
	}
	return indicator + name + "\n  " + itemMetaStyle.Render("ID: "+e.IDPrefix(8))
}

// Package chat implements the conversation view for the active video.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/conversation"
	"github.com/zjrosen/vidbrain/internal/keys"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/mode"
	"github.com/zjrosen/vidbrain/internal/ui/shared/chatrender"
	"github.com/zjrosen/vidbrain/internal/ui/styles"
	"github.com/zjrosen/vidbrain/internal/ui/toaster"
	"github.com/zjrosen/vidbrain/internal/video"
)

const (
	zoneInput = "chat-input"

	placeholder        = "Message VideoBrain..."
	pendingPlaceholder = "Waiting for reply..."

	// header (3) + two dividers + input
	chromeHeight = 6
)

// ReplyMsg carries a chat reply back into the update loop.
type ReplyMsg struct {
	Reply conversation.Reply
}

var (
	filenameStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	idStyle       = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	urlStyle      = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Underline(true)
	dividerStyle  = lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)
	emptyStyle    = lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true)
)

// Model is the chat view.
type Model struct {
	ctx      context.Context
	services mode.Services
	keys     keys.KeyMap
	renderer *chatrender.Renderer

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	token  string
	width  int
	height int
}

// New creates the chat view. markdownStyle selects the glamour style for
// agent replies.
func New(ctx context.Context, services mode.Services, markdownStyle string) Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		ctx:      ctx,
		services: services,
		keys:     keys.DefaultKeyMap(),
		renderer: chatrender.New(chatrender.Config{
			AgentLabel:    "VideoBrain",
			MarkdownStyle: markdownStyle,
			Clock:         services.Clock,
		}),
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

// SetSize resizes the view.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 1)
	m.input.Width = max(width-4, 1)
	return m.sync()
}

// MarkdownStyle returns the style agent replies render with.
func (m Model) MarkdownStyle() string {
	return m.renderer.MarkdownStyle()
}

// SetMarkdownStyle re-renders the transcript with style.
func (m Model) SetMarkdownStyle(style string) Model {
	m.renderer.SetMarkdownStyle(style)
	return m.sync()
}

// Focus gives the text input keyboard focus.
func (m Model) Focus() Model {
	m.input.Focus()
	return m
}

// Blur releases keyboard focus.
func (m Model) Blur() Model {
	m.input.Blur()
	return m
}

// Focused reports whether the text input has focus.
func (m Model) Focused() bool {
	return m.input.Focused()
}

// Sync redraws after the registry changed underneath the view.
func (m Model) Sync() Model {
	return m.sync()
}

// sync brings the view in line with the active session. A new session
// token means a new conversation: the input is cleared and the viewport
// jumps to the bottom.
func (m Model) sync() Model {
	session := m.services.Registry.ActiveSession()
	if session == nil {
		return m
	}

	follow := m.viewport.AtBottom()
	if session.Token() != m.token {
		m.token = session.Token()
		m.input.Reset()
		follow = true
	}

	if session.Pending() {
		m.input.Placeholder = pendingPlaceholder
	} else {
		m.input.Placeholder = placeholder
	}

	if m.width > 0 {
		m.viewport.SetContent(m.transcript(session))
		if follow {
			m.viewport.GotoBottom()
		}
	}
	return m
}

func (m Model) transcript(session *conversation.Session) string {
	out := m.renderer.Render(session.Token(), session.Turns(), m.width)
	if session.Pending() {
		out += "\n\n" + m.spinner.View() + " " + idStyle.Render("VideoBrain is thinking...")
	}
	return out
}

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReplyMsg:
		if !m.services.Registry.ResolveReply(msg.Reply) {
			return m, nil
		}
		return m.sync(), nil

	case spinner.TickMsg:
		session := m.services.Registry.ActiveSession()
		if session == nil || !session.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m.sync(), cmd

	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
			if z := zone.Get(zoneInput); z != nil && z.InBounds(msg) {
				m.input.Focus()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.CopyURL):
			return m, m.copyURL()
		case key.Matches(msg, m.keys.Send) && m.input.Focused():
			return m.send()
		case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		session := m.services.Registry.ActiveSession()
		if session != nil && session.Pending() {
			// no typing while a reply is outstanding
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m.sync(), nil
}

func (m Model) send() (Model, tea.Cmd) {
	session := m.services.Registry.ActiveSession()
	if session == nil {
		return m, nil
	}
	req, ok := session.Begin(m.input.Value())
	if !ok {
		return m, nil
	}
	log.Debug(log.CatChat, "Message sent", "videoID", req.VideoID, "len", len(req.Message))
	m.input.Reset()

	ctx := m.ctx
	svc := m.services.Agent
	exchange := func() tea.Msg {
		return ReplyMsg{Reply: conversation.Exchange(ctx, svc, req)}
	}
	return m.sync(), tea.Batch(m.spinner.Tick, exchange)
}

func (m Model) copyURL() tea.Cmd {
	e, ok := m.activeVideo()
	if !ok || m.services.Clipboard == nil {
		return nil
	}
	url := agent.MediaURL(m.services.BaseURL(), e.Filename)
	return func() tea.Msg {
		if err := m.services.Clipboard.Copy(url); err != nil {
			log.ErrorErr(log.CatUI, "Copy media URL failed", err)
			return mode.ShowToastMsg{Message: "Could not copy media URL", Style: toaster.StyleError}
		}
		return mode.ShowToastMsg{Message: "Copied " + url, Style: toaster.StyleSuccess}
	}
}

func (m Model) activeVideo() (video.Entity, bool) {
	session := m.services.Registry.ActiveSession()
	if session == nil {
		return video.Entity{}, false
	}
	return m.services.Registry.Lookup(session.VideoID())
}

// View renders the chat view.
func (m Model) View() string {
	e, ok := m.activeVideo()
	if !ok {
		return emptyStyle.Render("Select a video to start.")
	}

	divider := dividerStyle.Render(strings.Repeat("─", max(m.width, 1)))
	return strings.Join([]string{
		m.header(e),
		divider,
		m.viewport.View(),
		divider,
		zone.Mark(zoneInput, m.input.View()),
	}, "\n")
}

// header shows the filename with an Active badge, a short id and the
// media URL the service streams the video from.
func (m Model) header(e video.Entity) string {
	title := filenameStyle.Render(styles.TruncateString(e.Filename, max(m.width-10, 8)))
	badge := styles.ActiveBadgeStyle.Render("● Active")
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(badge), 1)

	return title + strings.Repeat(" ", gap) + badge + "\n" +
		idStyle.Render("ID: "+e.IDPrefix(8)+"...") + "\n" +
		urlStyle.Render(agent.MediaURL(m.services.BaseURL(), e.Filename))
}

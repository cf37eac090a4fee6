// Package app contains the root application model.
package app

import (
	"context"

	keyhelp "github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/cachemanager"
	"github.com/zjrosen/vidbrain/internal/config"
	"github.com/zjrosen/vidbrain/internal/keys"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/mode"
	"github.com/zjrosen/vidbrain/internal/mode/chat"
	"github.com/zjrosen/vidbrain/internal/mode/shared"
	"github.com/zjrosen/vidbrain/internal/mode/uploader"
	"github.com/zjrosen/vidbrain/internal/pubsub"
	"github.com/zjrosen/vidbrain/internal/registry"
	"github.com/zjrosen/vidbrain/internal/ui/help"
	"github.com/zjrosen/vidbrain/internal/ui/markdown"
	"github.com/zjrosen/vidbrain/internal/ui/shared/logoverlay"
	"github.com/zjrosen/vidbrain/internal/ui/styles"
	"github.com/zjrosen/vidbrain/internal/ui/toaster"
	"github.com/zjrosen/vidbrain/internal/upload"
	"github.com/zjrosen/vidbrain/internal/watcher"
)

type focusArea int

const (
	focusMain focusArea = iota
	focusSidebar
)

// Options configures New.
type Options struct {
	Agent      agent.Service
	Config     config.Config
	ConfigPath string

	// MarkdownStyle is the resolved glamour style ("dark" or "light").
	MarkdownStyle string

	// Clipboard defaults to the system clipboard.
	Clipboard shared.Clipboard
	Clock     shared.Clock

	// DebugMode enables the log overlay (Ctrl+X toggle).
	DebugMode bool
}

// Model is the root application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	services mode.Services
	keys     keys.KeyMap

	sidebar  sidebar
	uploader uploader.Model
	chat     chat.Model
	focus    focusArea

	width  int
	height int

	help       help.Model
	showHelp   bool
	statusHelp keyhelp.Model

	// Centralized toaster - owned by app, not individual views
	toaster toaster.Model

	debugMode   bool
	logOverlay  logoverlay.Model
	logListener *log.LogListener

	changes *pubsub.ContinuousListener[registry.Change]

	// File watcher for picker auto-refresh
	watcherHandle *watcher.Watcher
	watcherEvents <-chan pubsub.Event[watcher.Change]
}

// New builds the application: an empty registry, the upload controller
// bound to it and both views.
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := opts.Config

	reg := registry.New(registry.Config{
		Greeting: cfg.Chat.Greeting,
		Fallback: cfg.Chat.FallbackMessage,
	})
	uploads := upload.New(upload.Config{
		Registrar:    reg,
		Service:      opts.Agent,
		ErrorMessage: cfg.Upload.ErrorMessage,
		Cache: cachemanager.NewInMemoryCacheManager[string, upload.Preview](
			"upload-preview", cfg.Cache.PreviewTTL, cachemanager.DefaultCleanupInterval),
		PreviewTTL: cfg.Cache.PreviewTTL,
	})

	clip := opts.Clipboard
	if clip == nil {
		clip = shared.SystemClipboard{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = shared.RealClock{}
	}

	services := mode.Services{
		Registry:   reg,
		Uploads:    uploads,
		Agent:      opts.Agent,
		Config:     &cfg,
		ConfigPath: opts.ConfigPath,
		Clipboard:  clip,
		Clock:      clock,
	}

	style := opts.MarkdownStyle
	if style == "" {
		style = markdown.DetectStyle(cfg.UI.MarkdownStyle)
	}

	km := keys.DefaultKeyMap()
	m := Model{
		ctx:        ctx,
		cancel:     cancel,
		services:   services,
		keys:       km,
		sidebar:    newSidebar(reg, services.BaseURL()),
		uploader:   uploader.New(ctx, services, cfg.Upload.StartDir, cfg.Upload.Extensions),
		chat:       chat.New(ctx, services, style),
		help:       help.New(km),
		statusHelp: keyhelp.New(),
		toaster:    toaster.New(),
		debugMode:  opts.DebugMode,
		logOverlay: logoverlay.New(),
		changes:    pubsub.NewContinuousListener(ctx, reg.Broker()),
	}

	if opts.DebugMode {
		m.logListener = log.NewListener(ctx)
	}

	if cfg.Upload.Watch {
		m.startWatcher()
	}
	return m
}

func (m *Model) startWatcher() {
	wcfg := watcher.DefaultConfig(m.uploader.Dir())
	if len(m.services.Config.Upload.Extensions) > 0 {
		wcfg.Extensions = m.services.Config.Upload.Extensions
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		log.Warn(log.CatWatcher, "Watcher unavailable", "error", err)
		return
	}
	events, err := w.Start(m.ctx)
	if err != nil {
		log.Warn(log.CatWatcher, "Watcher failed to start", "error", err)
		_ = w.Stop()
		return
	}
	// the app works without auto-refresh
	m.watcherHandle = w
	m.watcherEvents = events
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.uploader.Init(),
		m.changes.Listen(),
	}
	if m.watcherEvents != nil {
		cmds = append(cmds, pubsub.ListenCmd(m.ctx, m.watcherEvents))
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.resize(), nil

	case pubsub.Event[registry.Change]:
		log.Debug(log.CatMode, "Registry changed", "kind", msg.Payload.Kind, "mode", m.services.Registry.Mode())
		return m.syncViews(), m.changes.Listen()

	case pubsub.Event[watcher.Change]:
		var cmd tea.Cmd
		if m.services.Registry.Mode() == registry.ModeUploading {
			cmd = m.uploader.Refresh()
		}
		return m, tea.Batch(cmd, pubsub.ListenCmd(m.ctx, m.watcherEvents))

	case log.LogEvent:
		m.logOverlay.Append()
		if m.logListener == nil {
			return m, nil
		}
		return m, m.logListener.Listen()

	case mode.ShowToastMsg:
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show(msg.Message, msg.Style, toaster.DefaultDuration)
		return m, cmd

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case logoverlay.CloseMsg:
		if m.logOverlay.Visible() {
			m.logOverlay.Toggle()
		}
		return m, nil

	case selectVideoMsg:
		if err := m.services.Registry.SelectVideo(msg.ID); err != nil {
			log.ErrorErr(log.CatMode, "Select failed", err)
			return m, nil
		}
		m.focus = focusMain
		return m.syncViews(), nil

	case newChatMsg:
		return m.newChat()

	case uploader.UploadDoneMsg:
		// completes even when the user navigated away mid-upload
		var cmd tea.Cmd
		m.uploader, cmd = m.uploader.Update(msg)
		return m.syncViews(), cmd

	case chat.ReplyMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		// each spinner ignores ticks carrying another id
		var upCmd, chatCmd tea.Cmd
		m.uploader, upCmd = m.uploader.Update(msg)
		m.chat, chatCmd = m.chat.Update(msg)
		return m, tea.Batch(upCmd, chatCmd)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// picker directory reads and the like
	var cmd tea.Cmd
	m.uploader, cmd = m.uploader.Update(msg)
	m.trackWatch()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.debugMode && key.Matches(msg, m.keys.Logs) {
		m.logOverlay.Toggle()
		return m, nil
	}
	// If the debug log overlay is visible it takes precedence for updates
	if m.logOverlay.Visible() {
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		return m, cmd
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	conversing := m.services.Registry.Mode() == registry.ModeConversing
	typing := conversing && m.focus == focusMain

	switch {
	case key.Matches(msg, m.keys.NewChat):
		return m.newChat()
	case key.Matches(msg, m.keys.FocusSwitch):
		return m.toggleFocus(), nil
	case key.Matches(msg, m.keys.ToggleMarkdown):
		return m.toggleMarkdown()
	case key.Matches(msg, m.keys.Help) && !typing:
		m.showHelp = true
		return m, nil
	}

	if m.focus == focusSidebar {
		if key.Matches(msg, m.keys.Cancel) {
			return m.toggleFocus(), nil
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	return m.updateMain(msg)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.logOverlay.Visible() {
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		return m, cmd
	}
	if m.showHelp {
		return m, nil
	}

	if msg.X < m.sidebar.width {
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}
	return m.updateMain(msg)
}

// updateMain routes msg to the view the registry is showing.
func (m Model) updateMain(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.services.Registry.Mode() {
	case registry.ModeConversing:
		m.chat, cmd = m.chat.Update(msg)
	default:
		m.uploader, cmd = m.uploader.Update(msg)
		m.trackWatch()
	}
	return m.syncViews(), cmd
}

func (m Model) newChat() (tea.Model, tea.Cmd) {
	log.Info(log.CatMode, "Switching mode", "to", registry.ModeUploading)
	m.services.Registry.StartNewUpload()
	m.focus = focusMain
	return m.syncViews(), m.uploader.Refresh()
}

func (m Model) toggleFocus() Model {
	if m.focus == focusMain {
		m.focus = focusSidebar
	} else {
		m.focus = focusMain
	}
	return m.syncViews()
}

func (m Model) toggleMarkdown() (tea.Model, tea.Cmd) {
	style := markdown.Toggle(m.chat.MarkdownStyle())
	m.chat = m.chat.SetMarkdownStyle(style)
	m.services.Config.UI.MarkdownStyle = style

	if m.services.ConfigPath == "" {
		return m, nil
	}
	if err := config.SaveMarkdownStyle(m.services.ConfigPath, style); err != nil {
		log.ErrorErr(log.CatConfig, "Saving markdown style failed", err)
		return m, toast("Could not save markdown style", toaster.StyleError)
	}
	return m, toast("Replies render "+style, toaster.StyleInfo)
}

// syncViews brings focus and the views in line with the registry.
func (m Model) syncViews() Model {
	m.sidebar = m.sidebar.Sync()
	m.sidebar.focused = m.focus == focusSidebar
	m.chat = m.chat.Sync()
	if m.focus == focusMain {
		m.chat = m.chat.Focus()
	} else {
		m.chat = m.chat.Blur()
	}
	return m
}

// trackWatch follows the picker into whatever directory it shows and
// keeps the staged file relevant to the watcher.
func (m Model) trackWatch() {
	if m.watcherHandle == nil {
		return
	}
	if err := m.watcherHandle.Watch(m.uploader.Dir()); err != nil {
		log.Warn(log.CatWatcher, "Cannot follow picker", "dir", m.uploader.Dir(), "error", err)
	}
	if staged, ok := m.services.Uploads.Staged(); ok {
		m.watcherHandle.Track(staged.Path)
	} else {
		m.watcherHandle.Track("")
	}
}

func (m Model) resize() Model {
	bodyHeight := m.height
	if m.services.Config.UI.ShowStatusBar {
		bodyHeight--
	}
	sw := sidebarWidth(m.width)
	// main pane has one column of padding each side
	inner := max(m.width-sw-2, 1)

	m.sidebar = m.sidebar.SetSize(sw, bodyHeight)
	m.uploader = m.uploader.SetSize(inner, bodyHeight)
	m.chat = m.chat.SetSize(inner, bodyHeight)
	m.help = m.help.SetSize(m.width, m.height)
	m.statusHelp.Width = m.width
	m.logOverlay.SetSize(m.width, m.height)
	return m.syncViews()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	var main string
	switch m.services.Registry.Mode() {
	case registry.ModeConversing:
		main = m.chat.View()
	default:
		main = m.uploader.View()
	}

	bodyHeight := m.sidebar.height
	main = lipgloss.NewStyle().
		Width(max(m.width-m.sidebar.width, 1)).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Padding(0, 1).
		Render(main)

	view := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	if m.services.Config.UI.ShowStatusBar {
		view += "\n" + styles.StatusBarStyle.Render(m.statusHelp.ShortHelpView(m.keys.ShortHelp()))
	}

	if m.showHelp {
		view = m.help.Overlay(view)
	}

	// Overlay toaster on top of active view
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}

	// Overlay log viewer on top (only in debug mode when visible)
	if m.debugMode && m.logOverlay.Visible() {
		view = m.logOverlay.Overlay(view)
	}

	return zone.Scan(view)
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	m.cancel()
	m.services.Registry.Close()

	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			return err
		}
	}
	return nil
}

func toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return mode.ShowToastMsg{Message: message, Style: style}
	}
}

package app

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/vidbrain/internal/config"
	"github.com/zjrosen/vidbrain/internal/mocks"
	"github.com/zjrosen/vidbrain/internal/mode"
	"github.com/zjrosen/vidbrain/internal/mode/shared"
	"github.com/zjrosen/vidbrain/internal/pubsub"
	"github.com/zjrosen/vidbrain/internal/registry"
	"github.com/zjrosen/vidbrain/internal/ui/toaster"
	"github.com/zjrosen/vidbrain/internal/video"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

// createTestModel builds a sized Model with the watcher off and a mock
// service behind it.
func createTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Defaults()
	cfg.Upload.Watch = false
	cfg.Upload.StartDir = t.TempDir()

	var copied string
	m := New(Options{
		Agent:         mocks.NewMockService(t),
		Config:        cfg,
		MarkdownStyle: "dark",
		Clipboard:     shared.MockClipboard{Text: &copied},
	})
	t.Cleanup(func() { _ = m.Close() })

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newModel.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}

func register(t *testing.T, m Model, id, filename string) Model {
	t.Helper()
	m.services.Registry.RegisterVideo(video.Entity{ID: id, Filename: filename})
	m, _ = update(t, m, pubsub.Event[registry.Change]{
		Type:    pubsub.CreatedEvent,
		Payload: registry.Change{Kind: registry.VideoRegistered, VideoID: id},
	})
	return m
}

func TestApp_StartsInUploadView(t *testing.T) {
	m := createTestModel(t)

	view := plain(m.View())
	assert.Equal(t, registry.ModeUploading, m.services.Registry.Mode())
	assert.Contains(t, view, "VideoBrain")
	assert.Contains(t, view, "New Chat")
	assert.Contains(t, view, "No videos uploaded yet.")
	assert.Contains(t, view, "New Video Analysis")
}

func TestApp_WindowSizeMsg(t *testing.T) {
	m := createTestModel(t)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 50})

	assert.Equal(t, 150, m.width)
	assert.Equal(t, 50, m.height)
	assert.Equal(t, sidebarMaxWidth, m.sidebar.width)
	assert.Equal(t, 49, m.sidebar.height, "status bar takes one row")
}

func TestApp_RegisteredVideoOpensChat(t *testing.T) {
	m := createTestModel(t)

	m = register(t, m, "a1b2c3d4e5", "lecture.mp4")

	view := plain(m.View())
	assert.Equal(t, registry.ModeConversing, m.services.Registry.Mode())
	assert.Contains(t, view, "ID: a1b2c3d4...")
	assert.Contains(t, view, "Active")
	assert.NotContains(t, view, "No videos uploaded yet.")
	assert.NotContains(t, view, "New Video Analysis")
	assert.True(t, m.chat.Focused())
}

func TestApp_NewChatReturnsToUploader(t *testing.T) {
	m := createTestModel(t)
	m = register(t, m, "vid-1", "a.mp4")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, registry.ModeUploading, m.services.Registry.Mode())
	id, ok := m.services.Registry.LastActiveID()
	require.True(t, ok)
	assert.Equal(t, "vid-1", id)
	view := plain(m.View())
	assert.Contains(t, view, "New Video Analysis")
	assert.Contains(t, view, "a.mp4", "sidebar keeps the video")
}

func TestApp_SidebarSelect(t *testing.T) {
	m := createTestModel(t)
	m = register(t, m, "vid-1", "a.mp4")
	m = register(t, m, "vid-2", "b.mp4")
	firstToken := m.services.Registry.ActiveSession().Token()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusSidebar, m.focus)
	assert.False(t, m.chat.Focused())
	assert.Equal(t, 1, m.sidebar.cursor, "cursor starts on the active video")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	id, ok := m.services.Registry.ActiveVideoID()
	require.True(t, ok)
	assert.Equal(t, "vid-1", id)
	assert.NotEqual(t, firstToken, m.services.Registry.ActiveSession().Token())
	assert.Equal(t, focusMain, m.focus)
	assert.True(t, m.chat.Focused())
}

func TestApp_EscLeavesSidebar(t *testing.T) {
	m := createTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, focusMain, m.focus)
}

func TestApp_HelpOverlay(t *testing.T) {
	m := createTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.True(t, m.showHelp)
	assert.Contains(t, plain(m.View()), "Press ? or Esc to close")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestApp_QuestionMarkTypesInChat(t *testing.T) {
	m := createTestModel(t)
	m = register(t, m, "vid-1", "a.mp4")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})

	assert.False(t, m.showHelp)
}

func TestApp_ShowToast(t *testing.T) {
	m := createTestModel(t)

	m, cmd := update(t, m, mode.ShowToastMsg{Message: "Processed a.mp4", Style: toaster.StyleSuccess})

	require.NotNil(t, cmd, "dismissal is scheduled")
	assert.True(t, m.toaster.Visible())
	assert.Contains(t, plain(m.View()), "Processed a.mp4")
}

func TestApp_ToggleMarkdownSavesConfig(t *testing.T) {
	m := createTestModel(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefaultConfig(path))
	m.services.ConfigPath = path

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	assert.Equal(t, "light", m.chat.MarkdownStyle())
	assert.Equal(t, "light", m.services.Config.UI.MarkdownStyle)
	require.NotNil(t, cmd)
	toast, ok := cmd().(mode.ShowToastMsg)
	require.True(t, ok)
	assert.Equal(t, toaster.StyleInfo, toast.Style)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "markdown_style: light")
}

func TestApp_LogsRequireDebugMode(t *testing.T) {
	m := createTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.False(t, m.logOverlay.Visible())

	m.debugMode = true
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.True(t, m.logOverlay.Visible())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.False(t, m.logOverlay.Visible())
}

func TestApp_Quit(t *testing.T) {
	m := createTestModel(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_ProgramFollowsRegistry(t *testing.T) {
	m := createTestModel(t)
	reg := m.services.Registry

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("New Video Analysis"))
	}, teatest.WithDuration(3*time.Second))

	// published on the registry broker, picked up by the listener
	reg.RegisterVideo(video.Entity{ID: "f00dcafe42", Filename: "talk.mov"})
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("ID: f00dcafe..."))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	assert.Equal(t, registry.ModeConversing, final.services.Registry.Mode())
}

// Package uploader implements the upload view: a file picker, the staged
// file preview and the submit/cancel actions.
package uploader

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/keys"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/mode"
	"github.com/zjrosen/vidbrain/internal/ui/styles"
	"github.com/zjrosen/vidbrain/internal/ui/toaster"
	"github.com/zjrosen/vidbrain/internal/upload"
	"github.com/zjrosen/vidbrain/internal/video"
)

const (
	zoneSubmit = "upload-submit"
	zoneCancel = "upload-cancel"

	// rows used by everything except the picker
	chromeHeight = 12
)

// UploadDoneMsg carries the outcome of a transfer started by Submit.
type UploadDoneMsg struct {
	Job    upload.Job
	Result agent.UploadResult
	Err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	fileStyle     = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	metaStyle     = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
	warnStyle     = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
)

// Model is the upload view.
type Model struct {
	ctx      context.Context
	services mode.Services
	keys     keys.KeyMap
	picker   filepicker.Model
	spinner  spinner.Model
	width    int
	height   int
}

// New creates the upload view rooted at startDir, or the working
// directory when empty.
func New(ctx context.Context, services mode.Services, startDir string, extensions []string) Model {
	fp := filepicker.New()
	if startDir != "" {
		fp.CurrentDirectory = startDir
	}
	fp.AllowedTypes = extensions
	fp.ShowPermissions = false
	// esc cancels the view, so the picker only goes up a directory with h/←/backspace
	fp.KeyMap.Back = key.NewBinding(
		key.WithKeys("h", "backspace", "left"),
		key.WithHelp("h", "back"),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		ctx:      ctx,
		services: services,
		keys:     keys.DefaultKeyMap(),
		picker:   fp,
		spinner:  sp,
	}
}

// Init reads the start directory.
func (m Model) Init() tea.Cmd {
	return m.picker.Init()
}

// SetSize resizes the view.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	// filepicker sizes itself from WindowSizeMsg when AutoHeight is set
	m.picker, _ = m.picker.Update(tea.WindowSizeMsg{Width: width, Height: max(height-chromeHeight, 3)})
	return m
}

// Dir returns the directory the picker is showing.
func (m Model) Dir() string {
	return m.picker.CurrentDirectory
}

// Refresh re-reads the picker directory and re-probes the staged file.
// The watcher calls it when files under Dir change.
func (m Model) Refresh() tea.Cmd {
	if err := m.services.Uploads.Refresh(m.ctx); err != nil {
		log.Warn(log.CatUpload, "Staged file refresh failed", "error", err)
	}
	return m.picker.Init()
}

// Update handles messages for the upload view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UploadDoneMsg:
		return m.complete(msg)

	case spinner.TickMsg:
		if !m.services.Uploads.Uploading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
			if z := zone.Get(zoneSubmit); z != nil && z.InBounds(msg) {
				return m.submit()
			}
			if z := zone.Get(zoneCancel); z != nil && z.InBounds(msg) {
				return m.cancel()
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.Cancel):
			return m.cancel()
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		return m, tea.Batch(cmd, m.stage(path, true))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		// the extension filter is advisory
		return m, tea.Batch(cmd, m.stage(path, false))
	}
	return m, cmd
}

func (m Model) stage(path string, known bool) tea.Cmd {
	if err := m.services.Uploads.SelectFile(m.ctx, path); err != nil {
		return toast("Cannot read "+path, toaster.StyleError)
	}
	if !known {
		return toast("Not a recognized video type, the service may reject it", toaster.StyleWarn)
	}
	return nil
}

func (m Model) submit() (Model, tea.Cmd) {
	uploads := m.services.Uploads
	job, ok := uploads.Begin()
	if !ok {
		if uploads.Uploading() {
			return m, toast("Upload already in progress", toaster.StyleInfo)
		}
		return m, toast("Select a video file first", toaster.StyleWarn)
	}

	ctx := m.ctx
	svc := m.services.Agent
	transfer := func() tea.Msg {
		result, err := upload.Transfer(ctx, svc, job)
		return UploadDoneMsg{Job: job, Result: result, Err: err}
	}
	return m, tea.Batch(m.spinner.Tick, transfer)
}

func (m Model) complete(msg UploadDoneMsg) (Model, tea.Cmd) {
	entity, ok := m.services.Uploads.Complete(msg.Job, msg.Result, msg.Err)
	if !ok {
		// the error message renders inline
		return m, nil
	}
	return m, toast("Processed "+entity.Filename, toaster.StyleSuccess)
}

// cancel drops the staged file and returns to the last conversation when
// there is one. Ignored while an upload is running.
func (m Model) cancel() (Model, tea.Cmd) {
	if m.services.Uploads.Uploading() {
		return m, toast("Upload in progress", toaster.StyleInfo)
	}
	if m.services.Registry.Len() == 0 {
		return m, nil
	}
	m.services.Uploads.Clear()
	if id, ok := m.services.Registry.LastActiveID(); ok {
		if err := m.services.Registry.SelectVideo(id); err != nil {
			log.ErrorErr(log.CatMode, "Cannot return to last video", err, "videoID", id)
		}
	}
	return m, nil
}

// View renders the upload view.
func (m Model) View() string {
	uploads := m.services.Uploads
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Video Analysis") + "\n")
	b.WriteString(subtitleStyle.Render("Upload a video to start a new AI-powered conversation.") + "\n\n")
	b.WriteString(m.picker.View() + "\n")

	if staged, ok := uploads.Staged(); ok {
		b.WriteString(fileStyle.Render("▶ "+staged.Name) + "  ")
		b.WriteString(metaStyle.Render(staged.Preview.HumanSize()+" · "+staged.Preview.ContentType) + "\n")
		b.WriteString(metaStyle.Render(staged.Preview.URL) + "\n")
		if !staged.Preview.IsVideo {
			b.WriteString(warnStyle.Render("Not a recognized video type") + "\n")
		}
	} else {
		b.WriteString(subtitleStyle.Render("Pick a video ("+strings.Join(video.Extensions, " ")+") and press enter") + "\n")
	}

	if msg := uploads.ErrorMessage(); msg != "" {
		b.WriteString(styles.ErrorStyle.Render(msg) + "\n")
	}

	b.WriteString("\n" + m.buttons())
	return b.String()
}

// buttons renders Cancel (only when a conversation exists to return to)
// and Start Analysis.
func (m Model) buttons() string {
	uploads := m.services.Uploads
	_, staged := uploads.Staged()

	var submit string
	switch {
	case uploads.Uploading():
		submit = styles.DisabledButtonStyle.Render(m.spinner.View() + " Processing...")
	case staged:
		submit = styles.PrimaryButtonFocusedStyle.Render("Start Analysis")
	default:
		submit = styles.DisabledButtonStyle.Render("Start Analysis")
	}
	parts := []string{zone.Mark(zoneSubmit, submit)}
	canCancel := m.services.Registry.Len() > 0
	if canCancel {
		cancel := styles.PrimaryButtonStyle.Render("Cancel")
		parts = append([]string{zone.Mark(zoneCancel, cancel), "  "}, parts...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, append(parts, styles.HintStyle.Render("  "+m.hint(canCancel)))...)
}

func (m Model) hint(canCancel bool) string {
	var hints []string
	for _, b := range m.keys.UploadHelp() {
		if !canCancel && b.Help().Key == m.keys.Cancel.Help().Key {
			continue
		}
		hints = append(hints, b.Help().Key+" "+b.Help().Desc)
	}
	return strings.Join(hints, " · ")
}

func toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return mode.ShowToastMsg{Message: message, Style: style}
	}
}

// Package chatrender renders conversation turns for the chat viewport.
// User turns are word wrapped as typed; agent turns go through glamour.
package chatrender

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/vidbrain/internal/cachemanager"
	"github.com/zjrosen/vidbrain/internal/conversation"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/mode/shared"
	"github.com/zjrosen/vidbrain/internal/ui/markdown"
	"github.com/zjrosen/vidbrain/internal/ui/styles"
)

const (
	DefaultUserLabel  = "You"
	DefaultAgentLabel = "Agent"

	// Rendered agent turns are immutable, so entries only age out.
	renderCacheTTL = 30 * time.Minute
)

var (
	roleStyle        = lipgloss.NewStyle().Bold(true)
	userMessageStyle = lipgloss.NewStyle().Foreground(styles.UserColor)
	timestampStyle   = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
)

// Config configures a Renderer.
type Config struct {
	UserLabel  string
	AgentLabel string
	// MarkdownStyle is "dark" or "light". Empty means dark.
	MarkdownStyle string
	// Clock, when set, adds a relative timestamp to each role label.
	Clock shared.Clock
}

// Renderer turns a transcript into a styled string. It keeps one glamour
// renderer per width and caches rendered agent turns, since glamour is
// too slow to run over the whole transcript on every frame.
type Renderer struct {
	cfg   Config
	md    *markdown.Renderer
	cache *cachemanager.InMemoryCacheManager[string, string]
}

// New creates a Renderer.
func New(cfg Config) *Renderer {
	if cfg.UserLabel == "" {
		cfg.UserLabel = DefaultUserLabel
	}
	if cfg.AgentLabel == "" {
		cfg.AgentLabel = DefaultAgentLabel
	}
	return &Renderer{
		cfg:   cfg,
		cache: cachemanager.NewInMemoryCacheManager[string, string]("chat-render", renderCacheTTL, renderCacheTTL),
	}
}

// MarkdownStyle returns the glamour style agent turns are rendered with.
func (r *Renderer) MarkdownStyle() string {
	if r.cfg.MarkdownStyle == "" {
		return markdown.StyleDark
	}
	return r.cfg.MarkdownStyle
}

// SetMarkdownStyle switches the glamour style. Cached output for the old
// style is left to expire.
func (r *Renderer) SetMarkdownStyle(style string) {
	if style == r.cfg.MarkdownStyle {
		return
	}
	r.cfg.MarkdownStyle = style
	r.md = nil
}

// Render renders turns in order, separated by blank lines.
func (r *Renderer) Render(token string, turns []conversation.Turn, width int) string {
	var b strings.Builder
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleUser:
			b.WriteString(r.label(r.cfg.UserLabel, styles.UserColor, t) + "\n")
			b.WriteString(userMessageStyle.Render(WordWrap(t.Content, width-2)) + "\n\n")
		default:
			b.WriteString(r.label(r.cfg.AgentLabel, styles.AgentColor, t) + "\n")
			b.WriteString(r.agentText(token, t, width) + "\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) label(text string, color lipgloss.AdaptiveColor, t conversation.Turn) string {
	out := roleStyle.Foreground(color).Render(text)
	if r.cfg.Clock != nil && !t.At.IsZero() {
		out += " " + timestampStyle.Render(shared.FormatRelativeTimeWithClock(t.At, r.cfg.Clock))
	}
	return out
}

func (r *Renderer) agentText(token string, t conversation.Turn, width int) string {
	ctx := context.Background()
	key := fmt.Sprintf("%s:%d:%s:%d", token, t.Sequence, r.MarkdownStyle(), width)
	if out, ok := r.cache.Get(ctx, key); ok {
		return out
	}

	md, err := r.renderer(width)
	if err != nil {
		log.ErrorErr(log.CatUI, "markdown renderer unavailable", err, "width", width)
		return WordWrap(t.Content, width-2)
	}
	out, err := md.Render(t.Content)
	if err != nil {
		log.ErrorErr(log.CatUI, "markdown render failed", err, "sequence", t.Sequence)
		return WordWrap(t.Content, width-2)
	}
	out = strings.Trim(out, "\n")
	r.cache.Set(ctx, key, out, renderCacheTTL)
	return out
}

func (r *Renderer) renderer(width int) (*markdown.Renderer, error) {
	wrap := max(width-2, 10)
	if r.md != nil && r.md.Width() == wrap {
		return r.md, nil
	}
	md, err := markdown.New(wrap, r.MarkdownStyle())
	if err != nil {
		return nil, err
	}
	r.md = md
	return md, nil
}

// WordWrap wraps text at width, preserving explicit newlines.
func WordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

package help

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/vidbrain/internal/keys"
)

func TestOverlay_ListsEverySection(t *testing.T) {
	m := New(keys.DefaultKeyMap()).SetSize(120, 30)
	bg := strings.Repeat(strings.Repeat(" ", 120)+"\n", 29) + strings.Repeat(" ", 120)

	out := m.Overlay(bg)

	for _, title := range sectionTitles {
		require.Contains(t, out, title)
	}
	require.Contains(t, out, "Keybindings")
	require.Contains(t, out, "new chat")
	require.Contains(t, out, "start analysis")
	require.Contains(t, out, "Press ? or Esc to close")
	require.Len(t, strings.Split(out, "\n"), 30)
}

func TestSectionTitlesMatchGroups(t *testing.T) {
	require.Len(t, sectionTitles, len(keys.DefaultKeyMap().FullHelp()))
}

package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Hidden(t *testing.T) {
	m := New()

	require.False(t, m.Visible())
	require.Empty(t, m.View())
}

func TestShow_SchedulesDismiss(t *testing.T) {
	m, cmd := New().Show("Video uploaded", StyleSuccess, time.Millisecond)

	require.True(t, m.Visible())
	require.Equal(t, "Video uploaded", m.Message())
	require.Contains(t, m.View(), "✅ Video uploaded")
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, DismissMsg{}, msg)

	m = m.Update(msg)
	require.False(t, m.Visible())
}

func TestUpdate_IgnoresSupersededDismiss(t *testing.T) {
	m, first := New().Show("first", StyleInfo, time.Millisecond)
	m, _ = m.Show("second", StyleError, time.Hour)

	m = m.Update(first())

	require.True(t, m.Visible())
	require.Contains(t, m.View(), "❌ second")
}

func TestView_Styles(t *testing.T) {
	tests := []struct {
		style Style
		icon  string
	}{
		{StyleSuccess, "✅"},
		{StyleError, "❌"},
		{StyleInfo, "ℹ️"},
		{StyleWarn, "⚠️"},
	}
	for _, tt := range tests {
		m, _ := New().Show("msg", tt.style, time.Second)
		require.Contains(t, m.View(), tt.icon)
	}
}

func TestOverlay_NotVisibleReturnsBackground(t *testing.T) {
	bg := "line1\nline2"

	require.Equal(t, bg, New().Overlay(bg, 5, 2))
}

func TestOverlay_PlacesNearBottom(t *testing.T) {
	bg := strings.Repeat(strings.Repeat(".", 40)+"\n", 9) + strings.Repeat(".", 40)
	m, _ := New().Show("saved", StyleSuccess, time.Second)

	out := strings.Split(m.Overlay(bg, 40, 10), "\n")

	require.Len(t, out, 10)
	require.Equal(t, strings.Repeat(".", 40), out[0])
	require.Equal(t, strings.Repeat(".", 40), out[9])
	require.Contains(t, out[7], "saved")
}

func TestHide_DoesNotMutateOriginal(t *testing.T) {
	shown, _ := New().Show("keep", StyleInfo, time.Second)
	hidden := shown.Hide()

	require.True(t, shown.Visible())
	require.False(t, hidden.Visible())
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tonearm/internal/render"
)

// renderHeader renders the one-line status bar: logo, player status and
// push channel indicator.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	status := render.Status(m.player)
	statusStyle := styles.Text
	switch status.Glyph {
	case render.GlyphPlaying:
		statusStyle = styles.SuccessText
	case render.GlyphPaused:
		statusStyle = styles.WarningText
	}

	parts := []string{
		bg.Render("tonearm", styles.Logo),
		bg.Render(status.Glyph, statusStyle) + bg.Space() + bg.Render(status.Text, styles.Text),
		m.renderLinkIndicator(styles, bg),
	}

	if len(m.queue) > 0 {
		parts = append(parts,
			bg.Render("Queue:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(m.queue)), styles.Text))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, sep))
}

// renderLinkIndicator shows LIVE, CONNECTING or OFFLINE. Offline only kicks
// in after repeated failures so a single dropped connection does not flash.
func (m Model) renderLinkIndicator(styles Styles, bg BgStyle) string {
	switch {
	case m.link.Connected:
		return bg.Render("● LIVE", styles.SuccessText)
	case m.link.IsOffline():
		text := bg.Render("● OFFLINE", styles.DangerText)
		if m.link.LastError != nil {
			text += bg.Space() + bg.Render(truncateMiddle(classifyConnectionError(m.link.LastError), 40), styles.MutedText)
		}
		text += bg.Space() + bg.Render("Retrying...", styles.WarningText)
		if !m.link.LastChange.IsZero() {
			text += bg.Space() + bg.Render("since "+m.link.LastChange.Format(time.TimeOnly), styles.FaintText)
		}
		return text
	default:
		return bg.Render("● CONNECTING", styles.WarningText)
	}
}

// classifyConnectionError turns a transport error into a short label.
func classifyConnectionError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return "daemon not running"
	case strings.Contains(msg, "no such host"):
		return "unknown host"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "timed out"
	case strings.Contains(msg, "closed by daemon"):
		return "connection closed"
	default:
		return err.Error()
	}
}

// truncateMiddle shortens s to max cells by eliding its middle.
func truncateMiddle(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	keep := max - 3
	head := keep / 2
	tail := keep - head
	return string(r[:head]) + "..." + string(r[len(r)-tail:])
}

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tonearm/internal/logtail"
)

// loadLogs reads the tail of the client log off the UI goroutine.
func (m Model) loadLogs() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if path == "" {
			return logLoadedMsg{}
		}
		entries, err := logtail.Tail(path, LogTailLines)
		return logLoadedMsg{entries: entries, err: err}
	}
}

func (m *Model) resizeLogViewport() {
	w := m.width - 4
	h := m.height - headerHeight - footerHeight - paneChrome - 1 // title line
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
}

func (m *Model) setLogEntries(entries []logtail.Entry, err error) {
	if err != nil {
		m.logErr = err.Error()
		m.logViewport.SetContent("")
		return
	}
	m.logErr = ""
	if len(entries) == 0 {
		m.logViewport.SetContent(m.theme.Styles().FaintText.Render("No log entries"))
		return
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, levelStyle(styles, e.Level).Render(logtail.Format(e)))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	m.logViewport.GotoBottom()
}

func levelStyle(styles Styles, level string) lipgloss.Style {
	switch level {
	case "error", "fatal", "panic":
		return styles.DangerText
	case "warn":
		return styles.WarningText
	case "debug", "trace":
		return styles.FaintText
	default:
		return styles.Text
	}
}

func (m Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Logs):
		m.overlay = OverlayNone
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m Model) renderLogView() string {
	styles := m.theme.Styles()
	title := styles.PaneTitle.Render("Client log")
	if m.logPath != "" {
		title += "  " + styles.FaintText.Render(truncateMiddle(m.logPath, 60))
	}
	body := m.logViewport.View()
	if m.logErr != "" {
		body = styles.DangerText.Render("Cannot read log: " + m.logErr)
	}
	box := styles.PaneFocused.
		Width(m.width - styles.PaneFocused.GetHorizontalBorderSize()).
		Height(m.height - headerHeight - footerHeight - styles.PaneFocused.GetVerticalBorderSize())
	footer := styles.Footer.Width(m.width).Render("j/k scroll · g/G top/bottom · esc close")
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), box.Render(title+"\n"+body), footer)
}

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tonearm/internal/render"
)

// renderMain renders header, the three panes and the footer.
func (m Model) renderMain() string {
	bodyHeight := m.height - headerHeight - footerHeight
	if bodyHeight < paneChrome+1 {
		bodyHeight = paneChrome + 1
	}

	var body string
	if m.width < LayoutStackedWidth {
		h := bodyHeight / int(paneCount)
		panes := make([]string, 0, paneCount)
		for p := Pane(0); p < paneCount; p++ {
			height := h
			if p == paneCount-1 {
				height = bodyHeight - h*int(paneCount-1)
			}
			panes = append(panes, m.renderPane(p, m.width, height))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, panes...)
	} else {
		w := m.width / int(paneCount)
		panes := make([]string, 0, paneCount)
		for p := Pane(0); p < paneCount; p++ {
			width := w
			if p == paneCount-1 {
				width = m.width - w*int(paneCount-1)
			}
			panes = append(panes, m.renderPane(p, width, bodyHeight))
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

// renderPane draws one bordered list. width and height include the border.
func (m Model) renderPane(p Pane, width, height int) string {
	styles := m.theme.Styles()
	box := styles.Pane
	if p == m.focus {
		box = styles.PaneFocused
	}
	// border plus horizontal padding
	inner := width - box.GetHorizontalFrameSize()
	rows := height - box.GetVerticalFrameSize()
	if inner < 1 {
		inner = 1
	}
	if rows < 1 {
		rows = 1
	}

	title, lines, footer := m.paneContent(p, inner)
	listRows := rows - 1
	if footer != "" {
		listRows--
	}
	if listRows < 0 {
		listRows = 0
	}
	visible := window(lines, m.cursor[p], listRows, p == m.focus, styles, inner)

	parts := []string{styles.PaneTitle.Render(title)}
	parts = append(parts, visible...)
	for len(parts) < rows-boolInt(footer != "") {
		parts = append(parts, "")
	}
	if footer != "" {
		parts = append(parts, footer)
	}

	return box.Width(width - box.GetHorizontalBorderSize()).
		Height(height - box.GetVerticalBorderSize()).
		Render(strings.Join(parts, "\n"))
}

type paneLine struct {
	text       string
	style      lipgloss.Style
	selectable bool
}

// paneContent returns the title, the list lines and an optional footer line
// for pane p.
func (m Model) paneContent(p Pane, width int) (string, []paneLine, string) {
	styles := m.theme.Styles()
	switch p {
	case PaneStreams:
		if len(m.streamRows) == 0 {
			return "Streams", []paneLine{{text: render.TextNoStreams, style: styles.FaintText}}, ""
		}
		lines := make([]paneLine, 0, len(m.streamRows))
		for _, row := range m.streamRows {
			icon := "  "
			if row.LogoCached {
				icon = "◉ "
			} else if row.HasLogo {
				icon = "○ "
			}
			lines = append(lines, paneLine{text: render.Truncate(icon+row.Label, width), style: styles.Text, selectable: true})
		}
		return "Streams", lines, ""

	case PaneLibrary:
		if len(m.libraryRows) == 0 {
			return "Library", []paneLine{{text: render.TextNoPlaylists, style: styles.FaintText}}, ""
		}
		lines := make([]paneLine, 0, len(m.libraryRows))
		for _, row := range m.libraryRows {
			indent := strings.Repeat("  ", row.Depth)
			style := styles.Text
			switch row.Kind {
			case render.RowLoading, render.RowEmpty:
				style = styles.FaintText
			case render.RowError:
				style = styles.DangerText
			case render.RowPlaylist:
				style = styles.AccentText
			}
			lines = append(lines, paneLine{text: render.Truncate(indent+row.Label, width), style: style, selectable: row.Selectable()})
		}
		return "Library", lines, ""

	default:
		var footer string
		if m.queueErr != "" {
			footer = styles.DangerText.Render(render.Truncate(m.queueErr, width))
		} else if m.queueView.ShowClear {
			footer = styles.FaintText.Render("C clear queue")
		}
		if m.queueView.Empty {
			return "Queue", []paneLine{{text: m.queueView.EmptyText, style: styles.FaintText}}, footer
		}
		lines := make([]paneLine, 0, len(m.queueView.Rows))
		for _, row := range m.queueView.Rows {
			text := row.Label + " " + row.Text
			if row.Detail != "" {
				text += " · " + row.Detail
			}
			lines = append(lines, paneLine{text: render.Truncate(text, width), style: styles.Text, selectable: true})
		}
		return "Queue", lines, footer
	}
}

// window returns at most height rendered lines, scrolled so cursor stays in
// view. The cursor line is highlighted only in the focused pane.
func window(lines []paneLine, cursor, height int, focused bool, styles Styles, width int) []string {
	if height <= 0 {
		return nil
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := lines[i]
		if focused && i == cursor && line.selectable {
			out = append(out, styles.Selected.Width(width).Render(line.text))
			continue
		}
		out = append(out, line.style.Render(line.text))
	}
	return out
}

// renderFooter lists the short help bindings.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	return styles.Footer.Width(m.width).Render(bindingsLine(m.keys.ShortHelp()))
}

func bindingsLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+strings.ToLower(h.Desc))
	}
	return strings.Join(parts, " · ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

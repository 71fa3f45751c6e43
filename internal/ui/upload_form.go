package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tonearm/internal/upload"
)

const (
	fieldName = iota
	fieldPaths
)

func (m *Model) initUploadInputs() {
	name := textinput.New()
	name.Placeholder = "Playlist name"
	name.CharLimit = 120
	name.Prompt = "Name  "

	paths := textinput.New()
	paths.Placeholder = "~/Music/album, ~/Music/extra.flac"
	paths.CharLimit = 4096
	paths.Prompt = "Files "

	m.uploadInputs = [2]textinput.Model{name, paths}
}

func (m *Model) openUploadForm() {
	m.overlay = OverlayUpload
	m.uploadField = fieldName
	m.uploadInputs[fieldName].Focus()
	m.uploadInputs[fieldPaths].Blur()
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
		m.uploadInputs[fieldName].Blur()
		m.uploadInputs[fieldPaths].Blur()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.uploadInputs[m.uploadField].Blur()
		m.uploadField = (m.uploadField + 1) % len(m.uploadInputs)
		return m, m.uploadInputs[m.uploadField].Focus()

	case key.Matches(msg, m.keys.Submit):
		return m, m.submitUpload()
	}
	return m.updateUploadInputs(msg)
}

func (m Model) updateUploadInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.uploadInputs[m.uploadField], cmd = m.uploadInputs[m.uploadField].Update(msg)
	return m, cmd
}

// submitUpload hands the form to the controller. The controller rejects a
// submit while busy; the button is disabled here as well.
func (m Model) submitUpload() tea.Cmd {
	if m.uploads == nil || m.uploadStatus.Busy() {
		return nil
	}
	name := m.uploadInputs[fieldName].Value()
	paths := splitPaths(m.uploadInputs[fieldPaths].Value())
	ctx := m.ctx
	uploads := m.uploads
	return func() tea.Msg {
		return uploadDoneMsg{err: uploads.Submit(ctx, name, paths)}
	}
}

// splitPaths splits a comma separated list, dropping blanks.
func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (m Model) renderUploadForm() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Upload playlist"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("FLAC files or folders of only FLAC files, comma separated"))
	b.WriteString("\n\n")
	b.WriteString(m.uploadInputs[fieldName].View())
	b.WriteString("\n")
	b.WriteString(m.uploadInputs[fieldPaths].View())
	b.WriteString("\n\n")

	submit := "[ Upload ]"
	if m.uploadStatus.Busy() {
		b.WriteString(styles.FaintText.Render(submit))
	} else {
		b.WriteString(styles.AccentText.Render(submit))
	}
	if line := m.uploadStatusLine(styles); line != "" {
		b.WriteString("\n\n")
		b.WriteString(line)
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("tab next field · enter upload · esc close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(64)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal.Render(b.String()))
}

func (m Model) uploadStatusLine(styles Styles) string {
	st := m.uploadStatus
	switch st.Phase {
	case upload.Validating, upload.Uploading:
		return styles.InfoText.Render(st.Message)
	case upload.Success:
		return styles.SuccessText.Render(st.Message)
	case upload.Failed:
		return styles.DangerText.Render(st.Message)
	}
	return ""
}

package profile

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/sanctum/internal/render"
	"github.com/fragmede/sanctum/internal/session"
	"github.com/fragmede/sanctum/internal/store"
	"github.com/fragmede/sanctum/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F55247")).Bold(true).Padding(1, 0)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Padding(1, 0)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// Model shows the session phase and the fields of the current user.
type Model struct {
	actions *session.Actions
	loading bool
	err     string
	width   int
	height  int
}

// New creates a new profile view.
func New(actions *session.Actions) Model {
	return Model{actions: actions}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Refresh reloads the user from the server.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	m.err = ""
	actions := m.actions
	return func() tea.Msg {
		u, err := actions.FetchUser(context.Background())
		return messages.UserLoadedMsg{User: u, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" && m.actions.User().IsEmpty() {
			return m, func() tea.Msg { return messages.OpenLoginMsg{} }
		}
	case messages.UserLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = render.ErrorText(msg.Err, m.width-8)
		}
	case messages.SessionRestoredMsg:
		m.loading = false
	}
	return m, nil
}

// View renders the profile.
func (m Model) View() string {
	var sb strings.Builder

	phase := m.actions.Phase()
	sb.WriteString(titleStyle.Render("Session: " + phase.String()))
	sb.WriteString("\n")

	if m.loading {
		sb.WriteString("Loading user...\n")
	}
	if m.err != "" {
		sb.WriteString(errStyle.Render("Error: "+m.err) + "\n")
	}

	u := m.actions.User()
	if u.IsEmpty() {
		sb.WriteString("\n  No user loaded. Press enter to log in.\n")
	} else {
		sb.WriteString(renderUser(u))
	}

	sb.WriteString(hintStyle.Render("L login · X logout · r refresh · a activity · q quit"))
	return sb.String()
}

func renderUser(u store.User) string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(labelStyle.Render(k+": ") + valueStyle.Render(fmt.Sprint(u[k])))
		sb.WriteString("\n")
	}
	return sb.String()
}

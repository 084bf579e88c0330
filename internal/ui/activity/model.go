package activity

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/sanctum/internal/cache"
	"github.com/fragmede/sanctum/internal/render"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F55247")).Bold(true).Padding(1, 0)
	entryStyle    = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#333333")).Padding(0, 1)
	topicStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F55247")).Bold(true)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	payloadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
)

const maxEntries = 50

// Model lists the recorded session events.
type Model struct {
	entries     []cache.EventRecord
	selectedIdx int
	db          *cache.DB
	width       int
	height      int
}

// New creates a new activity view.
func New(db *cache.DB) Model {
	return Model{db: db}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Load refreshes the event list from the database.
func (m *Model) Load() {
	m.entries, _ = m.db.RecentEvents(maxEntries)
	if m.selectedIdx >= len(m.entries) {
		m.selectedIdx = 0
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.selectedIdx < len(m.entries)-1 {
				m.selectedIdx++
			}
		case "k", "up":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		}
	}
	return m, nil
}

// View renders the event list.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Session activity"))
	sb.WriteString("\n")

	if len(m.entries) == 0 {
		sb.WriteString("\n  No events yet.\n")
		return sb.String()
	}

	for i, e := range m.entries {
		var line strings.Builder
		line.WriteString(topicStyle.Render(e.Topic))
		line.WriteString(metaStyle.Render(" " + render.TimeAgo(e.CreatedAt, time.Now())))
		if e.Payload != "" {
			payload := e.Payload
			if len(payload) > 80 {
				payload = payload[:80] + "..."
			}
			line.WriteString("\n  " + payloadStyle.Render(payload))
		}

		entry := line.String()
		if i == m.selectedIdx {
			entry = selectedStyle.Render(entry)
		} else {
			entry = entryStyle.Render(entry)
		}
		sb.WriteString(entry + "\n")
	}

	return sb.String()
}

package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SessionStartMsg is sent when a harvest session starts
type SessionStartMsg struct {
	ID     string
	Label  string
	Target int
}

// RecordMsg is sent for every harvested post
type RecordMsg struct {
	ID        string
	Handle    string
	Collected int
}

// PassMsg is sent after every pass
type PassMsg struct {
	ID         string
	Pass       int
	Added      int
	NoProgress int
	Refreshes  int
}

// RefreshMsg is sent when a session reloads the view
type RefreshMsg struct {
	ID      string
	Attempt int
	Budget  int
}

// SessionEndMsg is sent when a session terminates
type SessionEndMsg struct {
	ID        string
	Reason    string
	Collected int
	Error     error
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tea.Batch(
			tickCmd(),
			m.spinner.Tick,
		)

	case SessionStartMsg:
		m.AddSession(msg.ID, msg.Label, msg.Target)
		m.StartSession(msg.ID)
		m.AddLogMessage("INFO", fmt.Sprintf("Harvesting %s (target %d)", msg.Label, msg.Target))
		return m, nil

	case RecordMsg:
		m.RecordCollected(msg.ID, msg.Handle, msg.Collected)
		return m, nil

	case PassMsg:
		m.UpdatePass(msg.ID, msg.Pass, msg.NoProgress, msg.Refreshes)
		return m, nil

	case RefreshMsg:
		m.AddLogMessage("WARN", fmt.Sprintf("%s stalled, reloading (%d/%d)", m.label(msg.ID), msg.Attempt, msg.Budget))
		return m, nil

	case SessionEndMsg:
		m.FinishSession(msg.ID, msg.Reason, msg.Error)
		label := m.label(msg.ID)
		if msg.Error != nil {
			m.AddLogMessage("ERROR", fmt.Sprintf("%s: %s - %v", label, msg.Reason, msg.Error))
		} else {
			m.AddLogMessage("SUCCESS", fmt.Sprintf("%s: %d posts (%s)", label, msg.Collected, msg.Reason))
		}
		return m, nil

	}

	return m, nil
}

func (m *Model) label(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s.Label
	}
	return id
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.mu.Lock()
		m.isPaused = !m.isPaused
		paused := m.isPaused
		m.mu.Unlock()
		if paused {
			m.AddLogMessage("WARN", "Harvest paused by user")
		} else {
			m.AddLogMessage("INFO", "Harvest resumed by user")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

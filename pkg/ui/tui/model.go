package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SessionState represents where a harvest session is
type SessionState int

const (
	SessionPending SessionState = iota
	SessionActive
	SessionFinished
	SessionFailed
)

// SessionItem represents a single harvest session
type SessionItem struct {
	ID         string
	Label      string
	Target     int
	Collected  int
	Passes     int
	NoProgress int
	Refreshes  int
	LastHandle string
	Reason     string
	State      SessionState
	StartTime  time.Time
	EndTime    time.Time
	Error      error
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner      spinner.Model
	progressBars map[string]progress.Model

	// Session state
	sessions       map[string]*SessionItem
	sessionOrder   []string
	activeSessions int
	maxConcurrent  int

	// Stats
	totalCollected   int
	totalPasses      int
	sessionStartTime time.Time

	// Stall guard of the most recently active session
	stagnationCeiling int
	refreshBudget     int
	guardNoProgress   int
	guardRefreshes    int

	// UI state
	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	// Mutex for thread safety
	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model
func NewModel(maxConcurrent, stagnationCeiling, refreshBudget int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return Model{
		spinner:           s,
		progressBars:      make(map[string]progress.Model),
		sessions:          make(map[string]*SessionItem),
		sessionOrder:      []string{},
		maxConcurrent:     maxConcurrent,
		sessionStartTime:  time.Now(),
		logMessages:       []LogMessage{},
		maxLogMessages:    50,
		stagnationCeiling: stagnationCeiling,
		refreshBudget:     refreshBudget,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// AddSession queues a session
func (m *Model) AddSession(id, label string, target int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		return
	}
	m.sessions[id] = &SessionItem{
		ID:     id,
		Label:  label,
		Target: target,
		State:  SessionPending,
	}
	m.sessionOrder = append(m.sessionOrder, id)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40
	m.progressBars[id] = p
}

// StartSession marks a session as active
func (m *Model) StartSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok && s.State == SessionPending {
		s.State = SessionActive
		s.StartTime = time.Now()
		m.activeSessions++
	}
}

// RecordCollected updates the collected count of a session
func (m *Model) RecordCollected(id, handle string, collected int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		m.totalCollected += collected - s.Collected
		s.Collected = collected
		s.LastHandle = handle
	}
}

// UpdatePass stores the counters reported after a pass
func (m *Model) UpdatePass(id string, pass, noProgress, refreshes int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		m.totalPasses += pass - s.Passes
		s.Passes = pass
		s.NoProgress = noProgress
		s.Refreshes = refreshes
		m.guardNoProgress = noProgress
		m.guardRefreshes = refreshes
	}
}

// FinishSession marks a session as terminated. A non-nil err marks it failed.
func (m *Model) FinishSession(id, reason string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}
	if s.State == SessionActive {
		m.activeSessions--
	}
	s.State = SessionFinished
	if err != nil {
		s.State = SessionFailed
		s.Error = err
	}
	s.Reason = reason
	s.EndTime = time.Now()
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := colorMuted
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = colorWarn
	case "SUCCESS":
		color = colorOK
	case "INFO":
		color = colorAccent
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

func (m *Model) sessionsIn(state SessionState) []*SessionItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*SessionItem
	for _, id := range m.sessionOrder {
		if s := m.sessions[id]; s != nil && s.State == state {
			out = append(out, s)
		}
	}
	return out
}

// GetActiveSessions returns running sessions in start order
func (m *Model) GetActiveSessions() []*SessionItem {
	return m.sessionsIn(SessionActive)
}

// GetPendingSessions returns queued sessions
func (m *Model) GetPendingSessions() []*SessionItem {
	return m.sessionsIn(SessionPending)
}

// GetFinishedSessions returns terminated sessions, failed ones included
func (m *Model) GetFinishedSessions() []*SessionItem {
	done := m.sessionsIn(SessionFinished)
	return append(done, m.sessionsIn(SessionFailed)...)
}

// GetHarvestStats returns the overall collection rate and a rough ETA for
// the sessions still running or queued
func (m *Model) GetHarvestStats() (perMinute float64, eta time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.sessionStartTime)
	if elapsed.Minutes() > 0 {
		perMinute = float64(m.totalCollected) / elapsed.Minutes()
	}

	remaining := 0
	for _, s := range m.sessions {
		if s.State == SessionActive || s.State == SessionPending {
			if left := s.Target - s.Collected; left > 0 {
				remaining += left
			}
		}
	}
	if perMinute > 0 && remaining > 0 {
		eta = time.Duration(float64(remaining) / perMinute * float64(time.Minute))
	}
	return
}

// FormatRate formats posts per minute
func FormatRate(perMinute float64) string {
	return fmt.Sprintf("%.1f posts/min", perMinute)
}

// FormatCount abbreviates large counts, e.g. 1.2K
func FormatCount(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
}

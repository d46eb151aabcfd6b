package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderLogo())

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftColumn(),
		"  ",
		m.renderRightColumn(),
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, hintStyle.Render("Press ? for help"))
	}

	return screenStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) renderLogo() string {
	logo := `
╔═══════════════════════════════════════════════════════════╗
║ ██╗  ██╗███████╗ ██████╗██████╗  █████╗ ██████╗ ███████╗  ║
║ ╚██╗██╔╝██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗██╔════╝  ║
║  ╚███╔╝ ███████╗██║     ██████╔╝███████║██████╔╝█████╗    ║
║  ██╔██╗ ╚════██║██║     ██╔══██╗██╔══██║██╔═══╝ ██╔══╝    ║
║ ██╔╝ ██╗███████║╚██████╗██║  ██║██║  ██║██║     ███████╗  ║
║ ╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚══════╝  ║
║             TIMELINE HARVESTER - POST EXTRACTION          ║
╚═══════════════════════════════════════════════════════════╝`

	return bannerStyle.Width(m.width).Render(logo)
}

func (m Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderActiveSessionsPanel(width),
		m.renderQueuePanel(width),
	)
}

func (m Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderGuardPanel(width),
		m.renderLogsPanel(width),
	)
}

func (m Model) renderStatsPanel(width int) string {
	title := headerStyle.Render("Harvest")

	rate, eta := m.GetHarvestStats()

	m.mu.RLock()
	elapsed := time.Since(m.sessionStartTime)
	stats := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Session Time:"), valueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", labelStyle.Render("Posts Collected:"), valueStyle.Render(FormatCount(m.totalCollected))),
		fmt.Sprintf("%s %s", labelStyle.Render("Passes:"), valueStyle.Render(fmt.Sprintf("%d", m.totalPasses))),
		fmt.Sprintf("%s %s", labelStyle.Render("Sessions:"), valueStyle.Render(fmt.Sprintf("%d/%d active", m.activeSessions, m.maxConcurrent))),
		fmt.Sprintf("%s %s", labelStyle.Render("Rate:"), rateStyle.Render(FormatRate(rate))),
		fmt.Sprintf("%s %s", labelStyle.Render("ETA:"), valueStyle.Render(formatDuration(eta))),
	}
	if m.isPaused {
		stats = append(stats, warnStyle.Render("⏸  PAUSED"))
	}
	m.mu.RUnlock()

	content := lipgloss.JoinVertical(lipgloss.Left, stats...)

	return cardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m Model) renderActiveSessionsPanel(width int) string {
	title := headerStyle.Render("Sessions")

	active := m.GetActiveSessions()
	if len(active) == 0 {
		content := mutedStyle.Render("No active sessions")
		return cardStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	var items []string
	for _, s := range active {
		items = append(items, m.renderSessionItem(s, width-4))
	}

	return cardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

func (m Model) renderSessionItem(item *SessionItem, width int) string {
	m.mu.RLock()
	progressBar, ok := m.progressBars[item.ID]
	m.mu.RUnlock()
	if !ok {
		return ""
	}

	ratio := 0.0
	if item.Target > 0 {
		ratio = float64(item.Collected) / float64(item.Target)
	}
	if ratio > 1.0 {
		ratio = 1.0
	}
	progressBar.Width = width - 20

	info := fmt.Sprintf("%s %s • pass %d",
		activeStyle.Render(item.Label),
		mutedStyle.Render(fmt.Sprintf("%d/%d", item.Collected, item.Target)),
		item.Passes,
	)
	if item.LastHandle != "" {
		info += " • " + rateStyle.Render(item.LastHandle)
	}

	return lipgloss.JoinVertical(lipgloss.Left, info, progressBar.ViewAs(ratio))
}

func (m Model) renderQueuePanel(width int) string {
	title := headerStyle.Render("Targets")

	pending := m.GetPendingSessions()
	finished := m.GetFinishedSessions()

	var items []string
	if n := len(pending); n > 0 {
		items = append(items, warnStyle.Render(fmt.Sprintf("⏳ %d pending", n)))
		for i := 0; i < 3 && i < n; i++ {
			items = append(items, pendingStyle.Render("• "+pending[i].Label))
		}
		if n > 3 {
			items = append(items, mutedStyle.Render(fmt.Sprintf("  ... and %d more", n-3)))
		}
	}

	if n := len(finished); n > 0 {
		items = append(items, "", okStyle.Render(fmt.Sprintf("✓ %d finished", n)))
		start := n - 3
		if start < 0 {
			start = 0
		}
		for _, s := range finished[start:] {
			line := fmt.Sprintf("%s %s (%d, %s)", "✓", s.Label, s.Collected, s.Reason)
			if s.State == SessionFailed {
				items = append(items, failStyle.Render("✗ "+s.Label+" ("+s.Reason+")"))
				continue
			}
			items = append(items, doneStyle.Render(line))
		}
	}

	return cardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderGuardPanel shows how close the latest session is to giving up
func (m Model) renderGuardPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := headerStyle.Render("Stagnation")

	usage := 0.0
	if m.stagnationCeiling > 0 {
		usage = float64(m.guardNoProgress) / float64(m.stagnationCeiling) * 100
	}
	barWidth := width - 8
	filled := int(usage * float64(barWidth) / 100)
	if filled > barWidth {
		filled = barWidth
	}
	barStyle := stallStyle(usage)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		meterTrackStyle.Render(strings.Repeat("░", barWidth-filled))

	content := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Stalled passes:"),
			barStyle.Render(fmt.Sprintf("%d/%d", m.guardNoProgress, m.stagnationCeiling))),
		bar,
		fmt.Sprintf("%s %s", labelStyle.Render("Reloads:"),
			valueStyle.Render(fmt.Sprintf("%d/%d", m.guardRefreshes, m.refreshBudget))),
	}

	return cardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := headerStyle.Render("Log")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := clockStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		msg := log.Message
		if maxLen := width - 25; maxLen > 3 && len(msg) > maxLen {
			msg = msg[:maxLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, valueStyle.Render(msg)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = mutedStyle.Render("No logs yet...")
	}

	logsHeight := m.height - 35
	if logsHeight < 5 {
		logsHeight = 5
	}

	return cardStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m Model) renderHelp() string {
	help := `
  Navigation:
    q/Q      - Quit the application
    p/P      - Hold/Resume harvesting
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Status Indicators:
    ` + okStyle.Render("Green") + `    - Collecting
    ` + warnStyle.Render("Amber") + `    - Stalling/Pending
    ` + failStyle.Render("Red") + `      - Failed

  Icons:
    ⏳       - Queued target
    ✓        - Finished session
    ⏸        - On hold
`

	return cardStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration as hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

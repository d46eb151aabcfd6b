package tui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"xscraper/pkg/harvest"
	"xscraper/pkg/models"
)

// TUI represents the terminal user interface
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a new TUI instance. ceiling and budget size the stall
// guard panel.
func NewTUI(maxConcurrent, ceiling, budget int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(maxConcurrent, ceiling, budget)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the TUI until the user quits or Stop is called
func (t *TUI) Start() error {
	go func() {
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Observer returns a harvest.Observer for one session. Call it once per
// controller.
func (t *TUI) Observer() harvest.Observer {
	return &sessionObserver{send: t.Send}
}

// IsPaused returns whether the user put the harvest on hold
func (t *TUI) IsPaused() bool {
	t.model.mu.RLock()
	defer t.model.mu.RUnlock()
	return t.model.isPaused
}

// sessionObserver tags callbacks with the session they belong to
type sessionObserver struct {
	mu   sync.Mutex
	id   string
	send func(tea.Msg)
}

func (o *sessionObserver) session() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.id
}

func (o *sessionObserver) OnStart(sessionID, label string, target int) {
	o.mu.Lock()
	o.id = sessionID
	o.mu.Unlock()
	o.send(SessionStartMsg{ID: sessionID, Label: label, Target: target})
}

func (o *sessionObserver) OnRecord(rec models.Record, collected, _ int) {
	o.send(RecordMsg{ID: o.session(), Handle: rec.Handle, Collected: collected})
}

func (o *sessionObserver) OnPass(r harvest.PassReport) {
	o.send(PassMsg{
		ID:         o.session(),
		Pass:       r.Pass,
		Added:      r.Added,
		NoProgress: r.Counters.NoProgress,
		Refreshes:  r.Counters.Refreshes,
	})
}

func (o *sessionObserver) OnRefresh(attempt, budget int) {
	o.send(RefreshMsg{ID: o.session(), Attempt: attempt, Budget: budget})
}

func (o *sessionObserver) OnTerminate(res *harvest.Result) {
	msg := SessionEndMsg{ID: o.session(), Reason: res.Reason.String(), Collected: len(res.Records)}
	if res.Reason == harvest.ReasonDriverError || res.Reason == harvest.ReasonFatalConfig {
		msg.Error = res.Err
		if msg.Error == nil {
			msg.Error = fmt.Errorf("%s", res.Reason)
		}
	}
	o.send(msg)
}

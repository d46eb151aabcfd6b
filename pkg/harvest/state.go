package harvest

import (
	"time"

	"xscraper/pkg/models"
)

// State is a controller state
type State int

const (
	StateNavigating State = iota
	StateExtractingPass
	StateDeciding
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNavigating:
		return "navigating"
	case StateExtractingPass:
		return "extracting_pass"
	case StateDeciding:
		return "deciding"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// TerminalReason says why a session ended
type TerminalReason int

const (
	ReasonNone TerminalReason = iota
	ReasonSuccess
	ReasonStagnation
	ReasonCancelled
	ReasonFatalConfig
	// ReasonDriverError means the automation backend failed outright; the
	// records collected so far are still returned
	ReasonDriverError
)

func (r TerminalReason) String() string {
	switch r {
	case ReasonSuccess:
		return "success"
	case ReasonStagnation:
		return "stagnation"
	case ReasonCancelled:
		return "cancelled"
	case ReasonFatalConfig:
		return "fatal_config"
	case ReasonDriverError:
		return "driver_error"
	default:
		return "none"
	}
}

// ParseReason is the inverse of TerminalReason.String
func ParseReason(s string) TerminalReason {
	for r := ReasonSuccess; r <= ReasonDriverError; r++ {
		if r.String() == s {
			return r
		}
	}
	return ReasonNone
}

// Policy holds the fixed budgets of the control loop
type Policy struct {
	// Window is how many of the most recently rendered cards a pass considers
	Window int
	// StagnationCeiling is the number of consecutive passes without growth
	// that ends a session
	StagnationCeiling int
	// EmptyPassThreshold is the number of consecutive empty passes that
	// triggers a refresh
	EmptyPassThreshold int
	// RefreshBudget caps refreshes between two productive passes
	RefreshBudget int
}

// DefaultPolicy returns the standard budgets
func DefaultPolicy() Policy {
	return Policy{
		Window:             20,
		StagnationCeiling:  10,
		EmptyPassThreshold: 3,
		RefreshBudget:      2,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Window <= 0 {
		p.Window = d.Window
	}
	if p.StagnationCeiling <= 0 {
		p.StagnationCeiling = d.StagnationCeiling
	}
	if p.EmptyPassThreshold <= 0 {
		p.EmptyPassThreshold = d.EmptyPassThreshold
	}
	if p.RefreshBudget < 0 {
		p.RefreshBudget = 0
	}
	return p
}

// SessionState is owned by one controller and mutated only inside its loop
type SessionState struct {
	Target      int
	Collected   []models.Record
	LastLen     int
	NoProgress  int
	Refreshes   int
	EmptyPasses int
	Terminal    bool
}

// Counters is a copy of the loop counters, safe to hand to observers
type Counters struct {
	Collected   int
	Target      int
	NoProgress  int
	EmptyPasses int
	Refreshes   int
}

func (s *SessionState) counters() Counters {
	return Counters{
		Collected:   len(s.Collected),
		Target:      s.Target,
		NoProgress:  s.NoProgress,
		EmptyPasses: s.EmptyPasses,
		Refreshes:   s.Refreshes,
	}
}

// Stats counts what a session absorbed without surfacing it as an error
type Stats struct {
	Placeholders int `json:"placeholders"`
	Failed       int `json:"failed"`
	Duplicates   int `json:"duplicates"`
	StaleRetries int `json:"stale_retries"`
	// Refreshes counts every refresh over the whole session
	Refreshes int `json:"refreshes"`
	// StuckScrolls counts scrolls that left the view where it was, usually
	// the end of what the site will render
	StuckScrolls int `json:"stuck_scrolls"`
}

// Result is handed to persistence once a session terminates. Records are
// in discovery order, not chronological order.
type Result struct {
	SessionID  string
	Label      string
	Key        string
	Records    []models.Record
	Reason     TerminalReason
	Passes     int
	Stats      Stats
	StartedAt  time.Time
	FinishedAt time.Time
	// Err is the backend failure behind ReasonDriverError
	Err error
}

// Duration is the wall-clock length of the session
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

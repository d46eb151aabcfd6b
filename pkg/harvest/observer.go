package harvest

import "xscraper/pkg/models"

// PassReport describes one completed pass after its decision was made
type PassReport struct {
	Pass     int
	Added    int
	Counters Counters
	// Next is StateExtractingPass or StateTerminated
	Next State
}

// Observer receives progress callbacks from the control loop. Callbacks run
// on the loop's goroutine and must return quickly.
type Observer interface {
	OnStart(sessionID, label string, target int)
	OnRecord(rec models.Record, collected, target int)
	OnPass(report PassReport)
	OnRefresh(attempt, budget int)
	OnTerminate(res *Result)
}

// NopObserver ignores every callback
type NopObserver struct{}

func (NopObserver) OnStart(string, string, int)      {}
func (NopObserver) OnRecord(models.Record, int, int) {}
func (NopObserver) OnPass(PassReport)                {}
func (NopObserver) OnRefresh(int, int)               {}
func (NopObserver) OnTerminate(*Result)              {}

// Observers fans callbacks out to several observers in order
type Observers []Observer

func (o Observers) OnStart(id, label string, target int) {
	for _, ob := range o {
		ob.OnStart(id, label, target)
	}
}

func (o Observers) OnRecord(rec models.Record, collected, target int) {
	for _, ob := range o {
		ob.OnRecord(rec, collected, target)
	}
}

func (o Observers) OnPass(r PassReport) {
	for _, ob := range o {
		ob.OnPass(r)
	}
}

func (o Observers) OnRefresh(attempt, budget int) {
	for _, ob := range o {
		ob.OnRefresh(attempt, budget)
	}
}

func (o Observers) OnTerminate(res *Result) {
	for _, ob := range o {
		ob.OnTerminate(res)
	}
}

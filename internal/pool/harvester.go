package pool

import (
	"context"
	"time"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/harvest"
	"xscraper/pkg/ledger"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/storage"
	"xscraper/pkg/viewport"
)

// Notifier announces finished sessions
type Notifier interface {
	NotifyResult(res *harvest.Result)
}

// Harvester runs the full pipeline for one target: ledger check, driver,
// controller, sinks and ledger update. Every job gets its own driver.
type Harvester struct {
	Factory viewport.Factory
	Sink    storage.Sink
	// Ledger is optional; without it every job runs
	Ledger *ledger.Manager
	// Limiter builds the command throttle of one session; nil disables it
	Limiter func() ratelimit.Limiter
	Pacer   ratelimit.Pacer
	// Policy overrides the controller defaults unless zero
	Policy   harvest.Policy
	Options  []harvest.Option
	Observer func(job Job) harvest.Observer
	Notifier Notifier
	Logger   logger.Logger
}

func (h *Harvester) log() logger.Logger {
	if h.Logger == nil {
		return logger.GetLogger()
	}
	return h.Logger
}

// Run implements Runner
func (h *Harvester) Run(ctx context.Context, job Job) Result {
	res := Result{Job: job}
	key := job.Target.StorageKey()
	log := h.log().WithFields(map[string]interface{}{
		"target": job.Target.Label(),
		"key":    key,
	})

	if h.Ledger != nil && !job.Force {
		entry, err := h.Ledger.Lookup(key)
		if err != nil {
			res.Error = errs.Wrap(err, errs.ErrorTypeStorage, "pool.Harvester.Run", "ledger lookup")
			return res
		}
		if entry != nil {
			log.InfoWithFields("Target already harvested, skipping", map[string]interface{}{
				"records":    entry.Records,
				"updated_at": entry.UpdatedAt,
			})
			res.Skipped = true
			res.Outputs = entry.Outputs
			return res
		}
	}

	if h.Factory == nil {
		res.Error = errs.New(errs.ErrorTypeFatalConfig, "pool.Harvester.Run", "no driver factory configured")
		return res
	}
	driver, err := h.Factory(ctx)
	if err != nil {
		res.Error = errs.Wrap(err, errs.ErrorTypeDriver, "pool.Harvester.Run", "open driver")
		return res
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.WithError(err).Warn("Failed to close driver")
		}
	}()

	if h.Limiter != nil {
		if l := h.Limiter(); l != nil {
			driver = ratelimit.Throttle(driver, l)
		}
	}

	opts := []harvest.Option{harvest.WithLogger(log)}
	if h.Policy != (harvest.Policy{}) {
		opts = append(opts, harvest.WithPolicy(h.Policy))
	}
	if h.Pacer != nil {
		opts = append(opts, harvest.WithPacer(h.Pacer))
	}
	if h.Observer != nil {
		if ob := h.Observer(job); ob != nil {
			opts = append(opts, harvest.WithObserver(ob))
		}
	}
	opts = append(opts, h.Options...)

	out, err := harvest.New(driver, job.Target, opts...).Run(ctx)
	res.Harvest = out
	if err != nil {
		res.Error = err
		return res
	}

	if h.Notifier != nil {
		defer h.Notifier.NotifyResult(out)
	}
	if out.Reason == harvest.ReasonDriverError {
		res.Error = out.Err
	}

	// partial results of a cancelled session are still worth keeping
	saveCtx := context.WithoutCancel(ctx)

	if h.Sink != nil {
		batch := storage.Batch{
			SessionID: out.SessionID,
			Key:       key,
			Label:     out.Label,
			Reason:    out.Reason.String(),
			Records:   out.Records,
			CreatedAt: out.FinishedAt,
		}
		if err := h.Sink.Save(saveCtx, batch); err != nil {
			res.Error = err
			return res
		}
		if m, ok := h.Sink.(storage.MultiSink); ok {
			res.Outputs = m.Locations(out.SessionID)
		} else if l, ok := h.Sink.(storage.Locator); ok {
			if loc, ok := l.Location(out.SessionID); ok {
				res.Outputs = []string{loc}
			}
		}
	}

	if h.Ledger != nil && completed(out.Reason) {
		err := h.Ledger.Record(ledger.Entry{
			Key:       key,
			Label:     out.Label,
			SessionID: out.SessionID,
			Reason:    out.Reason.String(),
			Records:   len(out.Records),
			Passes:    out.Passes,
			Outputs:   res.Outputs,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to update ledger")
		}
	}

	log.InfoWithFields("Harvest finished", map[string]interface{}{
		"reason":   out.Reason.String(),
		"records":  len(out.Records),
		"outputs":  res.Outputs,
		"duration": out.Duration().Round(time.Millisecond),
	})
	logger.LogMetrics(log, "harvest", map[string]interface{}{
		"records_per_sec": recordsPerSecond(len(out.Records), out.Duration()),
		"passes":          out.Passes,
		"refreshes":       out.Stats.Refreshes,
		"duplicates":      out.Stats.Duplicates,
		"placeholders":    out.Stats.Placeholders,
		"stale_retries":   out.Stats.StaleRetries,
	})
	return res
}

func recordsPerSecond(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// completed reports whether a reason means the target is done; cancelled
// and failed sessions stay eligible for another run
func completed(r harvest.TerminalReason) bool {
	return r == harvest.ReasonSuccess || r == harvest.ReasonStagnation
}

var _ Runner = (*Harvester)(nil)

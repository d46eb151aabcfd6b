package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/extract"
	"xscraper/pkg/identity"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/retry"
	"xscraper/pkg/session"
	"xscraper/pkg/viewport"
)

// Controller drives one harvesting session against one viewport. It is not
// safe for concurrent use and runs at most once.
type Controller struct {
	driver    viewport.Driver
	target    session.Config
	extractor *extract.Extractor
	seen      *identity.Tracker
	pacer     ratelimit.Pacer
	observer  Observer
	log       logger.Logger
	policy    Policy

	navAttempts  int
	navBackoff   retry.BackoffStrategy
	staleBackoff retry.BackoffStrategy

	sessionID string
	state     SessionState
	stats     Stats
	current   State
	passes    int
	ran       bool
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPacer sets the pause source
func WithPacer(p ratelimit.Pacer) Option {
	return func(c *Controller) {
		if p != nil {
			c.pacer = p
		}
	}
}

// WithObserver adds an observer. Several observers are called in order.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o == nil {
			return
		}
		if existing, ok := c.observer.(Observers); ok {
			c.observer = append(existing, o)
			return
		}
		if _, ok := c.observer.(NopObserver); ok {
			c.observer = o
			return
		}
		c.observer = Observers{c.observer, o}
	}
}

// WithPolicy overrides the loop budgets. A zero window, ceiling or threshold
// keeps its default; a zero refresh budget disables refreshes.
func WithPolicy(p Policy) Option {
	return func(c *Controller) {
		c.policy = p.withDefaults()
	}
}

// WithNavigationRetry sets how often a failed navigation is retried
func WithNavigationRetry(attempts int, backoff retry.BackoffStrategy) Option {
	return func(c *Controller) {
		if attempts > 0 {
			c.navAttempts = attempts
		}
		if backoff != nil {
			c.navBackoff = backoff
		}
	}
}

// WithStaleBackoff sets the pause taken before re-listing a stale view
func WithStaleBackoff(b retry.BackoffStrategy) Option {
	return func(c *Controller) {
		if b != nil {
			c.staleBackoff = b
		}
	}
}

// WithSessionID fixes the session identifier instead of generating one
func WithSessionID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// New creates a controller for target on driver
func New(driver viewport.Driver, target session.Config, opts ...Option) *Controller {
	c := &Controller{
		driver:       driver,
		target:       target,
		seen:         identity.NewTracker(),
		pacer:        ratelimit.NoopPacer{},
		observer:     NopObserver{},
		log:          logger.GetLogger(),
		policy:       DefaultPolicy(),
		navAttempts:  3,
		navBackoff:   retry.DefaultExponentialBackoff(),
		staleBackoff: &retry.JitterBackoff{Min: 2 * time.Second, Max: 4 * time.Second},
		sessionID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithFields(map[string]interface{}{
		"session": c.sessionID,
		"target":  target.Label(),
	})
	c.extractor = extract.New(driver, c.log)
	c.state.Target = target.MaxItems()
	return c
}

// SessionID returns the identifier attached to logs and results
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Run harvests until the target is reached, progress stalls, or ctx is
// cancelled. Only an invalid target is returned as an error; every other
// ending yields a possibly partial Result tagged with its reason.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	if c.ran {
		return nil, errs.New(errs.ErrorTypeFatalConfig, "harvest.Run", "controller already ran")
	}
	c.ran = true

	started := time.Now()
	c.observer.OnStart(c.sessionID, c.target.Label(), c.state.Target)

	if !c.target.Valid() || c.driver == nil {
		err := errs.New(errs.ErrorTypeFatalConfig, "harvest.Run", "session target is not valid")
		return c.finish(started, ReasonFatalConfig, nil), err
	}

	logger.LogComponentStart("harvest", map[string]interface{}{
		"session": c.sessionID,
		"target":  c.target.Label(),
		"url":     c.target.Command().URL,
		"budget":  c.state.Target,
	})

	c.current = StateNavigating
	if err := c.navigate(ctx); err != nil {
		return c.finish(started, c.reasonFor(ctx, err), err), nil
	}

	for {
		c.current = StateExtractingPass
		added, err := c.pass(ctx)
		if err != nil {
			return c.finish(started, c.reasonFor(ctx, err), err), nil
		}

		c.current = StateDeciding
		reason, err := c.decide(ctx, added)
		if err != nil {
			return c.finish(started, c.reasonFor(ctx, err), err), nil
		}
		if reason != ReasonNone {
			return c.finish(started, reason, nil), nil
		}
	}
}

// reasonFor maps a loop error to a terminal reason
func (c *Controller) reasonFor(ctx context.Context, err error) TerminalReason {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonCancelled
	}
	if errs.IsFatalConfig(err) {
		return ReasonFatalConfig
	}
	return ReasonDriverError
}

func (c *Controller) finish(started time.Time, reason TerminalReason, cause error) *Result {
	c.current = StateTerminated
	c.state.Terminal = true
	if reason == ReasonCancelled {
		cause = nil
	}

	records := c.state.Collected
	if records == nil {
		records = []models.Record{}
	}
	res := &Result{
		SessionID:  c.sessionID,
		Label:      c.target.Label(),
		Key:        c.target.StorageKey(),
		Records:    records,
		Reason:     reason,
		Passes:     c.passes,
		Stats:      c.stats,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Err:        cause,
	}

	l := c.log
	if cause != nil {
		l = l.WithError(cause)
	}
	logger.LogTermination(l, reason.String(), len(records), c.passes)
	logger.LogComponentStop("harvest", reason.String())
	c.observer.OnTerminate(res)
	return res
}

// navigate loads the session's command. Used for the first load and for
// every refresh.
func (c *Controller) navigate(ctx context.Context) error {
	url := c.target.Command().URL
	err := retry.Do(ctx, retry.Policy{
		MaxAttempts: c.navAttempts,
		Backoff:     c.navBackoff,
		Logger:      c.log,
	}, func(ctx context.Context) error {
		return c.driver.Navigate(ctx, url)
	})
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeDriver, "harvest.navigate", "could not load "+url)
	}
	c.log.DebugWithFields("Navigated", map[string]interface{}{"url": url})
	return nil
}

// listHandles re-lists the view until it reads cleanly. Stale reads are
// retried without limit and cost nothing against any budget.
func (c *Controller) listHandles(ctx context.Context) ([]viewport.Handle, error) {
	return retry.DoValue(ctx, retry.Policy{
		Backoff: c.staleBackoff,
		RetryIf: retry.TransientOnly,
		Logger:  c.log,
		OnRetry: func(int, error, time.Duration) {
			c.stats.StaleRetries++
		},
	}, c.driver.Handles)
}

// pass runs one bounded extraction pass and returns how many records it
// appended
func (c *Controller) pass(ctx context.Context) (int, error) {
	handles, err := c.listHandles(ctx)
	if err != nil {
		return 0, err
	}
	c.passes++

	if p, ok := c.driver.(viewport.Pruner); ok {
		if n, err := p.PruneHidden(ctx); err != nil {
			c.log.WithError(err).Debug("Pruning hidden cards failed")
		} else if n > 0 {
			c.log.DebugWithFields("Pruned hidden cards", map[string]interface{}{"removed": n})
		}
	}

	if len(handles) > c.policy.Window {
		handles = handles[len(handles)-c.policy.Window:]
	}

	// Items already in flight finish even if ctx is cancelled mid-pass
	xctx := context.WithoutCancel(ctx)
	revealer, canReveal := c.driver.(viewport.Revealer)

	added := 0
	for _, h := range handles {
		if len(c.state.Collected) >= c.state.Target {
			break
		}
		fp := identity.Of(h)
		if !c.seen.Observe(fp) {
			c.stats.Duplicates++
			continue
		}

		if canReveal {
			if err := revealer.Reveal(xctx, h); err != nil {
				c.log.WithError(err).WithField("card", fp.Short()).Debug("Reveal failed")
			}
		}

		switch out := c.extractor.Extract(xctx, h).(type) {
		case extract.Extracted:
			c.state.Collected = append(c.state.Collected, out.Record)
			added++
			c.observer.OnRecord(out.Record, len(c.state.Collected), c.state.Target)
			_ = c.pacer.Pause(ctx, ratelimit.PauseRecord)
		case extract.SkippedPlaceholder:
			c.stats.Placeholders++
			c.log.DebugWithFields("Skipped placeholder", map[string]interface{}{
				"card":   fp.Short(),
				"reason": out.Reason,
			})
		case extract.Failed:
			c.stats.Failed++
			c.log.DebugWithFields("Card went stale", map[string]interface{}{
				"card":   fp.Short(),
				"reason": out.Reason.String(),
			})
		}
	}
	return added, nil
}

// decide applies the post-pass rules in order and either terminates or
// advances the view for the next pass
func (c *Controller) decide(ctx context.Context, added int) (TerminalReason, error) {
	s := &c.state
	collected := len(s.Collected)
	logger.LogPass(c.log, c.passes, added, collected, s.Target)

	if collected >= s.Target {
		c.report(added, StateTerminated)
		return ReasonSuccess, nil
	}

	if ctx.Err() != nil {
		c.report(added, StateTerminated)
		return ReasonCancelled, nil
	}

	if collected == s.LastLen {
		s.NoProgress++
	} else {
		s.NoProgress = 0
	}
	s.LastLen = collected

	if s.NoProgress >= c.policy.StagnationCeiling {
		c.report(added, StateTerminated)
		return ReasonStagnation, nil
	}

	if added == 0 {
		s.EmptyPasses++
		if s.EmptyPasses >= c.policy.EmptyPassThreshold {
			if s.Refreshes >= c.policy.RefreshBudget {
				c.report(added, StateTerminated)
				return ReasonStagnation, nil
			}
			s.Refreshes++
			s.EmptyPasses = 0
			c.stats.Refreshes++
			c.report(added, StateExtractingPass)
			if err := c.refresh(ctx); err != nil {
				return ReasonNone, err
			}
		} else {
			c.report(added, StateExtractingPass)
		}
		if err := c.pacer.Pause(ctx, ratelimit.PauseEmptyPass); err != nil {
			return ReasonCancelled, nil
		}
	} else {
		s.EmptyPasses = 0
		s.Refreshes = 0
		c.report(added, StateExtractingPass)
	}

	return ReasonNone, c.advance(ctx)
}

func (c *Controller) refresh(ctx context.Context) error {
	logger.LogRefresh(c.log, c.target.Command().URL, c.state.Refreshes, c.policy.RefreshBudget)
	c.observer.OnRefresh(c.state.Refreshes, c.policy.RefreshBudget)
	c.current = StateNavigating
	return c.navigate(ctx)
}

// advance scrolls to the end of the rendered list so the next pass sees a
// new window
func (c *Controller) advance(ctx context.Context) error {
	before, offErr := c.driver.ScrollOffset(ctx)
	if err := c.driver.ScrollToBottom(ctx); err != nil {
		return errs.Wrap(err, errs.ErrorTypeDriver, "harvest.advance", "scroll failed")
	}
	if offErr == nil {
		if after, err := c.driver.ScrollOffset(ctx); err != nil {
			c.log.WithError(err).Debug("Reading scroll offset failed")
		} else if after == before {
			c.stats.StuckScrolls++
			c.log.DebugWithFields("Scroll did not move the view", map[string]interface{}{"offset": after})
		}
	}
	if err := c.pacer.Pause(ctx, ratelimit.PauseScroll); err != nil {
		return fmt.Errorf("pause after scroll: %w", err)
	}
	return nil
}

func (c *Controller) report(added int, next State) {
	c.observer.OnPass(PassReport{
		Pass:     c.passes,
		Added:    added,
		Counters: c.state.counters(),
		Next:     next,
	})
}

// Current reports the state the loop is in
func (c *Controller) Current() State {
	return c.current
}

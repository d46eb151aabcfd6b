package browser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/viewport"
)

const (
	keyScript = `() => {
		const a = this.querySelector('a[href*="/status/"]');
		if (a && a.getAttribute("href")) return "status:" + a.getAttribute("href");
		return "markup:" + this.outerHTML;
	}`
	aliveScript  = `() => this.isConnected && !this.hasAttribute("disabled")`
	scrollScript = `() => window.scrollTo(0, document.body.scrollHeight)`
	offsetScript = `() => Math.round(window.scrollY)`
	pruneScript  = `() => {
		const hidden = document.querySelectorAll('article[data-testid="tweet"][disabled]');
		let removed = 0;
		hidden.forEach((el, i) => {
			if (i === 0 || i >= hidden.length - 2) return;
			el.remove();
			removed++;
		});
		return removed;
	}`
)

// staleMarkers are fragments of DevTools errors raised when a node or its
// execution context vanished between two calls
var staleMarkers = []string{
	"Cannot find context with specified id",
	"Could not find node with given id",
	"No node with given id",
	"Node is detached",
	"object not found",
	"Object reference chain is too long",
}

// Driver drives one incognito Chrome page through go-rod
type Driver struct {
	mu       sync.Mutex
	opts     Options
	log      logger.Logger
	browser  *rod.Browser
	session  *rod.Browser
	page     *rod.Page
	launched *launcher.Launcher
	closed   bool
}

// Launch starts (or attaches to) Chrome and opens an isolated page
// configured with the viewport size, user agent and cookies of opts
func Launch(ctx context.Context, opts Options) (*Driver, error) {
	opts = opts.withDefaults()
	d := &Driver{opts: opts, log: opts.Logger.WithField("component", "browser")}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(opts.Headless).NoSandbox(opts.NoSandbox)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeDriver, "browser.Launch", "launch chrome")
		}
		d.launched = l
		controlURL = u
	}

	d.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := d.browser.Connect(); err != nil {
		d.cleanup()
		return nil, errs.Wrap(err, errs.ErrorTypeDriver, "browser.Launch", "connect to "+controlURL)
	}

	session, err := d.browser.Incognito()
	if err != nil {
		d.cleanup()
		return nil, errs.Wrap(err, errs.ErrorTypeDriver, "browser.Launch", "create incognito context")
	}
	d.session = session

	page, err := session.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		d.cleanup()
		return nil, errs.Wrap(err, errs.ErrorTypeDriver, "browser.Launch", "open page")
	}
	d.page = page

	if err := d.prepare(); err != nil {
		d.cleanup()
		return nil, err
	}

	d.log.InfoWithFields("Browser session ready", map[string]interface{}{
		"attached": opts.ControlURL != "",
		"headless": opts.Headless,
		"cookies":  len(opts.Cookies),
	})
	return d, nil
}

// Factory returns a viewport.Factory that launches a separate browser
// session each time it is called
func Factory(opts Options) viewport.Factory {
	return func(ctx context.Context) (viewport.Driver, error) {
		return Launch(ctx, opts)
	}
}

func (d *Driver) prepare() error {
	err := proto.EmulationSetDeviceMetricsOverride{
		Width:             d.opts.ViewportWidth,
		Height:            d.opts.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}.Call(d.page)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeDriver, "browser.prepare", "set viewport")
	}

	if d.opts.UserAgent != "" {
		if err := d.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: d.opts.UserAgent}); err != nil {
			return errs.Wrap(err, errs.ErrorTypeDriver, "browser.prepare", "set user agent")
		}
	}

	if params := cookieParams(d.opts.Cookies); len(params) > 0 {
		if err := d.page.SetCookies(params); err != nil {
			return errs.Wrap(err, errs.ErrorTypeDriver, "browser.prepare", "set cookies")
		}
	}
	return nil
}

type card struct {
	key string
	el  *rod.Element
}

func (c *card) Key() string { return c.key }

func (d *Driver) active(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.New(errs.ErrorTypeDriver, op, "driver closed")
	}
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.active("browser.Navigate"); err != nil {
		return err
	}
	page := d.page.Context(ctx).Timeout(d.opts.NavigationTimeout)
	if err := page.Navigate(url); err != nil {
		return errs.Wrap(err, errs.ErrorTypeDriver, "browser.Navigate", url)
	}
	if err := page.WaitLoad(); err != nil {
		return errs.Wrap(err, errs.ErrorTypeDriver, "browser.Navigate", "wait load "+url)
	}
	d.log.DebugWithFields("Navigated", map[string]interface{}{"url": url})
	return nil
}

func (d *Driver) Handles(ctx context.Context) ([]viewport.Handle, error) {
	if err := d.active("browser.Handles"); err != nil {
		return nil, err
	}
	els, err := d.page.Context(ctx).Elements(cardSelector)
	if err != nil {
		return nil, classify(err, "browser.Handles", "list cards")
	}

	out := make([]viewport.Handle, 0, len(els))
	for i, el := range els {
		res, err := el.Context(ctx).Eval(keyScript)
		if err != nil {
			return nil, classify(err, "browser.Handles", fmt.Sprintf("key of card %d", i))
		}
		out = append(out, &card{key: digestKey(res.Value.Str()), el: el})
	}
	return out, nil
}

// digestKey keeps status keys readable and hashes markup
func digestKey(raw string) string {
	if strings.HasPrefix(raw, "status:") {
		return raw
	}
	sum := sha256.Sum256([]byte(strings.TrimPrefix(raw, "markup:")))
	return "markup:" + hex.EncodeToString(sum[:16])
}

func (d *Driver) ScrollToBottom(ctx context.Context) error {
	if err := d.active("browser.ScrollToBottom"); err != nil {
		return err
	}
	if _, err := d.page.Context(ctx).Eval(scrollScript); err != nil {
		return errs.Wrap(err, errs.ErrorTypeDriver, "browser.ScrollToBottom", "scroll")
	}
	return nil
}

func (d *Driver) ScrollOffset(ctx context.Context) (int, error) {
	if err := d.active("browser.ScrollOffset"); err != nil {
		return 0, err
	}
	res, err := d.page.Context(ctx).Eval(offsetScript)
	if err != nil {
		return 0, errs.Wrap(err, errs.ErrorTypeDriver, "browser.ScrollOffset", "read scrollY")
	}
	return res.Value.Int(), nil
}

func (d *Driver) Alive(ctx context.Context, h viewport.Handle) bool {
	c, ok := h.(*card)
	if !ok || d.active("browser.Alive") != nil {
		return false
	}
	res, err := c.el.Context(ctx).Eval(aliveScript)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (d *Driver) ReadField(ctx context.Context, h viewport.Handle, f viewport.Field) (string, bool) {
	values := d.ReadFields(ctx, h, f)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (d *Driver) ReadFields(ctx context.Context, h viewport.Handle, f viewport.Field) []string {
	c, ok := h.(*card)
	if !ok || d.active("browser.ReadFields") != nil {
		return nil
	}
	q, ok := queries[f]
	if !ok {
		return nil
	}
	matches, err := c.el.Context(ctx).ElementsX(q.xpath)
	if err != nil || len(matches) == 0 {
		return nil
	}
	if q.source == fromPresence {
		return []string{"true"}
	}
	if single(f) {
		matches = matches[:1]
	}

	var out []string
	for _, m := range matches {
		if v, ok := read(m, q); ok {
			out = append(out, v)
		}
	}
	return out
}

func read(el *rod.Element, q query) (string, bool) {
	switch q.source {
	case fromAttribute:
		v, err := el.Attribute(q.name)
		if err != nil || v == nil {
			return "", false
		}
		return strings.TrimSpace(*v), *v != ""
	case fromProperty:
		v, err := el.Property(q.name)
		if err != nil {
			return "", false
		}
		s := v.Str()
		return s, s != ""
	default:
		t, err := el.Text()
		if err != nil {
			return "", false
		}
		return t, strings.TrimSpace(t) != ""
	}
}

// Reveal scrolls the card into view so lazily rendered parts load
func (d *Driver) Reveal(ctx context.Context, h viewport.Handle) error {
	c, ok := h.(*card)
	if !ok {
		return errs.New(errs.ErrorTypeDriver, "browser.Reveal", "foreign handle")
	}
	if err := c.el.Context(ctx).ScrollIntoView(); err != nil {
		return classify(err, "browser.Reveal", "scroll into view")
	}
	return nil
}

// PruneHidden removes disabled cards except the first and the last two
func (d *Driver) PruneHidden(ctx context.Context) (int, error) {
	if err := d.active("browser.PruneHidden"); err != nil {
		return 0, err
	}
	res, err := d.page.Context(ctx).Eval(pruneScript)
	if err != nil {
		return 0, classify(err, "browser.PruneHidden", "remove hidden cards")
	}
	return res.Value.Int(), nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	err := d.cleanup()
	d.log.Debug("Browser session closed")
	return err
}

func (d *Driver) cleanup() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if d.page != nil {
		keep(d.page.Close())
	}
	if d.session != nil {
		keep(d.session.Close())
	}
	// an attached browser belongs to someone else
	if d.launched != nil {
		if d.browser != nil {
			keep(d.browser.Close())
		}
		d.launched.Kill()
		d.launched.Cleanup()
	}
	if first != nil {
		return errs.Wrap(first, errs.ErrorTypeDriver, "browser.Close", "release browser")
	}
	return nil
}

// classify marks DevTools errors caused by a re-render as stale
func classify(err error, op, msg string) error {
	if isStale(err) {
		return errs.Wrap(fmt.Errorf("%w: %v", viewport.ErrStale, err), errs.ErrorTypeTransientStructural, op, msg)
	}
	return errs.Wrap(err, errs.ErrorTypeDriver, op, msg)
}

func isStale(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range staleMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var (
	_ viewport.Driver   = (*Driver)(nil)
	_ viewport.Revealer = (*Driver)(nil)
	_ viewport.Pruner   = (*Driver)(nil)
)

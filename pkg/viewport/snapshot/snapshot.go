// Package snapshot replays recorded page frames through the viewport.Driver
// interface. Frame 0 is what a fresh navigation shows; each scroll advances
// one frame and sticks on the last. Navigating again rewinds to frame 0.
//
// Two attributes let recordings simulate an unstable surface:
//   - data-stale-reads="N" on <body> makes the first N listings of that
//     frame fail with viewport.ErrStale
//   - data-detached on a card makes it list normally but read as gone
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/viewport"
)

const (
	cardSelector = `article[data-testid="tweet"]`
	// frameHeight is the pixel distance one frame advance represents
	frameHeight = 1000
)

type frame struct {
	doc        *goquery.Document
	staleReads int
}

// Driver replays frames. It is safe for use by one session at a time.
type Driver struct {
	mu          sync.Mutex
	frames      []*frame
	pos         int
	current     *url.URL
	navigations []string
	scrolls     int
	closed      bool
}

// New parses each HTML string as one frame
func New(pages ...string) (*Driver, error) {
	if len(pages) == 0 {
		return nil, errs.New(errs.ErrorTypeDriver, "snapshot.New", "at least one frame is required")
	}
	d := &Driver{}
	for i, page := range pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeDriver, "snapshot.New", fmt.Sprintf("parse frame %d", i))
		}
		stale, _ := strconv.Atoi(doc.Find("body").AttrOr("data-stale-reads", "0"))
		d.frames = append(d.frames, &frame{doc: doc, staleReads: stale})
	}
	return d, nil
}

// LoadDir reads every *.html file in dir, in lexical order, as frames
func LoadDir(dir string) (*Driver, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeDriver, "snapshot.LoadDir", "glob frames")
	}
	if len(paths) == 0 {
		return nil, errs.New(errs.ErrorTypeNotFound, "snapshot.LoadDir", "no .html frames in "+dir)
	}
	sort.Strings(paths)

	pages := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeDriver, "snapshot.LoadDir", "read "+p)
		}
		pages = append(pages, string(data))
	}
	return New(pages...)
}

// Factory returns a viewport.Factory that loads a fresh replay of dir for
// every session
func Factory(dir string) viewport.Factory {
	return func(ctx context.Context) (viewport.Driver, error) {
		return LoadDir(dir)
	}
}

type card struct {
	key   string
	frame int
	sel   *goquery.Selection
}

func (c *card) Key() string { return c.key }

func (d *Driver) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return errs.New(errs.ErrorTypeDriver, "snapshot.Navigate", fmt.Sprintf("invalid url %q", rawURL))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.New(errs.ErrorTypeDriver, "snapshot.Navigate", "driver closed")
	}
	d.pos = 0
	d.current = u
	d.navigations = append(d.navigations, rawURL)
	return nil
}

func (d *Driver) Handles(ctx context.Context) ([]viewport.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errs.New(errs.ErrorTypeDriver, "snapshot.Handles", "driver closed")
	}

	f := d.frames[d.pos]
	if f.staleReads > 0 {
		f.staleReads--
		return nil, errs.Wrap(viewport.ErrStale, errs.ErrorTypeTransientStructural, "snapshot.Handles",
			fmt.Sprintf("frame %d re-rendered", d.pos))
	}

	var out []viewport.Handle
	f.doc.Find(cardSelector).Each(func(_ int, s *goquery.Selection) {
		if _, disabled := s.Attr("disabled"); disabled {
			return
		}
		out = append(out, &card{key: structuralKey(s), frame: d.pos, sel: s})
	})
	return out, nil
}

// structuralKey prefers the card's permalink and falls back to a digest of
// its markup, so cards without a permalink still deduplicate
func structuralKey(s *goquery.Selection) string {
	if href, ok := s.Find(`a[href*="/status/"]`).First().Attr("href"); ok && href != "" {
		return "status:" + href
	}
	html, err := goquery.OuterHtml(s)
	if err != nil {
		html = s.Text()
	}
	sum := sha256.Sum256([]byte(html))
	return "markup:" + hex.EncodeToString(sum[:16])
}

func (d *Driver) ScrollToBottom(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.New(errs.ErrorTypeDriver, "snapshot.ScrollToBottom", "driver closed")
	}
	d.scrolls++
	if d.pos < len(d.frames)-1 {
		d.pos++
	}
	return nil
}

func (d *Driver) ScrollOffset(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos * frameHeight, nil
}

func (d *Driver) Alive(ctx context.Context, h viewport.Handle) bool {
	c, ok := h.(*card)
	if !ok {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || c.frame != d.pos {
		return false
	}
	_, detached := c.sel.Attr("data-detached")
	return !detached
}

func (d *Driver) ReadField(ctx context.Context, h viewport.Handle, f viewport.Field) (string, bool) {
	values := d.ReadFields(ctx, h, f)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (d *Driver) ReadFields(ctx context.Context, h viewport.Handle, f viewport.Field) []string {
	if !d.Alive(ctx, h) {
		return nil
	}
	c := h.(*card)

	d.mu.Lock()
	base := d.current
	d.mu.Unlock()

	return readField(c.sel, f, base)
}

// PruneHidden drops disabled cards from the current frame, keeping the
// first and the last two so the list keeps its anchors
func (d *Driver) PruneHidden(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	hidden := d.frames[d.pos].doc.Find(cardSelector + "[disabled]")
	n := hidden.Length()
	if n <= 3 {
		return 0, nil
	}
	removed := 0
	hidden.Each(func(i int, s *goquery.Selection) {
		if i == 0 || i >= n-2 {
			return
		}
		s.Remove()
		removed++
	})
	return removed, nil
}

// Navigations returns every URL navigated to, in order
func (d *Driver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

// Scrolls returns how many scroll commands were issued
func (d *Driver) Scrolls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrolls
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var (
	_ viewport.Driver = (*Driver)(nil)
	_ viewport.Pruner = (*Driver)(nil)
)

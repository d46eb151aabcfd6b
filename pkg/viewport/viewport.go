// Package viewport defines the capability the harvester consumes from a
// browser-automation backend: navigate, list the rendered post cards,
// scroll, and read raw field values off a card.
//
// The rendered view is virtualized. Only a bounded window of cards exists
// at any time, cards may be re-rendered as new handles, and a handle may go
// stale between listing and reading. Implementations live in
// internal/browser (live Chrome via go-rod) and pkg/viewport/snapshot
// (recorded HTML frames).
package viewport

import (
	"context"
	"errors"
)

// ErrStale is wrapped by Handles when the rendered list changed while it
// was being read. Callers retry the listing after a pause.
var ErrStale = errors.New("rendered list went stale")

// Field selects one raw value on a card
type Field int

const (
	FieldAuthorName Field = iota
	FieldHandle
	FieldTimestamp
	FieldVerified
	// FieldText yields every inline text and link segment of the primary
	// text container, in document order
	FieldText
	FieldReplies
	FieldReposts
	FieldFavorites
	FieldViews
	FieldTags
	FieldMentions
	// FieldSymbols yields the alt text of inline emoji images
	FieldSymbols
	FieldAvatar
	FieldPermalink
)

var fieldNames = map[Field]string{
	FieldAuthorName: "author_name",
	FieldHandle:     "handle",
	FieldTimestamp:  "timestamp",
	FieldVerified:   "verified",
	FieldText:       "text",
	FieldReplies:    "replies",
	FieldReposts:    "reposts",
	FieldFavorites:  "favorites",
	FieldViews:      "views",
	FieldTags:       "tags",
	FieldMentions:   "mentions",
	FieldSymbols:    "symbols",
	FieldAvatar:     "avatar",
	FieldPermalink:  "permalink",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// Handle references one rendered card
type Handle interface {
	// Key is the card's structural identity, captured when the handle was
	// listed. Two handles for the same post share a Key even after the card
	// left the window and was rendered again.
	Key() string
}

// Driver is the minimum surface the harvester requires
type Driver interface {
	// Navigate loads url. Re-issuing the same url reloads the view.
	Navigate(ctx context.Context, url string) error

	// Handles lists the currently rendered cards in document order. The
	// list may repeat cards returned earlier. A list that changed underneath
	// the read returns an error wrapping ErrStale.
	Handles(ctx context.Context) ([]Handle, error)

	ScrollToBottom(ctx context.Context) error

	// ScrollOffset reports the vertical scroll position in pixels
	ScrollOffset(ctx context.Context) (int, error)

	// ReadField returns the first value of f on h. ok is false when the
	// field is absent or h has gone stale; it never returns an error.
	ReadField(ctx context.Context, h Handle, f Field) (value string, ok bool)

	// ReadFields returns every value of f on h, in document order
	ReadFields(ctx context.Context, h Handle, f Field) []string

	// Alive reports whether h still refers to a rendered card
	Alive(ctx context.Context, h Handle) bool

	Close() error
}

// Revealer is implemented by drivers that can scroll a card into view
// before it is read
type Revealer interface {
	Reveal(ctx context.Context, h Handle) error
}

// Pruner is implemented by drivers that can drop hidden cards to keep the
// rendered tree small
type Pruner interface {
	PruneHidden(ctx context.Context) (int, error)
}

// Factory creates one isolated Driver per session
type Factory func(ctx context.Context) (Driver, error)

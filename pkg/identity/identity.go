// Package identity deduplicates rendered cards within one session.
package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"xscraper/pkg/viewport"
)

// Fingerprint is a stable digest of a card's structural identity
type Fingerprint string

// Of derives the fingerprint of h from its structural key alone, so it is
// available even when extraction of h later fails
func Of(h viewport.Handle) Fingerprint {
	sum := sha256.Sum256([]byte(h.Key()))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Short returns the first 12 hex digits, for logs
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// Tracker is the seen-set of one session. It only grows; sessions are
// bounded by their item budget. Not safe for concurrent use.
type Tracker struct {
	seen map[Fingerprint]struct{}
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[Fingerprint]struct{})}
}

// Observe returns true the first time fp is seen and false afterwards
func (t *Tracker) Observe(fp Fingerprint) bool {
	if _, ok := t.seen[fp]; ok {
		return false
	}
	t.seen[fp] = struct{}{}
	return true
}

// Len is the number of distinct fingerprints observed
func (t *Tracker) Len() int {
	return len(t.seen)
}

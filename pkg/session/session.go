// Package session describes what a harvest targets: one of four mutually
// exclusive target kinds, a tab preference and an item budget. A Config is
// immutable once built and maps to exactly one navigation command.
package session

import (
	"fmt"
	"net/url"
	"strings"

	errs "xscraper/pkg/errors"
)

// TargetKind identifies what a session harvests
type TargetKind int

const (
	TargetUnknown TargetKind = iota
	TargetHome
	TargetProfile
	TargetHashtag
	TargetQuery
)

func (k TargetKind) String() string {
	switch k {
	case TargetHome:
		return "home"
	case TargetProfile:
		return "profile"
	case TargetHashtag:
		return "hashtag"
	case TargetQuery:
		return "query"
	default:
		return "unknown"
	}
}

// needsIdentifier reports whether the kind requires a non-empty identifier
func (k TargetKind) needsIdentifier() bool {
	return k == TargetProfile || k == TargetHashtag || k == TargetQuery
}

// Tab is the recency/relevance preference for hashtag and query targets
type Tab int

const (
	TabLatest Tab = iota
	TabTop
)

func (t Tab) String() string {
	if t == TabTop {
		return "top"
	}
	return "latest"
}

// TabFromFlags picks Latest when latest is set, Top when only top is set,
// and Latest when neither is.
func TabFromFlags(latest, top bool) Tab {
	if !latest && top {
		return TabTop
	}
	return TabLatest
}

// ParseTab parses "latest" or "top"
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latest", "live":
		return TabLatest, nil
	case "top":
		return TabTop, nil
	default:
		return TabLatest, errs.New(errs.ErrorTypeFatalConfig, "session.ParseTab", fmt.Sprintf("unknown tab %q", s))
	}
}

// Options is the raw input to New
type Options struct {
	Kind       TargetKind
	Identifier string
	Tab        Tab
	MaxItems   int
	// BaseURL defaults to DefaultBaseURL
	BaseURL string
}

// Config is a validated, immutable session description
type Config struct {
	kind       TargetKind
	identifier string
	tab        Tab
	maxItems   int
	baseURL    string
}

// New validates opts. Every failure is typed fatal_config.
func New(opts Options) (Config, error) {
	const op = "session.New"

	if opts.Kind == TargetUnknown || opts.Kind > TargetQuery {
		return Config{}, errs.New(errs.ErrorTypeFatalConfig, op, "target kind is required")
	}

	id := strings.TrimSpace(opts.Identifier)
	switch opts.Kind {
	case TargetProfile:
		id = SanitizeHandle(id)
	case TargetHashtag:
		id = strings.TrimPrefix(id, "#")
	case TargetHome:
		id = ""
	}

	if opts.Kind.needsIdentifier() && id == "" {
		return Config{}, errs.New(errs.ErrorTypeFatalConfig, op,
			fmt.Sprintf("%s target requires a non-empty identifier", opts.Kind))
	}
	if opts.Kind == TargetProfile && !IsValidHandle(id) {
		return Config{}, errs.New(errs.ErrorTypeFatalConfig, op, fmt.Sprintf("invalid account handle %q", id))
	}
	if opts.MaxItems <= 0 {
		return Config{}, errs.New(errs.ErrorTypeFatalConfig, op,
			fmt.Sprintf("item budget must be positive, got %d", opts.MaxItems))
	}
	if opts.Tab != TabLatest && opts.Tab != TabTop {
		return Config{}, errs.New(errs.ErrorTypeFatalConfig, op, fmt.Sprintf("unknown tab %d", opts.Tab))
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, errs.New(errs.ErrorTypeFatalConfig, op, fmt.Sprintf("invalid base URL %q", opts.BaseURL))
	}

	return Config{
		kind:       opts.Kind,
		identifier: id,
		tab:        opts.Tab,
		maxItems:   opts.MaxItems,
		baseURL:    base,
	}, nil
}

// Resolve picks the target kind from the three optional identifiers a
// command line offers. Supplying more than one is rejected; supplying none
// selects the home timeline.
func Resolve(profile, hashtag, query string) (TargetKind, string, error) {
	type candidate struct {
		kind TargetKind
		id   string
	}
	var set []candidate
	for _, c := range []candidate{
		{TargetProfile, profile},
		{TargetHashtag, hashtag},
		{TargetQuery, query},
	} {
		if strings.TrimSpace(c.id) != "" {
			set = append(set, c)
		}
	}

	switch len(set) {
	case 0:
		return TargetHome, "", nil
	case 1:
		return set[0].kind, set[0].id, nil
	default:
		names := make([]string, len(set))
		for i, c := range set {
			names[i] = c.kind.String()
		}
		return TargetUnknown, "", errs.New(errs.ErrorTypeFatalConfig, "session.Resolve",
			"conflicting targets: "+strings.Join(names, ", "))
	}
}

func (c Config) Kind() TargetKind   { return c.kind }
func (c Config) Identifier() string { return c.identifier }
func (c Config) Tab() Tab           { return c.tab }
func (c Config) MaxItems() int      { return c.maxItems }
func (c Config) BaseURL() string    { return c.baseURL }
func (c Config) Valid() bool        { return c.kind != TargetUnknown }
func (c Config) Command() Command   { return commandFor(c) }
func (c Config) StorageKey() string { return storageKey(c) }

// Label is a short human-readable description, e.g. "hashtag:golang"
func (c Config) Label() string {
	if c.kind == TargetHome {
		return "home"
	}
	return c.kind.String() + ":" + c.identifier
}

package session

import (
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the site root commands are built against
	DefaultBaseURL = "https://x.com"

	HomePath    = "/home"
	HashtagPath = "/hashtag/"
	SearchPath  = "/search"

	// MaxHandleLength is the longest account handle the site allows
	MaxHandleLength = 15
)

// Command is the single navigation action a session issues. Re-issuing the
// same Command is how the controller refreshes the view.
type Command struct {
	Kind TargetKind
	URL  string
}

func commandFor(c Config) Command {
	var u string
	switch c.kind {
	case TargetHome:
		u = c.baseURL + HomePath
	case TargetProfile:
		u = c.baseURL + "/" + url.PathEscape(c.identifier)
	case TargetHashtag:
		params := url.Values{}
		params.Set("src", "hashtag_click")
		if c.tab == TabLatest {
			params.Set("f", "live")
		}
		u = c.baseURL + HashtagPath + url.PathEscape(c.identifier) + "?" + params.Encode()
	case TargetQuery:
		params := url.Values{}
		params.Set("q", c.identifier)
		params.Set("src", "typed_query")
		if c.tab == TabLatest {
			params.Set("f", "live")
		}
		u = c.baseURL + SearchPath + "?" + params.Encode()
	}
	return Command{Kind: c.kind, URL: u}
}

// IsValidHandle checks an account handle: 1 to 15 letters, digits or underscores
func IsValidHandle(handle string) bool {
	if handle == "" || len(handle) > MaxHandleLength {
		return false
	}
	for _, r := range handle {
		if !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_') {
			return false
		}
	}
	return true
}

// SanitizeHandle strips a leading @ and trailing slashes or spaces
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimRight(handle, "/ ")
}

// NormalizeKey folds a target identifier into the key harvests are stored
// under: lower case, trimmed, spaces become underscores, parentheses dropped.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "(", "")
	return strings.ReplaceAll(s, ")", "")
}

func storageKey(c Config) string {
	switch c.kind {
	case TargetHome:
		return "home"
	case TargetQuery:
		return NormalizeKey(c.identifier)
	case TargetProfile, TargetHashtag:
		return c.kind.String() + "_" + NormalizeKey(c.identifier)
	default:
		return ""
	}
}

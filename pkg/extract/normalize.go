package extract

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// ParseCount turns a rendered counter such as "12", "3,400", "1.2K" or
// "4M" into an integer. Anything unreadable or beyond int64 is 0.
func ParseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	switch strings.ToUpper(s[len(s)-1:]) {
	case "K":
		multiplier = 1e3
	case "M":
		multiplier = 1e6
	case "B":
		multiplier = 1e9
	}
	if multiplier != 1 {
		s = strings.TrimSpace(s[:len(s)-1])
	}

	if !isDecimal(s) {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	v := math.Round(n * multiplier)
	if v >= math.MaxInt64 {
		return 0
	}
	return int64(v)
}

// isDecimal accepts digits with at most one decimal point. Signs, exponents
// and hex forms are not counters.
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// EscapeSymbol renders s with ASCII escape codes: printable ASCII stays as
// is, other code points become \xhh, \uhhhh or \Uhhhhhhhh.
func EscapeSymbol(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	return b.String()
}

// ItemIDFromPermalink returns the numeric id following "status" in a post
// URL, or the trailing numeric segment when there is no "status" segment.
func ItemIDFromPermalink(permalink string) string {
	if permalink == "" {
		return ""
	}
	path := permalink
	if u, err := url.Parse(permalink); err == nil {
		path = u.Path
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")

	for i, seg := range segments {
		if seg == "status" && i+1 < len(segments) && isDigits(segments[i+1]) {
			return segments[i+1]
		}
	}
	if last := segments[len(segments)-1]; isDigits(last) {
		return last
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide prints step-by-step instructions for copying the session
// cookies out of a logged-in browser
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"X SESSION COOKIE GUIDE",
		rule,
		"",
		"Searching and profile timelines require a logged-in session. xscraper",
		"reuses the two cookies your browser already holds:",
		"",
		"  1. Open https://x.com in your browser and log in.",
		"  2. Open Developer Tools (F12, or Cmd+Option+I on macOS).",
		"  3. Chrome/Edge/Brave: Application tab -> Cookies -> https://x.com",
		"     Firefox: Storage tab -> Cookies -> https://x.com",
		"  4. Copy the values of these two cookies:",
		"",
		"       auth_token   40 hex characters",
		"       ct0          long hex string, sent as the CSRF token",
		"",
		"You can also paste a whole Cookie header; xscraper picks out both",
		"values.",
		"",
		"Security:",
		"  - these cookies grant full access to the account",
		"  - never share them or commit them to a repository",
		"  - log out in the browser to revoke them",
		rule,
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// WriteQuickGuide prints a one-line reminder
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "F12 -> Application/Storage -> Cookies -> https://x.com; need auth_token and ct0 (type 'help' for details)")
}

package auth

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Cookie names the site uses for an authenticated session
const (
	AuthCookie = "auth_token"
	CSRFCookie = "ct0"
)

var (
	authTokenPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)
	csrfTokenPattern = regexp.MustCompile(`^[0-9a-f]{32,160}$`)
)

// Account holds the session cookies of one X account
type Account struct {
	Username     string    `json:"username"`
	AuthToken    string    `json:"auth_token"`
	CSRFToken    string    `json:"csrf_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Validate checks that both cookies are present and look like real values
func (a *Account) Validate() error {
	if a == nil {
		return ErrInvalidCredentials
	}
	var errList []error
	if a.Username == "" {
		errList = append(errList, errors.New("username is required"))
	}
	if a.AuthToken == "" {
		errList = append(errList, errors.New("auth token is required"))
	} else if !authTokenPattern.MatchString(a.AuthToken) {
		errList = append(errList, errors.New("auth token must be 40 lowercase hex characters"))
	}
	if a.CSRFToken == "" {
		errList = append(errList, errors.New("CSRF token is required"))
	} else if !csrfTokenPattern.MatchString(a.CSRFToken) {
		errList = append(errList, errors.New("CSRF token must be lowercase hex"))
	}
	return errors.Join(errList...)
}

// Cookies returns the session cookies scoped to domain, e.g. ".x.com"
func (a *Account) Cookies(domain string) []*http.Cookie {
	if a == nil {
		return nil
	}
	var out []*http.Cookie
	if a.AuthToken != "" {
		out = append(out, &http.Cookie{
			Name: AuthCookie, Value: a.AuthToken, Domain: domain, Path: "/",
			Secure: true, HttpOnly: true,
		})
	}
	if a.CSRFToken != "" {
		out = append(out, &http.Cookie{
			Name: CSRFCookie, Value: a.CSRFToken, Domain: domain, Path: "/",
			Secure: true,
		})
	}
	return out
}

// ParseCookieHeader pulls auth_token and ct0 out of a pasted Cookie header
// or document.cookie string
func ParseCookieHeader(header string) (authToken, csrfToken string) {
	header = strings.TrimSpace(header)
	header = strings.TrimPrefix(header, "Cookie:")
	header = strings.TrimPrefix(header, "cookie:")

	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(name) {
		case AuthCookie:
			authToken = value
		case CSRFCookie:
			csrfToken = value
		}
	}
	return authToken, csrfToken
}

// SanitizeAccount creates a copy of the account with sensitive data masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Username:     account.Username,
		AuthToken:    maskString(account.AuthToken),
		CSRFToken:    maskString(account.CSRFToken),
		UserAgent:    account.UserAgent,
		LastModified: account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

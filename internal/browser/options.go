package browser

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"xscraper/pkg/auth"
	"xscraper/pkg/config"
	"xscraper/pkg/logger"
)

// Options configures one browser session
type Options struct {
	// ControlURL attaches to a running browser instead of launching one
	ControlURL        string
	Bin               string
	Headless          bool
	NoSandbox         bool
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	UserAgent         string
	Cookies           []*http.Cookie
	Logger            logger.Logger
}

// OptionsFromConfig builds Options for a run against baseURL, carrying the
// session cookies of account when one is given
func OptionsFromConfig(cfg config.BrowserConfig, account *auth.Account, baseURL string) Options {
	opts := Options{
		ControlURL:        cfg.ControlURL,
		Bin:               cfg.Bin,
		Headless:          cfg.Headless,
		NoSandbox:         cfg.NoSandbox,
		ViewportWidth:     cfg.ViewportWidth,
		ViewportHeight:    cfg.ViewportHeight,
		NavigationTimeout: cfg.NavigationTimeout,
	}
	if account != nil {
		opts.UserAgent = account.UserAgent
		opts.Cookies = account.Cookies(cookieDomain(baseURL))
	}
	return opts
}

func (o Options) withDefaults() Options {
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = 1280
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = 2000
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logger.GetLogger()
	}
	return o
}

// cookieDomain turns https://x.com into ".x.com"
func cookieDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ".x.com"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return "." + host
}

func cookieParams(cookies []*http.Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if p.Path == "" {
			p.Path = "/"
		}
		if !c.Expires.IsZero() {
			p.Expires = proto.TimeSinceEpoch(c.Expires.Unix())
		}
		params = append(params, p)
	}
	return params
}

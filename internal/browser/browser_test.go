package browser

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/auth"
	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/viewport"
)

func TestEveryFieldHasQuery(t *testing.T) {
	for f := viewport.FieldAuthorName; f <= viewport.FieldPermalink; f++ {
		q, ok := queries[f]
		require.True(t, ok, "missing query for %s", f)
		assert.NotEmpty(t, q.xpath, f.String())
		if q.source == fromAttribute || q.source == fromProperty {
			assert.NotEmpty(t, q.name, f.String())
		}
	}
}

func TestMultiValueFields(t *testing.T) {
	assert.False(t, single(viewport.FieldText))
	assert.False(t, single(viewport.FieldTags))
	assert.False(t, single(viewport.FieldMentions))
	assert.False(t, single(viewport.FieldSymbols))
	assert.True(t, single(viewport.FieldHandle))
	assert.True(t, single(viewport.FieldPermalink))
}

func TestCookieDomain(t *testing.T) {
	assert.Equal(t, ".x.com", cookieDomain("https://x.com"))
	assert.Equal(t, ".twitter.com", cookieDomain("https://www.twitter.com/home"))
	assert.Equal(t, ".x.com", cookieDomain("::bad"))
}

func TestCookieParams(t *testing.T) {
	exp := time.Unix(1900000000, 0)
	params := cookieParams([]*http.Cookie{
		{Name: "auth_token", Value: "abc", Domain: ".x.com", Secure: true, HttpOnly: true, Expires: exp},
		{Name: "ct0", Value: "def", Domain: ".x.com", Path: "/i"},
		nil,
		{Value: "nameless"},
	})
	require.Len(t, params, 2)

	assert.Equal(t, "auth_token", params[0].Name)
	assert.Equal(t, "/", params[0].Path)
	assert.True(t, params[0].Secure)
	assert.True(t, params[0].HTTPOnly)
	assert.EqualValues(t, 1900000000, params[0].Expires)

	assert.Equal(t, "/i", params[1].Path)
	assert.Zero(t, params[1].Expires)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Browser
	cfg.ControlURL = "ws://127.0.0.1:9222"

	acc := &auth.Account{
		AuthToken: "0123456789abcdef0123456789abcdef01234567",
		CSRFToken: "89abcdef0123456789abcdef01234567",
		UserAgent: "test-agent",
	}
	opts := OptionsFromConfig(cfg, acc, "https://x.com")
	assert.Equal(t, "ws://127.0.0.1:9222", opts.ControlURL)
	assert.Equal(t, "test-agent", opts.UserAgent)
	require.Len(t, opts.Cookies, 2)
	for _, c := range opts.Cookies {
		assert.Equal(t, ".x.com", c.Domain)
	}

	anon := OptionsFromConfig(cfg, nil, "https://x.com")
	assert.Empty(t, anon.Cookies)
	assert.Empty(t, anon.UserAgent)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, 1280, opts.ViewportWidth)
	assert.Equal(t, 2000, opts.ViewportHeight)
	assert.Equal(t, 30*time.Second, opts.NavigationTimeout)
	assert.NotNil(t, opts.Logger)
}

func TestClassify(t *testing.T) {
	stale := classify(errors.New("{-32000 Cannot find context with specified id }"), "op", "list")
	assert.ErrorIs(t, stale, viewport.ErrStale)
	assert.True(t, errs.IsTransientStructural(stale))

	other := classify(errors.New("websocket closed"), "op", "list")
	assert.NotErrorIs(t, other, viewport.ErrStale)
	assert.Equal(t, errs.ErrorTypeDriver, errs.TypeOf(other))

	assert.False(t, isStale(nil))
}

func TestDigestKey(t *testing.T) {
	assert.Equal(t, "status:/a/status/1", digestKey("status:/a/status/1"))

	k1 := digestKey("markup:<article>one</article>")
	k2 := digestKey("markup:<article>one</article>")
	k3 := digestKey("markup:<article>two</article>")
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, len("markup:")+32)
}

package session

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "xscraper/pkg/errors"
)

func TestCommandRouting(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		expected string
	}{
		{
			name:     "home timeline",
			opts:     Options{Kind: TargetHome, MaxItems: 10},
			expected: "https://x.com/home",
		},
		{
			name:     "profile strips at sign",
			opts:     Options{Kind: TargetProfile, Identifier: "@NASA/", MaxItems: 10},
			expected: "https://x.com/NASA",
		},
		{
			name:     "hashtag latest",
			opts:     Options{Kind: TargetHashtag, Identifier: "#golang", Tab: TabLatest, MaxItems: 10},
			expected: "https://x.com/hashtag/golang?f=live&src=hashtag_click",
		},
		{
			name:     "hashtag top",
			opts:     Options{Kind: TargetHashtag, Identifier: "golang", Tab: TabTop, MaxItems: 10},
			expected: "https://x.com/hashtag/golang?src=hashtag_click",
		},
		{
			name:     "query latest is escaped",
			opts:     Options{Kind: TargetQuery, Identifier: "go generics (2024)", Tab: TabLatest, MaxItems: 10},
			expected: "https://x.com/search?f=live&q=go+generics+%282024%29&src=typed_query",
		},
		{
			name:     "query top on custom base",
			opts:     Options{Kind: TargetQuery, Identifier: "rust", Tab: TabTop, MaxItems: 10, BaseURL: "http://127.0.0.1:9000/"},
			expected: "http://127.0.0.1:9000/search?q=rust&src=typed_query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New(tt.opts)
			require.NoError(t, err)

			cmd := cfg.Command()
			assert.Equal(t, tt.expected, cmd.URL)
			assert.Equal(t, tt.opts.Kind, cmd.Kind)

			_, err = url.Parse(cmd.URL)
			assert.NoError(t, err)

			// Same config, same command: refresh relies on this
			assert.Equal(t, cmd, cfg.Command())
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no kind", Options{MaxItems: 5}},
		{"empty profile", Options{Kind: TargetProfile, Identifier: "  ", MaxItems: 5}},
		{"bare at sign", Options{Kind: TargetProfile, Identifier: "@", MaxItems: 5}},
		{"empty hashtag", Options{Kind: TargetHashtag, Identifier: "#", MaxItems: 5}},
		{"empty query", Options{Kind: TargetQuery, MaxItems: 5}},
		{"invalid handle", Options{Kind: TargetProfile, Identifier: "not a handle", MaxItems: 5}},
		{"handle too long", Options{Kind: TargetProfile, Identifier: "abcdefghijklmnop", MaxItems: 5}},
		{"zero budget", Options{Kind: TargetHome}},
		{"negative budget", Options{Kind: TargetQuery, Identifier: "go", MaxItems: -1}},
		{"bad tab", Options{Kind: TargetQuery, Identifier: "go", MaxItems: 1, Tab: Tab(9)}},
		{"relative base", Options{Kind: TargetHome, MaxItems: 1, BaseURL: "x.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New(tt.opts)
			require.Error(t, err)
			assert.True(t, errs.IsFatalConfig(err), "expected fatal_config, got %v", err)
			assert.False(t, cfg.Valid())
		})
	}
}

func TestHomeIgnoresIdentifier(t *testing.T) {
	cfg, err := New(Options{Kind: TargetHome, Identifier: "ignored", MaxItems: 3})
	require.NoError(t, err)
	assert.Empty(t, cfg.Identifier())
	assert.Equal(t, "home", cfg.Label())
	assert.Equal(t, "home", cfg.StorageKey())
}

func TestResolve(t *testing.T) {
	kind, id, err := Resolve("", "", "")
	require.NoError(t, err)
	assert.Equal(t, TargetHome, kind)
	assert.Empty(t, id)

	kind, id, err = Resolve("", "#go", "")
	require.NoError(t, err)
	assert.Equal(t, TargetHashtag, kind)
	assert.Equal(t, "#go", id)

	_, _, err = Resolve("nasa", "", "moon landing")
	require.Error(t, err)
	assert.True(t, errs.IsFatalConfig(err))
	assert.Contains(t, err.Error(), "profile, query")
}

func TestTabSelection(t *testing.T) {
	assert.Equal(t, TabLatest, TabFromFlags(false, false))
	assert.Equal(t, TabLatest, TabFromFlags(true, true))
	assert.Equal(t, TabTop, TabFromFlags(false, true))

	tab, err := ParseTab("Top")
	require.NoError(t, err)
	assert.Equal(t, TabTop, tab)
	_, err = ParseTab("media")
	assert.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"  Elon Musk ":          "elon_musk",
		"Go (programming)":      "go_programming",
		"already_normal":        "already_normal",
		"(Mixed) CASE (tokens)": "mixed_case_tokens",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestStorageKeyAndLabel(t *testing.T) {
	profile, err := New(Options{Kind: TargetProfile, Identifier: "@NASA", MaxItems: 1})
	require.NoError(t, err)
	assert.Equal(t, "profile_nasa", profile.StorageKey())
	assert.Equal(t, "profile:NASA", profile.Label())

	query, err := New(Options{Kind: TargetQuery, Identifier: "Moon Landing", MaxItems: 1})
	require.NoError(t, err)
	assert.Equal(t, "moon_landing", query.StorageKey())
}

func TestIsValidHandle(t *testing.T) {
	assert.True(t, IsValidHandle("jack"))
	assert.True(t, IsValidHandle("under_score_99"))
	assert.False(t, IsValidHandle(""))
	assert.False(t, IsValidHandle("dot.name"))
	assert.False(t, IsValidHandle("sixteen_chars_xx"))
}

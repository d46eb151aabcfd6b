package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCount(t *testing.T) {
	tests := map[string]int64{
		"":                     0,
		"  ":                   0,
		"0":                    0,
		"7":                    7,
		"1,234":                1234,
		"1.2K":                 1200,
		"12k":                  12000,
		"3.4M":                 3400000,
		"1B":                   1000000000,
		"K":                    0,
		"-5":                   0,
		"NaN":                  0,
		"abc":                  0,
		" 42 ":                 42,
		"10.5 K":               10500,
		".5K":                  500,
		"1.2.3":                0,
		"+5":                   0,
		"Inf":                  0,
		"1e3":                  0,
		"1e19":                 0,
		"1e300":                0,
		"0x1p70":               0,
		"0x10":                 0,
		"99999999999999999999": 0,
		"9223372036854775807":  0,
		"9000000000000000000":  9000000000000000000,
		"9.2B":                 9200000000,
	}
	for in, want := range tests {
		got := ParseCount(in)
		assert.Equal(t, want, got, "%q", in)
		assert.GreaterOrEqual(t, got, int64(0), "%q", in)
	}
}

func TestEscapeSymbol(t *testing.T) {
	tests := map[string]string{
		"😀":  `\U0001f600`,
		"❤":  `\u2764`,
		"❤️": `\u2764\ufe0f`,
		"é":  `\xe9`,
		"a":  "a",
		`\`:  `\\`,
		"\n": `\n`,
		"👍🏽": `\U0001f44d\U0001f3fd`,
	}
	for in, want := range tests {
		assert.Equal(t, want, EscapeSymbol(in), "%q", in)
	}
}

func TestItemIDFromPermalink(t *testing.T) {
	tests := map[string]string{
		"https://x.com/nasa/status/1790000000000000000": "1790000000000000000",
		"/nasa/status/42":                      "42",
		"https://x.com/nasa/status/42/photo/1": "42",
		"https://x.com/nasa/status/42?s=20":    "42",
		"https://x.com/i/web/status/77/":       "77",
		"https://x.com/nasa":                   "",
		"https://x.com/nasa/status/abc":        "",
		"":                                     "",
		"https://x.com/nasa/analytics":         "",
		"https://t.co/123":                     "123",
	}
	for in, want := range tests {
		assert.Equal(t, want, ItemIDFromPermalink(in), in)
	}
}

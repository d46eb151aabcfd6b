package browser

import (
	"xscraper/pkg/viewport"
)

const (
	cardSelector = `article[data-testid="tweet"]:not([disabled])`
	textRoot     = `(.//div[@data-testid="tweetText"])[1]`
)

// source says how a value is read off a matched node
type source int

const (
	fromText source = iota
	fromAttribute
	// fromProperty reads the DOM property, which resolves relative URLs
	fromProperty
	fromPresence
)

type query struct {
	xpath  string
	source source
	name   string
}

// queries maps each field to an XPath relative to the card
var queries = map[viewport.Field]query{
	viewport.FieldAuthorName: {xpath: `.//div[@data-testid="User-Name"]//span`},
	viewport.FieldHandle:     {xpath: `.//span[contains(text(), "@")]`},
	viewport.FieldTimestamp:  {xpath: `.//time`, source: fromAttribute, name: "datetime"},
	viewport.FieldVerified:   {xpath: `.//*[local-name()="svg" and @data-testid="icon-verified"]`, source: fromPresence},
	viewport.FieldText:       {xpath: textRoot + `/span | ` + textRoot + `/a`},
	viewport.FieldReplies:    {xpath: `.//div[@data-testid="reply"]//span`},
	viewport.FieldReposts:    {xpath: `.//div[@data-testid="retweet"]//span`},
	viewport.FieldFavorites:  {xpath: `.//div[@data-testid="like"]//span`},
	viewport.FieldViews:      {xpath: `.//a[contains(@href, "/analytics")]//span`},
	viewport.FieldTags:       {xpath: `.//a[contains(@href, "src=hashtag_click")]`},
	viewport.FieldMentions:   {xpath: textRoot + `//a[contains(text(), "@")]`},
	viewport.FieldSymbols:    {xpath: textRoot + `/img[contains(@src, "emoji")]`, source: fromAttribute, name: "alt"},
	viewport.FieldAvatar:     {xpath: `.//div[@data-testid="Tweet-User-Avatar"]//img`, source: fromProperty, name: "src"},
	viewport.FieldPermalink:  {xpath: `.//a[contains(@href, "/status/")]`, source: fromProperty, name: "href"},
}

// single reports fields where only the first match matters
func single(f viewport.Field) bool {
	switch f {
	case viewport.FieldText, viewport.FieldTags, viewport.FieldMentions, viewport.FieldSymbols:
		return false
	default:
		return true
	}
}

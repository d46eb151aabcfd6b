package snapshot

import (
	"fmt"
	"html"
	"strings"
)

// Segment is one inline piece of a card's text container
type Segment struct {
	kind  string
	value string
}

func Text(s string) Segment    { return Segment{"text", s} }
func Tag(s string) Segment     { return Segment{"tag", s} }
func Mention(s string) Segment { return Segment{"mention", s} }

// Emoji renders an inline emoji image with the given alt text
func Emoji(s string) Segment { return Segment{"emoji", s} }

// Card describes one post card. Empty fields are left out of the markup,
// which is how promoted units and partially rendered cards look.
type Card struct {
	Author    string
	Handle    string
	Timestamp string
	Verified  bool
	Body      []Segment
	Replies   string
	Reposts   string
	Likes     string
	Views     string
	Avatar    string
	Permalink string
	// Disabled marks the card hidden; it is never listed
	Disabled bool
	// Detached marks the card as gone by the time it is read
	Detached bool
}

// HTML renders the card with the same structure the live site uses
func (c Card) HTML() string {
	var b strings.Builder
	b.WriteString(`<article data-testid="tweet"`)
	if c.Disabled {
		b.WriteString(` disabled=""`)
	}
	if c.Detached {
		b.WriteString(` data-detached=""`)
	}
	b.WriteString(">")

	if c.Avatar != "" {
		fmt.Fprintf(&b, `<div data-testid="Tweet-User-Avatar"><img src="%s"/></div>`, html.EscapeString(c.Avatar))
	}
	if c.Author != "" || c.Handle != "" || c.Verified {
		b.WriteString(`<div data-testid="User-Name">`)
		if c.Author != "" {
			fmt.Fprintf(&b, `<span>%s</span>`, html.EscapeString(c.Author))
		}
		if c.Verified {
			b.WriteString(`<svg data-testid="icon-verified"></svg>`)
		}
		b.WriteString(`</div>`)
		if c.Handle != "" {
			fmt.Fprintf(&b, `<div><span>%s</span></div>`, html.EscapeString(c.Handle))
		}
	}
	if c.Permalink != "" || c.Timestamp != "" {
		href := c.Permalink
		if href == "" {
			href = "#"
		}
		fmt.Fprintf(&b, `<a href="%s">`, html.EscapeString(href))
		if c.Timestamp != "" {
			fmt.Fprintf(&b, `<time datetime="%s">%s</time>`, html.EscapeString(c.Timestamp), html.EscapeString(c.Timestamp))
		}
		b.WriteString(`</a>`)
	}

	if len(c.Body) > 0 {
		b.WriteString(`<div data-testid="tweetText">`)
		for _, s := range c.Body {
			v := html.EscapeString(s.value)
			switch s.kind {
			case "text":
				fmt.Fprintf(&b, `<span>%s</span>`, v)
			case "tag":
				fmt.Fprintf(&b, `<a href="/hashtag/%s?src=hashtag_click">%s</a>`, strings.TrimPrefix(v, "#"), v)
			case "mention":
				fmt.Fprintf(&b, `<a href="/%s">%s</a>`, strings.TrimPrefix(v, "@"), v)
			case "emoji":
				fmt.Fprintf(&b, `<img src="https://abs.twimg.com/emoji/v2/svg/x.svg" alt="%s"/>`, v)
			}
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`<div role="group">`)
	counter := func(testid, value string) {
		fmt.Fprintf(&b, `<div data-testid="%s">`, testid)
		if value != "" {
			fmt.Fprintf(&b, `<span>%s</span>`, html.EscapeString(value))
		}
		b.WriteString(`</div>`)
	}
	counter("reply", c.Replies)
	counter("retweet", c.Reposts)
	counter("like", c.Likes)
	if c.Views != "" && c.Permalink != "" {
		fmt.Fprintf(&b, `<a href="%s/analytics"><span>%s</span></a>`, html.EscapeString(c.Permalink), html.EscapeString(c.Views))
	}
	b.WriteString(`</div></article>`)
	return b.String()
}

// Page wraps cards into one frame
func Page(cards ...Card) string {
	return PageWithStaleReads(0, cards...)
}

// PageWithStaleReads wraps cards into a frame whose first n listings fail
func PageWithStaleReads(n int, cards ...Card) string {
	var b strings.Builder
	b.WriteString("<html><body")
	if n > 0 {
		fmt.Fprintf(&b, ` data-stale-reads="%d"`, n)
	}
	b.WriteString(`><main><section aria-label="Timeline">`)
	for _, c := range cards {
		fmt.Fprintf(&b, `<div data-testid="cellInnerDiv">%s</div>`, c.HTML())
	}
	b.WriteString("</section></main></body></html>")
	return b.String()
}

// Post returns a fully populated card for post id by handle
func Post(handle, id string) Card {
	return Card{
		Author:    strings.ToUpper(handle[:1]) + handle[1:],
		Handle:    "@" + handle,
		Timestamp: "2024-05-01T10:00:00.000Z",
		Body:      []Segment{Text("post " + id)},
		Replies:   "1",
		Reposts:   "2",
		Likes:     "3",
		Views:     "4",
		Avatar:    "https://pbs.twimg.com/profile_images/" + handle + ".jpg",
		Permalink: "/" + handle + "/status/" + id,
	}
}

// Promoted returns an ad unit: author present, no timestamp, no permalink
func Promoted(author string) Card {
	return Card{
		Author: author,
		Handle: "@" + strings.ToLower(author),
		Body:   []Segment{Text("Sponsored content")},
	}
}

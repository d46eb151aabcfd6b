package snapshot

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"xscraper/pkg/viewport"
)

const textContainer = `div[data-testid="tweetText"]`

func readField(card *goquery.Selection, f viewport.Field, base *url.URL) []string {
	switch f {
	case viewport.FieldAuthorName:
		return firstText(card.Find(`div[data-testid="User-Name"] span`))
	case viewport.FieldHandle:
		var out []string
		card.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := ownText(s); strings.Contains(t, "@") {
				out = append(out, strings.TrimSpace(t))
				return false
			}
			return true
		})
		return out
	case viewport.FieldTimestamp:
		return attrs(card.Find("time").First(), "datetime")
	case viewport.FieldVerified:
		if card.Find(`svg[data-testid="icon-verified"]`).Length() > 0 {
			return []string{"true"}
		}
		return nil
	case viewport.FieldText:
		var out []string
		card.Find(textContainer).First().Children().Filter("span, a").Each(func(_ int, s *goquery.Selection) {
			out = append(out, s.Text())
		})
		return out
	case viewport.FieldReplies:
		return firstText(card.Find(`div[data-testid="reply"] span`))
	case viewport.FieldReposts:
		return firstText(card.Find(`div[data-testid="retweet"] span`))
	case viewport.FieldFavorites:
		return firstText(card.Find(`div[data-testid="like"] span`))
	case viewport.FieldViews:
		return firstText(card.Find(`a[href*="/analytics"] span`))
	case viewport.FieldTags:
		return texts(card.Find(`a[href*="src=hashtag_click"]`))
	case viewport.FieldMentions:
		var out []string
		card.Find(textContainer).First().Find("a").Each(func(_ int, s *goquery.Selection) {
			if t := ownText(s); strings.Contains(t, "@") {
				out = append(out, t)
			}
		})
		return out
	case viewport.FieldSymbols:
		return attrs(card.Find(textContainer).First().Children().Filter(`img[src*="emoji"]`), "alt")
	case viewport.FieldAvatar:
		return resolve(attrs(card.Find(`div[data-testid="Tweet-User-Avatar"] img`).First(), "src"), base)
	case viewport.FieldPermalink:
		return resolve(attrs(card.Find(`a[href*="/status/"]`).First(), "href"), base)
	default:
		return nil
	}
}

func firstText(s *goquery.Selection) []string {
	if s.Length() == 0 {
		return nil
	}
	return []string{s.First().Text()}
}

func texts(s *goquery.Selection) []string {
	var out []string
	s.Each(func(_ int, el *goquery.Selection) {
		out = append(out, el.Text())
	})
	return out
}

func attrs(s *goquery.Selection, name string) []string {
	var out []string
	s.Each(func(_ int, el *goquery.Selection) {
		if v, ok := el.Attr(name); ok {
			out = append(out, v)
		}
	})
	return out
}

// ownText concatenates the element's direct text children only
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return b.String()
}

func resolve(values []string, base *url.URL) []string {
	if base == nil {
		return values
	}
	for i, v := range values {
		ref, err := url.Parse(v)
		if err != nil {
			continue
		}
		values[i] = base.ResolveReference(ref).String()
	}
	return values
}

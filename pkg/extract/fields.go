package extract

import (
	"context"
	"fmt"
	"strings"

	"xscraper/pkg/models"
	"xscraper/pkg/viewport"
)

type builder struct {
	rec models.Record
}

// step fills one part of the record. A step that panics leaves its fields
// at their zero values.
type step struct {
	name string
	fill func(ctx context.Context, h viewport.Handle, b *builder)
}

func (e *Extractor) run(ctx context.Context, h viewport.Handle, b *builder, s step) {
	defer func() {
		if r := recover(); r != nil {
			e.log.DebugWithFields("Field degraded", map[string]interface{}{
				"field": s.name,
				"key":   h.Key(),
				"panic": fmt.Sprint(r),
			})
		}
	}()
	s.fill(ctx, h, b)
}

func (e *Extractor) steps() []step {
	d := e.driver
	count := func(f viewport.Field, dst func(*builder) *int64) step {
		return step{f.String(), func(ctx context.Context, h viewport.Handle, b *builder) {
			if v, ok := d.ReadField(ctx, h, f); ok {
				*dst(b) = ParseCount(v)
			}
		}}
	}
	list := func(f viewport.Field, dst func(*builder) *[]string) step {
		return step{f.String(), func(ctx context.Context, h viewport.Handle, b *builder) {
			*dst(b) = nonEmpty(d.ReadFields(ctx, h, f))
		}}
	}

	return []step{
		{"handle", func(ctx context.Context, h viewport.Handle, b *builder) {
			v, _ := d.ReadField(ctx, h, viewport.FieldHandle)
			b.rec.Handle = strings.TrimSpace(v)
		}},
		{"verified", func(ctx context.Context, h viewport.Handle, b *builder) {
			_, b.rec.Verified = d.ReadField(ctx, h, viewport.FieldVerified)
		}},
		{"text", func(ctx context.Context, h viewport.Handle, b *builder) {
			b.rec.Text = strings.Join(d.ReadFields(ctx, h, viewport.FieldText), "")
		}},
		count(viewport.FieldReplies, func(b *builder) *int64 { return &b.rec.Replies }),
		count(viewport.FieldReposts, func(b *builder) *int64 { return &b.rec.Reposts }),
		count(viewport.FieldFavorites, func(b *builder) *int64 { return &b.rec.Favorites }),
		count(viewport.FieldViews, func(b *builder) *int64 { return &b.rec.Views }),
		list(viewport.FieldTags, func(b *builder) *[]string { return &b.rec.Tags }),
		list(viewport.FieldMentions, func(b *builder) *[]string { return &b.rec.Mentions }),
		{"symbols", func(ctx context.Context, h viewport.Handle, b *builder) {
			for _, s := range d.ReadFields(ctx, h, viewport.FieldSymbols) {
				if s == "" {
					continue
				}
				b.rec.Symbols = append(b.rec.Symbols, EscapeSymbol(s))
			}
		}},
		{"avatar", func(ctx context.Context, h viewport.Handle, b *builder) {
			v, _ := d.ReadField(ctx, h, viewport.FieldAvatar)
			b.rec.AvatarURL = strings.TrimSpace(v)
		}},
		{"permalink", func(ctx context.Context, h viewport.Handle, b *builder) {
			v, _ := d.ReadField(ctx, h, viewport.FieldPermalink)
			b.rec.Permalink = strings.TrimSpace(v)
			b.rec.ItemID = ItemIDFromPermalink(b.rec.Permalink)
		}},
	}
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

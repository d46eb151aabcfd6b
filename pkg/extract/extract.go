// Package extract turns one rendered card into an Outcome. Each optional
// field is read in isolation and degrades to its zero value on failure;
// only the author name and timestamp are required.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/viewport"
)

// Placeholder reasons
const (
	ReasonNoAuthor             = "no author"
	ReasonNoTimestamp          = "no timestamp"
	ReasonUnparseableTimestamp = "unparseable timestamp"
	ReasonNoContent            = "no author or timestamp"
	ReasonPanicked             = "extraction panicked"
)

// Extractor reads cards through a viewport.Driver
type Extractor struct {
	driver viewport.Driver
	log    logger.Logger
}

// New creates an Extractor. A nil logger discards output.
func New(driver viewport.Driver, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Extractor{driver: driver, log: log}
}

// Extract never panics and never returns an error; every card maps to one Outcome.
func (e *Extractor) Extract(ctx context.Context, h viewport.Handle) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WarnWithFields("Extraction panicked", map[string]interface{}{
				"key":   h.Key(),
				"panic": fmt.Sprint(r),
			})
			out = SkippedPlaceholder{Reason: ReasonPanicked}
		}
	}()

	author, hasAuthor := e.readTrimmed(ctx, h, viewport.FieldAuthorName)
	stamp, hasStamp := e.readTrimmed(ctx, h, viewport.FieldTimestamp)

	if !hasAuthor || !hasStamp {
		if !e.driver.Alive(ctx, h) {
			return Failed{Reason: missingReason(hasAuthor, hasStamp)}
		}
		reason := ReasonNoContent
		switch {
		case hasAuthor:
			reason = ReasonNoTimestamp
		case hasStamp:
			reason = ReasonNoAuthor
		}
		return SkippedPlaceholder{Reason: reason}
	}

	if _, err := parseTimestamp(stamp); err != nil {
		return SkippedPlaceholder{Reason: ReasonUnparseableTimestamp}
	}

	b := &builder{rec: models.Record{AuthorName: author, Timestamp: stamp}}
	for _, step := range e.steps() {
		e.run(ctx, h, b, step)
	}
	return Extracted{Record: b.rec}
}

func missingReason(hasAuthor, hasStamp bool) FailureReason {
	switch {
	case !hasAuthor && !hasStamp:
		return MissingAllRequiredFields
	case !hasAuthor:
		return MissingAuthor
	default:
		return MissingTimestamp
	}
}

func (e *Extractor) readTrimmed(ctx context.Context, h viewport.Handle, f viewport.Field) (string, bool) {
	v, ok := e.driver.ReadField(ctx, h, f)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds
func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

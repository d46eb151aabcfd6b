package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
)

// Batch is the outcome of one harvesting session, ready to persist
type Batch struct {
	SessionID string
	// Key is the normalized storage key of the target, e.g. "golang" or
	// "profile_nasa"
	Key       string
	Label     string
	Reason    string
	Records   []models.Record
	CreatedAt time.Time
}

// Sink persists batches. Implementations must be safe for concurrent use.
type Sink interface {
	Save(ctx context.Context, b Batch) error
	Close() error
}

// Locator is implemented by sinks that can say where a session ended up
type Locator interface {
	Location(sessionID string) (string, bool)
}

// MultiSink writes each batch to every sink in order. A failing sink does
// not stop the others; all errors are joined.
type MultiSink []Sink

func (m MultiSink) Save(ctx context.Context, b Batch) error {
	var errList []error
	for _, s := range m {
		if err := s.Save(ctx, b); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Locations collects the location of sessionID from every Locator sink
func (m MultiSink) Locations(sessionID string) []string {
	var out []string
	for _, s := range m {
		if l, ok := s.(Locator); ok {
			if loc, ok := l.Location(sessionID); ok {
				out = append(out, loc)
			}
		}
	}
	return out
}

func (m MultiSink) Close() error {
	var errList []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Open builds the sinks selected by cfg: always the file export, plus the
// optional database named by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Sink, error) {
	files, err := NewFileSink(cfg.Output, log)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Storage.Driver) {
	case "", "none":
		return MultiSink{files}, nil
	case "sqlite":
		db, err := NewSQLiteSink(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		return MultiSink{files, db}, nil
	case "mongo", "mongodb":
		db, err := NewMongoSink(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		return MultiSink{files, db}, nil
	default:
		return nil, errs.New(errs.ErrorTypeFatalConfig, "storage.Open",
			fmt.Sprintf("unknown storage driver %q", cfg.Storage.Driver))
	}
}

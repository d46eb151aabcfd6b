package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
)

// FileSink exports each batch to one file in the output directory
type FileSink struct {
	dir       string
	format    Format
	pattern   string
	overwrite bool
	log       logger.Logger

	mu        sync.Mutex
	written   []string
	bySession map[string]string
}

// NewFileSink creates the output directory and validates the format
func NewFileSink(cfg config.OutputConfig, log logger.Logger) (*FileSink, error) {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if err := os.MkdirAll(cfg.BaseDirectory, 0755); err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "storage.NewFileSink", "failed to create output directory")
	}

	pattern := cfg.FileNamePattern
	if pattern == "" {
		pattern = "{key}_posts.{ext}"
	}
	return &FileSink{
		dir:       cfg.BaseDirectory,
		format:    format,
		pattern:   pattern,
		overwrite: cfg.Overwrite,
		log:       log,
		bySession: make(map[string]string),
	}, nil
}

// PathFor returns where b would be written, ignoring collisions
func (s *FileSink) PathFor(b Batch) string {
	key := b.Key
	if key == "" {
		key = "harvest"
	}
	name := strings.NewReplacer(
		"{key}", key,
		"{ext}", s.format.Ext(),
		"{session}", b.SessionID,
		"{date}", b.CreatedAt.Format("20060102"),
	).Replace(s.pattern)
	return filepath.Join(s.dir, filepath.Base(name))
}

// Save encodes b and writes it atomically. Without overwrite an existing
// file is kept and the new one gets the session id as suffix.
func (s *FileSink) Save(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.PathFor(b)
	if !s.overwrite {
		if _, err := os.Stat(path); err == nil {
			path = withSuffix(path, shortID(b.SessionID))
		}
	}

	err := writeAtomic(path, func(w io.Writer) error {
		return s.format.Encode(w, b.Records)
	})
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "storage.FileSink.Save", "failed to write "+path)
	}

	s.written = append(s.written, path)
	if b.SessionID != "" {
		s.bySession[b.SessionID] = path
	}
	s.log.InfoWithFields("Export written", map[string]interface{}{
		"path":    path,
		"records": len(b.Records),
		"format":  s.format.String(),
	})
	return nil
}

// Written returns every path written so far
func (s *FileSink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// Location returns the file a session's batch was written to
func (s *FileSink) Location(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.bySession[sessionID]
	return path, ok
}

func (s *FileSink) Close() error { return nil }

// writeAtomic writes to a temporary file and renames it into place
func writeAtomic(path string, fill func(w io.Writer) error) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = fill(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to encode data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "dup"
	}
	return id
}

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/models"
)

//go:embed schema.sql
var schema string

// SQLiteSink stores batches in a SQLite database
type SQLiteSink struct {
	db *sql.DB
}

// HarvestRow summarizes one stored batch
type HarvestRow struct {
	SessionID   string
	Query       string
	Label       string
	Reason      string
	RecordCount int
	CreatedAt   time.Time
}

// NewSQLiteSink opens dsn and applies the schema. ":memory:" works for tests.
func NewSQLiteSink(ctx context.Context, dsn string) (*SQLiteSink, error) {
	const op = "storage.NewSQLiteSink"
	if dsn == "" {
		return nil, errs.New(errs.ErrorTypeFatalConfig, op, "sqlite storage requires a DSN")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, op, "failed to open database")
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, op, "failed to apply schema")
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Save(ctx context.Context, b Batch) error {
	const op = "storage.SQLiteSink.Save"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO harvests (session_id, query, label, reason, record_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.SessionID, b.Key, b.Label, b.Reason, len(b.Records), created.UTC())
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, op, "failed to insert harvest")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts (
		session_id, position, item_id, author, handle, timestamp, verified, content,
		replies, reposts, favorites, views, tags, mentions, symbols, avatar_url, permalink
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, op, "failed to prepare insert")
	}
	defer stmt.Close()

	for i, r := range b.Records {
		_, err := stmt.ExecContext(ctx,
			b.SessionID, i, r.ItemID, r.AuthorName, r.Handle, r.Timestamp, r.Verified, r.Text,
			r.Replies, r.Reposts, r.Favorites, r.Views,
			jsonList(r.Tags), jsonList(r.Mentions), jsonList(r.Symbols),
			r.AvatarURL, r.Permalink)
		if err != nil {
			return errs.Wrap(err, errs.ErrorTypeStorage, op, "failed to insert post")
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, op, "failed to commit")
	}
	return nil
}

// Harvests lists stored batches for query, newest first. An empty query
// lists everything.
func (s *SQLiteSink) Harvests(ctx context.Context, query string) ([]HarvestRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, query, label, reason, record_count, created_at
		FROM harvests
		WHERE ? = '' OR query = ?
		ORDER BY created_at DESC`, query, query)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "storage.SQLiteSink.Harvests", "query failed")
	}
	defer rows.Close()

	var out []HarvestRow
	for rows.Next() {
		var h HarvestRow
		if err := rows.Scan(&h.SessionID, &h.Query, &h.Label, &h.Reason, &h.RecordCount, &h.CreatedAt); err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeStorage, "storage.SQLiteSink.Harvests", "scan failed")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Records loads the records of one batch in discovery order
func (s *SQLiteSink) Records(ctx context.Context, sessionID string) ([]models.Record, error) {
	const op = "storage.SQLiteSink.Records"
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, author, handle, timestamp, verified, content,
		       replies, reposts, favorites, views, tags, mentions, symbols, avatar_url, permalink
		FROM posts WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, op, "query failed")
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var r models.Record
		var tags, mentions, symbols string
		if err := rows.Scan(&r.ItemID, &r.AuthorName, &r.Handle, &r.Timestamp, &r.Verified, &r.Text,
			&r.Replies, &r.Reposts, &r.Favorites, &r.Views, &tags, &mentions, &symbols,
			&r.AvatarURL, &r.Permalink); err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeStorage, op, "scan failed")
		}
		r.Tags = parseList(tags)
		r.Mentions = parseList(mentions)
		r.Symbols = parseList(symbols)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func jsonList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func parseList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || len(out) == 0 {
		return nil
	}
	return out
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/models"
)

// Format is an export file format
type Format int

const (
	FormatJSON Format = iota
	FormatNDJSON
	FormatCSV
)

// ParseFormat accepts json, ndjson, jsonl and csv. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return 0, errs.New(errs.ErrorTypeFatalConfig, "storage.ParseFormat", fmt.Sprintf("unknown output format %q", s))
	}
}

func (f Format) String() string {
	switch f {
	case FormatNDJSON:
		return "ndjson"
	case FormatCSV:
		return "csv"
	default:
		return "json"
	}
}

// Ext is the file extension without the dot
func (f Format) Ext() string {
	switch f {
	case FormatNDJSON:
		return "jsonl"
	default:
		return f.String()
	}
}

// Encode writes records to w
func (f Format) Encode(w io.Writer, records []models.Record) error {
	switch f {
	case FormatNDJSON:
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	case FormatCSV:
		return WriteCSV(w, records)
	default:
		if records == nil {
			records = []models.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
}

// CSVHeader lists the export columns in order
var CSVHeader = []string{
	"author", "handle", "timestamp", "verified", "content",
	"comments", "retweets", "likes", "analytics",
	"tags", "mentions", "emojis",
	"profile_image", "tweet_link", "tweet_id",
}

// WriteCSV writes a header row and one row per record
func WriteCSV(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.AuthorName, r.Handle, r.Timestamp, strconv.FormatBool(r.Verified), r.Text,
			itoa(r.Replies), itoa(r.Reposts), itoa(r.Favorites), itoa(r.Views),
			strings.Join(r.Tags, " "), strings.Join(r.Mentions, " "), strings.Join(r.Symbols, " "),
			r.AvatarURL, r.Permalink, r.ItemID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

package models

import (
	"time"
)

// Record is one harvested post. The JSON and BSON keys match the export
// format consumed downstream.
type Record struct {
	AuthorName string `json:"author" bson:"author"`
	Handle     string `json:"handle" bson:"handle"`
	// Timestamp is the ISO-8601 value rendered on the post
	Timestamp string `json:"timestamp" bson:"timestamp"`
	Verified  bool   `json:"verified" bson:"verified"`
	Text      string `json:"content" bson:"content"`

	Replies   int64 `json:"comments" bson:"comments"`
	Reposts   int64 `json:"retweets" bson:"retweets"`
	Favorites int64 `json:"likes" bson:"likes"`
	Views     int64 `json:"analytics" bson:"analytics"`

	Tags     []string `json:"tags" bson:"tags"`
	Mentions []string `json:"mentions" bson:"mentions"`
	// Symbols holds inline emoji as escape codes, e.g. \U0001f525
	Symbols []string `json:"emojis" bson:"emojis"`

	AvatarURL string `json:"profile_image" bson:"profile_image"`
	Permalink string `json:"tweet_link" bson:"tweet_link"`
	ItemID    string `json:"tweet_id" bson:"tweet_id"`
}

// PostedAt parses Timestamp. ok is false when it is absent or malformed.
func (r Record) PostedAt() (time.Time, bool) {
	if r.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Engagement is the sum of the four counters
func (r Record) Engagement() int64 {
	return r.Replies + r.Reposts + r.Favorites + r.Views
}

// Clone returns a deep copy so callers cannot alias slices held by a session
func (r Record) Clone() Record {
	out := r
	out.Tags = append([]string(nil), r.Tags...)
	out.Mentions = append([]string(nil), r.Mentions...)
	out.Symbols = append([]string(nil), r.Symbols...)
	return out
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostedAt(t *testing.T) {
	r := Record{Timestamp: "2024-03-01T12:30:00.000Z"}
	ts, ok := r.PostedAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), ts)

	_, ok = Record{}.PostedAt()
	assert.False(t, ok)

	_, ok = Record{Timestamp: "yesterday"}.PostedAt()
	assert.False(t, ok)
}

func TestExportKeys(t *testing.T) {
	r := Record{AuthorName: "NASA", Handle: "@NASA", Text: "liftoff", Favorites: 12, ItemID: "42"}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "NASA", m["author"])
	assert.Equal(t, "liftoff", m["content"])
	assert.EqualValues(t, 12, m["likes"])
	assert.Equal(t, "42", m["tweet_id"])
}

func TestCloneDoesNotAlias(t *testing.T) {
	r := Record{Tags: []string{"#go"}, Replies: 1, Reposts: 2, Favorites: 3, Views: 4}
	c := r.Clone()
	c.Tags[0] = "#rust"

	assert.Equal(t, "#go", r.Tags[0])
	assert.EqualValues(t, 10, r.Engagement())
}

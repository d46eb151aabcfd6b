package storage

import (
	"time"

	"xscraper/pkg/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{
			AuthorName: "Gopher",
			Handle:     "@gopher",
			Timestamp:  "2024-05-01T10:00:00.000Z",
			Verified:   true,
			Text:       "hello, world #go",
			Replies:    1,
			Reposts:    2,
			Favorites:  3,
			Views:      4,
			Tags:       []string{"#go"},
			Symbols:    []string{`\U0001f525`},
			AvatarURL:  "https://pbs.twimg.com/profile_images/gopher.jpg",
			Permalink:  "https://x.com/gopher/status/101",
			ItemID:     "101",
		},
		{
			AuthorName: "Rustacean",
			Handle:     "@crab",
			Timestamp:  "2024-05-01T11:00:00.000Z",
			Text:       "second",
			Mentions:   []string{"@gopher"},
			Permalink:  "https://x.com/crab/status/102",
			ItemID:     "102",
		},
	}
}

func sampleBatch() Batch {
	return Batch{
		SessionID: "7f9c2b1e-0000-4000-8000-000000000001",
		Key:       "golang",
		Label:     "query:golang",
		Reason:    "success",
		Records:   sampleRecords(),
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

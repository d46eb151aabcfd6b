// Package storage persists harvested batches.
//
// A FileSink writes one export file per batch (JSON, NDJSON or CSV) using
// a temporary file and rename, so readers never see a partial export.
// SQLiteSink and MongoSink keep batches in a database; Open combines the
// file export with whichever database the configuration selects.
//
// Usage:
//
//	sink, err := storage.Open(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer sink.Close()
//
//	err = sink.Save(ctx, storage.Batch{
//		SessionID: res.SessionID,
//		Key:       res.Key,
//		Records:   res.Records,
//		CreatedAt: time.Now(),
//	})
package storage

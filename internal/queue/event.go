// Package queue reconciles the image store with the database. Image
// mutations update the database row first; when the blob half of the
// operation then fails (or a replaced object is left behind), an
// AssetCleanupEvent is published and a background consumer retries the
// blob delete. The database is the source of truth throughout.
package queue

// CleanupQueueName is the durable queue carrying cleanup events.
const CleanupQueueName = "asset.cleanup"

// AssetCleanupEvent names an object that should no longer exist in the
// image bucket. Reason is informational, for the consumer's log.
type AssetCleanupEvent struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

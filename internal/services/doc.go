// Package services holds shared error classification for the remote service
// clients (crawler, enrichment) consumed by the pipeline.
//
// Sentinel markers let callers branch on error class with errors.Is without
// parsing messages, while Wrap keeps the human-readable detail that ends up
// on task records.
package services

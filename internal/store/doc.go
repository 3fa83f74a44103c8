// Package store persists posts, extracted contents, media assets, pipeline
// task records, and groups in SQLite.
//
// The Store is the single write path for pipeline state: posts carry the
// coarse download status, media rows track per-asset transfer outcomes, and
// tasks hold the fine-grained run state with monotonic progress. Content
// creation is create-if-absent so re-running a post never duplicates rows.
//
// Schema changes are expressed as embedded migrations under migrations/ and
// tracked in a schema_migrations table; add a new numbered file rather than
// editing existing ones.
package store

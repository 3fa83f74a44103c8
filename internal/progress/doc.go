// Package progress fans out per-post pipeline progress to subscribed
// listeners.
//
// The Broadcaster is an explicit observer registry: the orchestrator
// publishes fractional progress and status changes, presentation code
// subscribes and unsubscribes freely, and a misbehaving listener is isolated
// from both the publisher and its peers. Events are fire-and-forget; nothing
// is buffered or replayed.
package progress

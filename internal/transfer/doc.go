// Package transfer downloads remote media assets to local storage.
//
// The Engine streams one asset at a time to a deterministic path under the
// media directory, reports fractional progress while bytes arrive, and
// enforces the configured video size ceiling: a video known or measured to
// exceed it is skipped, which is an expected outcome rather than a failure.
package transfer

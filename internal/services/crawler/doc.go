// Package crawler calls the remote content extraction service that turns a
// saved URL into structured text, author metadata, and media references.
//
// The pipeline treats any non-success — transport error, timeout, blocked or
// unparseable page — identically, so the client collapses every failure mode
// into one classified error carrying a human-readable message.
package crawler

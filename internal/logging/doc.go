// Package logging wraps log/slog with linkvault conventions.
//
// It builds console or JSON handlers from config, tees output into the log
// directory, exposes Attr helpers and well-known field keys so pipeline and
// daemon code emit consistent structured events, and provides no-op loggers
// for tests.
package logging

// Package daemon runs the background service: it enforces single-instance
// execution with a lock file, starts the pipeline scheduler, and serves the
// HTTP API the CLI talks to.
package daemon

// Package api defines the transport-friendly payload types for the daemon's
// HTTP interface and the services that assemble them from the store and the
// pipeline facade.
package api

// Package config loads, normalizes, and validates linkvault configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// LINKVAULT_CRAWLER_URL. The Config type centralizes every knob the daemon
// and CLI need, allowing media/log directories and external service
// credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

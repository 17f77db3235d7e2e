// Package config loads, normalizes, and validates dockhand configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DOCKER_BINARY and DOCKHAND_STATE_FILE. The Config type centralizes every
// knob the CLI needs so the progress file, history database, and log
// directory are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

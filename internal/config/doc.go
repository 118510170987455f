// Package config loads and validates gridauto's TOML configuration.
//
// Configuration covers the bridge socket, the case file to open, server
// properties applied at session start, verification tolerances and
// skip-field lists, the snapshot database, and logging. Paths support
// ~ and environment-variable expansion.
package config

// Package config loads, validates, and normalizes the TOML configuration
// that drives the frame-extraction batch pipeline.
package config

// Package config loads, normalizes, and validates the TOML configuration
// that drives the pipeline: directories, platform credentials, model
// settings, the working audio format, and podcast assembly parameters.
package config

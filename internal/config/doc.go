// Package config loads and validates the sluice supervisor configuration.
//
// Configuration lives in a TOML file; Load resolves the file path, applies
// repository defaults, expands home-relative directories, and validates the
// result. All duration-valued options are expressed in seconds in the file and
// surfaced as time.Duration accessors here so callers never repeat the
// conversion.
package config

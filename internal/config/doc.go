// Package config loads, normalizes, and validates profscreen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and HF_TOKEN. The Config type centralizes every knob the
// CLI and pipeline need so work directories, engine credentials, and the
// segmentation window are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package config loads, normalizes, and validates quill configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and SMTP_PASSWORD. The answer-column map is validated at
// startup so every referenced sheet column is known before the first write.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config

// Package config resolves the exporter configuration from the
// environment, applies defaults, and validates it at startup.
//
// Configuration is env-first: named variables (optionally seeded from a
// .env file) fully describe the process. The only file-based input is
// the optional pricing table, whose path comes from
// EXPORTER_PRICING_FILE and is consumed by the pricing package.
package config

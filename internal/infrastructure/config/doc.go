// Package config loads and validates the pihub configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file,
// then PIHUB_* environment variable overrides. Validation runs last so
// every layer is checked together.
package config

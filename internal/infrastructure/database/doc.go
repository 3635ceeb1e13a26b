// Package database manages the SQLite connection used for sensor
// metadata and relay state persistence.
//
// The database is configuration-like state, not telemetry: it holds
// friendly names, locations, and the last commanded relay states so
// they survive restarts. Schema changes ship as embedded SQL
// migrations applied at startup.
package database

// Package logging provides structured logging for pihub on top of
// log/slog.
//
// Output format, level, and destination come from the logging section
// of config.yaml. Every record carries the service name and version as
// default attributes.
package logging

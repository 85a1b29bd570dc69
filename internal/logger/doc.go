// Package logger builds the structured slog logger used by the monitor,
// with a configurable level and JSON or text output.
package logger

// Package logging assembles the structured slog loggers used across the
// sluice daemon and CLI.
//
// It centralizes level parsing, output plumbing, and the console/JSON handler
// choice, and exposes attr helpers plus standardized field-name constants so
// every component emits log lines with the same shape. A no-op logger is
// provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup.
package logging

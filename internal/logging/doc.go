// Package logging builds the slog loggers used across quill.
//
// Two output formats are supported: a compact console format for
// interactive use and JSON for scheduled runs. The "auto" format picks
// console when stdout is a terminal. Component loggers carry a component
// attribute that the console handler renders as a message prefix.
package logging

// Package logging constructs the slog loggers used across gridauto.
//
// It provides a compact console handler for interactive use, a JSON
// handler for log files and piped output, and small attribute helpers so
// call sites stay uniform. Components receive loggers by injection; a
// no-op logger stands in when none is supplied.
package logging

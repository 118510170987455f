// Package simauto is the marshalling layer between Go callers and a
// PowerWorld-style automation server.
//
// The server exposes named functions that accept positional parameters and
// answer with an error flag, a message, and an untyped payload of padded
// strings. This package turns that convention into typed Go results: a
// Session serializes calls to the endpoint, converts reported failures into
// typed errors, caches per-object-type field catalogs for the life of the
// session, and normalizes raw payloads into labeled, typed tables.
//
// Composite operations (change-and-confirm, batch changes) are built
// strictly from single calls. The server has no transactions, so a
// composite that fails partway leaves earlier calls committed; that is
// surfaced to the caller, never rolled back or hidden.
package simauto

// Package simcase is an in-memory automation endpoint backed by a small
// built-in power-system model. It answers the same function set as the
// real server, with the same conventions: an (error flag, message,
// payload) reply triple, key-field markers in field listings, padded
// string cells, and column-major multi-element results.
//
// The simulator exists so the client layer and the CLI can be exercised
// without a licensed automation server. It implements enough semantics
// to be honest about shapes and error paths; it does not solve real
// power flows.
package simcase

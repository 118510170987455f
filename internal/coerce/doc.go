// Package coerce converts the loosely typed scalars returned by the
// automation server into Go values according to their declared field type.
//
// The server serializes everything as padded strings, so integers arrive as
// " 12 ", reals as "  1.05" or "1.0E-2", and strings with fixed-width
// whitespace attached. Coercion trims and parses by declared type; unknown
// type tags pass values through untouched so metadata gaps never turn into
// failures on their own.
package coerce

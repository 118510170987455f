// Package snapshot persists query results into a local SQLite database
// so case states can be compared across runs. Each saved snapshot gets
// its own data table with columns typed after the source fields, plus a
// row in the snapshots index recording what was captured and when.
package snapshot

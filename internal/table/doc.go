// Package table holds typed, labeled tabular results produced from raw
// automation-server payloads.
//
// A Table has a fixed ordered column set; every row matches the column
// count exactly. Column order follows the order fields were requested, not
// whatever order the server's metadata happens to use. Rendering for the
// CLI lives here so callers share one presentation of results.
package table

// Package validate checks a whole document for dangling or invalid
// dependency references and for dependency cycles.
//
// Everything here is diagnostic: functions never fail, they return every
// finding in one pass as a list of strings, because the findings feed an
// editor's diagnostics list rather than fail-fast control flow. An empty
// list means the document is clean.
package validate

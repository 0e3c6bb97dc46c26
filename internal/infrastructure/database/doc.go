// Package database wraps the SQLite connection used for the command usage
// log.
//
// SQLite fits the single-writer access pattern here: one process appends
// invocation records and the operational API reads them back. WAL mode is
// recommended so reads do not block the writer.
package database

// Package audit records command invocations in SQLite.
//
// Every invocation is logged with its arguments, outcome, and duration so
// operators can review what was executed and by whom. Records are
// append-only; the API exposes filtered reads.
package audit

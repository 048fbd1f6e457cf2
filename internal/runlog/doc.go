// Package runlog persists run history backed by SQLite.
//
// The history exists for inspection only: the sheet itself is the durable
// record of what has been transcribed, so losing or deleting the database
// never changes pipeline behavior. Each run stores its counts plus one row
// per handled item so past runs can be reviewed from the CLI.
package runlog

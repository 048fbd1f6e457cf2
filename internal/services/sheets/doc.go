// Package sheets is a minimal Google Sheets v4 values client plus the row
// snapshot the reconciler works from.
//
// Reads and writes address single cells so one failed write never rolls
// back earlier ones; the full-sheet read happens once per run and failures
// there are fatal because reconciliation needs a complete picture.
package sheets

// Package runner orchestrates one pipeline pass from folder listing to the
// emailed summary.
//
// A pass moves through listing, reconciling, processing, and summarizing.
// Items are processed sequentially and failures are isolated per item; only
// an unusable folder listing or sheet snapshot aborts the run. The runner
// keeps no state between passes. The sheet itself records what has been
// transcribed, which is what makes re-running after a crash safe.
package runner

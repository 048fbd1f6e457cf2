// Package reconcile computes the work set for one run.
//
// Planning is a pure function of the sheet snapshot and the audio listing:
// no cursor files, no memory of previous runs. The sheet itself is the
// durable checkpoint, so running the planner twice over unchanged inputs
// yields the same plan, and a second run after a successful first one
// yields an empty work set.
package reconcile

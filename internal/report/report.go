// Package report accumulates per-item outcomes for a single run and renders
// the summary delivered at the end of it. Rendering is deterministic: two
// runs with the same outcomes produce byte-identical text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"quill/internal/journal"
)

// Run collects the outcome of every audio item handled in one pipeline pass.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	records  []journal.Record
}

// NewRun starts an empty report for the given run id.
func NewRun(id string, started time.Time) *Run {
	return &Run{ID: id, Started: started}
}

// Add records one item outcome.
func (r *Run) Add(record journal.Record) {
	r.records = append(r.records, record)
}

// Records returns the outcomes sorted by entry id, then natural slot order.
func (r *Run) Records() []journal.Record {
	out := make([]journal.Record, len(r.records))
	copy(out, r.records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EntryID != out[j].EntryID {
			return out[i].EntryID < out[j].EntryID
		}
		return journal.SlotLess(out[i].Slot, out[j].Slot)
	})
	return out
}

// Counts tallies outcomes per status.
type Counts struct {
	Transcribed int
	Skipped     int
	Failed      int
}

// Total returns the number of items the run handled.
func (c Counts) Total() int {
	return c.Transcribed + c.Skipped + c.Failed
}

// Counts tallies the accumulated records.
func (r *Run) Counts() Counts {
	var c Counts
	for _, record := range r.records {
		switch record.Status {
		case journal.StatusTranscribed:
			c.Transcribed++
		case journal.StatusSkipped:
			c.Skipped++
		case journal.StatusFailed:
			c.Failed++
		}
	}
	return c
}

// Subject renders the one-line summary used as the notification subject.
func (r *Run) Subject() string {
	c := r.Counts()
	if c.Total() == 0 {
		return "quill run: nothing to do"
	}
	return fmt.Sprintf("quill run: %d transcribed, %d skipped, %d failed", c.Transcribed, c.Skipped, c.Failed)
}

// Summary renders the full report body. Failures always carry their detail so
// the recipient can act without digging through logs.
func (r *Run) Summary() string {
	var b strings.Builder
	c := r.Counts()

	fmt.Fprintf(&b, "Run %s\n", r.ID)
	fmt.Fprintf(&b, "Started:  %s\n", r.Started.UTC().Format(time.RFC3339))
	if !r.Finished.IsZero() {
		fmt.Fprintf(&b, "Finished: %s\n", r.Finished.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	if c.Total() == 0 {
		b.WriteString("No untranscribed audio found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Transcribed: %d\n", c.Transcribed)
	fmt.Fprintf(&b, "Skipped:     %d\n", c.Skipped)
	fmt.Fprintf(&b, "Failed:      %d\n", c.Failed)
	b.WriteString("\n")

	for _, record := range r.Records() {
		fmt.Fprintf(&b, "%s %s/%s", statusMark(record.Status), record.EntryID, record.Slot)
		if record.Detail != "" {
			fmt.Fprintf(&b, " (%s)", record.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func statusMark(status journal.Status) string {
	switch status {
	case journal.StatusTranscribed:
		return "[ok]"
	case journal.StatusSkipped:
		return "[skip]"
	case journal.StatusFailed:
		return "[fail]"
	default:
		return "[?]"
	}
}

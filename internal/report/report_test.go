package report

import (
	"strings"
	"testing"
	"time"

	"quill/internal/journal"
)

func sampleRun() *Run {
	started := time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC)
	r := NewRun("run-1", started)
	r.Finished = started.Add(90 * time.Second)
	r.Add(journal.Record{EntryID: "2026-01-13", Slot: "q1", Status: journal.StatusFailed, Detail: "transcription failed after 3 attempts"})
	r.Add(journal.Record{EntryID: "2026-01-12", Slot: "q2", Status: journal.StatusTranscribed})
	r.Add(journal.Record{EntryID: "2026-01-12", Slot: "q10", Status: journal.StatusTranscribed})
	r.Add(journal.Record{EntryID: "2026-01-12", Slot: "q1", Status: journal.StatusSkipped, Detail: "cell already populated"})
	return r
}

func TestCounts(t *testing.T) {
	c := sampleRun().Counts()
	if c.Transcribed != 2 || c.Skipped != 1 || c.Failed != 1 {
		t.Fatalf("Counts() = %+v, want 2/1/1", c)
	}
	if c.Total() != 4 {
		t.Fatalf("Total() = %d, want 4", c.Total())
	}
}

func TestRecordsOrderedByEntryThenSlot(t *testing.T) {
	records := sampleRun().Records()
	var keys []string
	for _, record := range records {
		keys = append(keys, record.EntryID+"/"+record.Slot)
	}
	want := []string{"2026-01-12/q1", "2026-01-12/q2", "2026-01-12/q10", "2026-01-13/q1"}
	if len(keys) != len(want) {
		t.Fatalf("Records() returned %d records, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Records()[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestSummaryDeterministic(t *testing.T) {
	first := sampleRun().Summary()
	second := sampleRun().Summary()
	if first != second {
		t.Fatal("Summary() is not deterministic for identical outcomes")
	}
	for _, want := range []string{
		"Run run-1",
		"Transcribed: 2",
		"Skipped:     1",
		"Failed:      1",
		"[fail] 2026-01-13/q1 (transcription failed after 3 attempts)",
		"[skip] 2026-01-12/q1 (cell already populated)",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("Summary() missing %q:\n%s", want, first)
		}
	}
}

func TestSummaryEmptyRun(t *testing.T) {
	r := NewRun("run-2", time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC))
	summary := r.Summary()
	if !strings.Contains(summary, "No untranscribed audio found.") {
		t.Fatalf("Summary() = %q, want empty-run message", summary)
	}
	if got := r.Subject(); got != "quill run: nothing to do" {
		t.Fatalf("Subject() = %q", got)
	}
}

func TestSubjectCounts(t *testing.T) {
	got := sampleRun().Subject()
	want := "quill run: 2 transcribed, 1 skipped, 1 failed"
	if got != want {
		t.Fatalf("Subject() = %q, want %q", got, want)
	}
}

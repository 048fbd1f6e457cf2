package sheets_test

import (
	"testing"

	"quill/internal/services/sheets"
)

var answerColumns = map[string]string{"q1": "D", "q2": "F"}

func TestBuildSnapshotIndexesByEntryID(t *testing.T) {
	values := [][]string{
		{"entry", "", "", "Answer 1", "", "Answer 2"},
		{"2026-01-12", "", "", "hello", "", ""},
		{"", "stray row without id"},
		{"2026-01-13", "", "", ""},
	}

	snap, err := sheets.BuildSnapshot(values, "A", 1, answerColumns, nil)
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", snap.Len())
	}

	row, ok := snap.Row("2026-01-12")
	if !ok {
		t.Fatal("entry 2026-01-12 missing")
	}
	if row.Number != 2 {
		t.Fatalf("expected sheet row 2, got %d", row.Number)
	}

	if answer, ok := snap.Answer("2026-01-12", "q1"); !ok || answer != "hello" {
		t.Fatalf("unexpected q1 answer: %q ok=%v", answer, ok)
	}
	// Short rows read as empty answers, not errors.
	if answer, ok := snap.Answer("2026-01-13", "q2"); !ok || answer != "" {
		t.Fatalf("expected empty q2 for short row, got %q ok=%v", answer, ok)
	}
	if _, ok := snap.Answer("2026-01-14", "q1"); ok {
		t.Fatal("unknown entry must report !ok")
	}
}

func TestBuildSnapshotCapturesAudioLinkCells(t *testing.T) {
	formula := `=HYPERLINK("https://drive.google.com/file/d/link-1/view", "2026-01-12_q1.webm")`
	values := [][]string{
		{"2026-01-12", "", formula, "", "", ""},
		{"2026-01-13", "", "", "", "", ""},
	}

	snap, err := sheets.BuildSnapshot(values, "A", 0, answerColumns, map[string]string{"q1": "C"})
	if err != nil {
		t.Fatalf("BuildSnapshot returned error: %v", err)
	}

	row, ok := snap.Row("2026-01-12")
	if !ok {
		t.Fatal("entry 2026-01-12 missing")
	}
	if row.Audio["q1"] != formula {
		t.Fatalf("audio cell = %q, want raw formula", row.Audio["q1"])
	}
	// Short rows simply have no audio cell for the slot.
	row, _ = snap.Row("2026-01-13")
	if row.Audio["q1"] != "" {
		t.Fatalf("expected empty audio cell, got %q", row.Audio["q1"])
	}

	entries := snap.Entries()
	if len(entries) != 2 || entries[0] != "2026-01-12" || entries[1] != "2026-01-13" {
		t.Fatalf("Entries() = %v, want sorted entry ids", entries)
	}
}

func TestBuildSnapshotRejectsDuplicateEntryIDs(t *testing.T) {
	values := [][]string{
		{"2026-01-12"},
		{"2026-01-12"},
	}
	if _, err := sheets.BuildSnapshot(values, "A", 0, answerColumns, nil); err == nil {
		t.Fatal("expected duplicate entry id error")
	}
}

func TestColumnIndex(t *testing.T) {
	cases := []struct {
		column string
		want   int
		ok     bool
	}{
		{"A", 0, true},
		{"D", 3, true},
		{"Z", 25, true},
		{"AA", 26, true},
		{"AB", 27, true},
		{"a", 0, true},
		{"", 0, false},
		{"A1", 0, false},
	}
	for _, tc := range cases {
		got, err := sheets.ColumnIndex(tc.column)
		if tc.ok != (err == nil) {
			t.Errorf("ColumnIndex(%q) error = %v, want ok=%v", tc.column, err, tc.ok)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("ColumnIndex(%q) = %d, want %d", tc.column, got, tc.want)
		}
	}
}

package sheets

import (
	"fmt"
	"sort"
	"strings"
)

// Row is one entry's row in the snapshot: its 1-based sheet row number,
// the current answer text per slot, and the raw audio-link cell per slot
// when audio columns are configured.
type Row struct {
	Number  int
	Answers map[string]string
	Audio   map[string]string
}

// Snapshot is the full sheet state at the start of a run, keyed by entry
// id. It is read once and never mutated, so reconciliation stays a pure
// function of (snapshot, listing).
type Snapshot struct {
	rows map[string]Row
}

// BuildSnapshot indexes raw sheet rows by the entry id column. Rows with an
// empty entry id are ignored. A duplicate entry id is an error: the sheet
// would be ambiguous about where answers belong.
func BuildSnapshot(values [][]string, entryColumn string, headerRows int, answerColumns, audioColumns map[string]string) (Snapshot, error) {
	entryIdx, err := ColumnIndex(entryColumn)
	if err != nil {
		return Snapshot{}, err
	}

	slotIdx := make(map[string]int, len(answerColumns))
	for slot, column := range answerColumns {
		idx, err := ColumnIndex(column)
		if err != nil {
			return Snapshot{}, fmt.Errorf("slot %s: %w", slot, err)
		}
		slotIdx[slot] = idx
	}
	audioIdx := make(map[string]int, len(audioColumns))
	for slot, column := range audioColumns {
		idx, err := ColumnIndex(column)
		if err != nil {
			return Snapshot{}, fmt.Errorf("audio slot %s: %w", slot, err)
		}
		audioIdx[slot] = idx
	}

	rows := make(map[string]Row)
	for i := headerRows; i < len(values); i++ {
		cells := values[i]
		entryID := ""
		if entryIdx < len(cells) {
			entryID = strings.TrimSpace(cells[entryIdx])
		}
		if entryID == "" {
			continue
		}
		if _, dup := rows[entryID]; dup {
			return Snapshot{}, fmt.Errorf("entry id %q appears in more than one row", entryID)
		}

		answers := make(map[string]string, len(slotIdx))
		for slot, idx := range slotIdx {
			if idx < len(cells) {
				answers[slot] = cells[idx]
			} else {
				answers[slot] = ""
			}
		}
		audio := make(map[string]string, len(audioIdx))
		for slot, idx := range audioIdx {
			if idx < len(cells) {
				audio[slot] = strings.TrimSpace(cells[idx])
			}
		}
		rows[entryID] = Row{Number: i + 1, Answers: answers, Audio: audio}
	}
	return Snapshot{rows: rows}, nil
}

// Row returns the row for an entry id.
func (s Snapshot) Row(entryID string) (Row, bool) {
	row, ok := s.rows[entryID]
	return row, ok
}

// Answer returns the current answer text for (entry, slot). The second
// result is false when the entry is not in the sheet at all.
func (s Snapshot) Answer(entryID, slot string) (string, bool) {
	row, ok := s.rows[entryID]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(row.Answers[slot]), true
}

// Len returns the number of entries in the snapshot.
func (s Snapshot) Len() int {
	return len(s.rows)
}

// Entries returns every entry id in the snapshot, sorted.
func (s Snapshot) Entries() []string {
	out := make([]string, 0, len(s.rows))
	for entryID := range s.rows {
		out = append(out, entryID)
	}
	sort.Strings(out)
	return out
}

// ColumnIndex converts a column letter ("A", "AB") into a 0-based index.
func ColumnIndex(column string) (int, error) {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return 0, fmt.Errorf("column letter is empty")
	}
	index := 0
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("column %q is not a column letter", column)
		}
		index = index*26 + int(r-'A') + 1
	}
	return index - 1, nil
}

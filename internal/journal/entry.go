package journal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AudioRef points at one audio object in the storage collaborator. The
// fingerprint is the object's modification time; it is compared, never
// interpreted, so any monotonic content marker would do.
type AudioRef struct {
	FileID      string
	Name        string
	Fingerprint time.Time
}

// WorkItem is one unit of pending transcription work: a single slot of a
// single entry plus the audio that should fill it.
type WorkItem struct {
	EntryID string
	Slot    string
	Audio   AudioRef
}

// Status classifies the terminal outcome of one work item.
type Status string

const (
	StatusTranscribed Status = "transcribed"
	StatusSkipped     Status = "skipped-already-present"
	StatusFailed      Status = "failed"
)

// Record is one per-item outcome line of a run report.
type Record struct {
	EntryID string
	Slot    string
	Status  Status
	Detail  string
}

// Key returns the stable identity used for report ordering.
func (r Record) Key() string {
	return r.EntryID + "/" + r.Slot
}

var (
	audioNamePattern = regexp.MustCompile(`^(.+)_(q[0-9]+)\.[A-Za-z0-9]+$`)
	driveIDPattern   = regexp.MustCompile(`d/([a-zA-Z0-9_-]+)/`)
	linkLabelPattern = regexp.MustCompile(`,\s*"([^"]+)"\s*\)\s*$`)
)

// ParseAudioName maps a source file name onto its entry id and slot. Audio
// files follow the convention "<entry>_<slot>.<ext>", for example
// "2026-01-12_q3.webm". The extension is required but not interpreted.
func ParseAudioName(name string) (entryID, slot string, err error) {
	match := audioNamePattern.FindStringSubmatch(strings.TrimSpace(name))
	if match == nil {
		return "", "", fmt.Errorf("audio name %q does not match <entry>_q<N>.<ext>", name)
	}
	return match[1], match[2], nil
}

// DriveFileID extracts a Drive file id from a sheet HYPERLINK formula such
// as =HYPERLINK("https://drive.google.com/file/d/<id>/view", "Audio 1").
func DriveFileID(formula string) (string, bool) {
	match := driveIDPattern.FindStringSubmatch(formula)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// HyperlinkLabel extracts the display label from a HYPERLINK formula,
// which is usually the uploaded file's original name.
func HyperlinkLabel(formula string) (string, bool) {
	match := linkLabelPattern.FindStringSubmatch(strings.TrimSpace(formula))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// SlotLess orders slots numerically when both follow the qN convention so
// q2 sorts before q10, falling back to lexicographic order otherwise.
func SlotLess(a, b string) bool {
	an, aOK := slotNumber(a)
	bn, bOK := slotNumber(b)
	if aOK && bOK && an != bn {
		return an < bn
	}
	return a < b
}

func slotNumber(slot string) (int, bool) {
	if !strings.HasPrefix(slot, "q") {
		return 0, false
	}
	n, err := strconv.Atoi(slot[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Newer reports whether a should win a duplicate-upload tie-break against
// b for the same (entry, slot): most recent fingerprint first, file id as
// the deterministic tie breaker for identical fingerprints.
func Newer(a, b AudioRef) bool {
	if !a.Fingerprint.Equal(b.Fingerprint) {
		return a.Fingerprint.After(b.Fingerprint)
	}
	return a.FileID > b.FileID
}

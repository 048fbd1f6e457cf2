package reconcile

import (
	"fmt"
	"sort"

	"quill/internal/journal"
	"quill/internal/services/drive"
	"quill/internal/services/sheets"
)

// Plan is the outcome of reconciliation: the work to perform this run, the
// slots skipped because an answer already exists, and files that could not
// be mapped to work at all. Ignored files are logged but kept out of the
// run report so its statuses stay meaningful.
type Plan struct {
	Work    []journal.WorkItem
	Skipped []journal.Record
	Ignored []IgnoredFile
}

// IgnoredFile names a listed file that produced no work item.
type IgnoredFile struct {
	Name   string
	Reason string
}

// Build derives the plan from a sheet snapshot and a folder listing. Only
// slots present in answerColumns are considered. When two files map to the
// same (entry, slot), the most recent fingerprint wins and the other file
// is ignored; this is expected after a re-upload, not an error. Audio-link
// cells captured in the snapshot serve as a fallback source for slots the
// listing did not cover.
func Build(snapshot sheets.Snapshot, files []drive.File, answerColumns map[string]string) Plan {
	type key struct {
		entry string
		slot  string
	}

	selected := make(map[key]journal.AudioRef)
	var ignored []IgnoredFile

	for _, file := range files {
		entryID, slot, err := journal.ParseAudioName(file.Name)
		if err != nil {
			ignored = append(ignored, IgnoredFile{Name: file.Name, Reason: "name does not match <entry>_q<N>.<ext>"})
			continue
		}
		if _, ok := answerColumns[slot]; !ok {
			ignored = append(ignored, IgnoredFile{Name: file.Name, Reason: fmt.Sprintf("no answer column configured for slot %s", slot)})
			continue
		}
		if _, ok := snapshot.Row(entryID); !ok {
			ignored = append(ignored, IgnoredFile{Name: file.Name, Reason: fmt.Sprintf("entry %s not present in sheet", entryID)})
			continue
		}

		ref := journal.AudioRef{FileID: file.ID, Name: file.Name, Fingerprint: file.ModifiedAt}
		k := key{entry: entryID, slot: slot}
		if current, dup := selected[k]; dup {
			loser := ref
			if journal.Newer(ref, current) {
				loser = current
				selected[k] = ref
			}
			ignored = append(ignored, IgnoredFile{Name: loser.Name, Reason: "superseded by a newer upload for the same slot"})
			continue
		}
		selected[k] = ref
	}

	// Fallback for recordings the listing missed: audio-link cells in the
	// sheet. A listed file always wins over a link for the same slot, so
	// the links only fill gaps (a recording shared into the sheet but
	// living outside the watched folder).
	for _, entryID := range snapshot.Entries() {
		row, _ := snapshot.Row(entryID)
		for slot, formula := range row.Audio {
			if formula == "" {
				continue
			}
			if _, ok := answerColumns[slot]; !ok {
				continue
			}
			k := key{entry: entryID, slot: slot}
			if _, ok := selected[k]; ok {
				continue
			}
			fileID, ok := journal.DriveFileID(formula)
			if !ok {
				ignored = append(ignored, IgnoredFile{
					Name:   fmt.Sprintf("%s/%s audio cell", entryID, slot),
					Reason: "cell holds no recognizable file link",
				})
				continue
			}
			name, ok := journal.HyperlinkLabel(formula)
			if !ok {
				name = fmt.Sprintf("%s_%s", entryID, slot)
			}
			selected[k] = journal.AudioRef{FileID: fileID, Name: name}
		}
	}

	plan := Plan{Ignored: ignored}
	for k, ref := range selected {
		answer, _ := snapshot.Answer(k.entry, k.slot)
		if answer != "" {
			plan.Skipped = append(plan.Skipped, journal.Record{
				EntryID: k.entry,
				Slot:    k.slot,
				Status:  journal.StatusSkipped,
			})
			continue
		}
		plan.Work = append(plan.Work, journal.WorkItem{EntryID: k.entry, Slot: k.slot, Audio: ref})
	}

	sort.Slice(plan.Work, func(i, j int) bool {
		return itemLess(plan.Work[i].EntryID, plan.Work[i].Slot, plan.Work[j].EntryID, plan.Work[j].Slot)
	})
	sort.Slice(plan.Skipped, func(i, j int) bool {
		return itemLess(plan.Skipped[i].EntryID, plan.Skipped[i].Slot, plan.Skipped[j].EntryID, plan.Skipped[j].Slot)
	})
	return plan
}

func itemLess(entryA, slotA, entryB, slotB string) bool {
	if entryA != entryB {
		return entryA < entryB
	}
	return journal.SlotLess(slotA, slotB)
}

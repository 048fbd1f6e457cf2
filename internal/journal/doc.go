// Package journal models journal entries and the per-slot transcription
// work derived from them.
//
// An Entry is one journal session identified stably across runs by the
// entry id recorded in the sheet. Each entry carries ordered answer slots
// ("q1", "q2", ...). Audio files in the source folder are mapped onto
// (entry, slot) pairs through the naming convention parsed here, and the
// resulting WorkItems and outcome Records are the currency the rest of the
// pipeline trades in.
package journal

// Package transcribe turns one audio reference into answer text.
//
// The Whisper client, the retry policy, and the worker that joins them to
// the storage download live here. Retries are driven by a small explicit
// state machine (attempt count, last error) so the budget and the
// transient/permanent classification are testable without network calls.
// One item's failure is always contained to that item.
package transcribe

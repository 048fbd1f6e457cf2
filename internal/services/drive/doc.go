// Package drive is a minimal Google Drive v3 client covering the two
// operations the pipeline needs: listing a folder and downloading a file.
//
// Listing failures are tagged as source-unavailable because no partial
// listing can be trusted for reconciliation.
package drive

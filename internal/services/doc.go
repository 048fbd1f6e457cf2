// Package services defines the error taxonomy shared by the external
// collaborator clients and the run pipeline.
//
// Sentinel markers classify failures the way the orchestrator needs them:
// fatal source outages, retryable transient faults, permanent per-item
// faults, and benign write conflicts. Wrap tags an error with one marker
// plus component/operation context so classification survives wrapping.
package services

// Package notifications delivers run summaries and failure alerts by email.
//
// The default implementation sends plain-text mail through the configured
// SMTP relay and degrades to a no-op when email is disabled, in which case
// summaries only appear in the run log. Delivery failures are tagged with
// services.ErrNotification so the runner can log them without changing the
// run outcome.
package notifications

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrSourceUnavailable marks failures that make the whole run meaningless:
	// the audio source or the sheet cannot be enumerated. Fatal.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrTransient marks failures worth retrying within the local budget.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks per-item failures that no retry will fix.
	ErrPermanent = errors.New("permanent failure")
	// ErrWriteConflict marks a destination cell that was populated between
	// reconciliation and write. Benign; the item is recorded as skipped.
	ErrWriteConflict = errors.New("write conflict")
	// ErrConfiguration marks missing or invalid configuration. Fatal.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotification marks a summary or alert that could not be delivered.
	// Never fatal; the run outcome stands and the failure is logged.
	ErrNotification = errors.New("notification failure")
)

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should abort the entire run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrConfiguration)
}

// IsTransient reports whether err warrants another attempt within the retry
// budget. Unclassified network timeouts and rate limits count as transient;
// anything tagged permanent never does.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermanent) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{
		"429",
		"rate limit",
		"502",
		"503",
		"504",
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Package writer persists transcription results into the sheet, one cell
// per call, with a fresh read-before-write conflict check so a manual edit
// between reconciliation and write is never overwritten.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quill/internal/logging"
	"quill/internal/services"
)

// CellStore is the slice of the tabular-store client the writer needs.
type CellStore interface {
	ReadCell(ctx context.Context, column string, row int) (string, error)
	WriteCell(ctx context.Context, column string, row int, value string) error
}

// Writer routes answers to the columns configured in the answer-column map.
type Writer struct {
	store   CellStore
	columns map[string]string
	logger  *slog.Logger
}

// New builds a Writer over an immutable slot-to-column map.
func New(store CellStore, columns map[string]string, logger *slog.Logger) *Writer {
	return &Writer{
		store:   store,
		columns: columns,
		logger:  logging.WithComponent(logger, "writer"),
	}
}

// WriteAnswer writes text into the mapped cell for (entry row, slot). A
// cell that turns out non-empty at write time returns ErrWriteConflict and
// leaves the cell untouched; callers record the item as skipped. Each call
// stands alone so one failure never rolls back earlier writes.
func (w *Writer) WriteAnswer(ctx context.Context, entryID string, rowNumber int, slot, text string) error {
	column, ok := w.columns[slot]
	if !ok {
		return services.Wrap(services.ErrConfiguration, "writer", "write answer", fmt.Sprintf("no column mapped for slot %s", slot), nil)
	}

	current, err := w.store.ReadCell(ctx, column, rowNumber)
	if err != nil {
		return fmt.Errorf("conflict check %s/%s: %w", entryID, slot, err)
	}
	if strings.TrimSpace(current) != "" {
		w.logger.Info("cell already populated, skipping write",
			logging.String("entry", entryID),
			logging.String("slot", slot),
			logging.String("cell", fmt.Sprintf("%s%d", column, rowNumber)),
		)
		return services.Wrap(services.ErrWriteConflict, "writer", "write answer", fmt.Sprintf("%s/%s already has a value", entryID, slot), nil)
	}

	if err := w.store.WriteCell(ctx, column, rowNumber, text); err != nil {
		return fmt.Errorf("write %s/%s: %w", entryID, slot, err)
	}
	return nil
}

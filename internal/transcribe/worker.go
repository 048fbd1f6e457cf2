package transcribe

import (
	"context"
	"log/slog"
	"strings"

	"quill/internal/journal"
	"quill/internal/logging"
)

// Downloader fetches audio bytes from the storage collaborator.
type Downloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Worker processes one work item at a time: download, transcribe, retry on
// transient faults within the policy budget.
type Worker struct {
	downloader  Downloader
	transcriber Transcriber
	policy      Policy
	logger      *slog.Logger
}

// NewWorker builds a transcription worker.
func NewWorker(downloader Downloader, transcriber Transcriber, policy Policy, logger *slog.Logger) *Worker {
	return &Worker{
		downloader:  downloader,
		transcriber: transcriber,
		policy:      policy,
		logger:      logging.WithComponent(logger, "transcribe"),
	}
}

// Process returns the transcription text for one work item. Both the
// download and the API call sit inside the retry loop because either can
// fail transiently; the whole pair is side-effect free until the store
// writer runs.
func (w *Worker) Process(ctx context.Context, item journal.WorkItem) (string, error) {
	var text string
	err := w.policy.Do(ctx, func(attemptCtx context.Context) error {
		data, err := w.downloader.Download(attemptCtx, item.Audio.FileID)
		if err != nil {
			w.logger.Debug("download attempt failed",
				logging.String("entry", item.EntryID),
				logging.String("slot", item.Slot),
				logging.Error(err),
			)
			return err
		}
		result, err := w.transcriber.Transcribe(attemptCtx, item.Audio.Name, data)
		if err != nil {
			w.logger.Debug("transcription attempt failed",
				logging.String("entry", item.EntryID),
				logging.String("slot", item.Slot),
				logging.Error(err),
			)
			return err
		}
		text = strings.TrimSpace(result)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

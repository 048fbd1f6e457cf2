package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"quill/internal/journal"
	"quill/internal/logging"
	"quill/internal/notifications"
	"quill/internal/reconcile"
	"quill/internal/report"
	"quill/internal/runlog"
	"quill/internal/services"
	"quill/internal/services/drive"
	"quill/internal/services/sheets"
)

// State names the phase a run is in. Transitions are linear; a fatal error
// during listing is the only early exit.
type State string

const (
	StateIdle        State = "idle"
	StateListing     State = "listing"
	StateReconciling State = "reconciling"
	StateProcessing  State = "processing"
	StateSummarizing State = "summarizing"
	StateDone        State = "done"
	StateFatal       State = "fatal"
)

// ErrAlreadyRunning indicates another run holds the instance lock. The
// scheduler treats this as a skipped tick rather than a failure.
var ErrAlreadyRunning = errors.New("another run is already in progress")

// Source lists the audio files in the shared folder.
type Source interface {
	List(ctx context.Context, folderID string) ([]drive.File, error)
}

// Sheet reads the full worksheet for snapshotting.
type Sheet interface {
	ReadAll(ctx context.Context) ([][]string, error)
}

// Processor turns one work item into transcribed text.
type Processor interface {
	Process(ctx context.Context, item journal.WorkItem) (string, error)
}

// AnswerWriter persists one transcription into its destination cell.
type AnswerWriter interface {
	WriteAnswer(ctx context.Context, entryID string, rowNumber int, slot, text string) error
}

// History records run outcomes. The runner tolerates a nil history and
// treats recording failures as log-only.
type History interface {
	BeginRun(ctx context.Context, id string, startedAt time.Time) error
	FinishRun(ctx context.Context, run *report.Run, outcome string, runErr error) error
}

// Options carries the sheet geometry and identity knobs for a Runner.
type Options struct {
	FolderID      string
	EntryColumn   string
	HeaderRows    int
	AnswerColumns map[string]string
	AudioColumns  map[string]string

	// LockPath enables the single-instance lock when non-empty.
	LockPath string
}

// Runner drives one full pipeline pass. It holds no run state between
// passes; the sheet is the only checkpoint, so a crashed run is simply
// superseded by the next one.
type Runner struct {
	opts      Options
	source    Source
	sheet     Sheet
	processor Processor
	writer    AnswerWriter
	notifier  notifications.Service
	history   History
	logger    *slog.Logger

	lock  *flock.Flock
	now   func() time.Time
	newID func() string
}

// New assembles a Runner from its collaborators. notifier may not be nil;
// pass the noop service when email is disabled. history may be nil.
func New(opts Options, source Source, sheet Sheet, processor Processor, writer AnswerWriter, notifier notifications.Service, history History, logger *slog.Logger) *Runner {
	r := &Runner{
		opts:      opts,
		source:    source,
		sheet:     sheet,
		processor: processor,
		writer:    writer,
		notifier:  notifier,
		history:   history,
		logger:    logging.WithComponent(logger, "runner"),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	if opts.LockPath != "" {
		r.lock = flock.New(opts.LockPath)
	}
	return r
}

// Run executes one pass: list, reconcile, process each item, summarize.
// The returned report is non-nil whenever a run id was assigned, including
// fatal runs. A non-nil error means the run aborted before processing and
// the process should exit non-zero.
func (r *Runner) Run(ctx context.Context) (*report.Run, error) {
	if r.lock != nil {
		held, err := r.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire instance lock: %w", err)
		}
		if !held {
			return nil, ErrAlreadyRunning
		}
		defer func() { _ = r.lock.Unlock() }()
	}

	run := report.NewRun(r.newID(), r.now())
	logger := r.logger.With(logging.String("run", run.ID))
	logger.Info("run started")

	if r.history != nil {
		if err := r.history.BeginRun(ctx, run.ID, run.Started); err != nil {
			logger.Warn("failed to record run start", logging.Error(err))
		}
	}

	plan, snapshot, err := r.prepare(ctx, logger)
	if err != nil {
		return run, r.abort(ctx, run, logger, err)
	}

	r.setState(logger, StateProcessing)
	cancelled := r.processAll(ctx, logger, run, plan, snapshot)

	r.setState(logger, StateSummarizing)
	outcome := runlog.OutcomeCompleted
	if cancelled {
		outcome = runlog.OutcomeCancelled
	}
	r.summarize(ctx, run, logger, outcome, nil)

	r.setState(logger, StateDone)
	counts := run.Counts()
	logger.Info("run finished",
		logging.String("outcome", outcome),
		logging.Int("transcribed", counts.Transcribed),
		logging.Int("skipped", counts.Skipped),
		logging.Int("failed", counts.Failed),
	)
	return run, nil
}

// prepare covers the listing and reconciling states. Any error here is
// fatal: without a folder listing and a sheet snapshot no item can be
// judged untranscribed.
func (r *Runner) prepare(ctx context.Context, logger *slog.Logger) (reconcile.Plan, sheets.Snapshot, error) {
	r.setState(logger, StateListing)

	files, err := r.source.List(ctx, r.opts.FolderID)
	if err != nil {
		return reconcile.Plan{}, sheets.Snapshot{}, fmt.Errorf("list audio folder: %w", err)
	}
	values, err := r.sheet.ReadAll(ctx)
	if err != nil {
		return reconcile.Plan{}, sheets.Snapshot{}, fmt.Errorf("read sheet: %w", err)
	}
	snapshot, err := sheets.BuildSnapshot(values, r.opts.EntryColumn, r.opts.HeaderRows, r.opts.AnswerColumns, r.opts.AudioColumns)
	if err != nil {
		return reconcile.Plan{}, sheets.Snapshot{}, services.Wrap(services.ErrSourceUnavailable, "runner", "snapshot sheet", "sheet rows could not be indexed", err)
	}

	r.setState(logger, StateReconciling)
	plan := reconcile.Build(snapshot, files, r.opts.AnswerColumns)
	for _, ignored := range plan.Ignored {
		logger.Info("ignoring file",
			logging.String("file", ignored.Name),
			logging.String("reason", ignored.Reason),
		)
	}
	logger.Info("reconciliation complete",
		logging.Int("files", len(files)),
		logging.Int("work", len(plan.Work)),
		logging.Int("already_answered", len(plan.Skipped)),
		logging.Int("ignored", len(plan.Ignored)),
	)
	return plan, snapshot, nil
}

// processAll handles every planned item sequentially. A failure on one item
// never stops the others. Returns true when the pass stopped early because
// the context was cancelled; the item in flight is always finished first.
func (r *Runner) processAll(ctx context.Context, logger *slog.Logger, run *report.Run, plan reconcile.Plan, snapshot sheets.Snapshot) bool {
	for _, skipped := range plan.Skipped {
		run.Add(skipped)
	}

	for _, item := range plan.Work {
		if ctx.Err() != nil {
			logger.Info("cancellation requested, stopping before next item")
			return true
		}
		// Once an item starts it runs to a terminal outcome even if the run
		// is cancelled mid-item: a transcription that succeeded must still
		// reach its cell. The per-call timeout keeps the item bounded.
		run.Add(r.processItem(context.WithoutCancel(ctx), logger, item, snapshot))
	}
	return ctx.Err() != nil
}

func (r *Runner) processItem(ctx context.Context, logger *slog.Logger, item journal.WorkItem, snapshot sheets.Snapshot) journal.Record {
	itemLogger := logger.With(
		logging.String("entry", item.EntryID),
		logging.String("slot", item.Slot),
		logging.String("file", item.Audio.Name),
	)
	itemLogger.Info("processing item")

	text, err := r.processor.Process(ctx, item)
	if err != nil {
		itemLogger.Error("transcription failed", logging.Error(err))
		return journal.Record{EntryID: item.EntryID, Slot: item.Slot, Status: journal.StatusFailed, Detail: failureDetail(err)}
	}

	row, ok := snapshot.Row(item.EntryID)
	if !ok {
		// Reconciliation only plans entries present in the snapshot.
		itemLogger.Error("entry vanished from snapshot")
		return journal.Record{EntryID: item.EntryID, Slot: item.Slot, Status: journal.StatusFailed, Detail: "entry row not found in sheet"}
	}

	err = r.writer.WriteAnswer(ctx, item.EntryID, row.Number, item.Slot, text)
	switch {
	case err == nil:
		itemLogger.Info("item transcribed")
		return journal.Record{EntryID: item.EntryID, Slot: item.Slot, Status: journal.StatusTranscribed}
	case errors.Is(err, services.ErrWriteConflict):
		itemLogger.Info("destination cell already populated")
		return journal.Record{EntryID: item.EntryID, Slot: item.Slot, Status: journal.StatusSkipped, Detail: "cell already populated"}
	default:
		itemLogger.Error("write failed", logging.Error(err))
		return journal.Record{EntryID: item.EntryID, Slot: item.Slot, Status: journal.StatusFailed, Detail: failureDetail(err)}
	}
}

// abort finalizes a run that died before processing. The fatal error is
// reported by email when configured and always recorded in history.
func (r *Runner) abort(ctx context.Context, run *report.Run, logger *slog.Logger, fatal error) error {
	r.setState(logger, StateFatal)
	logger.Error("run aborted", logging.Error(fatal))
	r.summarize(ctx, run, logger, runlog.OutcomeFailed, fatal)
	return fatal
}

// summarize delivers the summary and records history. Both are best effort:
// their failures are logged and never change the run outcome. A detached
// context keeps delivery working after cancellation.
func (r *Runner) summarize(ctx context.Context, run *report.Run, logger *slog.Logger, outcome string, fatal error) {
	run.Finished = r.now()
	ctx = context.WithoutCancel(ctx)

	if fatal != nil {
		if err := r.notifier.Error(ctx, fatal, "listing"); err != nil {
			logger.Warn("failed to deliver failure alert", logging.Error(err))
		}
	} else {
		if err := r.notifier.RunSummary(ctx, run); err != nil {
			logger.Warn("failed to deliver run summary", logging.Error(err))
		}
	}

	if r.history != nil {
		if err := r.history.FinishRun(ctx, run, outcome, fatal); err != nil {
			logger.Warn("failed to record run history", logging.Error(err))
		}
	}
}

func (r *Runner) setState(logger *slog.Logger, state State) {
	logger.Debug("state change", logging.String("state", string(state)))
}

func failureDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

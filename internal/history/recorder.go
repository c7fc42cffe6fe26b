package history

import (
	"context"
	"log/slog"

	"channelgrab/internal/logging"
)

// Recorder writes runs to a Store without ever failing the caller: ledger
// errors are logged and swallowed. A nil Recorder or one without a store is a
// no-op.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder wraps store. store may be nil when history is disabled.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logging.NewComponentLogger(logger, "history")}
}

// Start records a running row and returns its id, or 0 when nothing was recorded.
func (r *Recorder) Start(ctx context.Context, run Run) int64 {
	if r == nil || r.store == nil {
		return 0
	}
	id, err := r.store.Begin(ctx, run)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "history insert failed", "history_write",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions or disable history"),
			logging.String(logging.FieldImpact, "this run will not appear in 'channelgrab history'"),
		)
		return 0
	}
	return id
}

// Finish completes the row started by Start.
func (r *Recorder) Finish(ctx context.Context, id int64, outcome Outcome) {
	if r == nil || r.store == nil || id == 0 {
		return
	}
	if err := r.store.Finish(ctx, id, outcome); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "history update failed", "history_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run status in history may be stale"),
		)
	}
}

// PreviousFetch returns the last successful fetch of mediaID, or nil.
func (r *Recorder) PreviousFetch(ctx context.Context, mediaID string) *Run {
	if r == nil || r.store == nil || mediaID == "" {
		return nil
	}
	run, err := r.store.LastFetch(ctx, mediaID)
	if err != nil {
		r.logger.Debug("history lookup failed", logging.Error(err))
		return nil
	}
	return run
}

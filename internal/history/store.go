package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	// Fixed-width so lexical order matches chronological order.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records a running row and returns its id.
func (s *Store) Begin(ctx context.Context, run Run) (int64, error) {
	if strings.TrimSpace(run.RunID) == "" {
		return 0, errors.New("run id required")
	}
	if run.Stage == "" {
		return 0, errors.New("stage required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	var id int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (run_id, stage, media_id, username, input_path, output_path, size_bytes, status, started_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, string(run.Stage), run.MediaID, run.Username, run.InputPath, run.OutputPath,
			run.SizeBytes, string(StatusRunning), started.UTC().Format(timeLayout),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Finish marks row id succeeded or failed depending on outcome.Err. Empty
// outcome fields leave the stored values unchanged.
func (s *Store) Finish(ctx context.Context, id int64, outcome Outcome) error {
	status := StatusSucceeded
	message := ""
	if outcome.Err != nil {
		status = StatusFailed
		message = outcome.Err.Error()
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE runs SET
				status = ?,
				error_message = ?,
				finished_at = ?,
				media_id = CASE WHEN ? <> '' THEN ? ELSE media_id END,
				username = CASE WHEN ? <> '' THEN ? ELSE username END,
				output_path = CASE WHEN ? <> '' THEN ? ELSE output_path END,
				size_bytes = CASE WHEN ? > 0 THEN ? ELSE size_bytes END
			 WHERE id = ?`,
			string(status), message, s.now().UTC().Format(timeLayout),
			outcome.MediaID, outcome.MediaID,
			outcome.Username, outcome.Username,
			outcome.OutputPath, outcome.OutputPath,
			outcome.SizeBytes, outcome.SizeBytes,
			id,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("update run %d: %w", id, err)
	}
	return nil
}

const selectColumns = `id, run_id, stage, media_id, username, input_path, output_path, size_bytes, status, error_message, started_at, finished_at`

// List returns up to limit runs, newest first. A limit <= 0 returns all rows.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + selectColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LastFetch returns the most recent successful fetch of mediaID, or nil when
// it was never fetched.
func (s *Store) LastFetch(ctx context.Context, mediaID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM runs
		 WHERE media_id = ? AND stage = ? AND status = ?
		 ORDER BY started_at DESC, id DESC LIMIT 1`,
		mediaID, string(StageFetch), string(StatusSucceeded),
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		stage, status     string
		started, finished string
	)
	if err := row.Scan(&run.ID, &run.RunID, &stage, &run.MediaID, &run.Username, &run.InputPath,
		&run.OutputPath, &run.SizeBytes, &status, &run.Error, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Stage = Stage(stage)
	run.Status = Status(status)
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

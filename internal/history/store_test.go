package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"channelgrab/internal/history"
	"channelgrab/internal/logging"
	"channelgrab/internal/testsupport"
)

func TestBeginFinishAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	id, err := store.Begin(ctx, history.Run{RunID: "run-1", Stage: history.StageFetch, Username: "alpha"})
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected row id")
	}
	if err := store.Finish(ctx, id, history.Outcome{MediaID: "m1", OutputPath: "/out/m1_decrypted.mp4", SizeBytes: 2048}); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	runs, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != history.StatusSucceeded || run.MediaID != "m1" || run.Username != "alpha" || run.SizeBytes != 2048 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", run)
	}
}

func TestFinishRecordsFailure(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	id, err := store.Begin(ctx, history.Run{RunID: "run-2", Stage: history.StageCompress, InputPath: "/v/in.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Finish(ctx, id, history.Outcome{Err: errors.New("ffmpeg exploded")}); err != nil {
		t.Fatal(err)
	}
	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if runs[0].Status != history.StatusFailed || runs[0].Error != "ffmpeg exploded" || runs[0].InputPath != "/v/in.mp4" {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, runID := range []string{"a", "b", "c"} {
		if _, err := store.Begin(ctx, history.Run{RunID: runID, Stage: history.StageFetch, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].RunID != "c" || runs[1].RunID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}

func TestLastFetch(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	missing, err := store.LastFetch(ctx, "m9")
	if err != nil || missing != nil {
		t.Fatalf("expected no run, got %+v, %v", missing, err)
	}

	failed, _ := store.Begin(ctx, history.Run{RunID: "r1", Stage: history.StageFetch, MediaID: "m9"})
	_ = store.Finish(ctx, failed, history.Outcome{Err: errors.New("boom")})
	if run, _ := store.LastFetch(ctx, "m9"); run != nil {
		t.Fatalf("failed fetch should not count, got %+v", run)
	}

	ok, _ := store.Begin(ctx, history.Run{RunID: "r2", Stage: history.StageFetch, MediaID: "m9"})
	_ = store.Finish(ctx, ok, history.Outcome{})
	run, err := store.LastFetch(ctx, "m9")
	if err != nil || run == nil || run.RunID != "r2" {
		t.Fatalf("expected r2, got %+v, %v", run, err)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Begin(context.Background(), history.Run{RunID: "keep", Stage: history.StageFetch}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	runs, err := reopened.List(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected persisted row, got %d, %v", len(runs), err)
	}
}

func TestBeginValidates(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	if _, err := store.Begin(context.Background(), history.Run{Stage: history.StageFetch}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestRecorderNilSafe(t *testing.T) {
	var rec *history.Recorder
	if id := rec.Start(context.Background(), history.Run{RunID: "x", Stage: history.StageFetch}); id != 0 {
		t.Fatalf("expected 0, got %d", id)
	}
	rec.Finish(context.Background(), 1, history.Outcome{})

	disabled := history.NewRecorder(nil, logging.NewNop())
	if disabled.PreviousFetch(context.Background(), "m") != nil {
		t.Fatal("expected nil from disabled recorder")
	}
}

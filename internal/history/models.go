package history

import "time"

// Status is the lifecycle state of a run row.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Stage names the command that produced a run.
type Stage string

const (
	StageFetch        Stage = "fetch"
	StageCompress     Stage = "compress"
	StageExtractAudio Stage = "extract-audio"
)

// Run is one ledger row.
type Run struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Stage      Stage     `json:"stage"`
	MediaID    string    `json:"media_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	InputPath  string    `json:"input_path,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Outcome is what Finish records about a completed run.
type Outcome struct {
	MediaID    string
	Username   string
	OutputPath string
	SizeBytes  int64
	Err        error
}

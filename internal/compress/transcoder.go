package compress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"channelgrab/internal/fileutil"
	"channelgrab/internal/logging"
)

// State is a step of the transcode loop.
type State int

const (
	StateEstimating State = iota
	StateEncoding
	StateMeasuring
	StateRetrying
	StateDone
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateEstimating:
		return "estimating"
	case StateEncoding:
		return "encoding"
	case StateMeasuring:
		return "measuring"
	case StateRetrying:
		return "retrying"
	case StateDone:
		return "done"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options are the caller-facing transcode settings.
type Options struct {
	TargetMB        float64
	AudioKbps       int
	Preset          string
	Retries         int
	Safety          float64
	Decay           float64
	MaxrateHeadroom float64
	MinVideoBps     int64
}

// DefaultOptions returns the standard settings: 50 MiB, 96 kbps audio,
// medium preset, two retries.
func DefaultOptions() Options {
	return Options{
		TargetMB:        DefaultTargetMB,
		AudioKbps:       DefaultAudioKbps,
		Preset:          DefaultPreset,
		Retries:         DefaultRetries,
		Safety:          DefaultSafety,
		Decay:           DefaultDecay,
		MaxrateHeadroom: DefaultMaxrateHeadroom,
		MinVideoBps:     DefaultMinVideoBps,
	}
}

func (o Options) validate() error {
	switch {
	case o.TargetMB <= 0:
		return errors.New("target size must be positive")
	case o.AudioKbps <= 0:
		return errors.New("audio bitrate must be positive")
	case o.Retries < 0:
		return errors.New("retries must be >= 0")
	case o.Safety <= 0:
		return errors.New("safety factor must be positive")
	case o.Decay <= 0 || o.Decay >= 1:
		return errors.New("safety decay must be in (0, 1)")
	case o.MaxrateHeadroom < 1:
		return errors.New("maxrate headroom must be >= 1")
	case strings.TrimSpace(o.Preset) == "":
		return errors.New("preset required")
	}
	return nil
}

// Attempt records one pass through the loop.
type Attempt struct {
	Number    int
	Safety    float64
	Bitrates  Bitrates
	SizeBytes int64
}

// Result describes a successful transcode.
type Result struct {
	Output          string
	SizeBytes       int64
	DurationSeconds float64
	Attempts        []Attempt
}

// TargetSizeUnreachableError is returned when every attempt overshot the
// budget. The last output is left on disk.
type TargetSizeUnreachableError struct {
	Output    string
	SizeBytes int64
	TargetMB  float64
	Attempts  int
}

func (e *TargetSizeUnreachableError) Error() string {
	return fmt.Sprintf("failed to reach target size %.2f MB after %d attempts (last output %s is %.2f MB)",
		e.TargetMB, e.Attempts, e.Output, SizeMB(e.SizeBytes))
}

// DurationProbe returns the duration of the media at path in seconds.
type DurationProbe func(ctx context.Context, path string) (float64, error)

// TranscoderOption configures a Transcoder.
type TranscoderOption func(*Transcoder)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) TranscoderOption {
	return func(t *Transcoder) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(State, Attempt)) TranscoderOption {
	return func(t *Transcoder) {
		t.observer = fn
	}
}

// Transcoder drives the estimate/encode/measure loop.
type Transcoder struct {
	encoder  Encoder
	probe    DurationProbe
	stat     func(string) (int64, error)
	logger   *slog.Logger
	observer func(State, Attempt)
}

// NewTranscoder builds a Transcoder around encoder and probe.
func NewTranscoder(encoder Encoder, probe DurationProbe, opts ...TranscoderOption) *Transcoder {
	t := &Transcoder{
		encoder: encoder,
		probe:   probe,
		stat:    fileutil.Size,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "compress")
	return t
}

// DefaultOutput returns the conventional output path for input:
// <dir>/<stem>_compressed.mp4.
func DefaultOutput(input string) string {
	return fileutil.WithSuffix(input, "_compressed", ".mp4")
}

// Run transcodes input into output (DefaultOutput when empty). Encoder
// failures abort immediately; only oversize results are retried.
func (t *Transcoder) Run(ctx context.Context, input, output string, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	if err := fileutil.RequireFile(input); err != nil {
		return Result{}, fmt.Errorf("input: %w", err)
	}
	if strings.TrimSpace(output) == "" {
		output = DefaultOutput(input)
	}
	if sameFile(input, output) {
		return Result{}, fmt.Errorf("output %s would overwrite the input", output)
	}

	duration, err := t.probe(ctx, input)
	if err != nil {
		return Result{}, fmt.Errorf("probe duration: %w", err)
	}

	logger := logging.WithContext(ctx, t.logger)
	plan := Plan{
		TargetMB:        opts.TargetMB,
		DurationSeconds: duration,
		AudioKbps:       opts.AudioKbps,
		SafetyFactor:    opts.Safety,
		MinVideoBps:     opts.MinVideoBps,
	}
	maxAttempts := opts.Retries + 1
	attempts := make([]Attempt, 0, maxAttempts)
	current := Attempt{Number: 1, Safety: plan.SafetyFactor}
	state := StateEstimating

	for {
		t.notify(state, current)
		switch state {
		case StateEstimating:
			bitrates, err := plan.Bitrates(opts.MaxrateHeadroom)
			if err != nil {
				return Result{}, err
			}
			current.Bitrates = bitrates
			state = StateEncoding

		case StateEncoding:
			logger.Info("encoding",
				logging.Int("attempt", current.Number),
				logging.Int("max_attempts", maxAttempts),
				logging.Int64("video_kbps", current.Bitrates.VideoK),
				logging.Int64("maxrate_kbps", current.Bitrates.MaxrateK),
				logging.Float64("safety", current.Safety),
			)
			job := Job{Input: input, Output: output, Bitrates: current.Bitrates, Preset: opts.Preset}
			if err := t.encoder.Encode(ctx, job); err != nil {
				return Result{}, err
			}
			state = StateMeasuring

		case StateMeasuring:
			size, err := t.stat(output)
			if err != nil {
				return Result{}, fmt.Errorf("measure output: %w", err)
			}
			current.SizeBytes = size
			attempts = append(attempts, current)
			switch {
			case plan.Fits(size):
				state = StateDone
			case current.Number >= maxAttempts:
				state = StateExhausted
			default:
				state = StateRetrying
			}

		case StateRetrying:
			logging.WarnWithContext(logger, "output over target; lowering bitrate", "compress_retry",
				logging.Int("attempt", current.Number),
				logging.Float64("size_mb", SizeMB(current.SizeBytes)),
				logging.Float64("target_mb", plan.TargetMB),
				logging.String(logging.FieldImpact, "another encode pass will run"),
			)
			plan = plan.Decayed(opts.Decay)
			current = Attempt{Number: current.Number + 1, Safety: plan.SafetyFactor}
			state = StateEstimating

		case StateDone:
			return Result{
				Output:          output,
				SizeBytes:       current.SizeBytes,
				DurationSeconds: duration,
				Attempts:        attempts,
			}, nil

		case StateExhausted:
			return Result{}, &TargetSizeUnreachableError{
				Output:    output,
				SizeBytes: current.SizeBytes,
				TargetMB:  plan.TargetMB,
				Attempts:  len(attempts),
			}
		}
	}
}

func (t *Transcoder) notify(state State, attempt Attempt) {
	if t.observer != nil {
		t.observer(state, attempt)
	}
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

package services

import "context"

// contextKey indexes the correlation values a run carries through its stages.
type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
	mediaIDKey
)

func with(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}

// WithRunID tags ctx with the identifier shared by every log line and history
// row of one channelgrab invocation.
func WithRunID(ctx context.Context, id string) context.Context { return with(ctx, runIDKey, id) }

// RunIDFromContext returns the run identifier, if any.
func RunIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, runIDKey) }

// WithStage tags ctx with the pipeline stage (search, download, decrypt, ...).
func WithStage(ctx context.Context, stage string) context.Context { return with(ctx, stageKey, stage) }

// StageFromContext returns the stage name, if any.
func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageKey) }

// WithMediaID tags ctx with the catalog object being processed.
func WithMediaID(ctx context.Context, id string) context.Context { return with(ctx, mediaIDKey, id) }

// MediaIDFromContext returns the media identifier, if any.
func MediaIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, mediaIDKey) }

package pipeline

import (
	"context"

	"channelgrab/internal/catalog"
	"channelgrab/internal/compress"
	"channelgrab/internal/keystream"
)

// Catalog is the remote account and timeline lookup.
type Catalog interface {
	SearchUsers(ctx context.Context, keyword string, page int) ([]catalog.UserRecord, error)
	FetchHomeTimeline(ctx context.Context, username string) ([]catalog.MediaRecord, error)
}

// Downloader streams a URL to a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// KeystreamSource resolves a decode key into XOR keystream bytes.
type KeystreamSource interface {
	Fetch(ctx context.Context, decodeKey string) (keystream.Keystream, error)
}

// Compressor re-encodes a file under a size budget.
type Compressor interface {
	Run(ctx context.Context, input, output string, opts compress.Options) (compress.Result, error)
}

// Hooks receive progress notifications intended for the operator. Any nil
// field is skipped.
type Hooks struct {
	OnSearch   func(users []catalog.UserRecord)
	OnSelected func(username string, rec catalog.MediaRecord)
	OnStep     func(step, detail string)
}

func (h Hooks) search(users []catalog.UserRecord) {
	if h.OnSearch != nil {
		h.OnSearch(users)
	}
}

func (h Hooks) selected(username string, rec catalog.MediaRecord) {
	if h.OnSelected != nil {
		h.OnSelected(username, rec)
	}
}

func (h Hooks) step(step, detail string) {
	if h.OnStep != nil {
		h.OnStep(step, detail)
	}
}

var (
	_ Catalog         = (*catalog.Client)(nil)
	_ KeystreamSource = (*keystream.Client)(nil)
	_ Compressor      = (*compress.Transcoder)(nil)
)

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"channelgrab/internal/catalog"
	"channelgrab/internal/compress"
	"channelgrab/internal/deobfuscate"
	"channelgrab/internal/download"
	"channelgrab/internal/fileutil"
	"channelgrab/internal/history"
	"channelgrab/internal/logging"
	"channelgrab/internal/metadata"
	"channelgrab/internal/selection"
	"channelgrab/internal/services"
	"channelgrab/internal/textutil"
)

// Request selects the account and the steps a fetch performs.
type Request struct {
	// Keyword is searched when Username is empty.
	Keyword   string
	Username  string
	Page      int
	UserIndex int
	OutputDir string

	// SkipDownload reuses an existing <id>_encrypted.mp4.
	SkipDownload bool
	// SkipDecrypt stops after the metadata file is written.
	SkipDecrypt bool
	// Compress chains a size-targeted transcode after decryption.
	Compress        bool
	CompressOptions compress.Options
}

// Paths are the per-media files in the output directory.
type Paths struct {
	Encrypted string
	Decrypted string
	Metadata  string
}

// PathsFor names the output files for mediaID inside dir.
func PathsFor(dir, mediaID string) Paths {
	id := textutil.SanitizeFileName(mediaID)
	return Paths{
		Encrypted: filepath.Join(dir, id+"_encrypted.mp4"),
		Decrypted: filepath.Join(dir, id+"_decrypted.mp4"),
		Metadata:  filepath.Join(dir, id+"_meta.json"),
	}
}

// Result summarizes a completed fetch.
type Result struct {
	RunID           string
	Username        string
	Media           catalog.MediaRecord
	Paths           Paths
	DownloadedBytes int64
	KeystreamBytes  int
	DecryptedBytes  int64
	Decrypted       bool
	Compressed      *compress.Result
	// Previous is the last successful fetch of the same media, if any.
	Previous *history.Run
}

// Fetcher runs the acquisition workflow.
type Fetcher struct {
	catalog    Catalog
	downloader Downloader
	keystream  KeystreamSource
	compressor Compressor
	recorder   *history.Recorder
	hooks      Hooks
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithCompressor enables Request.Compress.
func WithCompressor(c Compressor) Option {
	return func(f *Fetcher) {
		f.compressor = c
	}
}

// WithRecorder writes each run to the history ledger.
func WithRecorder(r *history.Recorder) Option {
	return func(f *Fetcher) {
		f.recorder = r
	}
}

// WithHooks registers operator notifications.
func WithHooks(h Hooks) Option {
	return func(f *Fetcher) {
		f.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher wires the collaborators.
func NewFetcher(cat Catalog, dl Downloader, ks KeystreamSource, opts ...Option) *Fetcher {
	f := &Fetcher{
		catalog:    cat,
		downloader: dl,
		keystream:  ks,
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "pipeline")
	return f
}

func (r Request) validate(canCompress bool) error {
	switch {
	case strings.TrimSpace(r.Username) == "" && strings.TrimSpace(r.Keyword) == "":
		return services.Wrap(services.ErrValidation, "fetch", "validate request", "provide --username or --keyword", nil)
	case strings.TrimSpace(r.OutputDir) == "":
		return services.Wrap(services.ErrValidation, "fetch", "validate request", "output directory required", nil)
	case r.Page < 1:
		return services.Wrap(services.ErrValidation, "fetch", "validate request", "page must be >= 1", nil)
	case r.Compress && r.SkipDecrypt:
		return services.Wrap(services.ErrValidation, "fetch", "validate request", "--compress needs the decrypted file; drop --skip-decrypt", nil)
	case r.Compress && !canCompress:
		return services.Wrap(services.ErrConfiguration, "fetch", "validate request", "compression requested but no transcoder configured", nil)
	}
	return nil
}

// Run executes one fetch. Intermediate files are kept on failure and are
// overwritten by the next run.
func (f *Fetcher) Run(ctx context.Context, req Request) (result Result, err error) {
	if err := req.validate(f.compressor != nil); err != nil {
		return Result{}, err
	}

	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	result.RunID = runID

	release, err := lockOutputDir(req.OutputDir)
	if err != nil {
		return result, err
	}
	defer func() {
		if unlockErr := release(); unlockErr != nil {
			f.logger.Warn("failed to release output lock", logging.Error(unlockErr))
		}
	}()

	rowID := f.recorder.Start(ctx, history.Run{
		RunID:     runID,
		Stage:     history.StageFetch,
		Username:  strings.TrimSpace(req.Username),
		Status:    history.StatusRunning,
		StartedAt: f.now(),
	})
	defer func() {
		outcome := history.Outcome{
			MediaID:  result.Media.ID,
			Username: result.Username,
			Err:      err,
		}
		switch {
		case result.Compressed != nil:
			outcome.OutputPath = result.Compressed.Output
			outcome.SizeBytes = result.Compressed.SizeBytes
		case result.Decrypted:
			outcome.OutputPath = result.Paths.Decrypted
			outcome.SizeBytes = result.DecryptedBytes
		case result.Paths.Encrypted != "":
			outcome.OutputPath = result.Paths.Encrypted
			outcome.SizeBytes = result.DownloadedBytes
		}
		f.recorder.Finish(ctx, rowID, outcome)
	}()

	username, err := f.resolveUsername(ctx, req)
	if err != nil {
		return result, err
	}
	result.Username = username

	rec, err := f.selectLatest(ctx, username)
	if err != nil {
		return result, err
	}
	result.Media = rec
	result.Paths = PathsFor(req.OutputDir, rec.ID)
	ctx = services.WithMediaID(ctx, rec.ID)
	logger := logging.WithContext(ctx, f.logger)
	f.hooks.selected(username, rec)

	if prev := f.recorder.PreviousFetch(ctx, rec.ID); prev != nil {
		result.Previous = prev
		logger.Info("media fetched before",
			logging.String("previous_run_id", prev.RunID),
			logging.String("previous_output", prev.OutputPath),
			logging.String("previous_started_at", prev.StartedAt.Format(time.RFC3339)),
		)
	}

	written, err := f.acquire(ctx, req, rec, result.Paths.Encrypted)
	if err != nil {
		return result, err
	}
	result.DownloadedBytes = written

	if err := metadata.Write(result.Paths.Metadata, metadata.FromRecord(username, rec)); err != nil {
		return result, services.Wrap(services.ErrTransient, "metadata", "write", result.Paths.Metadata, err)
	}
	f.hooks.step("metadata", result.Paths.Metadata)

	if req.SkipDecrypt {
		logger.Info("decrypt skipped", logging.String("encrypted", result.Paths.Encrypted))
		f.hooks.step("decrypt", "skipped")
		return result, nil
	}

	decryptCtx := services.WithStage(ctx, "decrypt")
	ks, err := f.keystream.Fetch(decryptCtx, rec.DecodeKey)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "decrypt", "fetch keystream", "", err)
	}
	result.KeystreamBytes = ks.Len()
	f.hooks.step("keystream", fmt.Sprintf("%d bytes", ks.Len()))

	plain, err := deobfuscate.File(result.Paths.Encrypted, ks, result.Paths.Decrypted)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "decrypt", "deobfuscate", result.Paths.Encrypted, err)
	}
	result.DecryptedBytes = plain
	result.Decrypted = true
	logging.WithContext(decryptCtx, f.logger).Info("decrypted",
		logging.String("output", result.Paths.Decrypted),
		logging.Int64("bytes", plain),
		logging.Int("keystream_bytes", ks.Len()),
	)
	f.hooks.step("decrypt", result.Paths.Decrypted)

	if !req.Compress {
		return result, nil
	}

	compressed, err := f.compressor.Run(services.WithStage(ctx, "compress"), result.Paths.Decrypted, "", req.CompressOptions)
	if err != nil {
		return result, wrapCompressError(err)
	}
	result.Compressed = &compressed
	f.hooks.step("compress", compressed.Output)
	return result, nil
}

func (f *Fetcher) resolveUsername(ctx context.Context, req Request) (string, error) {
	if username := strings.TrimSpace(req.Username); username != "" {
		return username, nil
	}

	ctx = services.WithStage(ctx, "search")
	users, err := f.catalog.SearchUsers(ctx, strings.TrimSpace(req.Keyword), req.Page)
	if err != nil {
		return "", services.Wrap(RemoteMarker(err), "search", "search users", req.Keyword, err)
	}
	logging.WithContext(ctx, f.logger).Info("search complete",
		logging.String("keyword", req.Keyword),
		logging.Int("results", len(users)),
	)
	f.hooks.search(users)

	user, err := selection.ByIndex(users, req.UserIndex)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "search", "select user", "", err)
	}
	username := strings.TrimSpace(user.Username)
	if username == "" {
		return "", services.Wrap(services.ErrValidation, "search", "select user",
			fmt.Sprintf("user %d has no username", req.UserIndex), nil)
	}
	return username, nil
}

func (f *Fetcher) selectLatest(ctx context.Context, username string) (catalog.MediaRecord, error) {
	ctx = services.WithStage(ctx, "timeline")
	records, err := f.catalog.FetchHomeTimeline(ctx, username)
	if err != nil {
		return catalog.MediaRecord{}, services.Wrap(RemoteMarker(err), "timeline", "fetch home page", username, err)
	}
	logging.WithContext(ctx, f.logger).Info("timeline fetched",
		logging.String("username", username),
		logging.Int("videos", len(records)),
	)

	rec, err := selection.Latest(records)
	if err != nil {
		return catalog.MediaRecord{}, services.Wrap(services.ErrNotFound, "timeline", "select latest", username, err)
	}
	if err := rec.Validate(); err != nil {
		return catalog.MediaRecord{}, services.Wrap(services.ErrValidation, "timeline", "validate media", rec.ID, err)
	}
	return rec, nil
}

// acquire downloads the encrypted file or, with SkipDownload, verifies that a
// previous run left one behind.
func (f *Fetcher) acquire(ctx context.Context, req Request, rec catalog.MediaRecord, dest string) (int64, error) {
	ctx = services.WithStage(ctx, "download")
	logger := logging.WithContext(ctx, f.logger)

	if req.SkipDownload {
		if err := fileutil.RequireFile(dest); err != nil {
			return 0, services.Wrap(services.ErrNotFound, "download", "reuse encrypted file", "--skip-download needs an existing file", err)
		}
		size, err := fileutil.Size(dest)
		if err != nil {
			return 0, services.Wrap(services.ErrTransient, "download", "stat encrypted file", dest, err)
		}
		logger.Info("download skipped; reusing file", logging.String("path", dest), logging.Int64("bytes", size))
		f.hooks.step("download", "reusing "+dest)
		return size, nil
	}

	written, err := f.downloader.Download(ctx, rec.FullURL(), dest)
	if err != nil {
		marker := services.ErrTransient
		var transfer *download.TransferError
		if errors.As(err, &transfer) && transfer.StatusCode >= 400 && transfer.StatusCode < 500 {
			marker = services.ErrExternalTool
		}
		return 0, services.Wrap(marker, "download", "stream media", dest, err)
	}
	logger.Info("downloaded", logging.String("path", dest), logging.Int64("bytes", written))
	f.hooks.step("download", dest)
	return written, nil
}

// RemoteMarker picks the services marker for a catalog failure: transient for
// throttling, 5xx and transport errors, external-tool for other rejections.
func RemoteMarker(err error) error {
	var remote *catalog.RemoteError
	if errors.As(err, &remote) {
		if remote.Temporary() {
			return services.ErrTransient
		}
		return services.ErrExternalTool
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	return services.ErrTransient
}

func wrapCompressError(err error) error {
	if errors.Is(err, services.ErrExternalTool) {
		return err
	}
	return services.Wrap(services.ErrValidation, "compress", "transcode", "", err)
}

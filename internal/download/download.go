// Package download streams remote media to disk in fixed-size chunks.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"channelgrab/internal/logging"
)

// ChunkSize is the read buffer size used while streaming a response body.
const ChunkSize = 1 << 20

const defaultHeaderTimeout = 60 * time.Second

// TransferError reports a failed download. StatusCode is set when the server
// answered with a non-2xx status; Written counts bytes already on disk when a
// stream broke mid-way.
type TransferError struct {
	URL        string
	StatusCode int
	Written    int64
	Err        error
}

func (e *TransferError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("download %s: http status %d", e.URL, e.StatusCode)
	case e.Written > 0:
		return fmt.Sprintf("download %s: interrupted after %d bytes: %v", e.URL, e.Written, e.Err)
	default:
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}
}

func (e *TransferError) Unwrap() error { return e.Err }

// Downloader fetches URLs to local files.
type Downloader struct {
	httpClient *http.Client
	logger     *slog.Logger
	progress   io.Writer
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithHeaderTimeout bounds how long to wait for response headers. The body
// itself is bounded only by the request context.
func WithHeaderTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		if timeout > 0 {
			d.httpClient = newHTTPClient(timeout)
		}
	}
}

// WithProgress renders a progress bar to w while downloading.
func WithProgress(w io.Writer) Option {
	return func(d *Downloader) {
		d.progress = w
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New builds a Downloader.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: newHTTPClient(defaultHeaderTimeout),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "download")
	return d
}

func newHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// Download streams rawURL into dest, overwriting it, and returns the number of
// bytes written. A non-2xx status fails before dest is touched. A stream that
// breaks mid-way leaves the partial file in place.
func (d *Downloader) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	display := redactURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, &TransferError{URL: display, Err: fmt.Errorf("build request: %w", err)}
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, &TransferError{URL: display, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, &TransferError{URL: display, StatusCode: resp.StatusCode}
	}

	file, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	var sink io.Writer = file
	var bar *progressbar.ProgressBar
	if d.progress != nil {
		bar = newBar(d.progress, resp.ContentLength)
		sink = io.MultiWriter(file, bar)
	}

	start := time.Now()
	written, copyErr := copyChunks(sink, resp.Body)
	closeErr := file.Close()
	if bar != nil {
		_ = bar.Finish()
	}
	if copyErr != nil {
		return written, &TransferError{URL: display, Written: written, Err: copyErr}
	}
	if closeErr != nil {
		return written, fmt.Errorf("close %s: %w", dest, closeErr)
	}

	d.logger.Debug("download complete",
		logging.String("url", display),
		logging.String("path", dest),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(start)),
	)
	return written, nil
}

// copyChunks moves src to dst through a single ChunkSize buffer.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err != nil {
				return written, err
			}
			if w != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}

func newBar(w io.Writer, total int64) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// redactURL drops the query string, which carries the access token.
func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.User = nil
	return parsed.String()
}

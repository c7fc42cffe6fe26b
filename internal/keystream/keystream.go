// Package keystream requests XOR keystreams from the local decryption service.
//
// The service is treated as an oracle: it receives a media object's decode key
// and answers with the hex-encoded keystream that masks the head of the file.
// Keystreams are fetched once per run and never cached.
package keystream

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"channelgrab/internal/logging"
)

const (
	// DefaultBaseURL is where the decryption service listens by default.
	DefaultBaseURL = "http://localhost:3005"

	keystreamPath  = "/api/keystream"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 500
)

// ErrUnavailable is returned when the service cannot produce a usable keystream.
var ErrUnavailable = errors.New("keystream unavailable")

// Keystream is the byte sequence XORed over the head of an obfuscated file.
type Keystream []byte

// Len returns the number of bytes the keystream covers.
func (k Keystream) Len() int { return len(k) }

// Client talks to the decryption service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a keystream client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "keystream")
	return client
}

// BaseURL returns the service root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	DecodeKey string `json:"decode_key"`
}

type response struct {
	Keystream string `json:"keystream"`
}

// Fetch exchanges decodeKey for its keystream. Every failure to obtain a
// non-empty, well-formed keystream matches ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, decodeKey string) (Keystream, error) {
	decodeKey = strings.TrimSpace(decodeKey)
	if decodeKey == "" {
		return nil, errors.New("decode key must not be empty")
	}
	payload, err := json.Marshal(request{DecodeKey: decodeKey})
	if err != nil {
		return nil, fmt.Errorf("encode keystream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+keystreamPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s (latency=%v): %w", ErrUnavailable, c.baseURL, latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: service returned %d: %s", ErrUnavailable, resp.StatusCode, snippet(body))
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	hexValue := strings.TrimSpace(decoded.Keystream)
	if hexValue == "" {
		return nil, fmt.Errorf("%w: no keystream in response: %s", ErrUnavailable, snippet(body))
	}
	ks, err := hex.DecodeString(hexValue)
	if err != nil {
		return nil, fmt.Errorf("%w: keystream is not valid hex: %w", ErrUnavailable, err)
	}

	c.logger.Debug("keystream fetched",
		logging.Int("bytes", len(ks)),
		logging.Duration("latency", latency),
	)
	return Keystream(ks), nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(body), ""))
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"channelgrab/internal/logging"
)

const (
	// DefaultBaseURL is the public TikHub endpoint.
	DefaultBaseURL = "https://api.tikhub.io"

	searchPath   = "/api/v1/wechat_channels/fetch_user_search"
	homePagePath = "/api/v1/wechat_channels/fetch_home_page"

	defaultTimeout = 30 * time.Second
)

// Client provides access to the TikHub WeChat Channels endpoints.
type Client struct {
	apiKey     string
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

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("catalog api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "catalog")
	return client, nil
}

// SearchUsers looks up accounts matching keyword on the given results page.
func (c *Client) SearchUsers(ctx context.Context, keyword string, page int) ([]UserRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.New("search keyword must not be empty")
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("page", strconv.Itoa(page))

	data, err := c.get(ctx, searchPath, params)
	if err != nil {
		return nil, err
	}
	return parseSearch(data)
}

// FetchHomeTimeline lists the media objects on username's home page. An
// account with no media yields an empty slice and no error.
func (c *Client) FetchHomeTimeline(ctx context.Context, username string) ([]MediaRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username must not be empty")
	}
	params := url.Values{}
	params.Set("username", username)

	data, err := c.get(ctx, homePagePath, params)
	if err != nil {
		return nil, err
	}
	return parseTimeline(data)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	c.logger.Debug("catalog request",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
		logging.Int("bytes", len(body)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if string(env.Code) != "200" {
		code := string(env.Code)
		if code == "" {
			code = "missing"
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, AppCode: code, Body: truncateBody(body)}
	}
	return env.Data, nil
}

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL         = "https://api.valyu.network/v1"
	DefaultTimeout         = 60 * time.Second
	DefaultMaxResponseSize = 4 << 20
	DefaultUserAgent       = "valyu-mcp"
)

// ErrMissingAPIKey is returned when a request is attempted without a credential.
var ErrMissingAPIKey = errors.New("client: api key is required")

type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	MaxResponseSize int64
	ProxyURL        string
	InsecureTLS     bool
	UserAgent       string
}

// Client talks to the Valyu API. It is safe for concurrent use and is never
// mutated after NewClient returns.
type Client struct {
	httpClient      *http.Client
	apiKey          string
	baseURL         string
	userAgent       string
	maxResponseSize int64
}

// APIError reports a request the API answered but did not fulfil.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("valyu api: %s", e.Message)
	}
	return fmt.Sprintf("valyu api: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func NewClient(config Config) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}

	if config.ProxyURL != "" {
		proxyURL, err := url.Parse(config.ProxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	if config.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	maxResponseSize := config.MaxResponseSize
	if maxResponseSize <= 0 {
		maxResponseSize = DefaultMaxResponseSize
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		apiKey:          config.APIKey,
		baseURL:         baseURL,
		userAgent:       userAgent,
		maxResponseSize: maxResponseSize,
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func readResponseBody(resp *http.Response, maxResponseSize int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > maxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseSize)
	}
	return body, nil
}

// postJSON sends payload to path and decodes a 2xx body into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	requestURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("creating request POST %s: %w", requestURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing POST %s: %w", requestURL, err)
	}

	body, err := readResponseBody(resp, c.maxResponseSize)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", requestURL, err)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body, falling
// back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.Error, payload.Message, payload.Detail} {
			if msg != "" {
				return msg
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response body"
	}
	return text
}

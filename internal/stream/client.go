package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the Cloudflare API v4 root.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

type credentials struct {
	token     string
	accountID string
}

func (c credentials) String() string {
	return fmt.Sprintf("account=%s token=<redacted>", c.accountID)
}

// ClientBuilder collects the settings for a Client. Token and AccountID are
// mandatory; Build refuses to produce a client without them.
type ClientBuilder struct {
	token      string
	accountID  string
	baseURL    string
	httpClient *http.Client
	maxPolls   int
	onPoll     func(polls int, v Video)
}

func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{}
}

func (b *ClientBuilder) Token(token string) *ClientBuilder {
	b.token = token
	return b
}

func (b *ClientBuilder) AccountID(accountID string) *ClientBuilder {
	b.accountID = accountID
	return b
}

// BaseURL overrides DefaultBaseURL.
func (b *ClientBuilder) BaseURL(baseURL string) *ClientBuilder {
	b.baseURL = baseURL
	return b
}

// HTTPClient replaces the default client, which has no timeout.
func (b *ClientBuilder) HTTPClient(hc *http.Client) *ClientBuilder {
	b.httpClient = hc
	return b
}

// MaxPolls bounds how many readiness checks UploadVideo makes. Zero, the
// default, keeps polling until the video is ready.
func (b *ClientBuilder) MaxPolls(n int) *ClientBuilder {
	b.maxPolls = n
	return b
}

// OnPoll registers a callback invoked after every readiness check.
func (b *ClientBuilder) OnPoll(fn func(polls int, v Video)) *ClientBuilder {
	b.onPoll = fn
	return b
}

func (b *ClientBuilder) Build() (*Client, error) {
	var missing []string
	if strings.TrimSpace(b.token) == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(b.accountID) == "" {
		missing = append(missing, "account id")
	}
	if len(missing) > 0 {
		return nil, &BuildError{Missing: missing}
	}

	baseURL := strings.TrimRight(b.baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := b.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	maxPolls := b.maxPolls
	if maxPolls < 0 {
		maxPolls = 0
	}

	return &Client{
		creds:    credentials{token: b.token, accountID: b.accountID},
		baseURL:  baseURL,
		http:     hc,
		maxPolls: maxPolls,
		onPoll:   b.onPoll,
		sleep:    sleepContext,
	}, nil
}

// Client talks to the Stream API of one account. It is safe for concurrent
// use; nothing in it changes after Build.
type Client struct {
	creds    credentials
	baseURL  string
	http     *http.Client
	maxPolls int
	onPoll   func(polls int, v Video)
	sleep    func(ctx context.Context, d time.Duration) error
}

func (c *Client) String() string {
	return "stream.Client(" + c.creds.String() + ")"
}

func (c *Client) streamURL(elem ...string) string {
	parts := []string{c.baseURL, "accounts", url.PathEscape(c.creds.accountID), "stream"}
	for _, e := range elem {
		parts = append(parts, url.PathEscape(e))
	}
	return strings.Join(parts, "/")
}

// Post sends body as JSON to url and unwraps the response envelope.
func Post[T any](ctx context.Context, c *Client, url string, body any) (T, error) {
	var zero T
	payload, err := json.Marshal(body)
	if err != nil {
		return zero, &TransportError{Method: http.MethodPost, URL: url, Err: fmt.Errorf("encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return zero, &TransportError{Method: http.MethodPost, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return do[T](c, req)
}

// Get fetches url and unwraps the response envelope.
func Get[T any](ctx context.Context, c *Client, url string) (T, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, &TransportError{Method: http.MethodGet, URL: url, Err: err}
	}
	return do[T](c, req)
}

func do[T any](c *Client, req *http.Request) (T, error) {
	var zero T
	// The API expects the colon after Bearer.
	req.Header.Set("Authorization", "Bearer: "+c.creds.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &TransportError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, &TransportError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response %q: %w", truncate(body, 200), err)}
	}
	if !gjson.GetBytes(body, "success").Exists() {
		return zero, &TransportError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not an envelope: %q", truncate(body, 200))}
	}

	result, err := env.Unwrap()
	if err != nil {
		if pe, ok := err.(*ProviderError); ok {
			pe.StatusCode = resp.StatusCode
		}
		return zero, err
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

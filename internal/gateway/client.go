package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client is a thin HTTP client for the mailbox REST API. It attaches the
// session credential, classifies failures into the gateway error taxonomy,
// and retries with exponential backoff on HTTP 429.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	maxRetries int
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	// Credentials supplies the bearer token. Nil sends no Authorization header.
	Credentials CredentialSource

	// Timeout bounds a single round trip. Zero means 30 seconds.
	Timeout time.Duration

	// MaxRetries is how often a 429 answer is retried. Negative means 0.
	MaxRetries int

	// Transport is the underlying transport. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. http://localhost:8000).
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(&bearerTransport{
				base:  base,
				creds: opts.Credentials,
			}),
		},
		maxRetries: maxRetries,
	}, nil
}

// Get performs an HTTP GET and returns the raw response body. ref is either
// a path below the base URL or an absolute URL on the same host, as found in
// the next link of a paginated envelope.
func (c *Client) Get(ctx context.Context, ref string) ([]byte, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	body, _, err := c.do(ctx, http.MethodGet, target, "application/json")
	return body, err
}

// Fetch performs an HTTP GET for arbitrary content and returns the body
// together with its content type.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, "", err
	}
	return c.do(ctx, http.MethodGet, target, "*/*")
}

func (c *Client) resolve(ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("parsing url %q: %w", ref, err)
		}
		if u.Host != c.baseURL.Host {
			return "", fmt.Errorf("refusing to follow %q outside %s",
				ref, c.baseURL.Host)
		}
		return u.String(), nil
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL.String() + ref, nil
}

// do is the core HTTP method that builds the request, handles rate limiting
// with exponential backoff, and maps the answer onto the error taxonomy.
func (c *Client) do(
	ctx context.Context,
	method, target, accept string,
) ([]byte, string, error) {
	path := target
	if u, err := url.Parse(target); err == nil {
		path = u.RequestURI()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", accept)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", ctxErr
			}
			return nil, "", &NetworkError{Method: method, Path: path, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, "", &NetworkError{
				Method: method,
				Path:   path,
				Err:    fmt.Errorf("reading response body: %w", readErr),
			}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)
			if attempt < c.maxRetries {
				select {
				case <-ctx.Done():
					return nil, "", ctx.Err()
				case <-time.After(retryAfterDuration(resp, attempt)):
				}
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, "", &AuthError{
				Path:    path,
				Message: "authentication failed (401): log in again",
			}

		case resp.StatusCode == http.StatusNotFound:
			return nil, "", fmt.Errorf("%s %s: %w", method, path, ErrNotFound)

		case resp.StatusCode >= 500:
			return nil, "", &NetworkError{
				Method: method,
				Path:   path,
				Status: resp.StatusCode,
				Err:    errors.New(truncate(string(respBody), 200)),
			}

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, "", &StatusError{
				Method: method,
				Path:   path,
				Status: resp.StatusCode,
				Body:   truncate(string(respBody), 200),
			}
		}

		return respBody, resp.Header.Get("Content-Type"), nil
	}

	return nil, "", &NetworkError{
		Method: method,
		Path:   path,
		Status: http.StatusTooManyRequests,
		Err:    fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr),
	}
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package linkedin implements the Voyager API client used by the discovery
// pipeline: geo typeahead, populated-place lookup, paginated job search, job
// detail fetch and dismissal feedback.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jobsift/jobsift/internal/logger"
)

// Voyager endpoints.
const (
	jobCardsURL       = "https://www.linkedin.com/voyager/api/voyagerJobsDashJobCards"
	graphqlURL        = "https://www.linkedin.com/voyager/api/graphql"
	filterClustersURL = "https://www.linkedin.com/voyager/api/voyagerJobsDashSearchFilterClustersResource"
	dismissURL        = "https://www.linkedin.com/voyager/api/voyagerJobsDashJobPostingRelevanceFeedback?action=dismiss"
	undoDismissURL    = "https://www.linkedin.com/voyager/api/voyagerJobsDashJobPostingRelevanceFeedback?action=undoDismiss"
)

// PageSize is the fixed result-page size used by the platform.
const PageSize = 25

// maxResponseBodyBytes limits the size of fetched responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Config configures the client.
type Config struct {
	// Cookie is the raw "k=v; k2=v2" cookie header copied from a browser
	// session. The csrf token is extracted from JSESSIONID.
	Cookie        string
	UserAgent     string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	// PageDelay is the minimum spacing between search-page requests.
	PageDelay time.Duration
	// JobDelay is the minimum spacing between per-job requests.
	JobDelay time.Duration
}

// Client talks to the Voyager API. All request paths go through a retry
// budget and a minimum-spacing limiter; failures surface as *TransportError.
type Client struct {
	httpClient *http.Client
	log        logger.Interface

	cookies   map[string]string
	csrfToken string
	userAgent string

	attempts int
	backoff  time.Duration

	// pageLimiter spaces search-page requests; jobLimiter spaces everything
	// touching a single posting (detail fetch, dismissal feedback).
	pageLimiter *rate.Limiter
	jobLimiter  *rate.Limiter
}

// New creates a new Voyager client.
func New(cfg Config, log logger.Interface) (*Client, error) {
	cookies, csrf, err := ParseCookies(cfg.Cookie)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		cookies:    cookies,
		csrfToken:  csrf,
		userAgent:  cfg.UserAgent,
		attempts:   cfg.RetryAttempts,
		backoff:    cfg.RetryBackoff,
	}
	c.pageLimiter = newSpacingLimiter(cfg.PageDelay)
	c.jobLimiter = newSpacingLimiter(cfg.JobDelay)

	return c, nil
}

// newSpacingLimiter enforces a fixed minimum spacing between events.
// A zero delay means no pacing.
func newSpacingLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// do issues one paced, retried request and decodes the JSON response into
// out. body is re-marshaled per attempt when non-nil.
func (c *Client) do(ctx context.Context, limiter *rate.Limiter, method, rawURL string, body any, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.doOnce(ctx, method, rawURL, body, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < c.attempts {
			c.log.Warn("request failed, retrying",
				"url", rawURL, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(c.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return &TransportError{URL: rawURL, Attempts: c.attempts, Err: lastErr}
}

// doOnce issues a single HTTP request.
func (c *Client) doOnce(ctx context.Context, method, rawURL string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req, body != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &statusError{Code: resp.StatusCode}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// setHeaders applies the session headers the platform expects.
func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/vnd.linkedin.normalized+json+2.1")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-Li-Lang", "en_US")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.csrfToken != "" {
		req.Header.Set("Csrf-Token", c.csrfToken)
	}

	if header := c.cookieHeader(); header != "" {
		req.Header.Set("Cookie", header)
	}
}

// cookieHeader assembles the session cookies into one header value.
func (c *Client) cookieHeader() string {
	var cookie bytes.Buffer
	for k, v := range c.cookies {
		if cookie.Len() > 0 {
			cookie.WriteString("; ")
		}
		cookie.WriteString(k)
		cookie.WriteString("=")
		cookie.WriteString(v)
	}
	return cookie.String()
}

// sleepCtx waits for the given duration or until the context ends.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

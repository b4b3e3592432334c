package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"itinera/pkg/ratelimit"
	"itinera/pkg/tracker"
	"itinera/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("Itinera/%s (itinerary engine)", version.Version)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 2048

// StatusError is returned for any non-2xx response. Requests are never retried;
// callers decide what a status means.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error: status %d", e.Code)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Code, e.Body)
}

// Client handles outbound HTTP requests with per-provider queuing, pacing and tracking.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	limiter    *ratelimit.KeyedRateLimiter

	// One queue and worker per provider (host).
	queues map[string]chan job
	mu     sync.Mutex
}

type job struct {
	req      *http.Request
	headers  map[string]string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client. rps paces requests per provider; 0 disables pacing.
func New(t *tracker.Tracker, timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tracker:    t,
		limiter:    ratelimit.New(rps, 1),
		queues:     make(map[string]chan job),
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.enqueue(ctx, req, headers)
}

// PostWithHeaders performs a POST request with custom headers.
func (c *Client) PostWithHeaders(ctx context.Context, u string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.enqueue(ctx, req, headers)
}

// Close stops background pacing.
func (c *Client) Close() {
	c.limiter.Stop()
}

func (c *Client) enqueue(ctx context.Context, req *http.Request, headers map[string]string) ([]byte, error) {
	provider := normalizeProvider(req.URL.Host)

	respChan := make(chan jobResult, 1)
	c.dispatch(provider, job{req: req, headers: headers, respChan: respChan})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-respChan:
		return res.body, res.err
	}
}

func normalizeProvider(host string) string {
	switch {
	case strings.HasSuffix(host, "googleapis.com"):
		return "gemini"
	case host == "openrouter.ai" || strings.HasSuffix(host, ".openrouter.ai"):
		return "openrouter"
	case host == "api.openai.com":
		return "openai"
	}
	return host
}

// dispatch sends the job to the provider's queue, creating the queue and worker if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	q, ok := c.queues[provider]
	if !ok {
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}
	c.mu.Unlock()

	// Blocks while the queue is full, throttling the caller.
	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for one provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		ctx := j.req.Context()
		if err := c.limiter.Wait(ctx, provider); err != nil {
			slog.Warn("Job dropped from queue (context expired)", "provider", provider, "error", err)
			j.respChan <- jobResult{err: err}
			continue
		}

		hasUA := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				hasUA = true
			}
		}
		if !hasUA {
			j.req.Header.Set("User-Agent", defaultUserAgent)
		}

		body, err := c.execute(j.req)
		c.track(provider, err)
		j.respChan <- jobResult{body: body, err: err}
	}
}

func (c *Client) track(provider string, err error) {
	if c.tracker == nil {
		return
	}
	outcome := tracker.Success
	if se, ok := err.(*StatusError); ok {
		switch se.Code {
		case http.StatusTooManyRequests:
			outcome = tracker.RateLimited
		case http.StatusPaymentRequired:
			outcome = tracker.CreditsExhausted
		default:
			outcome = tracker.Failure
		}
	} else if err != nil {
		outcome = tracker.Failure
	}
	c.tracker.TrackAPI(provider, outcome)
}

// execute performs exactly one attempt.
func (c *Client) execute(req *http.Request) ([]byte, error) {
	slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("API error response", "status", resp.StatusCode, "host", req.URL.Host)
		return nil, &StatusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	return body, nil
}

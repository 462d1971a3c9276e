package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const (
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries = 3

	maxBodyBytes = 16 << 20
	userAgent    = "yieldwatch/1.0 (+https://github.com/seenimoa/yieldwatch)"
)

var (
	// RetryBaseWait is the first backoff step; it doubles per attempt.
	RetryBaseWait = 500 * time.Millisecond

	// Client is the shared HTTP client used by DoGet.
	Client = &http.Client{Timeout: 20 * time.Second}
)

// ErrHTTP is matched by every *HTTPError via errors.Is.
var ErrHTTP = errors.New("http error")

// HTTPError is a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string // truncated
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s: %s", e.URL, e.Status, e.Body)
}

func (e *HTTPError) Is(target error) bool { return target == ErrHTTP }

// IsRetryable reports whether err is a transient failure worth retrying:
// 429, 5xx, or a network timeout.
func IsRetryable(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// DoGet performs a GET with the given headers, retrying transient failures
// with exponential backoff. It returns the body and the final status code.
func DoGet(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		body, status, err := doGetOnce(ctx, url, headers)
		if err == nil {
			return body, status, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) || attempt == MaxRetries {
			return nil, status, err
		}
		if err := backoff(ctx, attempt); err != nil {
			return nil, status, err
		}
	}
	return nil, 0, lastErr
}

func doGetOnce(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := Client.Do(req)
	if err != nil {
		var ue *neturl.Error
		if errors.As(err, &ue) {
			ue.URL = stripQuery(ue.URL)
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, resp.StatusCode, &HTTPError{
			URL:        stripQuery(url),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       snippet,
		}
	}
	return body, resp.StatusCode, nil
}

// stripQuery drops the query string so API keys never reach error text.
func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

func backoff(ctx context.Context, attempt int) error {
	wait := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseWait
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package snapshotfeed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client fetches the startup snapshot over HTTP with rate-limited
// retry and a primary/fallback-domain fallback.
type Client struct {
	httpClient   *http.Client
	primaryURL   string
	fallbackURL  string
	apiKey       string
	limiter      *rate.Limiter
	retryCount   int
	retryDelay   time.Duration
	logger       *zap.Logger
}

// NewClient constructs a Client. fallbackURL may be empty to disable
// the domain-swap retry.
func NewClient(primaryURL, fallbackURL, apiKey string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
		apiKey:      apiKey,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount:  retryCount,
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

// Fetch retrieves and decodes the JSONL snapshot body, retrying with
// exponential backoff and falling back to a secondary domain if the
// primary is unreachable.
func (c *Client) Fetch(ctx context.Context) ([]Row, error) {
	rows, err := c.fetchOnce(ctx, c.primaryURL)
	if err == nil {
		return rows, nil
	}
	if c.fallbackURL == "" {
		return nil, err
	}
	c.logger.Info("snapshot primary fetch failed, trying fallback", zap.Error(err))
	return c.fetchOnce(ctx, c.fallbackURL)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]Row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("snapshotfeed: rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("snapshotfeed: creating request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("snapshotfeed: server status %d", resp.StatusCode)
			_ = resp.Body.Close()
			continue
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("snapshotfeed: unexpected status %d: %s", resp.StatusCode, string(body))
		}

		rows, err := decodeJSONL(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
		return rows, nil
	}
	return nil, fmt.Errorf("snapshotfeed: max retries exceeded: %w", lastErr)
}

func decodeJSONL(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var rows []Row
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("snapshotfeed: decoding row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("snapshotfeed: scanning body: %w", err)
	}
	return rows, nil
}

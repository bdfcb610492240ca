// Package datasource fetches the external inputs the trader needs:
// EIA storage inventories, Open-Meteo temperatures, NOAA storm alerts,
// and Yahoo daily prices. Source failures propagate to the caller; no
// adapter ever substitutes fabricated data for a failed fetch.
package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// APIError is a non-2xx response from a data source.
type APIError struct {
	Source string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Source, e.Status, e.Body)
}

// Client is the shared HTTP plumbing for all source adapters: one
// http.Client, a per-source circuit breaker, and bounded retry with
// exponential backoff.
type Client struct {
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *log.Logger
	maxRetries int
	backoff    time.Duration
}

// Options configures a source client.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// NewClient builds a client for the named source.
func NewClient(source string, opts Options, logger *log.Logger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	settings := gobreaker.Settings{
		Name:     source,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("%s circuit breaker: %s -> %s", name, from, to)
		},
	}

	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
}

// GetJSON fetches url and decodes the JSON body into out, retrying
// transient failures with exponential backoff behind the circuit
// breaker.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.getOnce(ctx, url, out)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		// Client errors and open breakers will not improve with retries.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return err
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return err
		}
		c.logger.Printf("fetch attempt %d/%d failed: %v", attempt+1, c.maxRetries+1, err)
	}
	return fmt.Errorf("fetch failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NATGAS-trader/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Source: c.breaker.Name(), Status: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/lifelink-health/platform/pkg/donation"
	"github.com/lifelink-health/platform/pkg/donor"
)

const maxBackoff = 2 * time.Second

// StatusError carries a non-2xx response from the match service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("match service returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the match service REST API.
type Client struct {
	baseURL   string
	http      *http.Client
	attempts  int
	baseDelay time.Duration
}

func New(baseURL string, timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout, Transport: transport},
		attempts:  3,
		baseDelay: 100 * time.Millisecond,
	}
}

// WithRetry overrides how many times retriable calls are attempted.
func (c *Client) WithRetry(attempts int, baseDelay time.Duration) *Client {
	c.attempts = attempts
	c.baseDelay = baseDelay
	return c
}

func (c *Client) RegisterDonor(ctx context.Context, in donation.RegisterDonorInput) (*donor.Record, error) {
	var out donor.Record
	if err := c.post(ctx, "/api/v1/donors", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitRequest(ctx context.Context, in donation.SubmitRequestInput) (*donation.SubmitResult, error) {
	var out donation.SubmitResult
	if err := c.post(ctx, "/api/v1/requests", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return Retry(ctx, c.attempts, c.baseDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// Retry executes fn with exponential backoff while the error is retriable.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}

	var err error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil || !IsRetriable(err) {
			return err
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}

	return err
}

// IsRetriable reports whether err happened before the request reached the
// server. POSTs are not idempotent, so timeouts and 5xx responses are final.
func IsRetriable(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

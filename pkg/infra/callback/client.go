package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
)

// DefaultTimeout bounds a single delivery attempt
const DefaultTimeout = 30 * time.Second

type client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures the callback client
type Option func(*client)

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// NewClient creates a CallbackClient posting JSON notifications
func NewClient(opts ...Option) interfaces.CallbackClient {
	c := &client{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post makes one attempt. Any non-2xx status is an error.
func (c *client) Post(ctx context.Context, url string, payload *model.Notification) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create callback request", goerr.V("url", url))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send callback", goerr.V("url", url))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.New("callback returned error status",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode))
	}
	return nil
}

package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
)

const (
	defaultNotifyAttempts = 5
	defaultBackoffUnit    = time.Second
)

type notifier struct {
	client      interfaces.CallbackClient
	maxAttempts int
	unit        time.Duration
}

// NotifierOption configures the notifier
type NotifierOption func(*notifier)

// WithMaxAttempts sets the number of delivery attempts
func WithMaxAttempts(n int) NotifierOption {
	return func(x *notifier) {
		x.maxAttempts = n
	}
}

// WithBackoffUnit sets the first wait; later waits double it
func WithBackoffUnit(d time.Duration) NotifierOption {
	return func(x *notifier) {
		x.unit = d
	}
}

// NewNotifier creates a Notifier that retries failed deliveries with exponential backoff
func NewNotifier(client interfaces.CallbackClient, opts ...NotifierOption) interfaces.Notifier {
	n := &notifier{
		client:      client,
		maxAttempts: defaultNotifyAttempts,
		unit:        defaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.maxAttempts < 1 {
		n.maxAttempts = 1
	}
	return n
}

func (n *notifier) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = n.unit
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = n.unit << uint(n.maxAttempts)
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(n.maxAttempts-1)), ctx)
}

// Notify posts payload to url. Waits between attempts are 1, 2, 4, 8... units, none after the last attempt.
func (n *notifier) Notify(ctx context.Context, url string, payload *model.Notification) error {
	logger := ctxlog.From(ctx)

	attempt := 0
	operation := func() error {
		attempt++
		if err := n.client.Post(ctx, url, payload); err != nil {
			logger.Warn("Callback attempt failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Info("Retrying callback", "attempt", attempt, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, n.newBackOff(ctx), notify); err != nil {
		return goerr.Wrap(err, "failed to notify evaluation server",
			goerr.T(types.ErrTagNotifyExhausted),
			goerr.V("url", url),
			goerr.V("attempts", attempt))
	}

	logger.Info("Notified evaluation server", "url", url, "attempts", attempt)
	return nil
}

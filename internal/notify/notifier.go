// Package notify delivers the completion callback to the caller-supplied
// evaluation endpoint with bounded exponential backoff.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"appforge/internal/common/httpclient"
	"appforge/internal/common/logger"
	"appforge/internal/common/metrics"
	"appforge/internal/models"
)

// Status is the terminal outcome of a notification run.
type Status string

const (
	StatusDelivered Status = "Delivered"
	StatusExhausted Status = "Exhausted"
)

// Result records what the notifier did for one callback.
type Result struct {
	Status   Status
	Attempts int
	LastErr  error
}

type Notifier struct {
	client      *httpclient.Client
	maxAttempts int
	initialWait time.Duration
	sleep       func(time.Duration)
	logger      logger.Logger
}

// New builds a notifier. maxAttempts and initialWait fall back to 6 attempts
// and 1s when non-positive.
func New(client *httpclient.Client, maxAttempts int, initialWait time.Duration, log logger.Logger) *Notifier {
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	if initialWait <= 0 {
		initialWait = time.Second
	}
	return &Notifier{
		client:      client,
		maxAttempts: maxAttempts,
		initialWait: initialWait,
		sleep:       time.Sleep,
		logger:      log.With(map[string]interface{}{"component": "notify"}),
	}
}

// SetSleep replaces the inter-attempt wait. Tests use it to record the
// backoff schedule without waiting it out.
func (n *Notifier) SetSleep(sleep func(time.Duration)) {
	n.sleep = sleep
}

// Notify POSTs the payload as JSON to url. Only an HTTP 200 counts as
// delivered; any other status or transport error is retried with the wait
// doubling after each failure. There is no wait after the final attempt.
func (n *Notifier) Notify(ctx context.Context, url string, payload *models.CallbackPayload) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Status: StatusExhausted, LastErr: fmt.Errorf("encode callback payload: %w", err)}
	}

	wait := n.initialWait
	var lastErr error

	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		metrics.NotifyAttempts.Inc()

		lastErr = n.post(ctx, url, body)
		if lastErr == nil {
			metrics.NotifyOutcomes.WithLabelValues("delivered").Inc()
			n.logger.Info("callback delivered", map[string]interface{}{
				"url":     url,
				"attempt": attempt,
			})
			return Result{Status: StatusDelivered, Attempts: attempt}
		}

		n.logger.Warn("callback attempt failed", map[string]interface{}{
			"url":     url,
			"attempt": attempt,
			"error":   lastErr.Error(),
		})

		if attempt < n.maxAttempts {
			n.sleep(wait)
			wait *= 2
		}
	}

	metrics.NotifyOutcomes.WithLabelValues("exhausted").Inc()
	n.logger.Error("callback exhausted", map[string]interface{}{
		"url":      url,
		"attempts": n.maxAttempts,
	})
	return Result{Status: StatusExhausted, Attempts: n.maxAttempts, LastErr: lastErr}
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send callback: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("callback endpoint returned %d", resp.StatusCode)
	}
	return nil
}

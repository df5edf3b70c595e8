package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	activityContentType = "application/activity+json"
	maxParallelPosts    = 8
)

// Client posts activity documents to remote inboxes. Delivery is
// best-effort and parallel; callers decide how to react to peer failures.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Post sends the same payload to every inbox. It returns the first peer
// error after all attempts complete, so one unreachable peer does not
// cancel deliveries already in flight.
func (c *Client) Post(ctx context.Context, inboxes []string, payload []byte) error {
	if len(inboxes) == 0 {
		return nil
	}

	var group errgroup.Group
	group.SetLimit(maxParallelPosts)

	for _, inbox := range inboxes {
		inbox := inbox
		group.Go(func() error {
			if err := c.postOne(ctx, inbox, payload); err != nil {
				c.logger.Error("inbox delivery failed",
					"event", "delivery_post_failed",
					"module", "internal/platform/delivery",
					"layer", "platform",
					"inbox", inbox,
					"error", err.Error(),
				)
				return err
			}
			return nil
		})
	}
	return group.Wait()
}

func (c *Client) postOne(ctx context.Context, inbox string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inbox, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", activityContentType)
	req.Header.Set("Accept", activityContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post activity to %s: %w", inbox, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post activity to %s: unexpected status %d", inbox, resp.StatusCode)
	}
	return nil
}

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"
)

const (
	activityContentType = "application/activity+json"
	maxDocumentBytes    = 1 << 20
)

// Client fetches remote actor/object documents over HTTP. It is the only
// network-read path of the activity core.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Logger    *slog.Logger
}

func NewClient(timeout time.Duration, userAgent string, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: strings.TrimSpace(userAgent),
		Logger:    logger,
	}
}

func (c *Client) Fetch(ctx context.Context, uri string) (ports.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(uri), nil)
	if err != nil {
		return ports.Document{}, err
	}
	req.Header.Set("Accept", activityContentType)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return ports.Document{}, err
	}
	defer resp.Body.Close()

	// Gone and not-found mean the reference is permanently unresolvable;
	// other failures may be transient and are surfaced as-is.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ports.Document{}, domainerrors.ErrUnresolvableReference
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Logger.Warn("remote document fetch returned error status",
			"event", "federation_fetch_error_status",
			"module", "federation/activity-core",
			"layer", "adapter",
			"uri", uri,
			"status", resp.StatusCode,
		)
		return ports.Document{}, fmt.Errorf("fetch %s: unexpected status %d", uri, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return ports.Document{}, err
	}
	var doc ports.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return ports.Document{}, fmt.Errorf("fetch %s: decode document: %w", uri, err)
	}
	doc.Raw = body
	return doc, nil
}

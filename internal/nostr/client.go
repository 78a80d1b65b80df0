// Package nostr wraps go-nostr's SimplePool as the app's event query
// gateway. Signature validity and event uniqueness are the relays' and the
// pool's concern; callers only see deduplicated, signed events.
package nostr

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/patrickReiis/rap-battle-nostr/internal/config"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
)

// Client provides a high-level interface for querying and publishing to relays
type Client struct {
	pool        *nostr.SimplePool
	relayConfig *config.Relays
	log         *ops.Logger
}

// New creates a new relay client with the given configuration
func New(ctx context.Context, relayConfig *config.Relays, log *ops.Logger) *Client {
	return &Client{
		pool:        nostr.NewSimplePool(ctx),
		relayConfig: relayConfig,
		log:         log.WithComponent("nostr"),
	}
}

// Relays returns the configured seed relays
func (c *Client) Relays() []string {
	if c.relayConfig == nil {
		return nil
	}
	return c.relayConfig.Seeds
}

// Query fetches all events matching the filter from the seed relays,
// returning once every relay reached EOSE or the context ended. The pool
// deduplicates events seen on multiple relays.
func (c *Client) Query(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error) {
	events := make([]*nostr.Event, 0)

	for relayEvent := range c.pool.SubManyEose(ctx, c.Relays(), nostr.Filters{filter}) {
		if relayEvent.Event != nil {
			events = append(events, relayEvent.Event)
		}
	}

	// A cancelled or timed-out context must surface as a failed fetch,
	// never as a short result set.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("query aborted: %w", err)
	}

	return events, nil
}

// Publish sends an event to the seed relays. It succeeds if at least one
// relay accepts the event.
func (c *Client) Publish(ctx context.Context, event *nostr.Event) error {
	results := c.pool.PublishMany(ctx, c.Relays(), *event)

	var lastErr error
	successCount := 0

	for result := range results {
		if result.Error != nil {
			lastErr = result.Error
		} else {
			successCount++
		}
	}

	if successCount == 0 {
		if lastErr != nil {
			return fmt.Errorf("failed to publish to any relay: %w", lastErr)
		}
		return fmt.Errorf("failed to publish to any relay")
	}

	c.log.Debug("event accepted",
		"event_id", event.ID,
		"kind", event.Kind,
		"relays_ok", successCount)

	return nil
}

// Close closes all relay connections
func (c *Client) Close() {
	c.pool.Close("client shutting down")
}

package engram

import (
	"context"
	"errors"
	"fmt"

	"github.com/soundprediction/engram/pkg/driver"
)

// BuildIndices creates the fulltext and vector indices hybrid search
// depends on. Safe to call on every startup; existing indices are kept.
func (c *Client) BuildIndices(ctx context.Context) error {
	if err := c.driver.BuildIndices(ctx); err != nil {
		return fmt.Errorf("failed to build indices: %w", err)
	}
	c.logger.Debug("graph indices ready")
	return nil
}

// ClearGraph deletes every node and edge in the client's group,
// episodes included. This is the only deletion path in the library.
func (c *Client) ClearGraph(ctx context.Context) error {
	group := c.config.groupID()
	if err := c.driver.ClearGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	c.logger.Warn("graph cleared", "group_id", group)
	return nil
}

// Stats reports node, edge, and episode counts for the client's group.
func (c *Client) Stats(ctx context.Context) (*driver.GraphStats, error) {
	stats, err := c.driver.Stats(ctx, c.config.groupID())
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	return stats, nil
}

// Close releases the driver, llm, and embedder. Calling Close again
// returns nil without touching the backends.
func (c *Client) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.driver.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close driver: %w", err))
	}
	if err := c.llm.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close llm client: %w", err))
	}
	if err := c.embedder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close embedder: %w", err))
	}
	return errors.Join(errs...)
}

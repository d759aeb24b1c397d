package engram

import (
	"errors"
	"log/slog"
	"time"

	"github.com/soundprediction/engram/pkg/driver"
	"github.com/soundprediction/engram/pkg/embedder"
	"github.com/soundprediction/engram/pkg/llm"
	"github.com/soundprediction/engram/pkg/search"
)

// Errors returned by the client facade.
var (
	// ErrNodeNotFound is returned when a node lookup misses.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when an edge lookup misses.
	ErrEdgeNotFound = errors.New("edge not found")
	// ErrInvalidEpisode wraps episode validation failures during ingestion.
	ErrInvalidEpisode = errors.New("invalid episode")
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("client is closed")
)

const (
	// DefaultGroupID scopes data when the caller never picks a group.
	DefaultGroupID = "default"

	// DefaultSearchLimit caps facade-level edge searches.
	DefaultSearchLimit = 10

	// DefaultNodeSearchLimit caps facade-level node recipe searches.
	DefaultNodeSearchLimit = 5

	// previousEpisodeWindow is how many prior episodes are handed to the
	// extraction prompts as context.
	previousEpisodeWindow = 3
)

// Config holds client-level settings.
type Config struct {
	// GroupID isolates this client's data from other tenants sharing the
	// database. Empty means DefaultGroupID.
	GroupID string

	// TimeZone anchors temporal interpretation for episodes whose
	// reference time is zero. Nil means UTC.
	TimeZone *time.Location

	// MaxCharacters bounds a single extraction chunk. Zero means the
	// chunker default.
	MaxCharacters int

	// MaxConcurrency bounds parallel LLM calls inside one episode. Zero
	// means the executor default.
	MaxConcurrency int
}

func (c *Config) groupID() string {
	if c.GroupID == "" {
		return DefaultGroupID
	}
	return c.GroupID
}

// Client builds and queries a temporal knowledge graph. It owns no
// goroutines; every method runs on the caller's goroutine and respects
// its context.
type Client struct {
	driver   driver.GraphDriver
	llm      llm.Client
	embedder embedder.Client
	searcher *search.Searcher
	config   *Config
	logger   *slog.Logger
	closed   bool
}

// New builds a Client over the given backends. Config and logger may be
// nil; driver, llm, and embedder may not.
func New(d driver.GraphDriver, l llm.Client, e embedder.Client, cfg *Config, logger *slog.Logger) (*Client, error) {
	if d == nil {
		return nil, errors.New("graph driver is required")
	}
	if l == nil {
		return nil, errors.New("llm client is required")
	}
	if e == nil {
		return nil, errors.New("embedder client is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.TimeZone == nil {
		cfg.TimeZone = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		driver:   d,
		llm:      l,
		embedder: e,
		searcher: search.NewSearcher(d, e),
		config:   cfg,
		logger:   logger,
	}, nil
}

// GroupID returns the group this client reads and writes.
func (c *Client) GroupID() string { return c.config.groupID() }

// Driver exposes the underlying graph driver for callers that need
// operations below the facade.
func (c *Client) Driver() driver.GraphDriver { return c.driver }

// LLM exposes the underlying language model client.
func (c *Client) LLM() llm.Client { return c.llm }

// Embedder exposes the underlying embedding client.
func (c *Client) Embedder() embedder.Client { return c.embedder }

// Searcher exposes the hybrid searcher for custom search configs.
func (c *Client) Searcher() *search.Searcher { return c.searcher }

// Package query runs paginated queries against the catalog API and extends
// every page with navigable endpoints for the resources and collections
// embedded in it.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/marvelous/internal/config"
	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/logging"
	"github.com/conduit-lang/marvelous/internal/params"
	"github.com/conduit-lang/marvelous/internal/request"
	"github.com/conduit-lang/marvelous/internal/transport"
)

// ResultCallback is invoked with the items of every successfully fetched
// page. A returned error is surfaced by Fetch after the query state has
// been updated.
type ResultCallback func(ctx context.Context, q *Query, items []*Item) error

// Client holds the configuration shared by every query: credentials,
// parameter manager, transport, logger, metrics and result callbacks. It is
// read-only after NewClient and safe for concurrent use; the queries it
// creates are not.
type Client struct {
	cfg       *config.Config
	params    *params.Manager
	builder   *request.Builder
	doer      transport.Doer
	logger    *zap.Logger
	metrics   *Metrics
	discover  bool
	callbacks map[endpoint.Type]ResultCallback
	catchAll  ResultCallback
	injector  *Injector

	// construction-only settings
	schemas params.Registry
	now     func() time.Time
	newID   func() string
}

// Option configures a Client
type Option func(*Client)

// WithDoer replaces the default net/http transport
func WithDoer(d transport.Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithLogger sets the logger; per-query loggers are derived from it
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics enables Prometheus metrics
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSchemas replaces the default parameter schemas
func WithSchemas(r params.Registry) Option {
	return func(c *Client) {
		c.schemas = r
	}
}

// WithClock replaces time.Now for request signing
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithIDGenerator replaces the UUID query id generator
func WithIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.newID = gen
	}
}

// WithDiscovery overrides discovery.enabled from the configuration
func WithDiscovery(enabled bool) Option {
	return func(c *Client) {
		c.discover = enabled
	}
}

// WithResultCallback registers fn for pages whose resolved type is t
func WithResultCallback(t endpoint.Type, fn ResultCallback) Option {
	return func(c *Client) {
		c.callbacks[t] = fn
	}
}

// WithCatchAllCallback registers fn for pages without a type-specific callback
func WithCatchAllCallback(fn ResultCallback) Option {
	return func(c *Client) {
		c.catchAll = fn
	}
}

// NewClient validates the global parameter configuration and builds a
// Client. A nil cfg selects config.Default().
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Client{
		cfg:       cfg,
		discover:  cfg.Discovery.Enabled,
		callbacks: make(map[endpoint.Type]ResultCallback),
		newID:     defaultQueryID,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = logging.OrNop(c.logger)
	if c.doer == nil {
		c.doer = transport.NewHTTPClient(cfg, nil)
	}

	pm, err := params.NewManager(cfg, c.schemas)
	if err != nil {
		return nil, fmt.Errorf("invalid global parameters: %w", err)
	}
	c.params = pm

	var builderOpts []request.Option
	if c.now != nil {
		builderOpts = append(builderOpts, request.WithClock(c.now))
	}
	c.builder = request.NewBuilder(cfg, builderOpts...)
	if !c.builder.Signed() {
		c.logger.Warn("no private key configured, requests will not be signed")
	}

	c.injector = NewInjector(c)
	return c, nil
}

// Config returns the configuration the client was built from
func (c *Client) Config() *config.Config {
	return c.cfg
}

// DiscoveryEnabled reports whether pages are routed through the injector
func (c *Client) DiscoveryEnabled() bool {
	return c.discover
}

// NewQuery resolves p for ep and returns an unfetched query.
func (c *Client) NewQuery(ep endpoint.Endpoint, p params.Values) (*Query, error) {
	if ep.IsZero() {
		return nil, fmt.Errorf("%w: zero endpoint", endpoint.ErrInvalidEndpoint)
	}
	resolved, err := c.params.Resolve(ep, p)
	if err != nil {
		return nil, err
	}

	id := c.newID()
	return &Query{
		id:       id,
		client:   c,
		endpoint: ep,
		params:   resolved,
		logger:   c.logger.With(zap.String("query_id", id), zap.Stringer("endpoint", ep)),
		state:    StateUnfetched,
	}, nil
}

// QueryPath parses a "type/id/subtype" path and returns an unfetched query.
func (c *Client) QueryPath(path string, p params.Values) (*Query, error) {
	ep, err := endpoint.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return c.NewQuery(ep, p)
}

func (c *Client) callbackFor(t endpoint.Type) ResultCallback {
	if cb, ok := c.callbacks[t]; ok && cb != nil {
		return cb
	}
	return c.catchAll
}

func defaultQueryID() string {
	return uuid.New().String()
}

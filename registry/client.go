package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/internal/logutil"
)

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second

	// MaxDocumentSize bounds every response body.
	MaxDocumentSize = 8 << 20
)

// Client fetches documents from a registry.
type Client struct {
	baseURL string
	client  *http.Client
	cache   Cache
	group   singleflight.Group
	log     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets a custom HTTP request timeout.
// Zero or negative values fall back to the default timeout (15 seconds).
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithCache replaces the default LRU cache. Pass NoopCache{} to disable
// caching.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets a structured logger. If not set, logging is disabled.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = logutil.OrDiscard(l)
	}
}

// NewClient creates a client for the registry at baseURL. baseURL may be
// empty when only FetchAddOn and Import are used.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		log: logutil.OrDiscard(nil),
	}
	if cache, err := NewLRUCache(DefaultCacheSize); err == nil {
		c.cache = cache
	} else {
		c.cache = NoopCache{}
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchCatalog fetches and builds the registry catalog.
func (c *Client) FetchCatalog(ctx context.Context, opts ...catalog.Option) (*catalog.Catalog, error) {
	u := c.baseURL + "/catalog.json"
	data, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Parse(data, catalog.FormatJSON, opts...)
	if err != nil {
		return nil, &LoadError{URL: u, Err: err}
	}
	c.log.Debug("catalog loaded", "url", u, "addOns", cat.Len())
	return cat, nil
}

// FetchStarter fetches a starter by name.
func (c *Client) FetchStarter(ctx context.Context, name string) (*catalog.Starter, error) {
	u := c.baseURL + "/starters/" + url.PathEscape(name) + ".json"
	data, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	starter, err := catalog.ParseStarter(data, catalog.FormatJSON)
	if err != nil {
		return nil, &LoadError{URL: u, Err: err}
	}
	return starter, nil
}

// FetchAddOn fetches a custom add-on definition from an absolute URL,
// validates it and marks it Custom. The document may be JSON or, when the
// URL ends in .yaml or .yml, YAML. Unknown fields are ignored.
func (c *Client) FetchAddOn(ctx context.Context, rawURL string) (*addon.Definition, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &LoadError{URL: rawURL, Err: fmt.Errorf("%w: not an http(s) URL", ErrInvalidAddOn)}
	}

	data, err := c.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var def addon.Definition
	if catalog.FormatForPath(parsed.Path) == catalog.FormatYAML {
		err = yaml.Unmarshal(data, &def)
	} else {
		err = json.Unmarshal(data, &def)
	}
	if err != nil {
		return nil, &LoadError{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrInvalidAddOn, err)}
	}
	if err := def.ValidateImported(); err != nil {
		return nil, &LoadError{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrInvalidAddOn, err)}
	}
	def.Custom = true
	return &def, nil
}

// Import fetches a custom add-on and returns a new catalog containing it.
// cat is left untouched. Requirements that the catalog does not (yet)
// contain are accepted; they fail at compile time if still missing.
func (c *Client) Import(ctx context.Context, cat *catalog.Catalog, rawURL string) (*catalog.Catalog, error) {
	def, err := c.FetchAddOn(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	next, err := cat.With(def)
	if err != nil {
		return nil, &LoadError{URL: rawURL, Err: err}
	}
	if missing := next.Unresolved()[def.ID]; len(missing) > 0 {
		c.log.Warn("imported add-on has unresolved requirements", "addOn", def.ID, "missing", missing)
	}
	c.log.Info("custom add-on imported", "addOn", def.ID, "url", rawURL)
	return next, nil
}

// fetch returns the document at u from the cache or the network.
// Concurrent calls for one URL share a single request.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	if data, ok, err := c.cache.Get(ctx, u); err != nil {
		c.log.Warn("cache get failed", "url", u, "error", err)
	} else if ok {
		return data, nil
	}

	v, err, shared := c.group.Do(u, func() (any, error) {
		data, err := c.get(ctx, u)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Put(ctx, u, data); err != nil {
			c.log.Warn("cache put failed", "url", u, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("fetch shared", "url", u)
	}
	return v.([]byte), nil
}

// get performs an HTTP GET and returns the response body.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, &LoadError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &LoadError{URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &LoadError{URL: u, StatusCode: resp.StatusCode, Err: statusError(resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, &LoadError{URL: u, StatusCode: resp.StatusCode, Err: err}
	}
	if len(data) > MaxDocumentSize {
		return nil, &LoadError{URL: u, StatusCode: resp.StatusCode, Err: errors.New("document too large")}
	}
	c.log.Debug("fetched", "url", u, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

package fraud

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	gocache "github.com/patrickmn/go-cache"

	"reward-system/pkg/logger"
)

// OnlineChecker reports whether the validator currently has network
// connectivity. Validation refuses to proceed offline: an offline "used"
// claim would be unprovable against the authoritative store.
type OnlineChecker interface {
	Online(ctx context.Context) bool
}

const probeCacheKey = "online"

// ConnectionChecker probes a known-stable host with a HEAD request and
// caches the verdict so bursts of validations share one probe.
type ConnectionChecker struct {
	client *retryablehttp.Client
	url    string
	ttl    time.Duration
	cache  *gocache.Cache
	logger *logger.Logger
}

// NewConnectionChecker creates a probe against the given URL, caching
// results for ttl.
func NewConnectionChecker(url string, ttl time.Duration, log *logger.Logger) *ConnectionChecker {
	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.RetryWaitMin = 200 * time.Millisecond
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = nil

	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &ConnectionChecker{
		client: client,
		url:    url,
		ttl:    ttl,
		cache:  gocache.New(ttl, 2*ttl),
		logger: log,
	}
}

func (c *ConnectionChecker) Online(ctx context.Context) bool {
	if cached, ok := c.cache.Get(probeCacheKey); ok {
		return cached.(bool)
	}

	online := c.probe(ctx)
	c.cache.Set(probeCacheKey, online, c.ttl)

	return online
}

func (c *ConnectionChecker) probe(ctx context.Context) bool {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		c.logger.Warnw("failed to build connectivity probe request", "url", c.url, "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warnw("connectivity probe failed", "url", c.url, "error", err)
		return false
	}
	defer resp.Body.Close()

	// Any response proves reachability, status is irrelevant
	return true
}

// StaticChecker always reports a fixed connectivity state, for tests.
type StaticChecker bool

func (s StaticChecker) Online(context.Context) bool {
	return bool(s)
}

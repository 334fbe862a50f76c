package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/oigbridge/oigbridge/pkg/log"
	"github.com/oigbridge/oigbridge/pkg/oig"
	"github.com/oigbridge/oigbridge/pkg/security"
)

// ErrAuthenticationFailed is returned when the upstream rejected the
// credentials or was unreachable during authentication.
var ErrAuthenticationFailed = errors.New("failed to authenticate with OIG Cloud")

// Status describes where a session handle came from.
type Status string

const (
	StatusFromCache Status = "session_from_cache"
	StatusNew       Status = "new_session_created"
	StatusMock      Status = "mock_session"
)

// DefaultEvictionWindow is how long an idle session stays cached.
const DefaultEvictionWindow = 12 * time.Hour

type entry struct {
	client   oig.Client
	lastUsed time.Time
}

// Cache maps hashed credentials to previously authenticated upstream
// clients so repeated tool calls don't re-authenticate. Entries idle for
// longer than the eviction window are dropped lazily at the start of each
// access. Cached handles are shared: concurrent callers for the same
// credentials get the same client.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	evictAfter time.Duration
	dial       oig.Dialer
	mock       oig.Client
	limiter    *security.RateLimiter
	audit      *security.AuditLog
	now        func() time.Time
}

// NewCache returns a cache using the given dialer, limiter and audit log.
func NewCache(dial oig.Dialer, limiter *security.RateLimiter, audit *security.AuditLog) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		evictAfter: DefaultEvictionWindow,
		dial:       dial,
		limiter:    limiter,
		audit:      audit,
		now:        time.Now,
	}
}

// Configured sets up the session cache based on flags.
func Configured(factory *oig.Factory, limiter *security.RateLimiter, audit *security.AuditLog) *Cache {
	evictAfter := lflag.Duration("session-eviction-window", DefaultEvictionWindow, "How long an idle upstream session stays cached")

	c := NewCache(nil, limiter, audit)

	lflag.Do(func() {
		c.evictAfter = *evictAfter
		c.dial = factory.Dialer()
		c.mock = factory.Mock()
	})

	return c
}

// SetMock installs an offline stub client. When set, GetSession returns it
// for every caller with StatusMock and never touches the cache, limiter or
// upstream. Only for tests and the explicit offline mode.
func (c *Cache) SetMock(client oig.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mock = client
}

// credentialKey hashes email and password so plaintext passwords are never
// retained as map keys.
func credentialKey(email, password string) string {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return hex.EncodeToString(sum[:])
}

// GetSession returns an authenticated client for the credentials, reusing
// a cached one when possible. On a miss the rate limiter gates the
// authentication attempt; gate rejections surface unchanged and are not
// counted as failures.
//
// The cache lock is held across the upstream authenticate call, so
// concurrent requests for different credentials serialize behind one login.
// Acceptable at current scale; narrowing the lock scope is the first
// improvement if throughput becomes an issue.
func (c *Cache) GetSession(ctx context.Context, email, password, clientIP string) (oig.Client, Status, error) {
	c.mu.Lock()
	if c.mock != nil {
		mock := c.mock
		c.mu.Unlock()
		return mock, StatusMock, nil
	}
	defer c.mu.Unlock()

	now := c.now()

	// lazy O(n) sweep on every access; a TTL heap is the scale-up path
	for k, e := range c.entries {
		if now.Sub(e.lastUsed) > c.evictAfter {
			delete(c.entries, k)
		}
	}

	key := credentialKey(email, password)
	if e, ok := c.entries[key]; ok {
		// staleness is tolerated until the next upstream call fails
		e.lastUsed = now
		log.Ctx(ctx).DebugContext(ctx, "session cache hit", slog.String("email", email))
		return e.client, StatusFromCache, nil
	}

	if err := c.limiter.CheckAndProceed(email); err != nil {
		// a gate rejection is not an authentication attempt
		return nil, "", err
	}

	client := c.dial(email, password)
	ok, err := client.Authenticate(ctx)
	if err != nil || !ok {
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "authentication error", slog.String("email", email), slog.Any("error", err))
		}
		c.limiter.RecordFailure(email)
		c.audit.AuthFailure(email, clientIP)
		return nil, "", ErrAuthenticationFailed
	}

	c.entries[key] = &entry{client: client, lastUsed: c.now()}
	c.limiter.RecordSuccess(email)
	log.Ctx(ctx).InfoContext(ctx, "authentication successful", slog.String("email", email))
	return client, StatusNew, nil
}

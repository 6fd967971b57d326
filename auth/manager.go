package auth

import (
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/agentmesh/gatekit/errors"
)

const defaultTokenTTL = time.Hour

// Refresh failure messages. The exact text is part of the client contract.
const (
	msgRefreshUnsupported = "Token refresh only supported for OAuth2"
	msgNoRefreshToken     = "Refresh token not available"
)

// TokenCacheEntry is a cached OAuth2 access token for one service.
type TokenCacheEntry struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenInfo reflects the cache state for one service.
type TokenInfo struct {
	HasToken  bool
	ExpiresAt time.Time
}

// RefreshResult is the outcome of an OAuth2 token refresh.
type RefreshResult struct {
	Success     bool
	AccessToken string
	ExpiresAt   time.Time
	Error       *errors.AppError
}

// Manager resolves outbound auth headers per service and owns the OAuth2
// token cache. One Manager serves every service of a gateway client; cache
// access is guarded by a single mutex since entries are tiny and refreshes
// are rare.
type Manager struct {
	tokenTTL time.Duration
	issuer   string
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]TokenCacheEntry
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithTokenTTL sets the lifetime of refreshed OAuth2 tokens.
func WithTokenTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.tokenTTL = ttl }
}

// WithIssuer sets the issuer claim on refreshed tokens.
func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) { m.issuer = issuer }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates an auth manager with an empty token cache.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		tokenTTL: defaultTokenTTL,
		issuer:   "gatekit",
		now:      time.Now,
		cache:    make(map[string]TokenCacheEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Headers resolves the outbound headers for a service call. An unknown auth
// type is a configuration error, not a retryable one.
func (m *Manager) Headers(service string, cfg Config) (map[string]string, error) {
	switch cfg.Type {
	case TypeBearer:
		return map[string]string{"Authorization": "Bearer " + cfg.Credentials.Token}, nil
	case TypeAPIKey:
		return map[string]string{"X-API-Key": cfg.Credentials.APIKey}, nil
	case TypeOAuth2:
		return map[string]string{"Authorization": "Bearer " + m.accessToken(service, cfg)}, nil
	default:
		return nil, errors.UnsupportedAuthType(string(cfg.Type))
	}
}

// accessToken prefers an unexpired cached token over the configured one.
func (m *Manager) accessToken(service string, cfg Config) string {
	m.mu.Lock()
	entry, ok := m.cache[service]
	m.mu.Unlock()

	if ok && entry.ExpiresAt.After(m.now()) {
		return entry.AccessToken
	}
	return cfg.Credentials.AccessToken
}

// RefreshToken mints a fresh OAuth2 access token for the service and stores
// it in the cache. Failures come back as a structured result, never as a
// raised error.
func (m *Manager) RefreshToken(service string, cfg Config) RefreshResult {
	if cfg.Type != TypeOAuth2 {
		return RefreshResult{Error: errors.New(errors.ErrCodeMCP, msgRefreshUnsupported)}
	}
	if cfg.Credentials.RefreshToken == "" {
		return RefreshResult{Error: errors.New(errors.ErrCodeMCP, msgNoRefreshToken)}
	}

	now := m.now()
	expiresAt := now.Add(m.tokenTTL)

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   service,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(cfg.Credentials.RefreshToken))
	if err != nil {
		return RefreshResult{Error: errors.Internal(err)}
	}

	m.mu.Lock()
	m.cache[service] = TokenCacheEntry{AccessToken: signed, ExpiresAt: expiresAt}
	m.mu.Unlock()

	return RefreshResult{Success: true, AccessToken: signed, ExpiresAt: expiresAt}
}

// TokenInfo reports whether a cached token exists for the service.
func (m *Manager) TokenInfo(service string) TokenInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.cache[service]
	if !ok {
		return TokenInfo{}
	}
	return TokenInfo{HasToken: true, ExpiresAt: entry.ExpiresAt}
}

// ClearTokenCache drops the cached tokens for the named services, or every
// cached token when no service is given.
func (m *Manager) ClearTokenCache(services ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(services) == 0 {
		m.cache = make(map[string]TokenCacheEntry)
		return
	}
	for _, service := range services {
		delete(m.cache, service)
	}
}

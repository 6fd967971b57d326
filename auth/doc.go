// Package auth produces outbound authentication headers for gateway calls.
//
// Three strategies are supported, discriminated by the configured type:
// bearer tokens, API keys, and OAuth2 access tokens. The OAuth2 strategy
// additionally owns token refresh and a short-lived per-service token cache;
// refreshed tokens are minted as HS256 JWTs signed with the service's
// refresh token.
//
// Validation failures are reported as human-readable message lists so a
// caller can decide whether to treat them as fatal; refresh failures are
// returned as structured results, never as panics or raised errors.
package auth

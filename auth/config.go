package auth

// Type identifies the authentication strategy for a service.
type Type string

const (
	// TypeBearer sends a static bearer token.
	TypeBearer Type = "bearer"
	// TypeAPIKey sends an API key in the X-API-Key header.
	TypeAPIKey Type = "api-key"
	// TypeOAuth2 sends an OAuth2 access token, refreshable per service.
	TypeOAuth2 Type = "oauth2"
)

// Credentials holds the secret material for every strategy. Only the fields
// matching the configured Type are consulted.
type Credentials struct {
	// Token is the static bearer token (TypeBearer).
	Token string `yaml:"token" mapstructure:"token"`
	// APIKey is the API key value (TypeAPIKey).
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// AccessToken is the OAuth2 access token (TypeOAuth2).
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	// RefreshToken enables OAuth2 token refresh when present (TypeOAuth2).
	RefreshToken string `yaml:"refresh_token" mapstructure:"refresh_token"`
}

// Config configures authentication for one service.
type Config struct {
	// Type is the authentication strategy.
	Type Type `yaml:"type" mapstructure:"type"`
	// Credentials is the secret material for the strategy.
	Credentials Credentials `yaml:"credentials" mapstructure:"credentials"`
}

// Validation messages. The exact text is part of the client contract.
const (
	msgTypeRequired        = "Auth type is required"
	msgBearerTokenRequired = "Bearer token is required"
	msgAPIKeyRequired      = "API key is required"
	msgAccessTokenRequired = "OAuth2 access token is required"
)

// Validate checks the auth configuration and returns one message per
// problem. An empty slice means the configuration is valid.
func (c Config) Validate() []string {
	var problems []string

	switch c.Type {
	case "":
		problems = append(problems, msgTypeRequired)
	case TypeBearer:
		if c.Credentials.Token == "" {
			problems = append(problems, msgBearerTokenRequired)
		}
	case TypeAPIKey:
		if c.Credentials.APIKey == "" {
			problems = append(problems, msgAPIKeyRequired)
		}
	case TypeOAuth2:
		if c.Credentials.AccessToken == "" {
			problems = append(problems, msgAccessTokenRequired)
		}
	default:
		problems = append(problems, "Unsupported auth type: "+string(c.Type))
	}

	return problems
}

// BearerConfig creates a bearer token auth config.
func BearerConfig(token string) Config {
	return Config{Type: TypeBearer, Credentials: Credentials{Token: token}}
}

// APIKeyConfig creates an API key auth config.
func APIKeyConfig(key string) Config {
	return Config{Type: TypeAPIKey, Credentials: Credentials{APIKey: key}}
}

// OAuth2Config creates an OAuth2 auth config.
func OAuth2Config(accessToken, refreshToken string) Config {
	return Config{Type: TypeOAuth2, Credentials: Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}}
}

package cloudgov

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultAPIURL is the production cloud.gov API endpoint
const DefaultAPIURL = "https://api.fr.cloud.gov"

// ConnectionConfig holds the cloud.gov connection values. It is resolved
// once by ResolveConnectionConfig and then handed to the client as an
// immutable value; missing fields are not an error here, they surface
// when an operation is attempted.
type ConnectionConfig struct {
	APIURL    string `env:"CLOUDGOV_API_URL" env-default:"https://api.fr.cloud.gov"`
	APIKey    string `env:"CLOUDGOV_API_KEY"`
	APISecret string `env:"CLOUDGOV_API_SECRET"`
	Org       string `env:"CLOUDGOV_ORG"`
	Space     string `env:"CLOUDGOV_SPACE"`
}

// ConnectionOption overrides a single resolved connection value
type ConnectionOption func(*ConnectionConfig)

// WithAPIURL overrides the API URL
func WithAPIURL(apiURL string) ConnectionOption {
	return func(c *ConnectionConfig) { c.APIURL = apiURL }
}

// WithAPIKey overrides the API key
func WithAPIKey(apiKey string) ConnectionOption {
	return func(c *ConnectionConfig) { c.APIKey = apiKey }
}

// WithAPISecret overrides the API secret
func WithAPISecret(apiSecret string) ConnectionOption {
	return func(c *ConnectionConfig) { c.APISecret = apiSecret }
}

// WithOrg overrides the organization name
func WithOrg(org string) ConnectionOption {
	return func(c *ConnectionConfig) { c.Org = org }
}

// WithSpace overrides the space name
func WithSpace(space string) ConnectionOption {
	return func(c *ConnectionConfig) { c.Space = space }
}

// ResolveConnectionConfig reads the CLOUDGOV_* environment variables once
// and applies explicit overrides on top. No validation happens here:
// absent credentials cause Authenticate to fail, not construction.
func ResolveConnectionConfig(opts ...ConnectionOption) ConnectionConfig {
	var cfg ConnectionConfig
	// Environment read errors leave the zero values in place, which is
	// the documented fallback behavior.
	_ = cleanenv.ReadEnv(&cfg)

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	return cfg
}

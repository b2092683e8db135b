package portal

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/logout"
	"github.com/cmmoran/gatecp/internal/spec"
)

type Config struct {
	Host string
	Port int

	Production bool
	// KeycloakURL is the browser-facing identity provider URL. It also
	// forms the expected token issuer.
	KeycloakURL string
	// KeycloakInternalURL serves the token and JWKS endpoints. Defaults to KeycloakURL.
	KeycloakInternalURL string
	Realm               string
	ClientID            string
	ClientSecret        string
	PortalURL           string
	// RedirectURI defaults to PortalURL + /auth/callback.
	RedirectURI  string
	CookieDomain string

	HTTPConnectTimeout time.Duration
	HTTPRequestTimeout time.Duration
	JWKSCacheTTL       time.Duration

	ProbeConnectTimeout time.Duration
	ProbeRequestTimeout time.Duration
	// TraefikInternalURL routes probes through the internal proxy.
	TraefikInternalURL string
}

func DefaultConfig() *Config {
	return &Config{
		Host:                "0.0.0.0",
		Port:                8080,
		ClientID:            spec.DefaultFrontendClientID,
		HTTPConnectTimeout:  10 * time.Second,
		HTTPRequestTimeout:  30 * time.Second,
		JWKSCacheTTL:        time.Hour,
		ProbeConnectTimeout: logout.DefaultConnectTimeout,
		ProbeRequestTimeout: logout.DefaultRequestTimeout,
	}
}

// LoadConfig reads the environment, after seeding it from envFile when one
// is given. A missing env file is not an error.
func LoadConfig(envFile string, getenv func(string) string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := DefaultConfig()
	if err := loadFromEnv(cfg, getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("SERVER_HOST"); v != "" {
		cfg.Host = v
	}
	if v := getenv("SERVER_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Port = n
	}
	switch strings.ToLower(getenv("ENVIRONMENT")) {
	case "production", "prod":
		cfg.Production = true
	}
	cfg.KeycloakURL = strings.TrimRight(getenv("KEYCLOAK_URL"), "/")
	cfg.KeycloakInternalURL = strings.TrimRight(getenv("KEYCLOAK_INTERNAL_URL"), "/")
	cfg.Realm = getenv("KEYCLOAK_REALM")
	if v := getenv("CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	cfg.ClientSecret = getenv("CLIENT_SECRET")
	cfg.PortalURL = strings.TrimRight(getenv("PORTAL_PUBLIC_URL"), "/")
	cfg.RedirectURI = getenv("REDIRECT_URI")
	cfg.CookieDomain = getenv("COOKIE_DOMAIN")
	cfg.TraefikInternalURL = strings.TrimRight(getenv("TRAEFIK_INTERNAL_URL"), "/")

	var err error
	if cfg.HTTPConnectTimeout, err = seconds(getenv, "HTTP_CONNECT_TIMEOUT_SECS", cfg.HTTPConnectTimeout); err != nil {
		return err
	}
	if cfg.HTTPRequestTimeout, err = seconds(getenv, "HTTP_REQUEST_TIMEOUT_SECS", cfg.HTTPRequestTimeout); err != nil {
		return err
	}
	if cfg.JWKSCacheTTL, err = seconds(getenv, "JWKS_CACHE_TTL_SECS", cfg.JWKSCacheTTL); err != nil {
		return err
	}
	if cfg.ProbeConnectTimeout, err = millis(getenv, "LOGOUT_PROBE_CONNECT_TIMEOUT_MS", cfg.ProbeConnectTimeout); err != nil {
		return err
	}
	if cfg.ProbeRequestTimeout, err = millis(getenv, "LOGOUT_PROBE_REQUEST_TIMEOUT_MS", cfg.ProbeRequestTimeout); err != nil {
		return err
	}
	return nil
}

func millis(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	return positive(getenv, key, def, time.Millisecond)
}

func seconds(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	return positive(getenv, key, def, time.Second)
}

func positive(getenv func(string) string, key string, def, unit time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", key, v)
	}
	return time.Duration(n) * unit, nil
}

// ApplyDescriptor fills endpoints the environment left unset.
func (c *Config) ApplyDescriptor(d *descriptor.Descriptor) {
	if c.KeycloakURL == "" {
		c.KeycloakURL = strings.TrimRight(d.Keycloak.PublicURL, "/")
	}
	if c.Realm == "" {
		c.Realm = d.Keycloak.Realm
	}
	if c.PortalURL == "" {
		c.PortalURL = strings.TrimRight(d.Portal.PublicURL, "/")
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.PortalURL == "" {
		errs = append(errs, errors.New("PORTAL_PUBLIC_URL is required"))
	}
	if c.KeycloakURL == "" {
		errs = append(errs, errors.New("KEYCLOAK_URL is required"))
	}
	if c.Realm == "" {
		errs = append(errs, errors.New("KEYCLOAK_REALM is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// IssuerURL is the iss claim tokens for this realm carry.
func (c *Config) IssuerURL() string { return c.KeycloakURL + "/realms/" + c.Realm }

func (c *Config) realmInternalURL() string {
	base := c.KeycloakInternalURL
	if base == "" {
		base = c.KeycloakURL
	}
	return base + "/realms/" + c.Realm
}

func (c *Config) JWKSURL() string { return c.realmInternalURL() + "/protocol/openid-connect/certs" }

func (c *Config) TokenURL() string { return c.realmInternalURL() + "/protocol/openid-connect/token" }

func (c *Config) AuthURL() string { return c.IssuerURL() + "/protocol/openid-connect/auth" }

func (c *Config) CallbackURL() string {
	if c.RedirectURI != "" {
		return c.RedirectURI
	}
	return c.PortalURL + "/auth/callback"
}

func (c *Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// SkipProbes is true in production without an internal proxy URL. Probes
// there may only target the proxy, never a descriptor URL directly.
func (c *Config) SkipProbes() bool { return c.Production && c.TraefikInternalURL == "" }

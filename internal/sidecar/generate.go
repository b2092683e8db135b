package sidecar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cmmoran/gatecp/internal/authz"
	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
)

const (
	EnvPrefix = "OAUTH2_PROXY_"
	Port      = 4180
	provider  = "keycloak-oidc"
)

// ServiceName is the container/DNS name of the sidecar fronting serviceID.
func ServiceName(serviceID string) string { return serviceID + "-oauth2-proxy" }

// Upstream is where the router sends traffic for a protected service.
func Upstream(serviceID string) spec.Upstream {
	return spec.Upstream{Address: ServiceName(serviceID), Port: Port}
}

// CookieName is unique per service so sidecars never read each other's session.
func CookieName(serviceID string) string { return "_oauth2_proxy_" + serviceID }

// Environment is the ordered setting list for one sidecar.
type Environment struct {
	ServiceID string
	Settings  []specnorm.KV
}

func (e Environment) Get(key string) (string, bool) { return specnorm.Lookup(e.Settings, key) }

func (e Environment) Lines() []string { return specnorm.Lines(e.Settings) }

// Generate emits one environment per policy, in policy order.
func Generate(gc spec.GenContext, policies []authz.Policy) ([]Environment, error) {
	out := make([]Environment, 0, len(policies))
	for _, p := range policies {
		env, err := build(gc, p)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

type settings []specnorm.KV

func (s *settings) set(key, value string) {
	*s = append(*s, specnorm.KV{Key: EnvPrefix + key, Value: value})
}

func build(gc spec.GenContext, p authz.Policy) (Environment, error) {
	id := p.ServiceID
	clientSecret := gc.Secrets.ClientSecrets[id]
	if clientSecret == "" {
		return Environment{}, fmt.Errorf("sidecar %q: %w (client secret)", id, spec.ErrMissingSecret)
	}
	cookieSecret := gc.Secrets.CookieSecrets[id]
	if cookieSecret == "" {
		return Environment{}, fmt.Errorf("sidecar %q: %w (cookie secret)", id, spec.ErrMissingSecret)
	}
	upstream, ok := gc.Upstreams[id]
	if !ok || upstream.IsZero() {
		return Environment{}, fmt.Errorf("sidecar %q: no application upstream", id)
	}

	st := gc.Settings
	var s settings
	s.set("PROVIDER", provider)
	if st.IssuerMode == spec.IssuerInternal {
		// Discovery runs against the in-cluster address, whose issuer claim
		// differs from the public one; the browser still logs in publicly.
		s.set("OIDC_ISSUER_URL", gc.InternalIssuerURL())
		s.set("INSECURE_OIDC_SKIP_ISSUER_VERIFICATION", "true")
		s.set("LOGIN_URL", gc.PublicIssuerURL()+"/protocol/openid-connect/auth")
	} else {
		s.set("OIDC_ISSUER_URL", gc.PublicIssuerURL())
	}
	s.set("CLIENT_ID", id)
	s.set("CLIENT_SECRET", clientSecret)
	s.set("COOKIE_NAME", CookieName(id))
	s.set("COOKIE_SECRET", cookieSecret)
	if st.CookieDomain != "" {
		s.set("COOKIE_DOMAINS", st.CookieDomain)
	}
	s.set("COOKIE_SECURE", strconv.FormatBool(st.TLS))
	s.set("COOKIE_SAMESITE", "lax")
	s.set("ALLOWED_GROUPS", strings.Join(p.RequiredRoles, ","))
	s.set("OIDC_GROUPS_CLAIM", "groups")
	s.set("EMAIL_DOMAINS", "*")
	s.set("UPSTREAMS", upstream.URL())
	s.set("REDIRECT_URL", gc.PublicURL(p.Host)+"/oauth2/callback")
	s.set("WHITELIST_DOMAINS", gc.FQDN(st.FrontendHost))
	s.set("HTTP_ADDRESS", "0.0.0.0:"+strconv.Itoa(Port))
	s.set("REVERSE_PROXY", "true")
	s.set("SKIP_PROVIDER_BUTTON", "true")

	return Environment{ServiceID: id, Settings: s}, nil
}

package routing

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
	"github.com/cmmoran/gatecp/internal/validate"
)

const (
	RouterFrontend = "core-frontend"
	RouterIdentity = "core-identity"

	MiddlewareRateLimit       = "rate-limit"
	MiddlewareHeaders         = "security-headers"
	MiddlewareIdentityHeaders = "security-headers-identity"

	EntryPointWeb       = "web"
	EntryPointWebSecure = "websecure"
)

func RouterName(host string) string  { return "host-" + host }
func ServiceName(host string) string { return "svc-" + host }

// Generate builds the routing document. Hosts are checked first; any invalid,
// reserved or shared host aborts with one aggregate error and nothing is built.
// The result does not depend on the order of routes.
func Generate(gc spec.GenContext, cfg *spec.ResolvedDeployment, routes []RouteRequest) (*Config, error) {
	refs := make([]validate.HostRef, 0, len(routes))
	for i, r := range routes {
		owner := r.Host
		if id, ok := cfg.ServiceByHost(r.Host); ok {
			owner = id
		}
		refs = append(refs, validate.HostRef{Owner: owner, Host: r.Host, Path: fmt.Sprintf("routes[%d].host", i)})
	}
	if errs := validate.CheckHosts(refs, gc.Settings.ReservedHosts()); len(errs) > 0 {
		return nil, fmt.Errorf("routing: %w", errs)
	}

	sorted := slices.Clone(routes)
	specnorm.SortBy(sorted, func(r RouteRequest) string { return r.Host })

	out := &Config{HTTP: HTTP{
		Routers:  map[string]Router{},
		Services: map[string]Service{},
	}}
	s := gc.Settings

	out.add(RouterFrontend, router(gc, s.FrontendHost, RouterFrontend, MiddlewareHeaders), s.FrontendUpstream)
	out.add(RouterIdentity, router(gc, s.IdentityHost, RouterIdentity, MiddlewareIdentityHeaders), s.IdentityUpstream)
	for _, r := range sorted {
		if r.Upstream.IsZero() {
			return nil, fmt.Errorf("routing: host %q has no upstream", r.Host)
		}
		out.addNamed(RouterName(r.Host), ServiceName(r.Host), router(gc, r.Host, ServiceName(r.Host), MiddlewareHeaders), r.Upstream)
	}

	if s.Hardening {
		out.HTTP.Middlewares = hardeningMiddlewares()
	}
	return out, nil
}

func router(gc spec.GenContext, host, service, headers string) Router {
	r := Router{
		Rule:        fmt.Sprintf("Host(`%s`)", gc.FQDN(host)),
		EntryPoints: []string{EntryPointWeb},
		Service:     service,
	}
	if gc.Settings.Hardening {
		r.Middlewares = []string{MiddlewareRateLimit, headers}
	}
	if gc.Settings.TLS {
		r.EntryPoints = []string{EntryPointWebSecure}
		r.TLS = &RouterTLS{CertResolver: gc.Settings.CertResolver}
	}
	return r
}

func (c *Config) add(name string, r Router, up spec.Upstream) {
	c.addNamed(name, name, r, up)
}

func (c *Config) addNamed(routerName, serviceName string, r Router, up spec.Upstream) {
	c.HTTP.Routers[routerName] = r
	c.HTTP.Services[serviceName] = Service{LoadBalancer: LoadBalancer{
		Servers:        []Server{{URL: up.URL()}},
		PassHostHeader: true,
	}}
}

func hardeningMiddlewares() map[string]Middleware {
	return map[string]Middleware{
		MiddlewareRateLimit: {RateLimit: &RateLimit{Average: 100, Burst: 50, Period: "1s"}},
		MiddlewareHeaders: {Headers: &Headers{
			FrameDeny:             true,
			ContentTypeNosniff:    true,
			BrowserXSSFilter:      true,
			ReferrerPolicy:        "strict-origin-when-cross-origin",
			STSSeconds:            31536000,
			STSIncludeSubdomains:  true,
			STSPreload:            true,
			ContentSecurityPolicy: strictCSP,
		}},
		// the identity provider's login pages need inline script and style
		MiddlewareIdentityHeaders: {Headers: &Headers{
			CustomFrameOptionsValue: "SAMEORIGIN",
			ContentTypeNosniff:      true,
			BrowserXSSFilter:        true,
			ReferrerPolicy:          "strict-origin-when-cross-origin",
			STSSeconds:              31536000,
			STSIncludeSubdomains:    true,
			ContentSecurityPolicy:   identityCSP,
		}},
	}
}

var (
	strictCSP = strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self'",
		"img-src 'self' data:",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")
	identityCSP = strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"frame-ancestors 'self'",
		"base-uri 'self'",
	}, "; ")
)

// Marshal renders c as YAML. Map keys are emitted sorted.
func Marshal(c *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package routing

import "github.com/cmmoran/gatecp/internal/spec"

// RouteRequest asks for host to be served from upstream.
type RouteRequest struct {
	Host     string
	Upstream spec.Upstream
}

// Config is a Traefik file-provider dynamic configuration.
type Config struct {
	HTTP HTTP `yaml:"http"`
}

type HTTP struct {
	Routers     map[string]Router     `yaml:"routers"`
	Services    map[string]Service    `yaml:"services"`
	Middlewares map[string]Middleware `yaml:"middlewares,omitempty"`
}

type Router struct {
	Rule        string     `yaml:"rule"`
	EntryPoints []string   `yaml:"entryPoints"`
	Service     string     `yaml:"service"`
	Middlewares []string   `yaml:"middlewares,omitempty"`
	TLS         *RouterTLS `yaml:"tls,omitempty"`
}

type RouterTLS struct {
	CertResolver string `yaml:"certResolver"`
}

type Service struct {
	LoadBalancer LoadBalancer `yaml:"loadBalancer"`
}

type LoadBalancer struct {
	Servers        []Server `yaml:"servers"`
	PassHostHeader bool     `yaml:"passHostHeader"`
}

type Server struct {
	URL string `yaml:"url"`
}

type Middleware struct {
	RateLimit *RateLimit `yaml:"rateLimit,omitempty"`
	Headers   *Headers   `yaml:"headers,omitempty"`
}

type RateLimit struct {
	Average int    `yaml:"average"`
	Burst   int    `yaml:"burst"`
	Period  string `yaml:"period,omitempty"`
}

type Headers struct {
	FrameDeny               bool   `yaml:"frameDeny,omitempty"`
	CustomFrameOptionsValue string `yaml:"customFrameOptionsValue,omitempty"`
	ContentTypeNosniff      bool   `yaml:"contentTypeNosniff"`
	BrowserXSSFilter        bool   `yaml:"browserXssFilter"`
	ReferrerPolicy          string `yaml:"referrerPolicy,omitempty"`
	STSSeconds              int    `yaml:"stsSeconds,omitempty"`
	STSIncludeSubdomains    bool   `yaml:"stsIncludeSubdomains,omitempty"`
	STSPreload              bool   `yaml:"stsPreload,omitempty"`
	ContentSecurityPolicy   string `yaml:"contentSecurityPolicy,omitempty"`
}

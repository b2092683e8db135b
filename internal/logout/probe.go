package logout

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"
)

type ProbeResult int

const (
	Reachable ProbeResult = iota
	// NoMatchingRoute means the internal proxy answered 404 for the host.
	NoMatchingRoute
	NetworkError
	InvalidURL
)

func (r ProbeResult) String() string {
	switch r {
	case Reachable:
		return "reachable"
	case NoMatchingRoute:
		return "no_matching_route"
	case NetworkError:
		return "network_error"
	case InvalidURL:
		return "invalid_url"
	}
	return "unknown"
}

func (r ProbeResult) Reachable() bool { return r == Reachable }

// Prober checks whether a service base URL answers at all.
type Prober interface {
	Probe(ctx context.Context, serviceURL string) ProbeResult
}

const (
	DefaultConnectTimeout = 300 * time.Millisecond
	DefaultRequestTimeout = 750 * time.Millisecond
)

// HTTPProber sends a HEAD to the service base URL, never its sign-out
// endpoint. With a proxy URL set, the request goes to the proxy with the
// service host in the Host header.
type HTTPProber struct {
	client   *http.Client
	proxyURL string
}

func NewHTTPProber(connectTimeout, requestTimeout time.Duration, proxyURL string) *HTTPProber {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &HTTPProber{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: requestTimeout,
				DisableKeepAlives:   true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		proxyURL: proxyURL,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, serviceURL string) ProbeResult {
	u, err := url.Parse(serviceURL)
	if err != nil || u.Hostname() == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return InvalidURL
	}
	target := serviceURL
	if p.proxyURL != "" {
		target = p.proxyURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return InvalidURL
	}
	if p.proxyURL != "" {
		req.Host = u.Hostname()
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return NetworkError
	}
	_ = resp.Body.Close()
	if p.proxyURL != "" && resp.StatusCode == http.StatusNotFound {
		return NoMatchingRoute
	}
	return Reachable
}

package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/cmmoran/gatecp/internal/logging"
)

const (
	tokenLeeway  = 5 * time.Second
	maxJWKSBytes = 1 << 20
)

var (
	ErrNoSession  = errors.New("no session token")
	ErrUnknownKey = errors.New("unknown signing key")
)

// Claims are the access token claims the portal reads.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string       `json:"preferred_username,omitempty"`
	Email             string       `json:"email,omitempty"`
	RealmAccess       *RealmAccess `json:"realm_access,omitempty"`
}

type RealmAccess struct {
	Roles []string `json:"roles"`
}

func (c *Claims) Roles() []string {
	if c.RealmAccess == nil {
		return nil
	}
	return c.RealmAccess.Roles
}

// Verifier checks RS256 access tokens against the realm's JWKS. Keys are
// cached for ttl and a kid missing from the cache forces one refresh.
type Verifier struct {
	jwksURL string
	ttl     time.Duration
	client  *http.Client
	parser  *jwt.Parser
	log     *log.Entry

	mu      sync.RWMutex
	keys    jose.JSONWebKeySet
	fetched time.Time
	refresh singleflight.Group
}

func NewVerifier(jwksURL, issuer, audience string, ttl time.Duration, client *http.Client) *Verifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Verifier{
		jwksURL: jwksURL,
		ttl:     ttl,
		client:  client,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(tokenLeeway),
		),
		log: logging.For("portal.session"),
	}
}

func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		return v.key(ctx, kid)
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Cached reports whether a key set has been fetched.
func (v *Verifier) Cached() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return !v.fetched.IsZero()
}

func (v *Verifier) key(ctx context.Context, kid string) (any, error) {
	if k, ok := v.lookup(kid, true); ok {
		return k, nil
	}
	if err := v.fetch(ctx); err != nil {
		return nil, err
	}
	if k, ok := v.lookup(kid, false); ok {
		return k, nil
	}
	v.log.WithFields(log.Fields{"event": "jwks_unknown_kid", "kid": kid}).Warn("kid not in key set after refresh")
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
}

func (v *Verifier) lookup(kid string, fresh bool) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if fresh && (v.fetched.IsZero() || time.Since(v.fetched) >= v.ttl) {
		return nil, false
	}
	for _, k := range v.keys.Key(kid) {
		if k.Use == "" || k.Use == "sig" {
			return k.Key, true
		}
	}
	return nil, false
}

func (v *Verifier) fetch(ctx context.Context) error {
	_, err, _ := v.refresh.Do("jwks", func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := v.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
		}
		var set jose.JSONWebKeySet
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBytes)).Decode(&set); err != nil {
			return nil, fmt.Errorf("decode jwks: %w", err)
		}

		v.mu.Lock()
		v.keys = set
		v.fetched = time.Now()
		v.mu.Unlock()
		v.log.WithFields(log.Fields{"event": "jwks_refreshed", "keys": len(set.Keys)}).Debug("refreshed jwks")
		return nil, nil
	})
	return err
}

// sessionToken prefers the access_token cookie, then a bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(CookieAccessToken); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

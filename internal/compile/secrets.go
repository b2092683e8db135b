package compile

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/cmmoran/gatecp/internal/authz"
	"github.com/cmmoran/gatecp/internal/logging"
	"github.com/cmmoran/gatecp/internal/realm"
	"github.com/cmmoran/gatecp/internal/render"
	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/store"
)

const (
	DefaultClientSecretPath = "secret/{{ .Environment }}/clients/{{ .ClientID }}#secret"
	DefaultCookieSecretPath = "secret/{{ .Environment }}/cookies/{{ .ServiceID }}#secret"

	// SecretRefPrefix marks a user password that lives in the secret store.
	SecretRefPrefix = "secret:"
)

type SecretKind string

const (
	KindClientSecret SecretKind = "client-secret"
	KindCookieSecret SecretKind = "cookie-secret"
	KindPassword     SecretKind = "password"
)

// SecretRef is one piece of material a compile needs. Path is empty for a
// literal password, which is carried in Literal instead.
type SecretRef struct {
	Kind    SecretKind
	Owner   string
	Path    string
	Literal string
}

// Generated reports whether Seed may create the value.
func (r SecretRef) Generated() bool { return r.Kind != KindPassword }

type pathData struct {
	Environment  string
	DeploymentID string
	Realm        string
	ClientID     string
	ServiceID    string
}

// SecretRefs lists every secret the declaration needs: one client secret for
// the portal and one per policy, one cookie secret per policy, one password
// per user.
func SecretRefs(engine *render.Engine, d *spec.Declaration, cfg *spec.ResolvedDeployment, policies []authz.Policy) ([]SecretRef, error) {
	s := d.Stack.WithDefaults()
	clientTpl := orDefault(d.Secrets.ClientSecretPath, DefaultClientSecretPath)
	cookieTpl := orDefault(d.Secrets.CookieSecretPath, DefaultCookieSecretPath)
	base := pathData{Environment: s.Environment, DeploymentID: s.DeploymentID, Realm: s.Realm}

	var refs []SecretRef
	addClient := func(clientID string) error {
		data := base
		data.ClientID, data.ServiceID = clientID, clientID
		p, err := engine.RenderString("client-secret-path", clientTpl, data)
		if err != nil {
			return fmt.Errorf("client secret path for %q: %w", clientID, err)
		}
		refs = append(refs, SecretRef{Kind: KindClientSecret, Owner: clientID, Path: p})
		return nil
	}

	if err := addClient(s.FrontendClientID); err != nil {
		return nil, err
	}
	for _, p := range policies {
		if err := addClient(p.ServiceID); err != nil {
			return nil, err
		}
		data := base
		data.ClientID, data.ServiceID = p.ServiceID, p.ServiceID
		path, err := engine.RenderString("cookie-secret-path", cookieTpl, data)
		if err != nil {
			return nil, fmt.Errorf("cookie secret path for %q: %w", p.ServiceID, err)
		}
		refs = append(refs, SecretRef{Kind: KindCookieSecret, Owner: p.ServiceID, Path: path})
	}
	for _, u := range cfg.Users {
		if ref, ok := strings.CutPrefix(u.Password, SecretRefPrefix); ok {
			refs = append(refs, SecretRef{Kind: KindPassword, Owner: u.Username, Path: strings.TrimSpace(ref)})
			continue
		}
		refs = append(refs, SecretRef{Kind: KindPassword, Owner: u.Username, Literal: u.Password})
	}
	return refs, nil
}

// GatherSecrets resolves refs through the store. Every missing value is
// reported, not only the first.
func GatherSecrets(ctx context.Context, st store.Client, realmName string, refs []SecretRef) (spec.Secrets, error) {
	out := spec.Secrets{
		ClientSecrets: map[string]string{},
		CookieSecrets: map[string]string{},
		Credentials:   map[string]spec.Credential{},
	}
	var errs []error
	for _, ref := range refs {
		value := ref.Literal
		if ref.Path != "" {
			b, err := st.ResolveSecret(ctx, ref.Path)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %q (%s): %w", ref.Kind, ref.Owner, ref.Path, err))
				continue
			}
			value = string(b)
		}
		switch ref.Kind {
		case KindClientSecret:
			out.ClientSecrets[ref.Owner] = value
		case KindCookieSecret:
			out.CookieSecrets[ref.Owner] = value
		case KindPassword:
			out.Credentials[ref.Owner] = realm.HashPasswordWithSalt(value, realm.StableSalt(realmName, ref.Owner), realm.HashIterations)
		}
	}
	if len(errs) > 0 {
		return spec.Secrets{}, errors.Join(errs...)
	}
	return out, nil
}

// Seed creates every generated secret the store does not hold yet and returns
// the refs it wrote. Existing values are never replaced.
func Seed(ctx context.Context, st store.Client, refs []SecretRef) ([]SecretRef, error) {
	lg := logging.For("compile")
	var created []SecretRef
	for _, ref := range refs {
		if !ref.Generated() {
			continue
		}
		_, err := st.ResolveSecret(ctx, ref.Path)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrSecretNotFound) {
			return created, fmt.Errorf("%s %q: %w", ref.Kind, ref.Owner, err)
		}
		value, err := newSecret(ref.Kind)
		if err != nil {
			return created, err
		}
		if err := st.PutSecret(ctx, ref.Path, value); err != nil {
			return created, fmt.Errorf("%s %q: %w", ref.Kind, ref.Owner, err)
		}
		lg.WithFields(log.Fields{"event": "secret_seeded", "kind": ref.Kind, "owner": ref.Owner, "path": ref.Path}).Info("seeded secret")
		created = append(created, ref)
	}
	return created, nil
}

// newSecret returns random material. Cookie secrets are 32 hex characters,
// the raw length oauth2-proxy accepts for AES-256.
func newSecret(kind SecretKind) ([]byte, error) {
	n := 32
	if kind == KindCookieSecret {
		n = 16
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	if kind == KindCookieSecret {
		return []byte(hex.EncodeToString(b)), nil
	}
	return []byte(base64.RawURLEncoding.EncodeToString(b)), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

package spec

import "strings"

const (
	DefaultEnvironment      = "dev"
	DefaultBaseDomain       = "localhost"
	DefaultFrontendHost     = "portal"
	DefaultIdentityHost     = "keycloak"
	DefaultFrontendClientID = "portal"
	DefaultCertResolver     = "letsencrypt"
	DefaultUsersEnvironment = "dev"
	DefaultIdentityInternal = "http://keycloak:8080"
)

// WithDefaults returns a copy of s with every unset field filled in.
func (s StackSettings) WithDefaults() StackSettings {
	out := s
	out.Environment = ifThen(s.Environment != "", s.Environment, DefaultEnvironment)
	out.DeploymentID = ifThen(s.DeploymentID != "", s.DeploymentID, out.Environment)
	out.BaseDomain = ifThen(s.BaseDomain != "", s.BaseDomain, DefaultBaseDomain)
	out.CertResolver = ifThen(s.CertResolver != "", s.CertResolver, DefaultCertResolver)
	out.Realm = ifThen(s.Realm != "", s.Realm, out.Environment)
	out.FrontendHost = ifThen(s.FrontendHost != "", s.FrontendHost, DefaultFrontendHost)
	out.IdentityHost = ifThen(s.IdentityHost != "", s.IdentityHost, DefaultIdentityHost)
	out.FrontendClientID = ifThen(s.FrontendClientID != "", s.FrontendClientID, DefaultFrontendClientID)
	out.UsersEnvironment = ifThen(s.UsersEnvironment != "", s.UsersEnvironment, DefaultUsersEnvironment)
	out.IssuerMode = ifThen(s.IssuerMode != "", s.IssuerMode, IssuerPublic)
	out.IdentityInternalURL = ifThen(s.IdentityInternalURL != "", strings.TrimRight(s.IdentityInternalURL, "/"), DefaultIdentityInternal)
	out.FrontendUpstream = ifThen(!s.FrontendUpstream.IsZero(), s.FrontendUpstream, Upstream{Address: out.FrontendHost, Port: 8080})
	out.IdentityUpstream = ifThen(!s.IdentityUpstream.IsZero(), s.IdentityUpstream, Upstream{Address: out.IdentityHost, Port: 8080})
	return out
}

// ReservedHosts are hostnames no declared service may claim.
func (s StackSettings) ReservedHosts() []string {
	d := s.WithDefaults()
	return []string{d.FrontendHost, d.IdentityHost}
}

// DeploymentInfo records what was deployed and when. All fields are optional.
type DeploymentInfo struct {
	CommitSHA  string `json:"commitSha,omitempty"`
	CommitAt   string `json:"commitAt,omitempty"`
	DeployedAt string `json:"deployedAt,omitempty"`
}

// Credential is a pre-hashed password in the identity provider's storage format.
type Credential struct {
	Algorithm  string
	Iterations int
	Hash       string // base64
	Salt       string // base64
}

// Secrets carries the externally supplied secret material for one compile run.
type Secrets struct {
	ClientSecrets map[string]string     // client id -> secret
	CookieSecrets map[string]string     // service id -> cookie secret
	Credentials   map[string]Credential // username -> hashed password
}

// GenContext is the explicit, read-only context every generator receives.
// Nothing in a generator looks up process-wide configuration.
type GenContext struct {
	Settings   StackSettings
	Upstreams  map[string]Upstream // service id -> application upstream
	RoleDescs  map[string]string
	Secrets    Secrets
	Deployment *DeploymentInfo
}

// NewGenContext applies stack defaults once so generators never have to.
func NewGenContext(s StackSettings, upstreams map[string]Upstream, roleDescs map[string]string, secrets Secrets, dep *DeploymentInfo) GenContext {
	return GenContext{
		Settings:   s.WithDefaults(),
		Upstreams:  upstreams,
		RoleDescs:  roleDescs,
		Secrets:    secrets,
		Deployment: dep,
	}
}

func (c GenContext) Scheme() string { return ifThen(c.Settings.TLS, "https", "http") }

// FQDN joins a host label with the base domain.
func (c GenContext) FQDN(host string) string { return host + "." + c.Settings.BaseDomain }

func (c GenContext) PublicURL(host string) string { return c.Scheme() + "://" + c.FQDN(host) }

func (c GenContext) FrontendURL() string { return c.PublicURL(c.Settings.FrontendHost) }

func (c GenContext) IdentityURL() string { return c.PublicURL(c.Settings.IdentityHost) }

// PublicIssuerURL is the issuer claim the identity provider advertises.
func (c GenContext) PublicIssuerURL() string {
	return c.IdentityURL() + "/realms/" + c.Settings.Realm
}

// InternalIssuerURL is the in-cluster address of the same realm.
func (c GenContext) InternalIssuerURL() string {
	return c.Settings.IdentityInternalURL + "/realms/" + c.Settings.Realm
}

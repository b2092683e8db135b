package spec

import (
	"fmt"
	"strconv"
	"strings"
)

type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendBao    Backend = "bao"
	BackendVault  Backend = "vault"
	BackendDotenv Backend = "dotenv"
)

// AuthType says who enforces access to a service.
type AuthType string

const (
	AuthNone  AuthType = "none"
	AuthProxy AuthType = "proxy-auth"
	AuthUI    AuthType = "ui-auth"
)

func (a AuthType) Valid() bool {
	switch a {
	case AuthNone, AuthProxy, AuthUI:
		return true
	}
	return false
}

// RequiresRoles reports whether entries of this type must carry a non-empty role set.
func (a AuthType) RequiresRoles() bool { return a == AuthProxy || a == AuthUI }

type IssuerMode string

const (
	IssuerInternal IssuerMode = "internal"
	IssuerPublic   IssuerMode = "public"
)

// Declaration is the on-disk deployment document (stack.yaml).
type Declaration struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`

	Stack            StackSettings         `yaml:"stack"`
	Roles            []string              `yaml:"roles,omitempty"`
	RoleDescriptions map[string]string     `yaml:"roleDescriptions,omitempty"`
	Users            []RawUser             `yaml:"users,omitempty"`
	Services         map[string]RawService `yaml:"services"`
	Secrets          SecretsSpec           `yaml:"secrets,omitempty"`

	Dir string `yaml:"-"`
}

type Metadata struct {
	Name string `yaml:"name"`
}

// RolesExplicit reports whether the document declares a role allow-list.
// An empty `roles: []` still counts as explicit.
func (d *Declaration) RolesExplicit() bool { return d.Roles != nil }

type StackSettings struct {
	Environment      string     `yaml:"environment"`
	DeploymentID     string     `yaml:"deploymentId,omitempty"`
	BaseDomain       string     `yaml:"baseDomain"`
	TLS              bool       `yaml:"tls"`
	Hardening        bool       `yaml:"hardening"`
	CertResolver     string     `yaml:"certResolver,omitempty"`
	Realm            string     `yaml:"realm,omitempty"`
	FrontendHost     string     `yaml:"frontendHost,omitempty"`
	IdentityHost     string     `yaml:"identityHost,omitempty"`
	FrontendClientID string     `yaml:"frontendClientId,omitempty"`
	UsersEnvironment string     `yaml:"usersEnvironment,omitempty"`
	CookieDomain     string     `yaml:"cookieDomain,omitempty"`
	IssuerMode       IssuerMode `yaml:"issuerMode,omitempty"`
	// IdentityInternalURL is how sidecars reach the identity provider before
	// public DNS/TLS can be trusted, e.g. http://keycloak:8080.
	IdentityInternalURL string   `yaml:"identityInternalUrl,omitempty"`
	FrontendUpstream    Upstream `yaml:"frontendUpstream,omitempty"`
	IdentityUpstream    Upstream `yaml:"identityUpstream,omitempty"`
}

type SecretsSpec struct {
	Provider SecretsProviderSpec `yaml:"provider,omitempty"`
	// Path templates, rendered per client/service. See compile.GatherSecrets.
	ClientSecretPath string `yaml:"clientSecretPath,omitempty"`
	CookieSecretPath string `yaml:"cookieSecretPath,omitempty"`
}

type SecretsProviderSpec struct {
	Backend             Backend `yaml:"backend,omitempty"`
	Addr                string  `yaml:"addr,omitempty"`
	Namespace           string  `yaml:"namespace,omitempty"`
	RoleIDPath          string  `yaml:"roleIdPath,omitempty"`
	WrappedSecretIDPath string  `yaml:"wrappedSecretIdPath,omitempty"`
	File                string  `yaml:"file,omitempty"`
}

type RawService struct {
	DisplayName   string   `yaml:"displayName,omitempty"`
	Host          string   `yaml:"host,omitempty"`
	RequiredRoles Roles    `yaml:"requiredRoles,omitempty"`
	AuthType      AuthType `yaml:"authType,omitempty"`
	Group         string   `yaml:"group,omitempty"`
	Icon          string   `yaml:"icon,omitempty"`
	Description   string   `yaml:"description,omitempty"`
}

type RawUser struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Email     string `yaml:"email,omitempty"`
	FirstName string `yaml:"firstName,omitempty"`
	LastName  string `yaml:"lastName,omitempty"`
	Roles     Roles  `yaml:"roles"`
}

// Upstream is an in-cluster address traffic is forwarded to.
type Upstream struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

func (u Upstream) IsZero() bool { return u.Address == "" }

func (u Upstream) URL() string {
	if u.Port == 0 {
		return "http://" + u.Address
	}
	return "http://" + u.Address + ":" + strconv.Itoa(u.Port)
}

// Catalog lists the services the platform knows how to deploy (catalog.yaml).
type Catalog struct {
	Services map[string]CatalogEntry `yaml:"services"`
}

type CatalogEntry struct {
	Upstream Upstream `yaml:"upstream"`
}

func (c *Catalog) Has(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Services[id]
	return ok
}

// ResolvedService is a fully-defaulted service. AuthType is AuthNone iff RequiredRoles is empty.
type ResolvedService struct {
	ServiceID     string
	DisplayName   string
	Host          string
	AuthType      AuthType
	RequiredRoles []string
	Group         string
	Icon          string
	Description   string
}

type ResolvedUser struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Roles     []string
}

// ResolvedDeployment is immutable once built; generators only read it.
type ResolvedDeployment struct {
	Environment   string
	Roles         []string
	RolesExplicit bool
	Users         []ResolvedUser
	Services      []ResolvedService
}

func (r *ResolvedDeployment) Service(id string) (ResolvedService, bool) {
	for _, s := range r.Services {
		if s.ServiceID == id {
			return s, true
		}
	}
	return ResolvedService{}, false
}

// ServiceByHost returns the id of the service that owns host, if any.
func (r *ResolvedDeployment) ServiceByHost(host string) (string, bool) {
	for _, s := range r.Services {
		if s.Host == host {
			return s.ServiceID, true
		}
	}
	return "", false
}

func (s ResolvedService) String() string {
	return fmt.Sprintf("%s(%s, %s, [%s])", s.ServiceID, s.Host, s.AuthType, strings.Join(s.RequiredRoles, ","))
}

func ifThen[T any](cond bool, t, f T) T {
	if cond {
		return t
	}
	return f
}

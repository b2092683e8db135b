package realm

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cmmoran/gatecp/internal/authz"
	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
)

const (
	mapperAudience   = "oidc-audience-mapper"
	mapperRealmRoles = "oidc-usermodel-realm-role-mapper"
	groupsClaim      = "groups"
	rolesClaim       = "realm_access.roles"
)

var knownRoleDescriptions = map[string]string{
	"admin":  "Full administrative access to every service",
	"dev":    "Developer access to application services",
	"ops":    "Operations access to monitoring and infrastructure tools",
	"viewer": "Read-only access",
}

// Generate builds the realm import. Clients are sorted by client id; roles
// and users keep the resolved model's order.
func Generate(gc spec.GenContext, cfg *spec.ResolvedDeployment, policies []authz.Policy) (*Realm, error) {
	s := gc.Settings
	out := &Realm{
		Realm:       s.Realm,
		Enabled:     true,
		SSLRequired: "none",
		Roles:       Roles{Realm: []Role{}},
		Users:       []User{},
	}
	if s.TLS {
		out.SSLRequired = "external"
	}

	for _, name := range realmRoles(cfg.Roles, policies) {
		out.Roles.Realm = append(out.Roles.Realm, Role{Name: name, Description: describeRole(gc, name)})
	}

	ui, err := frontendClient(gc)
	if err != nil {
		return nil, err
	}
	out.Clients = append(out.Clients, ui)
	for _, p := range policies {
		c, err := sidecarClient(gc, p)
		if err != nil {
			return nil, err
		}
		out.Clients = append(out.Clients, c)
	}
	specnorm.SortBy(out.Clients, func(c Client) string { return c.ClientID })

	for _, u := range cfg.Users {
		user, err := buildUser(gc, u)
		if err != nil {
			return nil, err
		}
		out.Users = append(out.Users, user)
	}
	return out, nil
}

// realmRoles is the resolved role list followed by any policy role it lacks.
func realmRoles(resolved []string, policies []authz.Policy) []string {
	out := slices.Clone(resolved)
	for _, r := range authz.Roles(policies) {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

func describeRole(gc spec.GenContext, name string) string {
	if d := gc.RoleDescs[name]; d != "" {
		return d
	}
	if d := knownRoleDescriptions[name]; d != "" {
		return d
	}
	return fmt.Sprintf("Grants the %s role", name)
}

func clientSecret(gc spec.GenContext, clientID string) (string, error) {
	sec := gc.Secrets.ClientSecrets[clientID]
	if sec == "" {
		return "", fmt.Errorf("realm: client %q: %w (client secret)", clientID, spec.ErrMissingSecret)
	}
	return sec, nil
}

func frontendClient(gc spec.GenContext) (Client, error) {
	id := gc.Settings.FrontendClientID
	secret, err := clientSecret(gc, id)
	if err != nil {
		return Client{}, err
	}
	base := gc.FrontendURL()
	return Client{
		ClientID:                id,
		Name:                    "Portal",
		Enabled:                 true,
		Protocol:                "openid-connect",
		ClientAuthenticatorType: "client-secret",
		Secret:                  secret,
		StandardFlowEnabled:     true,
		RootURL:                 base,
		RedirectURIs:            []string{base + "/auth/callback"},
		WebOrigins:              []string{base},
		Attributes: map[string]string{
			"post.logout.redirect.uris":  base + "/auth/logout/complete",
			"pkce.code.challenge.method": "S256",
		},
		ProtocolMappers: []ProtocolMapper{
			{
				Name:           id + "-audience",
				Protocol:       "openid-connect",
				ProtocolMapper: mapperAudience,
				Config: map[string]string{
					"included.client.audience": id,
					"id.token.claim":           "false",
					"access.token.claim":       "true",
				},
			},
			roleMapper("realm-roles", rolesClaim),
		},
	}, nil
}

func sidecarClient(gc spec.GenContext, p authz.Policy) (Client, error) {
	secret, err := clientSecret(gc, p.ServiceID)
	if err != nil {
		return Client{}, err
	}
	base := gc.PublicURL(p.Host)
	return Client{
		ClientID:                p.ServiceID,
		Enabled:                 true,
		Protocol:                "openid-connect",
		ClientAuthenticatorType: "client-secret",
		Secret:                  secret,
		StandardFlowEnabled:     true,
		RootURL:                 base,
		RedirectURIs:            []string{base + "/oauth2/callback"},
		WebOrigins:              []string{base},
		ProtocolMappers:         []ProtocolMapper{roleMapper("groups", groupsClaim)},
	}, nil
}

// roleMapper exposes realm roles under an explicit claim name.
func roleMapper(name, claim string) ProtocolMapper {
	return ProtocolMapper{
		Name:           name,
		Protocol:       "openid-connect",
		ProtocolMapper: mapperRealmRoles,
		Config: map[string]string{
			"claim.name":           claim,
			"jsonType.label":       "String",
			"multivalued":          "true",
			"id.token.claim":       "true",
			"access.token.claim":   "true",
			"userinfo.token.claim": "true",
		},
	}
}

func buildUser(gc spec.GenContext, u spec.ResolvedUser) (User, error) {
	c, ok := gc.Secrets.Credentials[u.Username]
	if !ok || c.Hash == "" {
		return User{}, fmt.Errorf("realm: user %q: %w (credential)", u.Username, spec.ErrMissingSecret)
	}
	cred, err := toCredential(c)
	if err != nil {
		return User{}, err
	}
	roles := append([]string{"default-roles-" + gc.Settings.Realm}, u.Roles...)
	return User{
		Username:      u.Username,
		Enabled:       true,
		Email:         u.Email,
		EmailVerified: u.Email != "",
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Credentials:   []Credential{cred},
		RealmRoles:    roles,
	}, nil
}

// Marshal renders the realm as indented JSON.
func Marshal(r *Realm) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

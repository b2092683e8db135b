package realm

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"

	"github.com/cmmoran/gatecp/internal/authz"
	"github.com/cmmoran/gatecp/internal/spec"
)

func fixture() (spec.GenContext, *spec.ResolvedDeployment, []authz.Policy) {
	cfg := &spec.ResolvedDeployment{
		Environment: "dev",
		Roles:       []string{"admin", "dev", "tester"},
		Users: []spec.ResolvedUser{
			{Username: "alice", Email: "alice@example.com", Roles: []string{"admin"}},
			{Username: "bob", Roles: []string{"dev", "tester"}},
		},
		Services: []spec.ResolvedService{
			{ServiceID: "zeta", Host: "z", AuthType: spec.AuthProxy, RequiredRoles: []string{"dev"}},
			{ServiceID: "demo", Host: "demo", AuthType: spec.AuthProxy, RequiredRoles: []string{"dev", "admin"}},
		},
	}
	secrets := spec.Secrets{
		ClientSecrets: map[string]string{"portal": "p-secret", "demo": "d-secret", "zeta": "z-secret"},
		Credentials: map[string]spec.Credential{
			"alice": HashPasswordWithSalt("pw", []byte("0123456789abcdef"), 10),
			"bob":   HashPasswordWithSalt("pw", []byte("fedcba9876543210"), 10),
		},
	}
	gc := spec.NewGenContext(spec.StackSettings{Environment: "dev", BaseDomain: "localhost"},
		nil, map[string]string{"tester": "QA access"}, secrets, nil)
	return gc, cfg, authz.Derive(cfg)
}

func TestGenerateClients(t *testing.T) {
	gc, cfg, policies := fixture()
	r, err := Generate(gc, cfg, policies)
	require.NoError(t, err)

	assert.Equal(t, "dev", r.Realm)
	assert.Equal(t, "none", r.SSLRequired)
	require.Len(t, r.Clients, 3)
	assert.Equal(t, []string{"demo", "portal", "zeta"}, []string{r.Clients[0].ClientID, r.Clients[1].ClientID, r.Clients[2].ClientID})

	ui := r.Clients[1]
	assert.Equal(t, []string{"http://portal.localhost/auth/callback"}, ui.RedirectURIs)
	assert.Equal(t, "http://portal.localhost/auth/logout/complete", ui.Attributes["post.logout.redirect.uris"])
	require.Len(t, ui.ProtocolMappers, 2)
	assert.Equal(t, mapperAudience, ui.ProtocolMappers[0].ProtocolMapper)
	assert.Equal(t, "portal", ui.ProtocolMappers[0].Config["included.client.audience"])
	assert.Equal(t, rolesClaim, ui.ProtocolMappers[1].Config["claim.name"])

	demo := r.Clients[0]
	assert.Equal(t, "d-secret", demo.Secret)
	assert.Equal(t, []string{"http://demo.localhost/oauth2/callback"}, demo.RedirectURIs)
	require.Len(t, demo.ProtocolMappers, 1)
	assert.Equal(t, "groups", demo.ProtocolMappers[0].Config["claim.name"])

	for _, c := range r.Clients {
		for _, u := range c.RedirectURIs {
			assert.NotContains(t, u, "*", "client %s", c.ClientID)
		}
	}
}

func TestGenerateRolesAndUsers(t *testing.T) {
	gc, cfg, policies := fixture()
	r, err := Generate(gc, cfg, policies)
	require.NoError(t, err)

	require.Len(t, r.Roles.Realm, 3)
	assert.Equal(t, "admin", r.Roles.Realm[0].Name)
	assert.Equal(t, knownRoleDescriptions["admin"], r.Roles.Realm[0].Description)
	assert.Equal(t, "QA access", r.Roles.Realm[2].Description)

	require.Len(t, r.Users, 2)
	bob := r.Users[1]
	assert.Equal(t, []string{"default-roles-dev", "dev", "tester"}, bob.RealmRoles)
	assert.False(t, bob.EmailVerified)
	require.Len(t, bob.Credentials, 1)

	var sd secretData
	require.NoError(t, json.Unmarshal([]byte(bob.Credentials[0].SecretData), &sd))
	assert.NotContains(t, bob.Credentials[0].SecretData, `"pw"`)
	want := pbkdf2.Key([]byte("pw"), []byte("fedcba9876543210"), 10, hashKeyLen, sha256.New)
	assert.Equal(t, base64.StdEncoding.EncodeToString(want), sd.Value)

	var cd credentialData
	require.NoError(t, json.Unmarshal([]byte(bob.Credentials[0].CredentialData), &cd))
	assert.Equal(t, HashAlgorithm, cd.Algorithm)
	assert.Equal(t, 10, cd.HashIterations)
}

func TestGenerateUndeclaredPolicyRoleFallsBack(t *testing.T) {
	gc, cfg, _ := fixture()
	policies := []authz.Policy{{ServiceID: "demo", Host: "demo", RequiredRoles: []string{"auditor"}}}
	r, err := Generate(gc, cfg, policies)
	require.NoError(t, err)
	last := r.Roles.Realm[len(r.Roles.Realm)-1]
	assert.Equal(t, "auditor", last.Name)
	assert.Equal(t, "Grants the auditor role", last.Description)
}

func TestGenerateMissingSecretIsFatal(t *testing.T) {
	gc, cfg, policies := fixture()
	delete(gc.Secrets.ClientSecrets, "zeta")
	r, err := Generate(gc, cfg, policies)
	assert.Nil(t, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, spec.ErrMissingSecret))
	assert.Contains(t, err.Error(), `"zeta"`)

	gc, cfg, policies = fixture()
	delete(gc.Secrets.Credentials, "alice")
	_, err = Generate(gc, cfg, policies)
	assert.ErrorIs(t, err, spec.ErrMissingSecret)
}

func TestMarshalIsDeterministic(t *testing.T) {
	gc, cfg, policies := fixture()
	r1, err := Generate(gc, cfg, policies)
	require.NoError(t, err)
	r2, err := Generate(gc, cfg, policies)
	require.NoError(t, err)
	b1, err := Marshal(r1)
	require.NoError(t, err)
	b2, err := Marshal(r2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestStableSaltIsPerUser(t *testing.T) {
	a := StableSalt("dev", "alice")
	assert.Len(t, a, 16)
	assert.Equal(t, a, StableSalt("dev", "alice"))
	assert.NotEqual(t, a, StableSalt("dev", "bob"))
	assert.NotEqual(t, a, StableSalt("prod", "alice"))
}

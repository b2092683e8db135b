package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/gatecp/internal/spec"
)

const sampleDeclaration = `apiVersion: gatecp/v1
kind: Deployment
metadata:
  name: local
stack:
  environment: dev
  baseDomain: localhost
users:
  - username: alice
    password: secret
    email: alice@example.com
    roles: admin
  - username: bob
    password: secret
    roles: [dev]
services:
  demo:
    requiredRoles: [dev, admin]
  docs: {}
  grafana-ui:
    host: grafana
    requiredRoles: ops
    group: monitoring
`

func TestInferDisplayName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"my-service", "My Service"},
		{"demo", "Demo"},
		{"", ""},
		{"a-b-c", "A B C"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDisplayName(tt.in))
		})
	}
}

func TestInferAuthType(t *testing.T) {
	assert.Equal(t, spec.AuthNone, InferAuthType(nil))
	assert.Equal(t, spec.AuthNone, InferAuthType([]string{}))
	assert.Equal(t, spec.AuthProxy, InferAuthType([]string{"dev"}))
}

func TestResolveServiceExplicitFieldsWin(t *testing.T) {
	got := ResolveService("my-app", spec.RawService{
		DisplayName:   "Custom",
		Host:          "app",
		AuthType:      spec.AuthUI,
		RequiredRoles: spec.Roles{"dev"},
	})
	assert.Equal(t, "Custom", got.DisplayName)
	assert.Equal(t, "app", got.Host)
	assert.Equal(t, spec.AuthUI, got.AuthType)

	inferred := ResolveService("my-app", spec.RawService{RequiredRoles: spec.Roles{"dev", "admin"}})
	assert.Equal(t, "My App", inferred.DisplayName)
	assert.Equal(t, "my-app", inferred.Host)
	assert.Equal(t, spec.AuthProxy, inferred.AuthType)
	assert.Equal(t, []string{"dev", "admin"}, inferred.RequiredRoles)
}

func TestComputeRoles(t *testing.T) {
	users := []spec.RawUser{{Roles: spec.Roles{"ops", "dev"}}}
	services := map[string]spec.RawService{"a": {RequiredRoles: spec.Roles{"admin", "dev"}}}

	assert.Equal(t, []string{"admin", "dev", "ops"}, ComputeRoles(nil, users, services))
	assert.Equal(t, []string{"a", "b"}, ComputeRoles([]string{"b", "a"}, users, services))
	assert.Equal(t, []string{}, ComputeRoles([]string{}, users, services))
}

func TestParseAndResolve(t *testing.T) {
	d, err := ParseDeclaration([]byte(sampleDeclaration))
	require.NoError(t, err)
	assert.False(t, d.RolesExplicit())

	r := Resolve(d)
	assert.Equal(t, "dev", r.Environment)
	assert.Equal(t, []string{"admin", "dev", "ops"}, r.Roles)
	require.Len(t, r.Services, 3)
	assert.Equal(t, []string{"demo", "docs", "grafana-ui"}, []string{r.Services[0].ServiceID, r.Services[1].ServiceID, r.Services[2].ServiceID})

	for _, s := range r.Services {
		assert.Equal(t, s.AuthType == spec.AuthNone, len(s.RequiredRoles) == 0, s.ServiceID)
	}
	assert.Equal(t, "grafana", r.Services[2].Host)
	assert.Equal(t, []string{"admin"}, r.Users[0].Roles)
}

func TestParseDeclarationRejectsUnknownFields(t *testing.T) {
	_, err := ParseDeclaration([]byte("kind: Deployment\nservicez: {}\n"))
	require.Error(t, err)

	_, err = ParseDeclaration([]byte("kind: Project\n"))
	require.ErrorContains(t, err, "not a Deployment kind")
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DeclarationFile), []byte(sampleDeclaration), 0o644))

	c, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Nil(t, c)

	catalog := "services:\n  demo:\n    upstream: {address: demo, port: 3000}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CatalogFile), []byte(catalog), 0o644))

	d, err := LoadDeclaration(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, d.Dir)

	c, err = LoadCatalog(dir)
	require.NoError(t, err)
	assert.True(t, c.Has("demo"))
	assert.Equal(t, "http://demo:3000", c.Services["demo"].Upstream.URL())
}

package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRolesUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Roles
	}{
		{name: "scalar", in: "roles: admin", want: Roles{"admin"}},
		{name: "list", in: "roles: [dev, admin]", want: Roles{"dev", "admin"}},
		{name: "block list", in: "roles:\n  - ops\n  - dev\n", want: Roles{"ops", "dev"}},
		{name: "empty scalar", in: "roles: ''", want: Roles{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u RawUser
			require.NoError(t, yaml.Unmarshal([]byte(tt.in), &u))
			assert.Equal(t, tt.want, u.Roles)
		})
	}
}

func TestRolesUnmarshalRejectsMap(t *testing.T) {
	var u RawUser
	err := yaml.Unmarshal([]byte("roles: {a: b}"), &u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string or a list")
}

func TestStackDefaults(t *testing.T) {
	s := StackSettings{Environment: "prod", BaseDomain: "example.com", TLS: true}.WithDefaults()
	assert.Equal(t, "prod", s.DeploymentID)
	assert.Equal(t, "prod", s.Realm)
	assert.Equal(t, DefaultFrontendHost, s.FrontendHost)
	assert.Equal(t, IssuerPublic, s.IssuerMode)
	assert.Equal(t, Upstream{Address: "keycloak", Port: 8080}, s.IdentityUpstream)
	assert.Equal(t, []string{"portal", "keycloak"}, s.ReservedHosts())

	gc := NewGenContext(s, nil, nil, Secrets{}, nil)
	assert.Equal(t, "https://portal.example.com", gc.FrontendURL())
	assert.Equal(t, "https://keycloak.example.com/realms/prod", gc.PublicIssuerURL())
	assert.Equal(t, "http://keycloak:8080/realms/prod", gc.InternalIssuerURL())
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Code: CodeInvalidSlug, Message: "bad id", Path: "services.Bad"},
		{Code: CodeDuplicateHost, Message: "shared host", Path: "services"},
	}
	msg := errs.Error()
	assert.Contains(t, msg, "2 validation error(s)")
	assert.Contains(t, msg, "[INVALID_SLUG] services.Bad: bad id")
	assert.Contains(t, msg, "[DUPLICATE_HOST] services: shared host")
	assert.True(t, errs.Has(CodeDuplicateHost))
	assert.Len(t, errs.ByCode(CodeInvalidSlug), 1)
}

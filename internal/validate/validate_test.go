package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/gatecp/internal/spec"
)

func declaration(services map[string]spec.RawService) *spec.Declaration {
	return &spec.Declaration{
		Kind:     "Deployment",
		Stack:    spec.StackSettings{Environment: "dev", BaseDomain: "localhost"},
		Services: services,
	}
}

func TestIsSlug(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a", true},
		{"demo", true},
		{"my-app2", true},
		{"", false},
		{"-a", false},
		{"a-", false},
		{"1abc", false},
		{"Demo", false},
		{"my_app", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSlug(tt.in))
		})
	}
}

func TestValidDeclaration(t *testing.T) {
	d := declaration(map[string]spec.RawService{
		"demo": {RequiredRoles: spec.Roles{"dev", "admin"}},
		"docs": {},
	})
	res := Validate(d, nil)
	require.True(t, res.Valid, res.Errors)
	svc, ok := res.Config.Service("demo")
	require.True(t, ok)
	assert.Equal(t, spec.AuthProxy, svc.AuthType)
	assert.Equal(t, []string{"dev", "admin"}, svc.RequiredRoles)

	for _, s := range res.Config.Services {
		assert.Equal(t, s.AuthType == spec.AuthNone, len(s.RequiredRoles) == 0)
	}
}

func TestDuplicateHostIsOneAggregateError(t *testing.T) {
	d := declaration(map[string]spec.RawService{
		"alpha": {Host: "app"},
		"beta":  {Host: "app", RequiredRoles: spec.Roles{"dev"}},
		"gamma": {Host: "app"},
	})
	res := Validate(d, nil)
	require.False(t, res.Valid)
	dups := res.Errors.ByCode(spec.CodeDuplicateHost)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Message, "alpha, beta, gamma")
}

func TestRoleNotInAllowlist(t *testing.T) {
	d := declaration(map[string]spec.RawService{
		"demo": {RequiredRoles: spec.Roles{"dev", "ops"}},
	})
	d.Roles = []string{"dev", "admin"}
	d.Users = []spec.RawUser{{Username: "alice", Password: "x", Roles: spec.Roles{"auditor"}}}

	res := Validate(d, nil)
	require.False(t, res.Valid)
	errs := res.Errors.ByCode(spec.CodeRoleNotInAllowlist)
	require.Len(t, errs, 2)
	assert.Equal(t, "services.demo.requiredRoles[1]", errs[0].Path)
	assert.Equal(t, "users[0].roles[0]", errs[1].Path)
}

func TestImplicitRolesNeverTripAllowlist(t *testing.T) {
	d := declaration(map[string]spec.RawService{"demo": {RequiredRoles: spec.Roles{"anything"}}})
	res := Validate(d, nil)
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"anything"}, res.Config.Roles)
}

func TestErrorsAccumulateAcrossRules(t *testing.T) {
	d := declaration(map[string]spec.RawService{
		"Bad_Id":  {},
		"portal":  {},
		"locked":  {AuthType: spec.AuthProxy},
		"open":    {AuthType: spec.AuthNone, RequiredRoles: spec.Roles{"dev"}},
		"weird":   {AuthType: "magic"},
		"unknown": {},
	})
	d.Stack.Environment = "prod"
	d.Users = []spec.RawUser{
		{Username: "Alice", Email: "nope", Roles: spec.Roles{}},
		{Username: "bob", Password: "pw", Roles: spec.Roles{"Dev"}},
		{Username: "bob", Password: "pw", Roles: spec.Roles{"dev"}},
	}
	catalog := &spec.Catalog{Services: map[string]spec.CatalogEntry{
		"portal": {}, "locked": {}, "open": {}, "weird": {}, "Bad_Id": {},
	}}

	res := Validate(d, catalog)
	require.False(t, res.Valid)
	for _, code := range []spec.ErrorCode{
		spec.CodeUnknownService,
		spec.CodeInvalidSlug,
		spec.CodeReservedHost,
		spec.CodeReservedClientID,
		spec.CodeAuthRolesMismatch,
		spec.CodeInvalidAuthType,
		spec.CodeUsersNotAllowed,
		spec.CodeInvalidUsername,
		spec.CodeInvalidEmail,
		spec.CodeMissingPassword,
		spec.CodeUserNoRoles,
		spec.CodeInvalidRole,
		spec.CodeDuplicateUsername,
	} {
		assert.True(t, res.Errors.Has(code), "expected %s in %v", code, res.Errors)
	}
	assert.Len(t, res.Errors.ByCode(spec.CodeAuthRolesMismatch), 2)
	assert.Len(t, res.Errors.ByCode(spec.CodeUnknownService), 1)
}

func TestAssertValidCarriesEveryMessage(t *testing.T) {
	d := declaration(map[string]spec.RawService{
		"a": {Host: "app"},
		"b": {Host: "app"},
		"c": {AuthType: spec.AuthProxy},
	})
	cfg, err := AssertValid(d, nil)
	require.Error(t, err)
	assert.Nil(t, cfg)

	var verrs spec.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "DUPLICATE_HOST")
	assert.Contains(t, err.Error(), "AUTH_ROLES_MISMATCH")
}

func TestCheckHosts(t *testing.T) {
	errs := CheckHosts([]HostRef{
		{Owner: "x", Host: "keycloak", Path: "routes[0]"},
		{Owner: "y", Host: "Bad", Path: "routes[1]"},
		{Owner: "z", Host: "ok", Path: "routes[2]"},
	}, []string{"portal", "keycloak"})
	assert.Len(t, errs, 2)
	assert.True(t, errs.Has(spec.CodeReservedHost))
	assert.True(t, errs.Has(spec.CodeInvalidSlug))
}

func TestServiceIDCollidingWithFrontendClient(t *testing.T) {
	d := declaration(map[string]spec.RawService{
		"portal": {Host: "dash", RequiredRoles: spec.Roles{"dev"}},
	})
	res := Validate(d, nil)
	require.False(t, res.Valid)
	errs := res.Errors.ByCode(spec.CodeReservedClientID)
	require.Len(t, errs, 1)
	assert.Equal(t, "services.portal", errs[0].Path)

	d = declaration(map[string]spec.RawService{
		"portal": {Host: "dash", RequiredRoles: spec.Roles{"dev"}},
	})
	d.Stack.FrontendClientID = "frontend"
	assert.True(t, Validate(d, nil).Valid)
}

func TestDuplicateRequiredRole(t *testing.T) {
	d := declaration(map[string]spec.RawService{
		"demo": {RequiredRoles: spec.Roles{"dev", "ops", "dev"}},
	})
	res := Validate(d, nil)
	require.False(t, res.Valid)
	errs := res.Errors.ByCode(spec.CodeDuplicateRole)
	require.Len(t, errs, 1)
	assert.Equal(t, "services.demo.requiredRoles[2]", errs[0].Path)
}

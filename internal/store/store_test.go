package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	vault "github.com/hashicorp/vault/api"
	bao "github.com/openbao/openbao/api/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/gatecp/internal/spec"
)

func Test_coerce(t *testing.T) {
	tests := []struct {
		name string
		s    any
		want map[string]any
	}{
		{"vault secret", &vault.Secret{Data: map[string]any{"a": "1"}}, map[string]any{"a": "1"}},
		{"bao secret", &bao.Secret{Data: map[string]any{"b": "2"}}, map[string]any{"b": "2"}},
		{"nil vault secret", (*vault.Secret)(nil), nil},
		{"empty data", &bao.Secret{}, nil},
		{"untyped nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.s, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_coerceDoesNotAlias(t *testing.T) {
	sec := &vault.Secret{Data: map[string]any{"a": "1"}}
	got, err := coerce(sec, nil)
	require.NoError(t, err)
	got["a"] = "changed"
	assert.Equal(t, "1", sec.Data["a"])
}

func Test_pickField(t *testing.T) {
	tests := []struct {
		name     string
		m        map[string]any
		field    string
		want     string
		notFound bool
		wantErr  bool
	}{
		{name: "named field", m: map[string]any{"secret": "s3"}, field: "secret", want: "s3"},
		{name: "prefers data", m: map[string]any{"data": "d", "other": "o"}, want: "d"},
		{name: "single key", m: map[string]any{"only": "x"}, want: "x"},
		{name: "missing field", m: map[string]any{"a": "b"}, field: "secret", notFound: true, wantErr: true},
		{name: "non-string", m: map[string]any{"n": 3}, field: "n", wantErr: true},
		{name: "ambiguous", m: map[string]any{"a": "1", "b": "2"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickField(tt.m, tt.field)
			if tt.wantErr {
				require.Error(t, err)
				if tt.notFound {
					assert.ErrorIs(t, err, ErrSecretNotFound)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestKVPaths(t *testing.T) {
	base, field := splitField("secret/dev/clients/demo#secret")
	assert.Equal(t, "secret/dev/clients/demo", base)
	assert.Equal(t, "secret", field)
	assert.Equal(t, "secret/data/dev/clients/demo", toKVv2Path(base))
	assert.Equal(t, "secret/data", toKVv2Path("/secret"))

	body := putField(map[string]any{"keep": "me"}, "", []byte("v"))
	assert.Equal(t, map[string]any{"data": map[string]any{"keep": "me", "data": "v"}}, body)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/secret/dev/clients/demo#secret", "SECRET__DEV__CLIENTS__DEMO_FSECRET"},
		{"kv/my-app/cookie.v1", "KV__MY_HAPP__COOKIE_PV1"},
		{"kv/Demo", "KV___CDEMO"},
		{"kv/snake_case", "KV__SNAKE_UCASE"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := EnvKey(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "/", "kv/has space", "kv/ümlaut"} {
		_, err := EnvKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestEnvKeyKeepsPathsApart(t *testing.T) {
	paths := []string{
		"kv/a-b", "kv/a.b", "kv/a/b", "kv/a#b", "kv/a_b", "kv/ab", "kv/aB", "kv/a//b",
		"kv/a-b/c", "kv/a/b-c", "kv/d", "kv//d", "kv/_Cd",
	}
	seen := map[string]string{}
	for _, p := range paths {
		key, err := EnvKey(p)
		require.NoError(t, err)
		if prev, ok := seen[key]; ok {
			t.Fatalf("%q and %q both map to %s", prev, p, key)
		}
		seen[key] = p
	}

	// distinct paths stay distinct through the dotenv backend too
	c, err := New(spec.SecretsProviderSpec{Backend: spec.BackendDotenv, File: filepath.Join(t.TempDir(), "secrets.env")})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()
	require.NoError(t, c.PutSecret(ctx, "kv/a-b", []byte("dash")))
	require.NoError(t, c.PutSecret(ctx, "kv/a.b", []byte("dot")))
	got, err := c.ResolveSecret(ctx, "kv/a-b")
	require.NoError(t, err)
	assert.Equal(t, "dash", string(got))
	got, err = c.ResolveSecret(ctx, "kv/a.b")
	require.NoError(t, err)
	assert.Equal(t, "dot", string(got))
}

func TestDotenvRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	c, err := New(spec.SecretsProviderSpec{Backend: spec.BackendDotenv, File: path})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, err = c.ResolveSecret(ctx, "secret/dev/clients/demo#secret")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, c.PutSecret(ctx, "secret/dev/clients/demo#secret", []byte("s3cr3t value")))
	require.NoError(t, c.PutSecret(ctx, "secret/dev/cookies/demo", []byte("cookie")))

	got, err := c.ResolveSecret(ctx, "secret/dev/clients/demo#secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t value", string(got))
	got, err = c.ResolveSecret(ctx, "secret/dev/cookies/demo")
	require.NoError(t, err)
	assert.Equal(t, "cookie", string(got))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestFactory(t *testing.T) {
	t.Setenv("BAO_ADDR", "")
	t.Setenv("VAULT_ADDR", "")

	_, err := New(spec.SecretsProviderSpec{Backend: "s3"})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = New(spec.SecretsProviderSpec{Backend: spec.BackendDotenv})
	assert.Error(t, err)

	c, err := New(spec.SecretsProviderSpec{Backend: spec.BackendAuto, File: filepath.Join(t.TempDir(), "s.env")})
	require.NoError(t, err)
	assert.IsType(t, &dotenvClient{}, c)
}

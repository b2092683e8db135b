package swarm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	fp := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	tests := []struct {
		artifact string
		want     string
	}{
		{"routing.yml", "gatecp.dev.routing-yml.0123456789ab"},
		{"sidecars/demo.env", "gatecp.dev.sidecars-demo-env.0123456789ab"},
		{"Realm_Import.json", "gatecp.dev.realm-import-json.0123456789ab"},
	}
	for _, tt := range tests {
		t.Run(tt.artifact, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectName("dev", tt.artifact, fp))
		})
	}
}

func TestObjectNameFitsEngineLimit(t *testing.T) {
	fp := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	deployment := "production-eu-west-1-blue"
	long := "sidecars/customer-facing-analytics-dashboard"

	a := ObjectName(deployment, long+"-a.env", fp)
	b := ObjectName(deployment, long+"-b.env", fp)
	assert.Len(t, a, MaxObjectNameLen)
	assert.Len(t, b, MaxObjectNameLen)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "gatecp.production-eu-west-1-blue.sidecars-"), a)
	assert.True(t, strings.HasSuffix(a, ".0123456789ab"), a)
	assert.Equal(t, a, ObjectName(deployment, long+"-a.env", fp))

	// a name that exactly fits is left alone
	fits := ObjectName("dev", strings.Repeat("x", MaxObjectNameLen-len("gatecp.dev..0123456789ab")), fp)
	assert.Len(t, fits, MaxObjectNameLen)
	assert.Equal(t, "gatecp.dev."+strings.Repeat("x", MaxObjectNameLen-len("gatecp.dev..0123456789ab"))+".0123456789ab", fits)
}

func TestObjectLabels(t *testing.T) {
	assert.Equal(t, map[string]string{
		LabelOwner:       "gatecp",
		LabelDeployment:  "dev",
		LabelArtifact:    "realm.json",
		LabelFingerprint: "abc",
	}, ObjectLabels("dev", "realm.json", "abc"))
	assert.NotContains(t, ObjectLabels("dev", "realm.json", ""), LabelFingerprint)
}

func TestNoopClient(t *testing.T) {
	ctx := context.Background()
	c := NewNoopClient()

	ids, err := c.EnsureConfigs(ctx, []ConfigPayload{{Name: "b", Labels: ObjectLabels("dev", "routing.yml", "1")}})
	require.NoError(t, err)
	again, err := c.EnsureConfigs(ctx, []ConfigPayload{{Name: "b", Labels: ObjectLabels("dev", "routing.yml", "1")}})
	require.NoError(t, err)
	assert.Equal(t, ids, again)

	_, err = c.EnsureSecrets(ctx, []SecretPayload{
		{Name: "a", Labels: ObjectLabels("dev", "realm.json", "2")},
		{Name: "c", Labels: ObjectLabels("prod", "realm.json", "3")},
	})
	require.NoError(t, err)

	owned, err := c.ListOwned(ctx, OwnerLabels("dev"))
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "a", owned[0].Name)
	assert.Equal(t, KindSecret, owned[0].Kind)
	assert.Equal(t, KindConfig, owned[1].Kind)

	require.NoError(t, c.Prune(ctx, owned[:1]))
	owned, err = c.ListOwned(ctx, OwnerLabels("dev"))
	require.NoError(t, err)
	assert.Len(t, owned, 1)
	assert.NoError(t, c.Close())
}

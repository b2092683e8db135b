package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStack = `apiVersion: gatecp/v1
kind: Deployment
metadata:
  name: test
stack:
  environment: dev
  baseDomain: localhost
secrets:
  provider:
    backend: dotenv
    file: secrets.env
users:
  - username: alice
    password: wonderland
    roles: admin
services:
  demo:
    requiredRoles: [dev]
  docs: {}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T, stack string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stack.yaml"), []byte(stack), 0o644))
	return dir
}

func TestValidateCommand(t *testing.T) {
	dir := writeProject(t, testStack)
	out, err := run(t, "validate", "-p", dir, "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "deployment OK: 2 service(s), 1 user(s)")

	bad := writeProject(t, testStack+"  portal: {}\n")
	out, err = run(t, "validate", "-p", bad, "--json")
	require.Error(t, err)
	var errs []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &errs))
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e["code"])
	}
	assert.Contains(t, codes, "RESERVED_HOST")
	assert.Contains(t, codes, "RESERVED_CLIENT_ID")
}

func TestSeedRenderPlan(t *testing.T) {
	dir := writeProject(t, testStack)

	_, err := run(t, "render", "-p", dir)
	require.Error(t, err, "secrets are not seeded yet")

	out, err := run(t, "secrets", "seed", "-p", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 3 secret(s)")

	out, err = run(t, "render", "-p", dir, "--out", "dist", "--inline-env")
	require.NoError(t, err)
	assert.Contains(t, out, "rendered 4 artifact(s)")
	assert.Contains(t, out, `PORTAL_DESCRIPTOR_JSON={"version":"1"`)
	for _, name := range []string{"routing.yml", "realm.json", "descriptor.json", filepath.Join("sidecars", "demo.env")} {
		assert.FileExists(t, filepath.Join(dir, "dist", name))
	}

	out, err = run(t, "plan", "-p", dir, "--driver", "noop")
	require.NoError(t, err)
	assert.Contains(t, out, "create:4 update:0 delete:0 unchanged:0")

	out, err = run(t, "logout-trace", "-d", filepath.Join(dir, "dist", "descriptor.json"), "--skip-probes")
	require.NoError(t, err)
	assert.Contains(t, out, "1. http://keycloak.localhost/realms/dev/protocol/openid-connect/logout?")
}

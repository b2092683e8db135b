package status

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/gatecp/internal/swarm"
)

func obj(name, artifact, fp string, at time.Time) swarm.OwnedObject {
	return swarm.OwnedObject{Name: name, Labels: swarm.ObjectLabels("dev", artifact, fp), CreatedAt: at}
}

func TestBuildReport(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	owned := []swarm.OwnedObject{
		obj("realm-new", "realm.json", "bbbbbbbbbbbbbbbb", t0.Add(time.Hour)),
		obj("routing", "routing.yml", "cccccccccccccccc", t0),
		obj("realm-old", "realm.json", "aaaaaaaaaaaaaaaa", t0),
	}
	r := Build("dev", owned, "create:0 update:1 delete:0 unchanged:2")

	assert.Equal(t, t0.Add(time.Hour), r.LastAppliedAt)
	require.Len(t, r.Artifacts, 2)
	assert.Equal(t, ArtifactStatus{Artifact: "realm.json", Objects: []string{"realm-old", "realm-new"}}, r.Artifacts[0])
	assert.Equal(t, []string{
		"realm.json has 2 live versions; run apply --prune once services use bbbbbbbbbbbb",
		"pending: create:0 update:1 delete:0 unchanged:2",
	}, r.Notes)

	var buf bytes.Buffer
	PrintReport(&buf, r)
	assert.Equal(t, "Deployment: dev\n"+
		"Applied at: 2026-05-01T11:00:00Z\n"+
		"  realm.json -> realm-new\n"+
		"  routing.yml -> routing\n"+
		"- realm.json has 2 live versions; run apply --prune once services use bbbbbbbbbbbb\n"+
		"- pending: create:0 update:1 delete:0 unchanged:2\n", buf.String())
}

func TestBuildEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, Build("dev", nil, ""))
	assert.Equal(t, "Deployment: dev\nApplied at: never\n- nothing published for this deployment\n", buf.String())
}

package swarm

import (
	"strings"

	"github.com/cmmoran/gatecp/internal/util"
)

// Deterministic names + labels for ownership & GC.

const (
	LabelOwner       = "gatecp.owner" // constant: "gatecp"
	LabelDeployment  = "gatecp.deployment"
	LabelArtifact    = "gatecp.artifact"
	LabelFingerprint = "gatecp.fingerprint"

	Owner = "gatecp"

	// MaxObjectNameLen is the longest config or secret name the engine accepts.
	MaxObjectNameLen = 64
	nameHashLen      = 8
)

var artifactReplacer = strings.NewReplacer("/", "-", ".", "-", "_", "-")

// ArtifactSlug turns an artifact file name into a name segment:
// "sidecars/demo.env" becomes "sidecars-demo-env".
func ArtifactSlug(artifact string) string {
	return strings.ToLower(artifactReplacer.Replace(artifact))
}

// ObjectName is gatecp.<deployment>.<artifact>.<fingerprint[:12]>. Swarm
// configs and secrets are immutable, so new content always gets a new name.
// When the result would exceed MaxObjectNameLen, the <deployment>.<artifact>
// part is cut and suffixed with a hash of its full text, keeping names
// distinct and deterministic.
func ObjectName(deployment, artifact, fingerprint string) string {
	short := util.Short(fingerprint)
	middle := deployment + "." + ArtifactSlug(artifact)
	budget := MaxObjectNameLen - len(Owner) - len(short) - 2
	if len(middle) > budget {
		middle = middle[:budget-nameHashLen-1] + "-" + util.FingerprintParts(deployment, artifact)[:nameHashLen]
	}
	return Owner + "." + middle + "." + short
}

// OwnerLabels select every object a deployment owns.
func OwnerLabels(deployment string) map[string]string {
	return map[string]string{
		LabelOwner:      Owner,
		LabelDeployment: deployment,
	}
}

// ObjectLabels returns the standard label set for all owned objects.
func ObjectLabels(deployment, artifact, fingerprint string) map[string]string {
	lbls := OwnerLabels(deployment)
	lbls[LabelArtifact] = artifact
	if fingerprint != "" {
		lbls[LabelFingerprint] = fingerprint
	}
	return lbls
}

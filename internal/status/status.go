package status

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/cmmoran/gatecp/internal/specnorm"
	"github.com/cmmoran/gatecp/internal/swarm"
	"github.com/cmmoran/gatecp/internal/util"
)

// ArtifactStatus lists the live objects published for one artifact, oldest first.
type ArtifactStatus struct {
	Artifact string   `json:"artifact"`
	Objects  []string `json:"objects"`
}

type Report struct {
	Deployment    string           `json:"deployment"`
	LastAppliedAt time.Time        `json:"lastAppliedAt"`
	Artifacts     []ArtifactStatus `json:"artifacts"`
	Notes         []string         `json:"notes"`
}

// Build summarizes the objects a deployment owns. drift is the plan summary
// against the current declaration, or empty when it was not computed.
func Build(deployment string, owned []swarm.OwnedObject, drift string) *Report {
	r := &Report{Deployment: deployment}
	byArtifact := map[string][]swarm.OwnedObject{}
	for _, o := range owned {
		a := o.Labels[swarm.LabelArtifact]
		byArtifact[a] = append(byArtifact[a], o)
		if o.CreatedAt.After(r.LastAppliedAt) {
			r.LastAppliedAt = o.CreatedAt
		}
	}
	keys := make([]string, 0, len(byArtifact))
	for k := range byArtifact {
		keys = append(keys, k)
	}
	specnorm.SortStrings(keys)

	for _, k := range keys {
		objs := byArtifact[k]
		slices.SortStableFunc(objs, func(a, b swarm.OwnedObject) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.Name, b.Name)
		})
		st := ArtifactStatus{Artifact: k}
		for _, o := range objs {
			st.Objects = append(st.Objects, o.Name)
		}
		r.Artifacts = append(r.Artifacts, st)
		if len(objs) > 1 {
			r.Notes = append(r.Notes, fmt.Sprintf("%s has %d live versions; run apply --prune once services use %s",
				k, len(objs), util.Short(objs[len(objs)-1].Labels[swarm.LabelFingerprint])))
		}
	}
	if len(owned) == 0 {
		r.Notes = append(r.Notes, "nothing published for this deployment")
	}
	if drift != "" {
		r.Notes = append(r.Notes, "pending: "+drift)
	}
	return r
}

func PrintReport(w io.Writer, r *Report) {
	applied := "never"
	if !r.LastAppliedAt.IsZero() {
		applied = r.LastAppliedAt.UTC().Format(time.RFC3339)
	}
	_, _ = fmt.Fprintf(w, "Deployment: %s\n", r.Deployment)
	_, _ = fmt.Fprintf(w, "Applied at: %s\n", applied)
	for _, a := range r.Artifacts {
		_, _ = fmt.Fprintf(w, "  %s -> %s\n", a.Artifact, a.Objects[len(a.Objects)-1])
	}
	for _, n := range r.Notes {
		_, _ = fmt.Fprintf(w, "- %s\n", n)
	}
}

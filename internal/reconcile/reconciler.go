// Package reconcile plans and applies compiled artifacts as Swarm configs and
// secrets.
package reconcile

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cmmoran/gatecp/internal/compile"
	"github.com/cmmoran/gatecp/internal/diff"
	"github.com/cmmoran/gatecp/internal/logging"
	"github.com/cmmoran/gatecp/internal/specnorm"
	"github.com/cmmoran/gatecp/internal/swarm"
	"github.com/cmmoran/gatecp/internal/util"
)

type Reconciler struct {
	cli swarm.Client
	log *log.Entry
}

func New(cli swarm.Client) *Reconciler { return &Reconciler{cli: cli, log: logging.For("reconcile")} }

type Plan struct {
	Deployment string `json:"deployment"`
	// Revision fingerprints the set of desired object names.
	Revision string                `json:"revision"`
	Configs  []swarm.ConfigPayload `json:"configs"`
	Secrets  []swarm.SecretPayload `json:"secrets"`
	Stale    []swarm.OwnedObject   `json:"stale"`
	Diff     *diff.Plan            `json:"diff"`
	Summary  []string              `json:"summary"`
}

// Desired maps artifacts to payloads. Secret artifacts become Swarm secrets,
// everything else a Swarm config.
func Desired(deployment string, artifacts []compile.Artifact) ([]swarm.ConfigPayload, []swarm.SecretPayload) {
	var (
		cfgs []swarm.ConfigPayload
		secs []swarm.SecretPayload
	)
	for _, a := range artifacts {
		fp := util.Fingerprint(a.Data)
		name := swarm.ObjectName(deployment, a.Name, fp)
		labels := swarm.ObjectLabels(deployment, a.Name, fp)
		if a.Kind == compile.KindSecret {
			secs = append(secs, swarm.SecretPayload{Name: name, Labels: labels, Bytes: a.Data})
			continue
		}
		cfgs = append(cfgs, swarm.ConfigPayload{Name: name, Labels: labels, Bytes: a.Data})
	}
	return cfgs, secs
}

func (r *Reconciler) Plan(ctx context.Context, deployment string, artifacts []compile.Artifact) (*Plan, error) {
	cfgs, secs := Desired(deployment, artifacts)
	owned, err := r.cli.ListOwned(ctx, swarm.OwnerLabels(deployment))
	if err != nil {
		return nil, fmt.Errorf("list owned objects: %w", err)
	}
	specnorm.SortBy(owned, func(o swarm.OwnedObject) string { return o.Name })

	live := map[string]bool{}
	liveByArtifact := map[string][]string{}
	for _, o := range owned {
		live[o.Name] = true
		a := o.Labels[swarm.LabelArtifact]
		liveByArtifact[a] = append(liveByArtifact[a], o.Name)
	}

	pl := &Plan{Deployment: deployment, Configs: cfgs, Secrets: secs, Diff: diff.New()}
	desired := map[string]bool{}
	var names []string
	classify := func(kind diff.Kind, name string, labels map[string]string) {
		desired[name] = true
		names = append(names, name)
		it := diff.Item{Kind: kind, Name: name, Artifact: labels[swarm.LabelArtifact], Fingerprint: labels[swarm.LabelFingerprint]}
		switch prev := liveByArtifact[it.Artifact]; {
		case live[name]:
			pl.Diff.Unchanged = append(pl.Diff.Unchanged, it)
		case len(prev) > 0:
			it.Replaces = prev[len(prev)-1]
			pl.Diff.Updates = append(pl.Diff.Updates, it)
		default:
			pl.Diff.Creates = append(pl.Diff.Creates, it)
		}
	}
	for _, c := range cfgs {
		classify(diff.KindConfig, c.Name, c.Labels)
	}
	for _, s := range secs {
		classify(diff.KindSecret, s.Name, s.Labels)
	}
	for _, o := range owned {
		if desired[o.Name] {
			continue
		}
		pl.Stale = append(pl.Stale, o)
		pl.Diff.Deletes = append(pl.Diff.Deletes, diff.Item{
			Kind:        diff.Kind(o.Kind),
			Name:        o.Name,
			Artifact:    o.Labels[swarm.LabelArtifact],
			Fingerprint: o.Labels[swarm.LabelFingerprint],
		})
	}

	specnorm.SortStrings(names)
	pl.Revision = util.FingerprintParts(names...)
	pl.Summary = append(pl.Summary,
		fmt.Sprintf("configs:%d secrets:%d stale:%d", len(cfgs), len(secs), len(pl.Stale)),
		pl.Diff.Summary())
	return pl, nil
}

// Apply publishes every desired object. Stale objects are removed only when
// prune is set; services still mounting them keep working until redeployed.
func (r *Reconciler) Apply(ctx context.Context, pl *Plan, prune bool) error {
	if _, err := r.cli.EnsureConfigs(ctx, pl.Configs); err != nil {
		return fmt.Errorf("ensure configs: %w", err)
	}
	if _, err := r.cli.EnsureSecrets(ctx, pl.Secrets); err != nil {
		return fmt.Errorf("ensure secrets: %w", err)
	}
	pruned := 0
	if prune && len(pl.Stale) > 0 {
		if err := r.cli.Prune(ctx, pl.Stale); err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		pruned = len(pl.Stale)
	}
	r.log.WithFields(log.Fields{
		"event":      "apply_complete",
		"deployment": pl.Deployment,
		"revision":   util.Short(pl.Revision),
		"created":    len(pl.Diff.Creates) + len(pl.Diff.Updates),
		"pruned":     pruned,
	}).Info("applied deployment")
	return nil
}

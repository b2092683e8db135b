package compile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/realm"
	"github.com/cmmoran/gatecp/internal/render"
	"github.com/cmmoran/gatecp/internal/routing"
	"github.com/cmmoran/gatecp/internal/sidecar"
)

type ArtifactKind string

const (
	// KindConfig artifacts hold no secret material.
	KindConfig ArtifactKind = "config"
	KindSecret ArtifactKind = "secret"
)

const (
	RoutingFile    = "routing.yml"
	RealmFile      = "realm.json"
	DescriptorFile = "descriptor.json"
	SidecarDir     = "sidecars"
)

// Artifact is one rendered output file. Name is slash-separated and relative
// to the output directory.
type Artifact struct {
	Name string
	Kind ArtifactKind
	Data []byte
}

// Files renders every document of r in a fixed order.
func (r *Result) Files(engine *render.Engine) ([]Artifact, error) {
	routingYAML, err := routing.Marshal(r.Routing)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	realmJSON, err := realm.Marshal(r.Realm)
	if err != nil {
		return nil, fmt.Errorf("realm: %w", err)
	}
	descJSON, err := descriptor.MarshalIndent(r.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}
	out := []Artifact{
		{Name: RoutingFile, Kind: KindConfig, Data: routingYAML},
		{Name: RealmFile, Kind: KindSecret, Data: realmJSON},
		{Name: DescriptorFile, Kind: KindConfig, Data: descJSON},
	}
	for _, env := range r.Sidecars {
		b, err := sidecar.Render(engine, env)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{Name: SidecarDir + "/" + env.ServiceID + ".env", Kind: KindSecret, Data: b})
	}
	return out, nil
}

// Write stores artifacts under dir. Secret artifacts are owner-readable only.
func Write(dir string, artifacts []Artifact) error {
	for _, a := range artifacts {
		p := filepath.Join(dir, filepath.FromSlash(a.Name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		mode := os.FileMode(0o644)
		if a.Kind == KindSecret {
			mode = 0o600
		}
		if err := os.WriteFile(p, a.Data, mode); err != nil {
			return err
		}
		// WriteFile keeps the mode of an existing file.
		if err := os.Chmod(p, mode); err != nil {
			return err
		}
	}
	return nil
}

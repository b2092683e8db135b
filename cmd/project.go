package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cmmoran/gatecp/internal/compile"
	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/logging"
	"github.com/cmmoran/gatecp/internal/render"
	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/store"
	"github.com/cmmoran/gatecp/internal/swarm"
)

// project is a loaded declaration plus everything derived from it without
// touching the secret store.
type project struct {
	decl    *spec.Declaration
	catalog *spec.Catalog
	engine  *render.Engine
	refs    []compile.SecretRef
}

func loadProject() (*project, error) {
	d, c, err := compile.Load(projectPath)
	if err != nil {
		return nil, err
	}
	cfg, policies, err := compile.Prepare(d, c)
	if err != nil {
		return nil, err
	}
	engine := render.NewEngine(render.Options{Strict: true})
	refs, err := compile.SecretRefs(engine, d, cfg, policies)
	if err != nil {
		return nil, err
	}
	return &project{decl: d, catalog: c, engine: engine, refs: refs}, nil
}

func (p *project) settings() spec.StackSettings { return p.decl.Stack.WithDefaults() }

// openStore resolves a relative dotenv file against the project directory.
func (p *project) openStore() (store.Client, error) {
	cfg := p.decl.Secrets.Provider
	if cfg.File != "" && !filepath.IsAbs(cfg.File) {
		cfg.File = filepath.Join(p.decl.Dir, cfg.File)
	}
	return store.New(cfg)
}

// compile gathers secrets and runs every generator. A zero stamp keeps the
// descriptor stable between runs on the same commit.
func (p *project) compile(ctx context.Context, stamp time.Time) (*compile.Result, []compile.Artifact, error) {
	st, err := p.openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("open secret store: %w", err)
	}
	defer st.Close()
	secrets, err := compile.GatherSecrets(ctx, st, p.settings().Realm, p.refs)
	if err != nil {
		return nil, nil, fmt.Errorf("gather secrets (run `gatecp secrets seed` to create missing ones): %w", err)
	}

	dep, err := descriptor.GitDeployment(p.decl.Dir, stamp)
	if err != nil {
		logging.For("cmd").WithError(err).Debug("no git metadata for descriptor")
		dep = nil
	}
	res, err := compile.Compile(ctx, compile.Input{Declaration: p.decl, Catalog: p.catalog, Secrets: secrets, Deployment: dep})
	if err != nil {
		return nil, nil, err
	}
	files, err := res.Files(p.engine)
	if err != nil {
		return nil, nil, err
	}
	return res, files, nil
}

func swarmClient() (swarm.Client, error) {
	switch driver {
	case "docker":
		dc, err := swarm.NewDockerClient()
		if err != nil {
			return nil, err
		}
		return dc, nil
	case "noop", "":
		return swarm.NewNoopClient(), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want docker or noop)", driver)
	}
}

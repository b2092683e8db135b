// Package compile turns a validated declaration into every deployment artifact.
package compile

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cmmoran/gatecp/internal/authz"
	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/logging"
	"github.com/cmmoran/gatecp/internal/manifest"
	"github.com/cmmoran/gatecp/internal/realm"
	"github.com/cmmoran/gatecp/internal/routing"
	"github.com/cmmoran/gatecp/internal/sidecar"
	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/validate"
)

// DefaultAppPort is the upstream port of a service missing from the catalog.
const DefaultAppPort = 80

type Input struct {
	Declaration *spec.Declaration
	Catalog     *spec.Catalog
	Secrets     spec.Secrets
	Deployment  *spec.DeploymentInfo
}

// Result holds the model and the four generated documents of one run.
type Result struct {
	Context    spec.GenContext
	Config     *spec.ResolvedDeployment
	Policies   []authz.Policy
	Routing    *routing.Config
	Realm      *realm.Realm
	Sidecars   []sidecar.Environment
	Descriptor *descriptor.Descriptor
}

// Prepare validates and resolves the declaration and derives the policies.
// It is the part of a compile that needs no secret material.
func Prepare(d *spec.Declaration, catalog *spec.Catalog) (*spec.ResolvedDeployment, []authz.Policy, error) {
	cfg, err := validate.AssertValid(d, catalog)
	if err != nil {
		return nil, nil, err
	}
	return cfg, authz.Derive(cfg), nil
}

// Upstreams maps each resolved service to its application address.
func Upstreams(cfg *spec.ResolvedDeployment, catalog *spec.Catalog) map[string]spec.Upstream {
	out := make(map[string]spec.Upstream, len(cfg.Services))
	for _, s := range cfg.Services {
		if catalog.Has(s.ServiceID) && !catalog.Services[s.ServiceID].Upstream.IsZero() {
			out[s.ServiceID] = catalog.Services[s.ServiceID].Upstream
			continue
		}
		out[s.ServiceID] = spec.Upstream{Address: s.ServiceID, Port: DefaultAppPort}
	}
	return out
}

// Routes sends proxy-auth hosts to their sidecar and every other host straight
// to the application.
func Routes(cfg *spec.ResolvedDeployment, upstreams map[string]spec.Upstream) []routing.RouteRequest {
	out := make([]routing.RouteRequest, 0, len(cfg.Services))
	for _, s := range cfg.Services {
		up := upstreams[s.ServiceID]
		if s.AuthType == spec.AuthProxy {
			up = sidecar.Upstream(s.ServiceID)
		}
		out = append(out, routing.RouteRequest{Host: s.Host, Upstream: up})
	}
	return out
}

// Compile runs the generators concurrently over one resolved model. Any
// generator error cancels the run and no partial result is returned.
func Compile(ctx context.Context, in Input) (*Result, error) {
	cfg, policies, err := Prepare(in.Declaration, in.Catalog)
	if err != nil {
		return nil, err
	}
	upstreams := Upstreams(cfg, in.Catalog)
	gc := spec.NewGenContext(in.Declaration.Stack, upstreams, in.Declaration.RoleDescriptions, in.Secrets, in.Deployment)
	res := &Result{Context: gc, Config: cfg, Policies: policies}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	run := func(gen func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return gen()
		})
	}
	run(func() (err error) {
		res.Routing, err = routing.Generate(gc, cfg, Routes(cfg, upstreams))
		return err
	})
	run(func() (err error) {
		res.Realm, err = realm.Generate(gc, cfg, policies)
		return err
	})
	run(func() (err error) {
		res.Sidecars, err = sidecar.Generate(gc, policies)
		return err
	})
	run(func() (err error) {
		res.Descriptor, err = descriptor.Generate(gc, cfg)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	total, protected, public := res.Descriptor.Counts()
	logging.For("compile").WithFields(log.Fields{
		"event":       "compile_complete",
		"deployment":  gc.Settings.DeploymentID,
		"environment": cfg.Environment,
		"services":    total,
		"protected":   protected,
		"public":      public,
		"policies":    len(policies),
	}).Info("compiled deployment")
	return res, nil
}

// Load reads the declaration and catalog under root.
func Load(root string) (*spec.Declaration, *spec.Catalog, error) {
	d, err := manifest.LoadDeclaration(root)
	if err != nil {
		return nil, nil, err
	}
	c, err := manifest.LoadCatalog(d.Dir)
	if err != nil {
		return nil, nil, err
	}
	return d, c, nil
}

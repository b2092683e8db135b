package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
)

// MaxEnvBytes caps the compact form so it fits in one environment variable.
const MaxEnvBytes = 64 * 1024

var ErrTooLargeForEnv = errors.New("descriptor exceeds the environment variable size limit; deliver it as a file")

// Generate builds and schema-validates the descriptor. Entries sort by
// (group, name); ungrouped entries come after every grouped one.
func Generate(gc spec.GenContext, cfg *spec.ResolvedDeployment) (*Descriptor, error) {
	s := gc.Settings
	d := &Descriptor{
		Version:      Version,
		DeploymentID: s.DeploymentID,
		Environment:  s.Environment,
		BaseDomain:   s.BaseDomain,
		Deployment:   gc.Deployment,
		Portal:       Portal{PublicURL: gc.FrontendURL()},
		Keycloak: Keycloak{
			PublicURL: gc.IdentityURL(),
			IssuerURL: gc.PublicIssuerURL(),
			Realm:     s.Realm,
		},
		Services: lo.Map(cfg.Services, func(svc spec.ResolvedService, _ int) Service {
			return entry(gc, svc)
		}),
	}
	sortEntries(d.Services)

	if err := Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

func entry(gc spec.GenContext, svc spec.ResolvedService) Service {
	e := Service{
		ID:          svc.ServiceID,
		Name:        svc.DisplayName,
		URL:         gc.PublicURL(svc.Host),
		Protected:   svc.AuthType != spec.AuthNone,
		AuthType:    svc.AuthType,
		Group:       svc.Group,
		Icon:        svc.Icon,
		Description: svc.Description,
	}
	if len(svc.RequiredRoles) > 0 {
		e.RequiredRealmRoles = slices.Clone(svc.RequiredRoles)
	}
	return e
}

func sortEntries(entries []Service) {
	col := specnorm.Comparator()
	slices.SortStableFunc(entries, func(a, b Service) int {
		switch {
		case a.Group == "" && b.Group != "":
			return 1
		case a.Group != "" && b.Group == "":
			return -1
		}
		if c := col(a.Group, b.Group); c != 0 {
			return c
		}
		if c := col(a.Name, b.Name); c != 0 {
			return c
		}
		return col(a.ID, b.ID)
	})
}

// MarshalIndent is the file delivery form.
func MarshalIndent(d *Descriptor) ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// MarshalCompact is the environment variable delivery form.
func MarshalCompact(d *Descriptor) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	if len(b) > MaxEnvBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrTooLargeForEnv, len(b), MaxEnvBytes)
	}
	return b, nil
}

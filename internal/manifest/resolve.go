package manifest

import (
	"github.com/samber/lo"

	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
)

// Resolve builds the fully defaulted model. It does not validate; see
// validate.Validate for that.
func Resolve(d *spec.Declaration) *spec.ResolvedDeployment {
	settings := d.Stack.WithDefaults()

	ids := lo.Keys(d.Services)
	specnorm.SortStrings(ids)
	services := lo.Map(ids, func(id string, _ int) spec.ResolvedService {
		return ResolveService(id, d.Services[id])
	})

	users := lo.Map(d.Users, func(u spec.RawUser, _ int) spec.ResolvedUser {
		return spec.ResolvedUser{
			Username:  u.Username,
			Password:  u.Password,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Roles:     lo.Uniq(u.Roles),
		}
	})

	return &spec.ResolvedDeployment{
		Environment:   settings.Environment,
		Roles:         ComputeRoles(d.Roles, d.Users, d.Services),
		RolesExplicit: d.RolesExplicit(),
		Users:         users,
		Services:      services,
	}
}

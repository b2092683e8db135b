package authz

import (
	"slices"

	"github.com/samber/lo"

	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
)

// AdminRole sees every service in the UI.
const AdminRole = "admin"

// Policy is what a sidecar enforces for one service.
type Policy struct {
	ServiceID     string   `json:"serviceId"`
	Host          string   `json:"host"`
	RequiredRoles []string `json:"requiredRoles"`
}

// Derive returns one policy per proxy-auth service, ordered by service id
// with the fixed collator. Role order is kept as declared.
func Derive(cfg *spec.ResolvedDeployment) []Policy {
	out := lo.FilterMap(cfg.Services, func(s spec.ResolvedService, _ int) (Policy, bool) {
		if s.AuthType != spec.AuthProxy {
			return Policy{}, false
		}
		return Policy{
			ServiceID:     s.ServiceID,
			Host:          s.Host,
			RequiredRoles: slices.Clone(s.RequiredRoles),
		}, true
	})
	specnorm.SortBy(out, func(p Policy) string { return p.ServiceID })
	return out
}

// Roles is the sorted union of every role any policy requires.
func Roles(policies []Policy) []string {
	return specnorm.SortedSet(lo.Map(policies, func(p Policy, _ int) []string { return p.RequiredRoles })...)
}

// CanAccess decides UI visibility only; the sidecar stays the enforcement
// point. Public entries are always visible, admin sees everything, and a
// protected entry with no roles is hidden.
func CanAccess(userRoles []string, authType spec.AuthType, required []string) bool {
	if slices.Contains(userRoles, AdminRole) {
		return true
	}
	if authType == spec.AuthNone {
		return true
	}
	return lo.Some(userRoles, required)
}

// Filter keeps the descriptor entries userRoles may see, in descriptor order.
func Filter(userRoles []string, entries []descriptor.Service) []descriptor.Service {
	out := lo.Filter(entries, func(s descriptor.Service, _ int) bool {
		return CanAccess(userRoles, s.AuthType, s.RequiredRealmRoles)
	})
	if out == nil {
		out = []descriptor.Service{}
	}
	return out
}

package manifest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
)

// InferDisplayName turns "my-service" into "My Service".
func InferDisplayName(id string) string {
	if id == "" {
		return ""
	}
	titler := cases.Title(language.English)
	parts := strings.Split(id, "-")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, titler.String(p))
	}
	return strings.Join(out, " ")
}

// InferHost defaults the host label to the service id.
func InferHost(id string) string { return id }

func InferAuthType(requiredRoles []string) spec.AuthType {
	if len(requiredRoles) == 0 {
		return spec.AuthNone
	}
	return spec.AuthProxy
}

// ComputeRoles returns the explicit allow-list sorted, or, when none was
// declared, the sorted union of every role a user or service mentions.
func ComputeRoles(explicit []string, users []spec.RawUser, services map[string]spec.RawService) []string {
	if explicit != nil {
		return specnorm.SortedSet(explicit)
	}
	lists := make([][]string, 0, len(users)+len(services))
	for _, u := range users {
		lists = append(lists, u.Roles)
	}
	for _, s := range services {
		lists = append(lists, s.RequiredRoles)
	}
	return specnorm.SortedSet(lists...)
}

// ResolveService applies inference; explicit raw fields always win.
func ResolveService(id string, raw spec.RawService) spec.ResolvedService {
	roles := append([]string{}, raw.RequiredRoles...)
	out := spec.ResolvedService{
		ServiceID:     id,
		DisplayName:   raw.DisplayName,
		Host:          raw.Host,
		AuthType:      raw.AuthType,
		RequiredRoles: roles,
		Group:         raw.Group,
		Icon:          raw.Icon,
		Description:   raw.Description,
	}
	if out.DisplayName == "" {
		out.DisplayName = InferDisplayName(id)
	}
	if out.Host == "" {
		out.Host = InferHost(id)
	}
	if out.AuthType == "" {
		out.AuthType = InferAuthType(roles)
	}
	return out
}

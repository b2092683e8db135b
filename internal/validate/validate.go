package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/samber/lo"

	"github.com/cmmoran/gatecp/internal/manifest"
	"github.com/cmmoran/gatecp/internal/spec"
	"github.com/cmmoran/gatecp/internal/specnorm"
)

// Slug pattern shared by ids, hosts, roles and usernames. ECMAScript mode keeps
// the semantics identical to the JSON schema that checks the descriptor.
const SlugPattern = `^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`

var (
	slugRe  = regexp2.MustCompile(SlugPattern, regexp2.ECMAScript)
	emailRe = regexp2.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`, regexp2.ECMAScript)
)

func IsSlug(s string) bool { return match(slugRe, s) }

func IsEmail(s string) bool { return match(emailRe, s) }

func match(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// Result is either valid with a resolved config, or invalid with every error found.
type Result struct {
	Valid  bool
	Config *spec.ResolvedDeployment
	Errors spec.ValidationErrors
}

// Validate resolves d and runs every rule against it. No rule short-circuits
// another; the returned error list is complete. A nil catalog skips the
// known-service check.
func Validate(d *spec.Declaration, catalog *spec.Catalog) Result {
	cfg := manifest.Resolve(d)
	settings := d.Stack.WithDefaults()

	v := &collector{}
	for _, svc := range cfg.Services {
		base := "services." + svc.ServiceID
		raw := d.Services[svc.ServiceID]

		if catalog != nil && !catalog.Has(svc.ServiceID) {
			v.add(spec.CodeUnknownService, base, "service %q is not in the service catalog", svc.ServiceID)
		}
		if !IsSlug(svc.ServiceID) {
			v.add(spec.CodeInvalidSlug, base, "service id %q is not a valid slug", svc.ServiceID)
		}
		// service ids double as identity provider client ids
		if svc.ServiceID == settings.FrontendClientID {
			v.add(spec.CodeReservedClientID, base,
				"service id %q collides with the frontend client id (stack.frontendClientId)", svc.ServiceID)
		}
		if raw.AuthType != "" && !raw.AuthType.Valid() {
			v.add(spec.CodeInvalidAuthType, base+".authType", "unknown authType %q (want none, proxy-auth or ui-auth)", raw.AuthType)
		} else {
			checkAuthRoles(v, base, svc)
		}
		firstAt := map[string]int{}
		for i, r := range svc.RequiredRoles {
			p := fmt.Sprintf("%s.requiredRoles[%d]", base, i)
			if !IsSlug(r) {
				v.add(spec.CodeInvalidRole, p, "role %q is not a valid slug", r)
			}
			if first, dup := firstAt[r]; dup {
				v.add(spec.CodeDuplicateRole, p, "role %q already listed at requiredRoles[%d]", r, first)
			} else {
				firstAt[r] = i
			}
			checkAllowed(v, cfg, p, r)
		}
	}
	v.extend(CheckHosts(hostRefs(cfg.Services), settings.ReservedHosts()))

	if cfg.RolesExplicit {
		for i, r := range d.Roles {
			if !IsSlug(r) {
				v.add(spec.CodeInvalidRole, fmt.Sprintf("roles[%d]", i), "role %q is not a valid slug", r)
			}
		}
	}

	if len(d.Users) > 0 && settings.Environment != settings.UsersEnvironment {
		v.add(spec.CodeUsersNotAllowed, "users",
			"bootstrap users are only allowed in environment %q, not %q", settings.UsersEnvironment, settings.Environment)
	}
	checkUsers(v, cfg)

	return Result{Valid: len(v.errs) == 0, Config: cfg, Errors: v.errs}
}

// AssertValid returns the resolved config or a single error carrying every
// formatted validation message.
func AssertValid(d *spec.Declaration, catalog *spec.Catalog) (*spec.ResolvedDeployment, error) {
	res := Validate(d, catalog)
	if !res.Valid {
		return nil, fmt.Errorf("invalid deployment declaration: %w", res.Errors)
	}
	return res.Config, nil
}

func checkAuthRoles(v *collector, base string, svc spec.ResolvedService) {
	switch {
	case svc.AuthType == spec.AuthNone && len(svc.RequiredRoles) > 0:
		v.add(spec.CodeAuthRolesMismatch, base+".requiredRoles",
			"authType none must not declare requiredRoles (got %s)", strings.Join(svc.RequiredRoles, ", "))
	case svc.AuthType.RequiresRoles() && len(svc.RequiredRoles) == 0:
		v.add(spec.CodeAuthRolesMismatch, base+".requiredRoles",
			"authType %s requires at least one role", svc.AuthType)
	}
}

func checkAllowed(v *collector, cfg *spec.ResolvedDeployment, path, role string) {
	if !cfg.RolesExplicit || slices.Contains(cfg.Roles, role) {
		return
	}
	v.add(spec.CodeRoleNotInAllowlist, path, "role %q is not declared in roles", role)
}

func checkUsers(v *collector, cfg *spec.ResolvedDeployment) {
	seen := map[string]int{}
	for i, u := range cfg.Users {
		base := fmt.Sprintf("users[%d]", i)
		if !IsSlug(u.Username) {
			v.add(spec.CodeInvalidUsername, base+".username", "username %q is not a valid slug", u.Username)
		} else if first, dup := seen[u.Username]; dup {
			v.add(spec.CodeDuplicateUsername, base+".username", "username %q already declared at users[%d]", u.Username, first)
		} else {
			seen[u.Username] = i
		}
		if u.Email != "" && !IsEmail(u.Email) {
			v.add(spec.CodeInvalidEmail, base+".email", "email %q is not valid", u.Email)
		}
		if strings.TrimSpace(u.Password) == "" {
			v.add(spec.CodeMissingPassword, base+".password", "user %q has no password", u.Username)
		}
		if len(u.Roles) == 0 {
			v.add(spec.CodeUserNoRoles, base+".roles", "user %q has no roles", u.Username)
		}
		for j, r := range u.Roles {
			p := fmt.Sprintf("%s.roles[%d]", base, j)
			if !IsSlug(r) {
				v.add(spec.CodeInvalidRole, p, "role %q is not a valid slug", r)
			}
			checkAllowed(v, cfg, p, r)
		}
	}
}

// HostRef ties a host label to whoever claims it.
type HostRef struct {
	Owner string
	Host  string
	Path  string
}

func hostRefs(services []spec.ResolvedService) []HostRef {
	return lo.Map(services, func(s spec.ResolvedService, _ int) HostRef {
		return HostRef{Owner: s.ServiceID, Host: s.Host, Path: "services." + s.ServiceID + ".host"}
	})
}

// CheckHosts reports invalid, reserved and shared host labels. Every shared
// host yields exactly one DUPLICATE_HOST error naming all of its owners.
func CheckHosts(refs []HostRef, reserved []string) spec.ValidationErrors {
	v := &collector{}
	owners := map[string][]string{}
	for _, r := range refs {
		if !IsSlug(r.Host) {
			v.add(spec.CodeInvalidSlug, r.Path, "host %q is not a valid slug", r.Host)
		}
		if slices.Contains(reserved, r.Host) {
			v.add(spec.CodeReservedHost, r.Path, "host %q is reserved", r.Host)
		}
		owners[r.Host] = append(owners[r.Host], r.Owner)
	}
	hosts := lo.Keys(owners)
	specnorm.SortStrings(hosts)
	for _, h := range hosts {
		if ids := owners[h]; len(ids) > 1 {
			specnorm.SortStrings(ids)
			v.add(spec.CodeDuplicateHost, "services",
				"host %q is used by more than one service: %s", h, strings.Join(ids, ", "))
		}
	}
	return v.errs
}

type collector struct {
	errs spec.ValidationErrors
}

func (c *collector) add(code spec.ErrorCode, path, format string, args ...any) {
	c.errs = append(c.errs, spec.ValidationError{Code: code, Message: fmt.Sprintf(format, args...), Path: path})
}

func (c *collector) extend(errs spec.ValidationErrors) {
	c.errs = append(c.errs, errs...)
}

package descriptor

import "github.com/cmmoran/gatecp/internal/spec"

// Version is the descriptor schema version this package reads and writes.
const Version = "1"

// Descriptor is the public, non-secret view of a deployment the portal UI
// renders. Service order is display order.
type Descriptor struct {
	Version      string               `json:"version"`
	DeploymentID string               `json:"deploymentId"`
	Environment  string               `json:"environment"`
	BaseDomain   string               `json:"baseDomain"`
	Deployment   *spec.DeploymentInfo `json:"deployment,omitempty"`
	Portal       Portal               `json:"portal"`
	Keycloak     Keycloak             `json:"keycloak"`
	Services     []Service            `json:"services"`
}

type Portal struct {
	PublicURL string `json:"publicUrl"`
}

type Keycloak struct {
	PublicURL string `json:"publicUrl"`
	IssuerURL string `json:"issuerUrl"`
	Realm     string `json:"realm"`
}

type Service struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	URL                string        `json:"url"`
	Protected          bool          `json:"protected"`
	AuthType           spec.AuthType `json:"authType"`
	Group              string        `json:"group,omitempty"`
	Icon               string        `json:"icon,omitempty"`
	Description        string        `json:"description,omitempty"`
	RequiredRealmRoles []string      `json:"requiredRealmRoles,omitempty"`
}

// Counts returns total, protected and public entry counts.
func (d *Descriptor) Counts() (total, protected, public int) {
	for _, s := range d.Services {
		if s.Protected {
			protected++
		} else {
			public++
		}
	}
	return len(d.Services), protected, public
}

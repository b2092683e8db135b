package realm

// Realm is the subset of Keycloak's RealmRepresentation this tool emits.
type Realm struct {
	Realm       string   `json:"realm"`
	Enabled     bool     `json:"enabled"`
	SSLRequired string   `json:"sslRequired"`
	Roles       Roles    `json:"roles"`
	Clients     []Client `json:"clients"`
	Users       []User   `json:"users"`
}

type Roles struct {
	Realm []Role `json:"realm"`
}

type Role struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Client struct {
	ClientID                  string            `json:"clientId"`
	Name                      string            `json:"name,omitempty"`
	Enabled                   bool              `json:"enabled"`
	Protocol                  string            `json:"protocol"`
	PublicClient              bool              `json:"publicClient"`
	ClientAuthenticatorType   string            `json:"clientAuthenticatorType"`
	Secret                    string            `json:"secret"`
	StandardFlowEnabled       bool              `json:"standardFlowEnabled"`
	DirectAccessGrantsEnabled bool              `json:"directAccessGrantsEnabled"`
	RootURL                   string            `json:"rootUrl,omitempty"`
	RedirectURIs              []string          `json:"redirectUris"`
	WebOrigins                []string          `json:"webOrigins"`
	Attributes                map[string]string `json:"attributes,omitempty"`
	ProtocolMappers           []ProtocolMapper  `json:"protocolMappers"`
}

type ProtocolMapper struct {
	Name           string            `json:"name"`
	Protocol       string            `json:"protocol"`
	ProtocolMapper string            `json:"protocolMapper"`
	Config         map[string]string `json:"config"`
}

type User struct {
	Username      string       `json:"username"`
	Enabled       bool         `json:"enabled"`
	Email         string       `json:"email,omitempty"`
	EmailVerified bool         `json:"emailVerified"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	Credentials   []Credential `json:"credentials"`
	RealmRoles    []string     `json:"realmRoles"`
}

// Credential uses Keycloak's split storage format: SecretData and
// CredentialData are JSON documents encoded as strings.
type Credential struct {
	Type           string `json:"type"`
	SecretData     string `json:"secretData"`
	CredentialData string `json:"credentialData"`
}

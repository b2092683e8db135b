package realm

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/crypto/pbkdf2"

	"github.com/cmmoran/gatecp/internal/spec"
)

const (
	HashAlgorithm  = "pbkdf2-sha256"
	HashIterations = 27500
	hashKeyLen     = 64
	saltLen        = 16
)

// StableSalt derives a per-realm, per-user salt so repeated compiles of an
// unchanged password produce the same realm document.
func StableSalt(realmName, username string) []byte {
	sum := sha256.Sum256([]byte("gatecp/" + realmName + "/" + username))
	return sum[:saltLen]
}

// HashPasswordWithSalt derives a Keycloak-compatible pbkdf2-sha256 credential.
func HashPasswordWithSalt(password string, salt []byte, iterations int) spec.Credential {
	key := pbkdf2.Key([]byte(password), salt, iterations, hashKeyLen, sha256.New)
	return spec.Credential{
		Algorithm:  HashAlgorithm,
		Iterations: iterations,
		Hash:       base64.StdEncoding.EncodeToString(key),
		Salt:       base64.StdEncoding.EncodeToString(salt),
	}
}

type secretData struct {
	Value                string         `json:"value"`
	Salt                 string         `json:"salt"`
	AdditionalParameters map[string]any `json:"additionalParameters"`
}

type credentialData struct {
	HashIterations       int            `json:"hashIterations"`
	Algorithm            string         `json:"algorithm"`
	AdditionalParameters map[string]any `json:"additionalParameters"`
}

func toCredential(c spec.Credential) (Credential, error) {
	sd, err := json.Marshal(secretData{Value: c.Hash, Salt: c.Salt, AdditionalParameters: map[string]any{}})
	if err != nil {
		return Credential{}, err
	}
	cd, err := json.Marshal(credentialData{HashIterations: c.Iterations, Algorithm: c.Algorithm, AdditionalParameters: map[string]any{}})
	if err != nil {
		return Credential{}, err
	}
	return Credential{Type: "password", SecretData: string(sd), CredentialData: string(cd)}, nil
}

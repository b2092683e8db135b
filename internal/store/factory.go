package store

import (
	"errors"
	"os"

	"github.com/cmmoran/gatecp/internal/spec"
)

var ErrUnknownBackend = errors.New("unknown secrets backend")

// New picks a backend. Auto prefers whichever server address is exported,
// then a configured dotenv file.
func New(cfg spec.SecretsProviderSpec) (Client, error) {
	switch cfg.Backend {
	case spec.BackendAuto, "":
		switch {
		case os.Getenv("BAO_ADDR") != "":
			return newBao(cfg)
		case os.Getenv("VAULT_ADDR") != "":
			return newVault(cfg)
		case cfg.File != "":
			return newDotenv(cfg)
		default:
			return newBao(cfg)
		}

	case spec.BackendBao:
		return newBao(cfg)
	case spec.BackendVault:
		return newVault(cfg)
	case spec.BackendDotenv:
		return newDotenv(cfg)
	default:
		return nil, ErrUnknownBackend
	}
}

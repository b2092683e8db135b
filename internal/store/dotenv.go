package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/cmmoran/gatecp/internal/spec"
)

// dotenvClient keeps secrets in a local env file, for development stacks
// without a Vault or OpenBao server.
type dotenvClient struct {
	path string
	mu   sync.Mutex
}

func newDotenv(cfg spec.SecretsProviderSpec) (Client, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("dotenv: file is required")
	}
	return &dotenvClient{path: cfg.File}, nil
}

// envKeyCodes spell every non-alphanumeric path character as '_' plus a
// distinct letter, so no code is a prefix of another.
var envKeyCodes = map[rune]string{
	'/': "__",
	'#': "_F",
	'-': "_H",
	'.': "_P",
	'_': "_U",
}

// EnvKey maps a secret path onto an env file key. Lowercase letters and
// digits are upper-cased in place; upper-case letters become "_C" plus the
// letter. "secret/dev/clients/demo#secret" is SECRET__DEV__CLIENTS__DEMO_FSECRET.
// Distinct paths never share a key.
func EnvKey(path string) (string, error) {
	p := strings.Trim(path, "/")
	if p == "" {
		return "", fmt.Errorf("dotenv: empty path")
	}
	var b strings.Builder
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteString("_C")
			b.WriteRune(r)
		default:
			code, ok := envKeyCodes[r]
			if !ok {
				return "", fmt.Errorf("dotenv: %q: character %q has no env key spelling", path, r)
			}
			b.WriteString(code)
		}
	}
	return b.String(), nil
}

func (c *dotenvClient) read() (map[string]string, error) {
	m, err := godotenv.Read(c.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	return m, err
}

func (c *dotenvClient) ResolveSecret(_ context.Context, path string) ([]byte, error) {
	key, err := EnvKey(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := c.read()
	if err != nil {
		return nil, fmt.Errorf("dotenv: %w", err)
	}
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("dotenv: %s: %w", path, ErrSecretNotFound)
	}
	return []byte(v), nil
}

func (c *dotenvClient) PutSecret(_ context.Context, path string, value []byte) error {
	key, err := EnvKey(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := c.read()
	if err != nil {
		return fmt.Errorf("dotenv: %w", err)
	}
	m[key] = string(value)
	if err := godotenv.Write(m, c.path); err != nil {
		return fmt.Errorf("dotenv: %w", err)
	}
	return os.Chmod(c.path, 0o600)
}

func (c *dotenvClient) Close() {}

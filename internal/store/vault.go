package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"

	"github.com/cmmoran/gatecp/internal/logging"
	"github.com/cmmoran/gatecp/internal/spec"
)

type vaultClient struct {
	api     *vault.Client
	closers []func()
	mu      sync.Mutex
}

func newVault(cfg spec.SecretsProviderSpec) (Client, error) {
	vCfg := vault.DefaultConfig()
	_ = vCfg.ReadEnvironment()
	if cfg.Addr != "" {
		vCfg.Address = cfg.Addr
	}
	api, err := vault.NewClient(vCfg)
	if err != nil {
		return nil, err
	}
	if cfg.Namespace != "" {
		api.SetNamespace(cfg.Namespace)
	}
	vCli := &vaultClient{api: api}

	// Without AppRole material the client keeps the VAULT_TOKEN it was built with.
	if cfg.RoleIDPath == "" && cfg.WrappedSecretIDPath == "" {
		if api.Token() == "" {
			return nil, fmt.Errorf("vault: no token in environment and no approle configured")
		}
		return vCli, nil
	}
	if cfg.RoleIDPath == "" || cfg.WrappedSecretIDPath == "" {
		return nil, fmt.Errorf("vault: roleIdPath and wrappedSecretIdPath are required together")
	}
	roleID, err := os.ReadFile(cfg.RoleIDPath)
	if err != nil {
		return nil, fmt.Errorf("vault: read roleIdPath: %w", err)
	}

	appRoleAuth, err := approle.NewAppRoleAuth(strings.TrimSpace(string(roleID)), &approle.SecretID{
		FromFile: cfg.WrappedSecretIDPath,
	}, approle.WithWrappingToken())
	if err != nil {
		return nil, err
	}

	sec, err := api.Auth().Login(context.Background(), appRoleAuth)
	if err != nil {
		return nil, fmt.Errorf("vault: approle login: %w", err)
	}
	api.SetToken(sec.Auth.ClientToken)
	if sec.Auth.Renewable {
		if stop, rerr := vCli.StartAutoRenew(context.Background(), sec); rerr == nil {
			vCli.closers = append(vCli.closers, stop)
		}
	}
	return vCli, nil
}

func (c *vaultClient) ResolveSecret(ctx context.Context, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("vault: empty path")
	}
	basePath, field := splitField(path)
	// Try KV v2 first
	if data, err := c.readKVv2(ctx, basePath); err == nil && data != nil {
		return pickField(data, field)
	}
	// Fallback: raw read
	data, err := coerce(c.api.Logical().ReadWithContext(ctx, basePath))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("vault: no data at %s: %w", basePath, ErrSecretNotFound)
	}
	return pickField(data, field)
}

func (c *vaultClient) PutSecret(ctx context.Context, path string, value []byte) error {
	basePath, field := splitField(path)
	current, err := c.readKVv2(ctx, basePath)
	if err != nil {
		return err
	}
	if _, err := c.api.Logical().WriteWithContext(ctx, toKVv2Path(basePath), putField(current, field, value)); err != nil {
		return fmt.Errorf("vault: write %s: %w", basePath, err)
	}
	return nil
}

func (c *vaultClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}

// StartAutoRenew keeps the login token alive until ctx ends or the lease
// can no longer be renewed.
func (c *vaultClient) StartAutoRenew(ctx context.Context, s *vault.Secret) (func(), error) {
	r, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: s})
	if err != nil {
		return nil, err
	}
	go r.Renew()
	go func() {
		defer r.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ren := <-r.RenewCh():
				if ren != nil && ren.Secret != nil && ren.Secret.Auth != nil && ren.Secret.Auth.ClientToken != "" {
					c.api.SetToken(ren.Secret.Auth.ClientToken)
				}
			case err := <-r.DoneCh():
				if err != nil {
					logging.For("store").WithError(err).Warn("vault token renewal stopped")
				}
				return
			}
		}
	}()
	return r.Stop, nil
}

// readKVv2 returns nil data when the entry does not exist yet.
func (c *vaultClient) readKVv2(ctx context.Context, basePath string) (map[string]any, error) {
	data, err := coerce(c.api.Logical().ReadWithContext(ctx, toKVv2Path(basePath)))
	if err != nil || data == nil {
		return nil, err
	}
	inner, ok := kvData(data)
	if !ok {
		return nil, fmt.Errorf("vault: %s is not a kv v2 entry", basePath)
	}
	return inner, nil
}

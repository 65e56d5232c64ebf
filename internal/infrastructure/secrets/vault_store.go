// Package secrets resolves API keys and signing secrets from Vault or the environment.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/patrickmn/go-cache"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// EnvPrefix prefixes environment variables consulted by EnvStore.
const EnvPrefix = "PNET_SECRET_"

// valueField is the key holding the secret inside a KV v2 entry.
const valueField = "value"

// VaultStore is a Vault KV v2 backed SecretStore with an in-memory L1 cache.
// VaultStore 是基于 Vault KV v2 的密钥存储，带有内存一级缓存。
type VaultStore struct {
	client    *vault.Client
	mountPath string
	l1Cache   *cache.Cache
	logger    logger.Logger
}

// NewVaultStore creates a VaultStore over an existing client.
func NewVaultStore(cfg config.VaultConfig, client *vault.Client, log logger.Logger) *VaultStore {
	mount := strings.TrimSuffix(cfg.MountPath, "/")
	if mount == "" {
		mount = constants.VaultSecretPathPrefix
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &VaultStore{
		client:    client,
		mountPath: mount,
		l1Cache:   cache.New(ttl, 2*ttl),
		logger:    log.WithComponent("VaultStore"),
	}
}

// GetSecret reads <mount>/<name> and returns its "value" field.
func (s *VaultStore) GetSecret(ctx context.Context, name string) (string, error) {
	if v, found := s.l1Cache.Get(name); found {
		if value, ok := v.(string); ok {
			return value, nil
		}
	}

	path := fmt.Sprintf("%s/%s", s.mountPath, name)
	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.logger.Error(ctx, "failed to read secret from Vault", err, logger.Fields{"path": path})
		return "", errors.WrapError(err, constants.ErrCodeUnavailable, "could not retrieve secret from vault")
	}
	if secret == nil || secret.Data["data"] == nil {
		return "", errors.ErrNotFound("secret", name)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", errors.ErrInternal("invalid secret format in vault")
	}
	value, ok := data[valueField].(string)
	if !ok || value == "" {
		return "", errors.ErrNotFound("secret", name)
	}

	s.l1Cache.SetDefault(name, value)
	return value, nil
}

// EnvStore resolves secrets from PNET_SECRET_<NAME> environment variables.
type EnvStore struct {
	lookup func(string) (string, bool)
}

// NewEnvStore creates an EnvStore reading the process environment.
func NewEnvStore() *EnvStore {
	return &EnvStore{lookup: os.LookupEnv}
}

// GetSecret implements service.SecretStore.
func (s *EnvStore) GetSecret(_ context.Context, name string) (string, error) {
	key := EnvPrefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(name))
	value, ok := s.lookup(key)
	if !ok || value == "" {
		return "", errors.ErrNotFound("secret", name)
	}
	return value, nil
}

// NewStore returns a VaultStore when Vault is enabled and an EnvStore otherwise.
func NewStore(cfg config.VaultConfig, log logger.Logger) (service.SecretStore, error) {
	if !cfg.Enabled {
		return NewEnvStore(), nil
	}
	vc := vault.DefaultConfig()
	if cfg.Address != "" {
		vc.Address = cfg.Address
	}
	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeConfiguration, "failed to create vault client")
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return NewVaultStore(cfg, client, log), nil
}

// Resolve returns inline when set, otherwise looks name up in store.
// An empty name with no inline value resolves to "".
func Resolve(ctx context.Context, store service.SecretStore, inline, name string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if name == "" || store == nil {
		return "", nil
	}
	return store.GetSecret(ctx, name)
}

var (
	_ service.SecretStore = (*VaultStore)(nil)
	_ service.SecretStore = (*EnvStore)(nil)
)

//Personal.AI order the ending

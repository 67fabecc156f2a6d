// Package vault supplies keys from HashiCorp Vault's KV v2 secrets
// engine.
//
// The client is configured through the standard environment variables:
//
//   - VAULT_ADDR: Vault server address (required)
//   - VAULT_NAMESPACE: namespace for HCP Vault (optional)
//   - VAULT_TOKEN: direct token authentication
//   - VAULT_ROLE_ID / VAULT_SECRET_ID: AppRole authentication
//
// Token authentication takes priority over AppRole. One of the two
// must be configured.
package vault

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/hashicorp/vault/api"

	"github.com/confkit/securestore"
)

// pathTemplate is the KV v2 location of a key item. The "/data/"
// segment is required by the KV v2 API.
const pathTemplate = "secret/data/securestore/%s"

// Store reads and writes key items in Vault KV v2. The engine must be
// enabled before use:
//
//	vault secrets enable -path=secret kv-v2
type Store struct {
	client *api.Client
}

// New creates a Vault-backed key store from the environment.
func New() (*Store, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an already configured Vault client.
func NewWithClient(client *api.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("vault client must not be nil")
	}
	return &Store{client: client}, nil
}

func newClient() (*api.Client, error) {
	config := api.DefaultConfig()
	if addr := os.Getenv("VAULT_ADDR"); addr != "" {
		config.Address = addr
	}
	if config.Address == "" {
		return nil, fmt.Errorf("VAULT_ADDR environment variable is required")
	}
	config.HttpClient.Transport = &http.Transport{Proxy: http.ProxyFromEnvironment}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if ns := os.Getenv("VAULT_NAMESPACE"); ns != "" {
		client.SetNamespace(ns)
	}

	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		client.SetToken(token)
		return client, nil
	}

	roleID := os.Getenv("VAULT_ROLE_ID")
	secretID := os.Getenv("VAULT_SECRET_ID")
	if roleID == "" || secretID == "" {
		return nil, fmt.Errorf("no vault authentication configured: set VAULT_TOKEN or VAULT_ROLE_ID/VAULT_SECRET_ID")
	}
	resp, err := client.Logical().Write("auth/approle/login", map[string]any{
		"role_id":   roleID,
		"secret_id": secretID,
	})
	if err != nil {
		return nil, fmt.Errorf("approle login failed: %w", err)
	}
	if resp == nil || resp.Auth == nil || resp.Auth.ClientToken == "" {
		return nil, fmt.Errorf("approle login returned no token")
	}
	client.SetToken(resp.Auth.ClientToken)
	return client, nil
}

func (s *Store) path(item string) string {
	return fmt.Sprintf(pathTemplate, item)
}

func (s *Store) Get(ctx context.Context, item string) (string, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.path(item))
	if err != nil {
		return "", fmt.Errorf("vault read failed for %q: %w", item, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: vault path %q", securestore.ErrKeyNotFound, s.path(item))
	}
	// KV v2 wraps the payload in a "data" key.
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: vault path %q", securestore.ErrKeyNotFound, s.path(item))
	}
	value, ok := data["value"].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: vault path %q has no value", securestore.ErrKeyNotFound, s.path(item))
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, item string, value string) error {
	_, err := s.client.Logical().WriteWithContext(ctx, s.path(item), map[string]any{
		"data": map[string]any{"value": value},
	})
	if err != nil {
		return fmt.Errorf("vault write failed for %q: %w", item, err)
	}
	return nil
}

var _ securestore.KeyStore = (*Store)(nil)

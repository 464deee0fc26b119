package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/provsec/chainregistry/interfaces"
)

// VaultBackend implements a payload backend using HashiCorp Vault's KV v2
// secret engine. Payloads are written under a fixed mount and data path,
// one secret per integrity hash.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault payload backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: Vault mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "chainregistry")
//   - token: Vault token used for authentication
//   - log: Structured logger for operational insights
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves a payload from Vault by its integrity hash using the KV
// v2 API.
func (b *VaultBackend) Fetch(ctx context.Context, hash interfaces.IntegrityHash) ([]byte, error) {
	start := time.Now()
	path := b.secretPath(hash)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			slog.String("hash", hash.String()),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Payload not found in Vault",
			slog.String("path", path),
			slog.String("hash", hash.String()))
		return nil, interfaces.ErrPayloadNotFound
	}

	data, ok := secret.Data["data"]
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	content, ok := data.(map[string]interface{})["payload"]
	if !ok {
		return nil, fmt.Errorf("payload key not found in Vault data")
	}

	contentStr, ok := content.(string)
	if !ok {
		return nil, fmt.Errorf("invalid payload format in Vault data")
	}

	b.log.Debug("Fetched payload from Vault",
		slog.String("hash", hash.String()),
		slog.Duration("duration", time.Since(start)))

	return []byte(contentStr), nil
}

// Store saves a payload to Vault and returns its integrity hash.
func (b *VaultBackend) Store(ctx context.Context, payload []byte) (interfaces.IntegrityHash, error) {
	start := time.Now()
	hash := interfaces.ComputeIntegrityHash(payload)
	path := b.secretPath(hash)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"payload": string(payload),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			slog.String("hash", hash.String()),
			"err", err)
		return hash, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored payload in Vault",
		slog.String("hash", hash.String()),
		slog.Duration("duration", time.Since(start)))

	return hash, nil
}

// Available checks if the Vault backend is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// LocationURI returns the URI that identifies this backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultBackend) secretPath(hash interfaces.IntegrityHash) string {
	return fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, hash.String())
}

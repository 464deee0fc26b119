package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provsec/chainregistry/interfaces"
)

func TestPayloadStoreFactory_File(t *testing.T) {
	factory := NewPayloadStoreFactory(testLogger())
	baseDir := filepath.Join(t.TempDir(), "payloads")

	backend, err := factory.BackendFor("file://" + baseDir)
	require.NoError(t, err)
	require.IsType(t, &FileBackend{}, backend)

	hash, err := backend.Store(context.Background(), []byte("content"))
	require.NoError(t, err)
	fetched, err := backend.Fetch(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), fetched)
}

func TestPayloadStoreFactory_S3(t *testing.T) {
	factory := NewPayloadStoreFactory(testLogger())

	backend, err := factory.BackendFor("s3://AKID:secret@my-bucket/payloads/?region=eu-west-1")
	require.NoError(t, err)
	require.IsType(t, &S3Backend{}, backend)
	assert.Contains(t, backend.LocationURI(), "my-bucket")

	// Public bucket without credentials is accepted for read-only use.
	_, err = factory.BackendFor("s3://public-bucket/payloads/")
	require.NoError(t, err)
}

func TestPayloadStoreFactory_Vault(t *testing.T) {
	factory := NewPayloadStoreFactory(testLogger())

	backend, err := factory.BackendFor("vault://vault.example.com:8200/secret/payloads?token=t&scheme=https")
	require.NoError(t, err)
	require.IsType(t, &VaultBackend{}, backend)

	// A vault URI without mount and data path is rejected.
	_, err = factory.BackendFor("vault://vault.example.com:8200/secret")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestPayloadStoreFactory_SatisfiesInterface(t *testing.T) {
	// Consumers hold the factory by its interface; backends resolve
	// through the shared location parser.
	var factory interfaces.PayloadStoreFactory = NewPayloadStoreFactory(testLogger())

	backend, err := factory.BackendFor("file://" + t.TempDir())
	require.NoError(t, err)
	assert.True(t, backend.Available(context.Background()))
}

func TestPayloadStoreFactory_InvalidURIs(t *testing.T) {
	factory := NewPayloadStoreFactory(testLogger())

	_, err := factory.BackendFor("ftp://example.com/payloads")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)

	_, err = factory.BackendFor("file://")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

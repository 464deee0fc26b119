// Package storage provides content-addressed payload backends for the
// off-chain canonical payloads the registries commit to by hash.
//
// Registries store only a 32-byte Keccak-256 integrity hash; the payload
// bytes themselves live in one of the backends implemented here. Content
// is keyed by its integrity hash, so a record read from a registry can be
// resolved to its payload with a single Fetch, and a fetched payload can
// be verified against the record by rehashing.
//
// Supported backends:
//
//   - FileBackend: local filesystem storage, one file per payload
//   - S3Backend: Amazon S3 or compatible object storage
//   - IPFSBackend: IPFS node or gateway
//   - VaultBackend: HashiCorp Vault KV v2
//
// Backends are created from URI strings via PayloadStoreFactory:
//
//	factory := storage.NewPayloadStoreFactory(logger)
//	backend, err := factory.BackendFor("file:///var/lib/chainregistry/payloads")
//
// The bench harness also uses these backends to publish its exported CSV
// artifacts.
package storage

// Package interfaces defines core interfaces and types for the provenance
// registry system, separating interface definitions from implementations.
//
// The package provides the contract between the registry lifecycle engine,
// the audit log, the off-chain payload store, and the security bench that
// drives them:
//
// # Registry Interfaces
//
// Registry: The uniform record lifecycle surface (register, update, get)
// shared by every registry family. Mutations carry a CallContext with the
// caller's identity and the current logical time, both supplied by the
// trusted execution environment.
//
// MutationPolicy: The authorization guard evaluated before every update.
// Two implementations exist: the open policy accepts any caller, the
// creator-only policy accepts only the record's creator. A registry is
// bound to one policy at construction time.
//
// AuditSink: Receives exactly one event per successful mutation. The audit
// log is the system's only externally observable history.
//
// # Storage Interfaces
//
// PayloadBackend: Content-addressed storage for the off-chain canonical
// payloads the registries commit to by hash (file, S3, IPFS, Vault).
//
// # Core Types
//
//   - Identity: 20-byte actor address
//   - IntegrityHash: 32-byte Keccak-256 digest committing to a payload
//   - RecordID: 32-byte registry key, either allocator-assigned or
//     caller-supplied
//   - Record: the persisted metadata unit keyed by a RecordID
package interfaces

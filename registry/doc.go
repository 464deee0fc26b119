// Package registry implements the record registries that bind an
// identifier to an integrity hash of off-chain data, tracking who created
// and who last updated each record.
//
// Five registry families exist, mirroring the deployed contract set:
//
//   - ShipmentRegistry: sequential identifiers, caller-supplied digests
//   - SegmentAcceptanceRegistry: sequential identifiers, caller-supplied
//     digests, stores a foreign shipment identifier without a referential
//     check
//   - ProductRegistry: caller-supplied identifiers, payload hashed by the
//     registry
//   - BatchRegistry: caller-supplied identifiers, payload hashed by the
//     registry
//   - RegistrationRegistry: caller-supplied identifiers, closed kind
//     enumeration, payload size ceiling, single submit entry point
//
// Every family is built on the same lifecycle engine, the Ledger, and is
// parameterized by a mutation policy chosen at construction time:
//
//   - VariantOpen: any caller may update any record (the historical
//     baseline behavior, including its missing authorization check)
//   - VariantCreatorOnly: only the record's creator may update it
//
// The variant also fixes the read semantics: open registries return a
// zero-valued record for unknown identifiers, creator-only registries
// fail with ErrDoesNotExist. Both behaviors are preserved deliberately so
// the security bench can compare the pairs against the original contracts.
//
// All operations are atomic: a mutation either fully applies, including
// its audit event, or fails with no side effect. Ordering between
// concurrent callers is serialized by a per-registry transition lock.
package registry

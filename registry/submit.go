package registry

import (
	"fmt"
	"log/slog"

	"github.com/provsec/chainregistry/interfaces"
)

// RegistrationRegistry records supply-chain participant registrations
// under caller-chosen identifiers. On top of the base lifecycle it
// validates a closed participant kind enumeration and enforces a payload
// byte-length ceiling before hashing. Both checks run before any state is
// touched, so a rejected submission leaves no record behind.
type RegistrationRegistry struct {
	*Ledger
}

// NewRegistrationRegistry creates a registration registry with the given
// variant.
func NewRegistrationRegistry(variant Variant, audit interfaces.AuditSink, log *slog.Logger) *RegistrationRegistry {
	return &RegistrationRegistry{newFamilyLedger("RegistrationRegistry", CallerSuppliedIDs, variant, audit, log)}
}

// Submit is the single entry point for the registration family. The
// caller asserts via isUpdate whether the submission creates a new record
// or updates an existing one; the assertion is cross-checked against
// actual presence, so a create on a taken identifier fails with
// ErrAlreadyExists and an update on a missing one with ErrDoesNotExist.
//
// The participant kind is validated on every submission but recorded only
// at creation; like the creator, it is immutable afterwards.
func (r *RegistrationRegistry) Submit(ctx interfaces.CallContext, id interfaces.RecordID, kind interfaces.Kind, payload []byte, isUpdate bool) (interfaces.Record, error) {
	if !kind.Valid() {
		return interfaces.Record{}, fmt.Errorf("%w: kind %d", interfaces.ErrInvalidKind, kind)
	}
	if len(payload) > interfaces.MaxRegistrationPayload {
		return interfaces.Record{}, fmt.Errorf("%w: size %d exceeds max %d",
			interfaces.ErrPayloadTooLarge, len(payload), interfaces.MaxRegistrationPayload)
	}

	hash := interfaces.ComputeIntegrityHash(payload)

	if isUpdate {
		return r.Update(ctx, id, hash)
	}
	return r.registerKeyed(ctx, id, hash, func(rec *interfaces.Record) {
		rec.Kind = kind
	})
}

// GetRegistration reads a registration record by its identifier.
func (r *RegistrationRegistry) GetRegistration(id interfaces.RecordID) (interfaces.Record, error) {
	return r.Get(id)
}

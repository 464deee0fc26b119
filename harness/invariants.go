package harness

import (
	"fmt"

	"github.com/provsec/chainregistry/interfaces"
)

// Invariant names reported in violations. The unauthorized-update pair is
// the one the bench exists to measure: applied on the baseline, accepted
// on the hardened variant (which must never happen).
const (
	InvariantUnauthorizedUpdateApplied  = "unauthorized-update-applied"
	InvariantUnauthorizedUpdateAccepted = "unauthorized-update-accepted"
	InvariantDuplicateRegisterAccepted  = "duplicate-register-accepted"
	InvariantMissingRecordUpdated       = "missing-record-updated"
	InvariantHashRoundTripMismatch      = "hash-roundtrip-mismatch"
	InvariantCreatorMutated             = "creator-mutated"
	InvariantRejectionHadEffect         = "rejection-had-effect"
)

// Violation describes one observed invariant breach.
type Violation struct {
	Invariant string
	Registry  string
	ID        interfaces.RecordID
	Actor     interfaces.Identity
	Op        int // index of the operation that surfaced the breach
	Detail    string
}

// Error formats the violation as an error string.
func (v Violation) Error() string {
	return fmt.Sprintf("%s: registry %s, id %s, actor %s, op %d: %s",
		v.Invariant, v.Registry, v.ID, v.Actor, v.Op, v.Detail)
}

// model is the shadow state the runner keeps per variant: what each
// record should look like if every accepted mutation was authorized.
type model struct {
	records map[interfaces.RecordID]*modelRecord
	order   []interfaces.RecordID
}

type modelRecord struct {
	creator interfaces.Identity
	hash    interfaces.IntegrityHash
	updater interfaces.Identity
}

func newModel() *model {
	return &model{records: make(map[interfaces.RecordID]*modelRecord)}
}

func (m *model) create(id interfaces.RecordID, creator interfaces.Identity, hash interfaces.IntegrityHash) {
	m.records[id] = &modelRecord{creator: creator, hash: hash}
	m.order = append(m.order, id)
}

func (m *model) update(id interfaces.RecordID, updater interfaces.Identity, hash interfaces.IntegrityHash) {
	rec := m.records[id]
	rec.hash = hash
	rec.updater = updater
}

func (m *model) lookup(id interfaces.RecordID) (*modelRecord, bool) {
	rec, present := m.records[id]
	return rec, present
}

// pick returns a previously created identifier, or false when none exist.
func (m *model) pick(stream *Stream) (interfaces.RecordID, bool) {
	if len(m.order) == 0 {
		return interfaces.RecordID{}, false
	}
	return m.order[stream.Intn(len(m.order))], true
}

// checkAgainst compares a stored record against the shadow model and
// returns the violated invariant, if any.
func (m *model) checkAgainst(registryName string, rec interfaces.Record, op int) *Violation {
	expected, present := m.lookup(rec.ID)
	if !present {
		return nil
	}

	if rec.CreatedBy != expected.creator {
		return &Violation{
			Invariant: InvariantCreatorMutated,
			Registry:  registryName,
			ID:        rec.ID,
			Actor:     rec.CreatedBy,
			Op:        op,
			Detail:    fmt.Sprintf("creator changed from %s to %s", expected.creator, rec.CreatedBy),
		}
	}

	if rec.Hash != expected.hash {
		return &Violation{
			Invariant: InvariantHashRoundTripMismatch,
			Registry:  registryName,
			ID:        rec.ID,
			Actor:     rec.UpdatedBy,
			Op:        op,
			Detail:    fmt.Sprintf("stored hash %s, expected %s", rec.Hash, expected.hash),
		}
	}

	return nil
}

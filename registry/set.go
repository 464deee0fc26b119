package registry

import (
	"log/slog"

	"github.com/provsec/chainregistry/audit"
	"github.com/provsec/chainregistry/interfaces"
)

// Set bundles one variant of every registry family behind a shared audit
// log, the way a full deployment wires them.
type Set struct {
	Variant       Variant
	Shipments     *ShipmentRegistry
	Acceptances   *SegmentAcceptanceRegistry
	Products      *ProductRegistry
	Batches       *BatchRegistry
	Registrations *RegistrationRegistry

	// Audit receives the events of all five registries in global
	// transition order.
	Audit *audit.Log
}

// NewSet constructs all five registry families with the given variant and
// a shared audit log.
func NewSet(variant Variant, log *slog.Logger) *Set {
	auditLog := audit.NewLog()
	return &Set{
		Variant:       variant,
		Shipments:     NewShipmentRegistry(variant, auditLog, log),
		Acceptances:   NewSegmentAcceptanceRegistry(variant, auditLog, log),
		Products:      NewProductRegistry(variant, auditLog, log),
		Batches:       NewBatchRegistry(variant, auditLog, log),
		Registrations: NewRegistrationRegistry(variant, auditLog, log),
		Audit:         auditLog,
	}
}

// Events returns a snapshot of the set's audit trail.
func (s *Set) Events() []interfaces.AuditEvent {
	return s.Audit.Events()
}

package registry

import (
	"fmt"
	"log/slog"

	"github.com/provsec/chainregistry/interfaces"
)

// Variant selects the mutation policy pair a registry family ships in.
type Variant int

const (
	// VariantOpen is the baseline behavior: no authorization check on
	// update, lenient reads.
	VariantOpen Variant = iota

	// VariantCreatorOnly restricts updates to the record's creator and
	// uses strict reads.
	VariantCreatorOnly
)

// String returns the variant name used in registry names and reports.
func (v Variant) String() string {
	if v == VariantCreatorOnly {
		return "creator-only"
	}
	return "open"
}

func (v Variant) policy() interfaces.MutationPolicy {
	if v == VariantCreatorOnly {
		return CreatorOnlyPolicy{}
	}
	return OpenPolicy{}
}

func (v Variant) strictReads() bool {
	return v == VariantCreatorOnly
}

func newFamilyLedger(family string, mode AllocationMode, variant Variant, audit interfaces.AuditSink, log *slog.Logger) *Ledger {
	ledger, err := NewLedger(Config{
		Name:        fmt.Sprintf("%s/%s", family, variant),
		Mode:        mode,
		Policy:      variant.policy(),
		StrictReads: variant.strictReads(),
		Audit:       audit,
		Log:         log,
	})
	if err != nil {
		// Only reachable through a programming error in this package;
		// family names and policies are fixed at compile time.
		panic(err)
	}
	return ledger
}

// ShipmentRegistry binds sequentially allocated shipment identifiers to
// caller-supplied integrity digests.
type ShipmentRegistry struct {
	*Ledger
}

// NewShipmentRegistry creates a shipment registry with the given variant.
func NewShipmentRegistry(variant Variant, audit interfaces.AuditSink, log *slog.Logger) *ShipmentRegistry {
	return &ShipmentRegistry{newFamilyLedger("ShipmentRegistry", SequentialIDs, variant, audit, log)}
}

// RegisterShipment records a new shipment digest and returns the allocated
// shipment identifier along with the stored record.
func (r *ShipmentRegistry) RegisterShipment(ctx interfaces.CallContext, digest interfaces.IntegrityHash) (uint64, interfaces.Record, error) {
	record, err := r.Register(ctx, digest)
	if err != nil {
		return 0, interfaces.Record{}, err
	}
	return record.ID.Sequence(), record, nil
}

// UpdateShipment replaces the digest of an existing shipment.
func (r *ShipmentRegistry) UpdateShipment(ctx interfaces.CallContext, shipmentID uint64, digest interfaces.IntegrityHash) (interfaces.Record, error) {
	return r.Update(ctx, interfaces.SequentialID(shipmentID), digest)
}

// GetShipment reads a shipment record by its identifier.
func (r *ShipmentRegistry) GetShipment(shipmentID uint64) (interfaces.Record, error) {
	return r.Get(interfaces.SequentialID(shipmentID))
}

// SegmentAcceptanceRegistry records the acceptance of a shipment segment
// by a carrier. Each acceptance stores the foreign shipment identifier it
// refers to; no referential check is performed against any shipment
// registry.
type SegmentAcceptanceRegistry struct {
	*Ledger
}

// NewSegmentAcceptanceRegistry creates a segment acceptance registry with
// the given variant.
func NewSegmentAcceptanceRegistry(variant Variant, audit interfaces.AuditSink, log *slog.Logger) *SegmentAcceptanceRegistry {
	return &SegmentAcceptanceRegistry{newFamilyLedger("ShipmentSegmentAcceptance", SequentialIDs, variant, audit, log)}
}

// RegisterAcceptance records a new segment acceptance for the given
// shipment and returns the allocated acceptance identifier.
func (r *SegmentAcceptanceRegistry) RegisterAcceptance(ctx interfaces.CallContext, shipmentID uint64, digest interfaces.IntegrityHash) (uint64, interfaces.Record, error) {
	record, err := r.registerSequential(ctx, digest, func(rec *interfaces.Record) {
		rec.ShipmentRef = shipmentID
	})
	if err != nil {
		return 0, interfaces.Record{}, err
	}
	return record.ID.Sequence(), record, nil
}

// UpdateAcceptance replaces the digest of an existing acceptance. The
// shipment reference set at registration is immutable.
func (r *SegmentAcceptanceRegistry) UpdateAcceptance(ctx interfaces.CallContext, acceptanceID uint64, digest interfaces.IntegrityHash) (interfaces.Record, error) {
	return r.Update(ctx, interfaces.SequentialID(acceptanceID), digest)
}

// GetAcceptance reads an acceptance record by its identifier.
func (r *SegmentAcceptanceRegistry) GetAcceptance(acceptanceID uint64) (interfaces.Record, error) {
	return r.Get(interfaces.SequentialID(acceptanceID))
}

// ProductRegistry binds caller-chosen product identifiers to the
// Keccak-256 digest of a canonical product payload. The registry hashes
// whatever bytes it is given; canonicalization is the caller's concern.
type ProductRegistry struct {
	*Ledger
}

// NewProductRegistry creates a product registry with the given variant.
func NewProductRegistry(variant Variant, audit interfaces.AuditSink, log *slog.Logger) *ProductRegistry {
	return &ProductRegistry{newFamilyLedger("ProductRegistry", CallerSuppliedIDs, variant, audit, log)}
}

// RegisterProduct hashes the canonical payload and records it under the
// given product identifier.
func (r *ProductRegistry) RegisterProduct(ctx interfaces.CallContext, productID interfaces.RecordID, payload []byte) (interfaces.Record, error) {
	return r.RegisterWithID(ctx, productID, interfaces.ComputeIntegrityHash(payload))
}

// UpdateProduct hashes the new canonical payload and replaces the stored
// digest of an existing product.
func (r *ProductRegistry) UpdateProduct(ctx interfaces.CallContext, productID interfaces.RecordID, payload []byte) (interfaces.Record, error) {
	return r.Update(ctx, productID, interfaces.ComputeIntegrityHash(payload))
}

// GetProduct reads a product record by its identifier.
func (r *ProductRegistry) GetProduct(productID interfaces.RecordID) (interfaces.Record, error) {
	return r.Get(productID)
}

// BatchRegistry binds caller-chosen batch identifiers to the Keccak-256
// digest of a canonical batch payload.
type BatchRegistry struct {
	*Ledger
}

// NewBatchRegistry creates a batch registry with the given variant.
func NewBatchRegistry(variant Variant, audit interfaces.AuditSink, log *slog.Logger) *BatchRegistry {
	return &BatchRegistry{newFamilyLedger("BatchRegistry", CallerSuppliedIDs, variant, audit, log)}
}

// RegisterBatch hashes the canonical payload and records it under the
// given batch identifier.
func (r *BatchRegistry) RegisterBatch(ctx interfaces.CallContext, batchID interfaces.RecordID, payload []byte) (interfaces.Record, error) {
	return r.RegisterWithID(ctx, batchID, interfaces.ComputeIntegrityHash(payload))
}

// UpdateBatch hashes the new canonical payload and replaces the stored
// digest of an existing batch.
func (r *BatchRegistry) UpdateBatch(ctx interfaces.CallContext, batchID interfaces.RecordID, payload []byte) (interfaces.Record, error) {
	return r.Update(ctx, batchID, interfaces.ComputeIntegrityHash(payload))
}

// GetBatch reads a batch record by its identifier.
func (r *BatchRegistry) GetBatch(batchID interfaces.RecordID) (interfaces.Record, error) {
	return r.Get(batchID)
}

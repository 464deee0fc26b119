package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/provsec/chainregistry/audit"
	"github.com/provsec/chainregistry/interfaces"
	"github.com/provsec/chainregistry/metrics"
	"github.com/provsec/chainregistry/registry"
)

// Request headers carrying the ambient caller identity and logical time.
// Both are supplied by the trusted front-end; the registries treat them
// as opaque inputs.
const (
	ActorHeader = "X-Registry-Actor"
	TimeHeader  = "X-Registry-Time"
)

// URL path segments naming the registry families.
const (
	FamilyShipments     = "shipments"
	FamilyAcceptances   = "segment-acceptances"
	FamilyProducts      = "products"
	FamilyBatches       = "batches"
	FamilyRegistrations = "registrations"
)

// Handler exposes the registry operation surface over HTTP. It serves
// both variants side by side, selected by the {variant} path segment.
type Handler struct {
	sets     map[string]*registry.Set
	payloads interfaces.PayloadBackend
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewHandler creates a handler serving the given registry sets. The
// payload backend is optional; when present, canonical payloads of
// payload-bearing families are archived there on every accepted mutation.
func NewHandler(open, hardened *registry.Set, payloads interfaces.PayloadBackend, log *slog.Logger) *Handler {
	return &Handler{
		sets: map[string]*registry.Set{
			registry.VariantOpen.String():        open,
			registry.VariantCreatorOnly.String(): hardened,
		},
		payloads: payloads,
		log:      log,
	}
}

type registerRequest struct {
	// Digest is the pre-computed integrity hash, hex-encoded. Used by the
	// shipment and segment acceptance families.
	Digest string `json:"digest,omitempty"`

	// Payload is the canonical payload to hash, base64-encoded by
	// encoding/json. Used by the product, batch, and registration
	// families.
	Payload []byte `json:"payload,omitempty"`

	// ID is the caller-chosen record identifier, hex-encoded. Required
	// for the product, batch, and registration families.
	ID string `json:"id,omitempty"`

	// ShipmentID is the foreign shipment identifier recorded by the
	// segment acceptance family.
	ShipmentID uint64 `json:"shipment_id,omitempty"`

	// Kind is the participant kind name for the registration family.
	Kind string `json:"kind,omitempty"`
}

type recordResponse struct {
	ID          string `json:"id"`
	Sequence    uint64 `json:"sequence,omitempty"`
	Hash        string `json:"hash"`
	CreatedAt   uint64 `json:"created_at"`
	CreatedBy   string `json:"created_by"`
	UpdatedAt   uint64 `json:"updated_at,omitempty"`
	UpdatedBy   string `json:"updated_by,omitempty"`
	Exists      bool   `json:"exists"`
	Kind        string `json:"kind,omitempty"`
	ShipmentRef uint64 `json:"shipment_ref,omitempty"`
}

func makeRecordResponse(rec interfaces.Record, sequential bool) recordResponse {
	resp := recordResponse{
		ID:          rec.ID.String(),
		Hash:        rec.Hash.String(),
		CreatedAt:   rec.CreatedAt,
		CreatedBy:   rec.CreatedBy.String(),
		UpdatedAt:   rec.UpdatedAt,
		Exists:      rec.Exists,
		ShipmentRef: rec.ShipmentRef,
	}
	if sequential {
		resp.Sequence = rec.ID.Sequence()
	}
	if !rec.UpdatedBy.IsZero() {
		resp.UpdatedBy = rec.UpdatedBy.String()
	}
	if rec.Kind != interfaces.KindUnknown {
		resp.Kind = rec.Kind.String()
	}
	return resp
}

// HandleRegister creates a new record in the addressed registry.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	set, family, ok := h.resolve(w, r)
	if !ok {
		return
	}

	ctx, err := h.callContext(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var rec interfaces.Record
	switch family {
	case FamilyShipments:
		digest, derr := interfaces.NewIntegrityHashFromHex(req.Digest)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		_, rec, err = set.Shipments.RegisterShipment(ctx, digest)

	case FamilyAcceptances:
		digest, derr := interfaces.NewIntegrityHashFromHex(req.Digest)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		_, rec, err = set.Acceptances.RegisterAcceptance(ctx, req.ShipmentID, digest)

	case FamilyProducts:
		id, derr := interfaces.NewRecordIDFromHex(req.ID)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		rec, err = set.Products.RegisterProduct(ctx, id, req.Payload)
		h.archivePayload(r, req.Payload, err)

	case FamilyBatches:
		id, derr := interfaces.NewRecordIDFromHex(req.ID)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		rec, err = set.Batches.RegisterBatch(ctx, id, req.Payload)
		h.archivePayload(r, req.Payload, err)

	case FamilyRegistrations:
		id, derr := interfaces.NewRecordIDFromHex(req.ID)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		kind, derr := interfaces.ParseKind(req.Kind)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		rec, err = set.Registrations.Submit(ctx, id, kind, req.Payload, false)
		h.archivePayload(r, req.Payload, err)
	}

	if h.metrics != nil {
		h.metrics.RecordOperation(family, string(interfaces.AuditOpRegister), err)
	}
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, makeRecordResponse(rec, family == FamilyShipments || family == FamilyAcceptances))
}

// HandleUpdate replaces the stored hash of an existing record.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	set, family, ok := h.resolve(w, r)
	if !ok {
		return
	}

	ctx, err := h.callContext(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	id, sequential, err := parseRecordID(family, chi.URLParam(r, "record_id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var rec interfaces.Record
	switch family {
	case FamilyShipments:
		digest, derr := interfaces.NewIntegrityHashFromHex(req.Digest)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		rec, err = set.Shipments.UpdateShipment(ctx, id.Sequence(), digest)

	case FamilyAcceptances:
		digest, derr := interfaces.NewIntegrityHashFromHex(req.Digest)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		rec, err = set.Acceptances.UpdateAcceptance(ctx, id.Sequence(), digest)

	case FamilyProducts:
		rec, err = set.Products.UpdateProduct(ctx, id, req.Payload)
		h.archivePayload(r, req.Payload, err)

	case FamilyBatches:
		rec, err = set.Batches.UpdateBatch(ctx, id, req.Payload)
		h.archivePayload(r, req.Payload, err)

	case FamilyRegistrations:
		kind, derr := interfaces.ParseKind(req.Kind)
		if derr != nil {
			h.writeError(w, http.StatusBadRequest, derr)
			return
		}
		rec, err = set.Registrations.Submit(ctx, id, kind, req.Payload, true)
		h.archivePayload(r, req.Payload, err)
	}

	if h.metrics != nil {
		h.metrics.RecordOperation(family, string(interfaces.AuditOpUpdate), err)
	}
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, makeRecordResponse(rec, sequential))
}

// HandleGet reads a record.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	set, family, ok := h.resolve(w, r)
	if !ok {
		return
	}

	id, sequential, err := parseRecordID(family, chi.URLParam(r, "record_id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	var rec interfaces.Record
	switch family {
	case FamilyShipments:
		rec, err = set.Shipments.GetShipment(id.Sequence())
	case FamilyAcceptances:
		rec, err = set.Acceptances.GetAcceptance(id.Sequence())
	case FamilyProducts:
		rec, err = set.Products.GetProduct(id)
	case FamilyBatches:
		rec, err = set.Batches.GetBatch(id)
	case FamilyRegistrations:
		rec, err = set.Registrations.GetRegistration(id)
	}

	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, makeRecordResponse(rec, sequential))
}

// HandleAuditTrail exports the variant's audit log as CSV.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	set, present := h.sets[chi.URLParam(r, "variant")]
	if !present {
		h.writeError(w, http.StatusNotFound, errors.New("unknown registry variant"))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if err := audit.WriteCSV(w, set.Events()); err != nil {
		h.log.Error("Failed to write audit trail", "err", err)
	}
}

// resolve picks the registry set and family for a request.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*registry.Set, string, bool) {
	set, present := h.sets[chi.URLParam(r, "variant")]
	if !present {
		h.writeError(w, http.StatusNotFound, errors.New("unknown registry variant"))
		return nil, "", false
	}

	family := chi.URLParam(r, "family")
	switch family {
	case FamilyShipments, FamilyAcceptances, FamilyProducts, FamilyBatches, FamilyRegistrations:
		return set, family, true
	default:
		h.writeError(w, http.StatusNotFound, fmt.Errorf("unknown registry family %q", family))
		return nil, "", false
	}
}

// callContext assembles the ambient caller identity and logical time from
// the request headers. A missing time header defaults to the wall clock.
func (h *Handler) callContext(r *http.Request) (interfaces.CallContext, error) {
	actor, err := interfaces.NewIdentityFromHex(r.Header.Get(ActorHeader))
	if err != nil {
		return interfaces.CallContext{}, fmt.Errorf("invalid %s header: %w", ActorHeader, err)
	}

	logicalTime := uint64(time.Now().Unix())
	if raw := r.Header.Get(TimeHeader); raw != "" {
		logicalTime, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return interfaces.CallContext{}, fmt.Errorf("invalid %s header: %w", TimeHeader, err)
		}
	}

	return interfaces.CallContext{Caller: actor, Time: logicalTime}, nil
}

// parseRecordID interprets the record_id path segment: a decimal sequence
// number for sequential families, a 32-byte hex identifier otherwise.
func parseRecordID(family, raw string) (interfaces.RecordID, bool, error) {
	switch family {
	case FamilyShipments, FamilyAcceptances:
		seq, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return interfaces.RecordID{}, true, fmt.Errorf("invalid sequence number: %w", err)
		}
		return interfaces.SequentialID(seq), true, nil
	default:
		id, err := interfaces.NewRecordIDFromHex(raw)
		return id, false, err
	}
}

// archivePayload stores the canonical payload of an accepted mutation in
// the payload backend, best effort. The registry record is the source of
// truth; archival failures are logged and not surfaced to the caller.
func (h *Handler) archivePayload(r *http.Request, payload []byte, opErr error) {
	if h.payloads == nil || opErr != nil || len(payload) == 0 {
		return
	}
	if _, err := h.payloads.Store(r.Context(), payload); err != nil {
		h.log.Warn("Failed to archive payload", "err", err)
	}
}

func (h *Handler) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfaces.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, interfaces.ErrDoesNotExist):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, interfaces.ErrNotAuthorized):
		h.writeError(w, http.StatusForbidden, err)
	case errors.Is(err, interfaces.ErrInvalidKind), errors.Is(err, interfaces.ErrPayloadTooLarge):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provsec/chainregistry/interfaces"
	"github.com/provsec/chainregistry/registry"
)

const (
	actorA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	actorB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	// Logger with no output for tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	open := registry.NewSet(registry.VariantOpen, logger)
	hardened := registry.NewSet(registry.VariantCreatorOnly, logger)
	handler := NewHandler(open, hardened, nil, logger)

	mux := chi.NewRouter()
	mux.Post("/api/registries/{family}/{variant}/records", handler.HandleRegister)
	mux.Put("/api/registries/{family}/{variant}/records/{record_id}", handler.HandleUpdate)
	mux.Get("/api/registries/{family}/{variant}/records/{record_id}", handler.HandleGet)
	mux.Get("/api/audit/{variant}", handler.HandleAuditTrail)
	return mux
}

func doJSON(t *testing.T, mux http.Handler, method, target, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeRecord(t *testing.T, w *httptest.ResponseRecorder) recordResponse {
	t.Helper()

	var resp recordResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHandleRegister_Shipment(t *testing.T) {
	mux := newTestRouter(t)
	digest := interfaces.ComputeIntegrityHash([]byte("shipment manifest v1"))

	w := doJSON(t, mux, http.MethodPost, "/api/registries/shipments/open/records", actorA,
		registerRequest{Digest: digest.String()})

	require.Equal(t, http.StatusCreated, w.Code)
	rec := decodeRecord(t, w)
	assert.Equal(t, uint64(1), rec.Sequence)
	assert.Equal(t, digest.String(), rec.Hash)
	assert.Equal(t, actorA, rec.CreatedBy)
	assert.True(t, rec.Exists)

	// The allocator hands out consecutive identifiers.
	w = doJSON(t, mux, http.MethodPost, "/api/registries/shipments/open/records", actorA,
		registerRequest{Digest: digest.String()})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint64(2), decodeRecord(t, w).Sequence)
}

func TestHandleUpdate_VariantAuthorization(t *testing.T) {
	mux := newTestRouter(t)
	digest := interfaces.ComputeIntegrityHash([]byte("original"))
	replacement := interfaces.ComputeIntegrityHash([]byte("replacement"))

	for _, variant := range []string{"open", "creator-only"} {
		w := doJSON(t, mux, http.MethodPost,
			fmt.Sprintf("/api/registries/shipments/%s/records", variant), actorA,
			registerRequest{Digest: digest.String()})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// A foreign caller can overwrite open records.
	w := doJSON(t, mux, http.MethodPut, "/api/registries/shipments/open/records/1", actorB,
		registerRequest{Digest: replacement.String()})
	assert.Equal(t, http.StatusOK, w.Code)
	rec := decodeRecord(t, w)
	assert.Equal(t, replacement.String(), rec.Hash)
	assert.Equal(t, actorB, rec.UpdatedBy)

	// The creator-only variant rejects the same call.
	w = doJSON(t, mux, http.MethodPut, "/api/registries/shipments/creator-only/records/1", actorB,
		registerRequest{Digest: replacement.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The creator-only record is untouched and the creator can still update it.
	w = doJSON(t, mux, http.MethodGet, "/api/registries/shipments/creator-only/records/1", actorA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, digest.String(), decodeRecord(t, w).Hash)

	w = doJSON(t, mux, http.MethodPut, "/api/registries/shipments/creator-only/records/1", actorA,
		registerRequest{Digest: replacement.String()})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleGet_AbsentRecord(t *testing.T) {
	mux := newTestRouter(t)

	// Open reads answer with an empty record.
	w := doJSON(t, mux, http.MethodGet, "/api/registries/shipments/open/records/42", actorA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeRecord(t, w).Exists)

	// Strict reads answer with 404.
	w = doJSON(t, mux, http.MethodGet, "/api/registries/shipments/creator-only/records/42", actorA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleRegister_Product(t *testing.T) {
	mux := newTestRouter(t)
	payload := []byte(`{"sku":"X-100","name":"widget"}`)
	productID := interfaces.ComputeIntegrityHash([]byte("product X-100"))

	w := doJSON(t, mux, http.MethodPost, "/api/registries/products/open/records", actorA,
		registerRequest{ID: productID.String(), Payload: payload})
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decodeRecord(t, w)
	assert.Equal(t, interfaces.ComputeIntegrityHash(payload).String(), rec.Hash)
	assert.Zero(t, rec.Sequence)

	// Replay of a taken identifier conflicts.
	w = doJSON(t, mux, http.MethodPost, "/api/registries/products/open/records", actorB,
		registerRequest{ID: productID.String(), Payload: payload})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleRegister_Acceptance(t *testing.T) {
	mux := newTestRouter(t)
	digest := interfaces.ComputeIntegrityHash([]byte("segment proof"))

	w := doJSON(t, mux, http.MethodPost, "/api/registries/segment-acceptances/open/records", actorA,
		registerRequest{ShipmentID: 7, Digest: digest.String()})
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decodeRecord(t, w)
	assert.Equal(t, uint64(1), rec.Sequence)
	assert.Equal(t, uint64(7), rec.ShipmentRef)
}

func TestHandleRegister_Registration(t *testing.T) {
	mux := newTestRouter(t)
	regID := interfaces.ComputeIntegrityHash([]byte("acme corp"))

	w := doJSON(t, mux, http.MethodPost, "/api/registries/registrations/open/records", actorA,
		registerRequest{ID: regID.String(), Kind: "manufacturer", Payload: []byte(`{"org":"acme"}`)})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "manufacturer", decodeRecord(t, w).Kind)

	// Unknown kinds are rejected before any state change.
	w = doJSON(t, mux, http.MethodPost, "/api/registries/registrations/open/records", actorA,
		registerRequest{ID: interfaces.ComputeIntegrityHash([]byte("other")).String(), Kind: "wizard", Payload: []byte(`{}`)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// So are oversized payloads.
	w = doJSON(t, mux, http.MethodPost, "/api/registries/registrations/open/records", actorA,
		registerRequest{ID: interfaces.ComputeIntegrityHash([]byte("big")).String(), Kind: "supplier", Payload: bytes.Repeat([]byte("x"), interfaces.MaxRegistrationPayload+1)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRegister_BadRequests(t *testing.T) {
	mux := newTestRouter(t)
	digest := interfaces.ComputeIntegrityHash([]byte("x"))

	// Missing actor header
	w := doJSON(t, mux, http.MethodPost, "/api/registries/shipments/open/records", "",
		registerRequest{Digest: digest.String()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown family
	w = doJSON(t, mux, http.MethodPost, "/api/registries/parcels/open/records", actorA,
		registerRequest{Digest: digest.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unknown variant
	w = doJSON(t, mux, http.MethodPost, "/api/registries/shipments/strict/records", actorA,
		registerRequest{Digest: digest.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed digest
	w = doJSON(t, mux, http.MethodPost, "/api/registries/shipments/open/records", actorA,
		registerRequest{Digest: "not-hex"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAuditTrail(t *testing.T) {
	mux := newTestRouter(t)
	digest := interfaces.ComputeIntegrityHash([]byte("audited"))

	w := doJSON(t, mux, http.MethodPost, "/api/registries/shipments/open/records", actorA,
		registerRequest{Digest: digest.String()})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/audit/open", actorA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "seq,registry,op,id,hash,actor,time", lines[0])
	assert.Contains(t, lines[1], "ShipmentRegistry")
	assert.Contains(t, lines[1], "register")
	assert.Contains(t, lines[1], actorA)

	// The other variant has its own, still empty, trail.
	w = doJSON(t, mux, http.MethodGet, "/api/audit/creator-only", actorA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "seq,registry,op,id,hash,actor,time", strings.TrimSpace(w.Body.String()))
}

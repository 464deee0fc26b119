package registry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provsec/chainregistry/interfaces"
)

func TestRegistrationRegistry_Submit(t *testing.T) {
	alice := testIdentity(0x01)
	reg := NewRegistrationRegistry(VariantOpen, nil, discardLogger())
	id := testRecordID(0x30)
	payload := []byte(`{"org":"acme"}`)

	rec, err := reg.Submit(callAt(alice, 1), id, interfaces.KindManufacturer, payload, false)
	require.NoError(t, err)
	assert.Equal(t, interfaces.KindManufacturer, rec.Kind)
	assert.Equal(t, interfaces.ComputeIntegrityHash(payload), rec.Hash)

	// The isUpdate assertion is cross-checked against presence.
	_, err = reg.Submit(callAt(alice, 2), id, interfaces.KindManufacturer, payload, false)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyExists)
	_, err = reg.Submit(callAt(alice, 3), testRecordID(0x31), interfaces.KindManufacturer, payload, true)
	assert.ErrorIs(t, err, interfaces.ErrDoesNotExist)

	// The kind is validated on update but not rewritten.
	replacement := []byte(`{"org":"acme","tier":2}`)
	rec, err = reg.Submit(callAt(alice, 4), id, interfaces.KindWarehouse, replacement, true)
	require.NoError(t, err)
	assert.Equal(t, interfaces.KindManufacturer, rec.Kind)
	assert.Equal(t, interfaces.ComputeIntegrityHash(replacement), rec.Hash)
}

func TestRegistrationRegistry_Validation(t *testing.T) {
	alice := testIdentity(0x01)
	reg := NewRegistrationRegistry(VariantOpen, nil, discardLogger())
	id := testRecordID(0x40)

	// Invalid kinds fail before any state is touched.
	_, err := reg.Submit(callAt(alice, 1), id, interfaces.KindUnknown, []byte("x"), false)
	assert.ErrorIs(t, err, interfaces.ErrInvalidKind)
	_, err = reg.Submit(callAt(alice, 1), id, interfaces.KindConsumer+1, []byte("x"), false)
	assert.ErrorIs(t, err, interfaces.ErrInvalidKind)

	// So do oversized payloads, both on create and update.
	oversize := bytes.Repeat([]byte("x"), interfaces.MaxRegistrationPayload+1)
	_, err = reg.Submit(callAt(alice, 2), id, interfaces.KindSupplier, oversize, false)
	assert.ErrorIs(t, err, interfaces.ErrPayloadTooLarge)

	rec, err := reg.GetRegistration(id)
	require.NoError(t, err)
	assert.False(t, rec.Exists)

	// A payload at exactly the ceiling is accepted.
	limit := bytes.Repeat([]byte("x"), interfaces.MaxRegistrationPayload)
	_, err = reg.Submit(callAt(alice, 3), id, interfaces.KindSupplier, limit, false)
	require.NoError(t, err)

	_, err = reg.Submit(callAt(alice, 4), id, interfaces.KindSupplier, oversize, true)
	assert.ErrorIs(t, err, interfaces.ErrPayloadTooLarge)
}

func TestRegistrationRegistry_CreatorOnlyVariant(t *testing.T) {
	alice := testIdentity(0x01)
	bob := testIdentity(0x02)
	reg := NewRegistrationRegistry(VariantCreatorOnly, nil, discardLogger())
	id := testRecordID(0x50)

	_, err := reg.Submit(callAt(alice, 1), id, interfaces.KindConsumer, []byte("a"), false)
	require.NoError(t, err)

	_, err = reg.Submit(callAt(bob, 2), id, interfaces.KindConsumer, []byte("b"), true)
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorized)

	rec, err := reg.GetRegistration(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeIntegrityHash([]byte("a")), rec.Hash)
}

package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Hex(t *testing.T) {
	id, err := NewIdentityFromHex("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f1011121314", id.String())

	// The 0x prefix is optional.
	same, err := NewIdentityFromHex("0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	assert.True(t, id.Equal(same))

	_, err = NewIdentityFromHex("0102")
	assert.Error(t, err)
	_, err = NewIdentityFromHex("zz02030405060708090a0b0c0d0e0f1011121314")
	assert.Error(t, err)

	assert.True(t, Identity{}.IsZero())
	assert.False(t, id.IsZero())
}

func TestComputeIntegrityHash(t *testing.T) {
	// Keccak-256 of the empty input, the canonical test vector.
	hash := ComputeIntegrityHash(nil)
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hash.String())

	// Hashing is deterministic and input-sensitive.
	assert.Equal(t, ComputeIntegrityHash([]byte("a")), ComputeIntegrityHash([]byte("a")))
	assert.NotEqual(t, ComputeIntegrityHash([]byte("a")), ComputeIntegrityHash([]byte("b")))
}

func TestIntegrityHash_Hex(t *testing.T) {
	hash := ComputeIntegrityHash([]byte("payload"))

	parsed, err := NewIntegrityHashFromHex(hash.String())
	require.NoError(t, err)
	assert.Equal(t, hash, parsed)

	_, err = NewIntegrityHashFromHex("abcd")
	assert.Error(t, err)

	assert.True(t, IntegrityHash{}.IsZero())
	assert.False(t, hash.IsZero())
}

func TestSequentialID(t *testing.T) {
	id := SequentialID(42)
	assert.Equal(t, uint64(42), id.Sequence())

	// The counter lives in the trailing 8 bytes; the rest is zero.
	for _, b := range id[:24] {
		assert.Zero(t, b)
	}

	assert.True(t, SequentialID(0).IsZero())
	assert.False(t, id.IsZero())
}

func TestRecordID_Hex(t *testing.T) {
	id := RecordID(ComputeIntegrityHash([]byte("some key")))

	parsed, err := NewRecordIDFromHex("0x" + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewRecordIDFromHex("1234")
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	for _, kind := range []Kind{KindManufacturer, KindSupplier, KindWarehouse, KindConsumer} {
		assert.True(t, kind.Valid())

		parsed, err := ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	assert.False(t, KindUnknown.Valid())
	assert.False(t, (KindConsumer + 1).Valid())
	assert.Equal(t, "unknown", KindUnknown.String())

	// Parsing is case-insensitive.
	parsed, err := ParseKind("Manufacturer")
	require.NoError(t, err)
	assert.Equal(t, KindManufacturer, parsed)

	_, err = ParseKind("wizard")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestNewStorageBackendLocation(t *testing.T) {
	loc, err := NewStorageBackendLocation("s3://user:pass@bucket/path?region=us-west-2")
	require.NoError(t, err)
	assert.Equal(t, "s3", loc.Scheme)
	assert.Equal(t, "bucket", loc.Host)
	assert.Equal(t, "/path", loc.Path)
	assert.Equal(t, "us-west-2", loc.GetParam("region"))
	assert.Equal(t, "user", loc.Username)
	assert.Equal(t, "pass", loc.Password)

	// Hostname and Port split a host:port pair; a bare host has no port.
	loc, err = NewStorageBackendLocation("ipfs://127.0.0.1:5001/?timeout=10s")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", loc.Hostname())
	assert.Equal(t, "5001", loc.Port())
	loc, err = NewStorageBackendLocation("s3://bucket/path")
	require.NoError(t, err)
	assert.Equal(t, "bucket", loc.Hostname())
	assert.Empty(t, loc.Port())

	_, err = NewStorageBackendLocation("http://example.com")
	assert.ErrorIs(t, err, ErrInvalidLocationURI)
}

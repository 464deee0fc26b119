package interfaces

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Identity represents a 20-byte actor address. The zero value is the null
// identity, used for records that were never updated.
type Identity [20]byte

// NewIdentityFromBytes creates an identity from a raw 20-byte slice.
func NewIdentityFromBytes(addr []byte) (Identity, error) {
	if len(addr) != 20 {
		return Identity{}, errors.New("invalid identity length: must be 20 bytes")
	}

	var res Identity
	copy(res[:], addr)
	return res, nil
}

// NewIdentityFromHex creates an identity from a hex string, with or without
// a 0x prefix.
func NewIdentityFromHex(addr string) (Identity, error) {
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return Identity{}, errors.New("invalid identity length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewIdentityFromBytes(addrBytes)
}

// String returns the hex string representation of the identity.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 20-byte address.
func (id Identity) Bytes() []byte {
	return id[:]
}

// Equal compares two identities for equality.
func (id Identity) Equal(other Identity) bool {
	return id == other
}

// IsZero reports whether the identity is the null identity.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// IntegrityHash is a 32-byte Keccak-256 digest committing to an off-chain
// canonical payload.
type IntegrityHash [32]byte

// ComputeIntegrityHash calculates the integrity hash of a canonical payload.
func ComputeIntegrityHash(payload []byte) IntegrityHash {
	return IntegrityHash(crypto.Keccak256Hash(payload))
}

// NewIntegrityHashFromBytes creates an integrity hash from a raw 32-byte slice.
func NewIntegrityHashFromBytes(source []byte) (IntegrityHash, error) {
	if len(source) != 32 {
		return IntegrityHash{}, errors.New("invalid integrity hash length: must be 32 bytes")
	}

	var hash IntegrityHash
	copy(hash[:], source)
	return hash, nil
}

// NewIntegrityHashFromHex creates an integrity hash from a hex string, with
// or without a 0x prefix.
func NewIntegrityHashFromHex(source string) (IntegrityHash, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return IntegrityHash{}, errors.New("invalid integrity hash length: hex string must be 64 characters")
	}

	hashBytes, err := hex.DecodeString(clean)
	if err != nil {
		return IntegrityHash{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewIntegrityHashFromBytes(hashBytes)
}

// String returns the hex string representation of the hash.
func (h IntegrityHash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte digest.
func (h IntegrityHash) Bytes() []byte {
	return h[:]
}

// IsZero reports whether the hash is all zeroes.
func (h IntegrityHash) IsZero() bool {
	return h == IntegrityHash{}
}

// RecordID is the 32-byte key a record is stored under. Sequential families
// encode their allocator-assigned counter into the trailing 8 bytes;
// caller-supplied families use the full width.
type RecordID [32]byte

// SequentialID encodes an allocator-assigned counter value as a RecordID.
func SequentialID(n uint64) RecordID {
	var id RecordID
	binary.BigEndian.PutUint64(id[24:], n)
	return id
}

// Sequence decodes the counter value from a sequentially allocated RecordID.
func (id RecordID) Sequence() uint64 {
	return binary.BigEndian.Uint64(id[24:])
}

// NewRecordIDFromBytes creates a record id from a raw 32-byte slice.
func NewRecordIDFromBytes(source []byte) (RecordID, error) {
	if len(source) != 32 {
		return RecordID{}, errors.New("invalid record id length: must be 32 bytes")
	}

	var id RecordID
	copy(id[:], source)
	return id, nil
}

// NewRecordIDFromHex creates a record id from a hex string, with or without
// a 0x prefix.
func NewRecordIDFromHex(source string) (RecordID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return RecordID{}, errors.New("invalid record id length: hex string must be 64 characters")
	}

	idBytes, err := hex.DecodeString(clean)
	if err != nil {
		return RecordID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewRecordIDFromBytes(idBytes)
}

// String returns the hex string representation of the record id.
func (id RecordID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the id is all zeroes. Id zero is reserved as
// "no such identifier" and is never allocated.
func (id RecordID) IsZero() bool {
	return id == RecordID{}
}

// CallContext carries the caller identity and logical timestamp for a
// registry operation. Both are supplied by the surrounding execution
// environment and treated as opaque, tamper-proof inputs.
type CallContext struct {
	Caller Identity
	Time   uint64
}

// Kind is the closed participant enumeration used by the registration
// family.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindManufacturer
	KindSupplier
	KindWarehouse
	KindConsumer
)

// Valid reports whether the kind is one of the declared values.
func (k Kind) Valid() bool {
	return k >= KindManufacturer && k <= KindConsumer
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindManufacturer:
		return "manufacturer"
	case KindSupplier:
		return "supplier"
	case KindWarehouse:
		return "warehouse"
	case KindConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name to its enumeration value.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "manufacturer":
		return KindManufacturer, nil
	case "supplier":
		return KindSupplier, nil
	case "warehouse":
		return KindWarehouse, nil
	case "consumer":
		return KindConsumer, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// MaxRegistrationPayload is the byte-length ceiling for registration
// payloads, checked before hashing.
const MaxRegistrationPayload = 1024

// Record is the persisted metadata unit keyed by a RecordID. UpdatedAt and
// UpdatedBy keep their zero values until the first update. Exists is the
// explicit presence flag; it removes the ambiguity between "never created"
// and "created at logical time zero".
type Record struct {
	ID        RecordID
	Hash      IntegrityHash
	CreatedAt uint64
	UpdatedAt uint64
	CreatedBy Identity
	UpdatedBy Identity
	Exists    bool

	// Kind is set only by the registration family.
	Kind Kind

	// ShipmentRef is set only by the segment acceptance family. It is a
	// plain foreign identifier; no referential check is performed.
	ShipmentRef uint64
}

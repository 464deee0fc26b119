package harness

import (
	"encoding/binary"

	"github.com/provsec/chainregistry/interfaces"
	"golang.org/x/crypto/sha3"
)

// Stream is a deterministic byte stream derived from a seed string via
// SHAKE-256. Two streams with the same seed produce identical operation
// sequences, which makes every bench trial reproducible.
type Stream struct {
	shake sha3.ShakeHash
}

// NewStream creates a stream seeded with the given string.
func NewStream(seed string) *Stream {
	shake := sha3.NewShake256()
	shake.Write([]byte(seed))
	return &Stream{shake: shake}
}

func (s *Stream) read(buf []byte) {
	// ShakeHash.Read never returns an error.
	s.shake.Read(buf)
}

// Uint64 returns the next 8 stream bytes as a big-endian integer.
func (s *Stream) Uint64() uint64 {
	var buf [8]byte
	s.read(buf[:])
	return binary.BigEndian.Uint64(buf[:])
}

// Intn returns a value in [0, n). n must be positive.
func (s *Stream) Intn(n int) int {
	return int(s.Uint64() % uint64(n))
}

// Bytes returns the next n stream bytes.
func (s *Stream) Bytes(n int) []byte {
	buf := make([]byte, n)
	s.read(buf)
	return buf
}

// Hash returns the next 32 stream bytes as an integrity hash.
func (s *Stream) Hash() interfaces.IntegrityHash {
	var hash interfaces.IntegrityHash
	s.read(hash[:])
	return hash
}

// RecordID returns the next 32 stream bytes as a record identifier.
func (s *Stream) RecordID() interfaces.RecordID {
	var id interfaces.RecordID
	s.read(id[:])
	return id
}

// Identity returns the next 20 stream bytes as an actor identity.
func (s *Stream) Identity() interfaces.Identity {
	var id interfaces.Identity
	s.read(id[:])
	return id
}

// Actors derives a pool of n distinct actor identities.
func (s *Stream) Actors(n int) []interfaces.Identity {
	actors := make([]interfaces.Identity, n)
	for i := range actors {
		actors[i] = s.Identity()
	}
	return actors
}

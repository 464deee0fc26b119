package interfaces

import "errors"

// Registry operation failures. Every failure is reported synchronously and
// leaves the registry untouched; there is no partial state.
var (
	// ErrAlreadyExists is returned when registering an identifier that is
	// already present.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrDoesNotExist is returned when updating or reading an identifier
	// that was never registered.
	ErrDoesNotExist = errors.New("record does not exist")

	// ErrNotAuthorized is returned by the creator-only policy when the
	// caller is not the record's creator.
	ErrNotAuthorized = errors.New("caller is not the record creator")

	// ErrInvalidKind is returned when a registration carries a kind outside
	// the declared enumeration.
	ErrInvalidKind = errors.New("invalid registration kind")

	// ErrPayloadTooLarge is returned when a registration payload exceeds
	// MaxRegistrationPayload.
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")
)

// Payload store failures.
var (
	// ErrPayloadNotFound indicates the requested content does not exist in
	// the backend.
	ErrPayloadNotFound = errors.New("payload not found")

	// ErrBackendUnavailable indicates the backend cannot be reached.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI indicates a malformed backend location URI.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

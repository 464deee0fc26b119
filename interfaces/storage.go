package interfaces

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// StorageBackendLocation represents a parsed payload backend URI.
type StorageBackendLocation struct {
	Raw      string     // Original URI
	Scheme   string     // Protocol
	Host     string     // Hostname, possibly with port
	Path     string     // Resource path
	Query    url.Values // Query parameters
	Username string     // Embedded credentials, if any
	Password string
}

// NewStorageBackendLocation creates a storage location from a URI string
// with validation.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "s3", "ipfs", "vault":
	default:
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	loc := StorageBackendLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
	}
	if parsed.User != nil {
		loc.Username = parsed.User.Username()
		loc.Password, _ = parsed.User.Password()
	}
	return loc, nil
}

// String returns the original URI string.
func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StorageBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// Hostname returns the host without any port.
func (loc StorageBackendLocation) Hostname() string {
	host, _, err := net.SplitHostPort(loc.Host)
	if err != nil {
		return loc.Host
	}
	return host
}

// Port returns the port of the host, or "" when none is present.
func (loc StorageBackendLocation) Port() string {
	_, port, err := net.SplitHostPort(loc.Host)
	if err != nil {
		return ""
	}
	return port
}

// PayloadBackend provides content-addressed storage for the off-chain
// canonical payloads that registries commit to by hash. Content is keyed
// by its Keccak-256 integrity hash, so a record's stored hash is also the
// lookup key for its payload.
type PayloadBackend interface {
	// Fetch retrieves a payload by its integrity hash. Returns
	// ErrPayloadNotFound if the content does not exist.
	Fetch(ctx context.Context, hash IntegrityHash) ([]byte, error)

	// Store saves a payload and returns its integrity hash.
	Store(ctx context.Context, payload []byte) (IntegrityHash, error)

	// Available checks if the backend is accessible.
	Available(ctx context.Context) bool

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}

// PayloadStoreFactory creates payload backends from URI strings.
type PayloadStoreFactory interface {
	BackendFor(locationURI string) (PayloadBackend, error)
}

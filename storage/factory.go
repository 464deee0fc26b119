package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/provsec/chainregistry/interfaces"
)

// PayloadStoreFactory creates payload backends from URI strings.
type PayloadStoreFactory struct {
	log *slog.Logger
}

var _ interfaces.PayloadStoreFactory = (*PayloadStoreFactory)(nil)

// NewPayloadStoreFactory creates a new factory instance.
func NewPayloadStoreFactory(log *slog.Logger) *PayloadStoreFactory {
	return &PayloadStoreFactory{log: log}
}

// BackendFor creates a payload backend from a location URI.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node
//   - vault:// - HashiCorp Vault KV v2
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *PayloadStoreFactory) BackendFor(locationURI string) (interfaces.PayloadBackend, error) {
	loc, err := interfaces.NewStorageBackendLocation(locationURI)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "file":
		return sf.createFileBackend(loc)
	case "s3":
		return sf.createS3Backend(loc)
	case "ipfs":
		return sf.createIPFSBackend(loc)
	default:
		return sf.createVaultBackend(loc)
	}
}

// createFileBackend creates a file system payload backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *PayloadStoreFactory) createFileBackend(loc interfaces.StorageBackendLocation) (interfaces.PayloadBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", loc.String()))

	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: file URI has no path", interfaces.ErrInvalidLocationURI)
	}

	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible payload backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
func (sf *PayloadStoreFactory) createS3Backend(loc interfaces.StorageBackendLocation) (interfaces.PayloadBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", loc.String()))

	bucketName := loc.Host
	path := strings.TrimPrefix(loc.Path, "/")

	region := loc.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := loc.GetParam("endpoint")

	if loc.Username != "" {
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	return NewS3Backend(bucketName, path, region, endpoint, loc.Username, loc.Password, sf.log)
}

// createIPFSBackend creates an IPFS payload backend.
// URI format: ipfs://host:port/?timeout=30s
func (sf *PayloadStoreFactory) createIPFSBackend(loc interfaces.StorageBackendLocation) (interfaces.PayloadBackend, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", loc.String()))

	port := loc.Port()
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	timeout := loc.GetParam("timeout")
	if timeout == "" {
		timeout = "30s"
	}

	return NewIPFSBackend(loc.Hostname(), port, timeout, sf.log)
}

// createVaultBackend creates a Vault payload backend.
// URI format: vault://host:port/mount/datapath?token=...&scheme=https
func (sf *PayloadStoreFactory) createVaultBackend(loc interfaces.StorageBackendLocation) (interfaces.PayloadBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("uri", loc.String()))

	parts := strings.SplitN(strings.Trim(loc.Path, "/"), "/", 2)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: vault URI requires /mount/datapath", interfaces.ErrInvalidLocationURI)
	}

	scheme := loc.GetParam("scheme")
	if scheme == "" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, loc.Host)

	return NewVaultBackend(address, parts[0], parts[1], loc.GetParam("token"), sf.log)
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/provsec/chainregistry/interfaces"
)

// IPFSBackend implements a payload backend using the InterPlanetary File
// System. IPFS addresses content by its own CID, so the backend keeps an
// index from integrity hash to CID for payloads stored through it.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	log         *slog.Logger
	locationURI string

	mu   sync.Mutex
	cids map[interfaces.IntegrityHash]string
}

// NewIPFSBackend creates a new IPFS payload backend connected to the
// specified host and port.
func NewIPFSBackend(host, port, timeout string, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	return &IPFSBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/?timeout=%s", apiURL, timeout),
		cids:        make(map[interfaces.IntegrityHash]string),
	}, nil
}

// Fetch retrieves a payload from IPFS by its integrity hash. Returns
// ErrPayloadNotFound if the hash was never stored through this backend or
// ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Fetch(ctx context.Context, hash interfaces.IntegrityHash) ([]byte, error) {
	start := time.Now()

	b.mu.Lock()
	cid, known := b.cids[hash]
	b.mu.Unlock()

	if !known {
		return nil, interfaces.ErrPayloadNotFound
	}

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.Cat(cid)
	if err != nil {
		b.log.Error("Failed to fetch payload from IPFS",
			slog.String("cid", cid),
			slog.String("hash", hash.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch payload from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload from IPFS: %w", err)
	}

	b.log.Debug("Fetched payload from IPFS",
		slog.String("cid", cid),
		slog.String("hash", hash.String()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store adds a payload to IPFS and returns its integrity hash. Returns
// ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Store(ctx context.Context, payload []byte) (interfaces.IntegrityHash, error) {
	hash := interfaces.ComputeIntegrityHash(payload)

	if !b.shell.IsUp() {
		return hash, interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(payload))
	if err != nil {
		return hash, fmt.Errorf("failed to add payload to IPFS: %w", err)
	}

	b.mu.Lock()
	b.cids[hash] = cid
	b.mu.Unlock()

	b.log.Debug("Stored payload in IPFS",
		slog.String("cid", cid),
		slog.String("hash", hash.String()))

	return hash, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// LocationURI returns the URI that identifies this backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

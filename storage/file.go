package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/provsec/chainregistry/interfaces"
)

// FileBackend implements a payload backend using the local file system.
// Each payload is stored in a single file named after its integrity hash.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file payload backend using the specified
// base directory, creating it if necessary.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch retrieves a payload by its integrity hash.
// Returns ErrPayloadNotFound if the file doesn't exist.
func (b *FileBackend) Fetch(ctx context.Context, hash interfaces.IntegrityHash) ([]byte, error) {
	filePath := b.payloadPath(hash)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, interfaces.ErrPayloadNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}

	b.log.Debug("Fetched payload from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves a payload and returns its integrity hash.
func (b *FileBackend) Store(ctx context.Context, payload []byte) (interfaces.IntegrityHash, error) {
	hash := interfaces.ComputeIntegrityHash(payload)
	filePath := b.payloadPath(hash)

	if err := os.WriteFile(filePath, payload, 0644); err != nil {
		return hash, fmt.Errorf("failed to write payload file: %w", err)
	}

	b.log.Debug("Stored payload in file",
		slog.String("path", filePath),
		slog.Int("size", len(payload)))

	return hash, nil
}

// Available checks if the base directory is accessible.
func (b *FileBackend) Available(ctx context.Context) bool {
	info, err := os.Stat(b.baseDir)
	return err == nil && info.IsDir()
}

// LocationURI returns the URI that identifies this backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) payloadPath(hash interfaces.IntegrityHash) string {
	return filepath.Join(b.baseDir, hash.String())
}

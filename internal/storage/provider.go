// Package storage defines the vault blob-store abstraction and its two
// implementations: the local file system and a GitHub repository.
//
// File-not-found is always reported as apperr.ErrNotFound, never
// conflated with other I/O errors — callers substitute defaults for it.
package storage

import "github.com/papersync/papersync/internal/models"

// Provider is the interface for vault file operations. Paths are
// relative, forward-slash separated, UTF-8 text in and out.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write stores content at path, creating parent directories as needed.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}

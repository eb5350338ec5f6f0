// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package imagestore persists cropped exercise images on the local filesystem.

Images live under <data dir>/images as <uuid>.png; the database stores only
the relative path, so the data directory can be moved or backed up as one
unit. Writes are atomic (temp file + rename) so a crash never leaves a
half-written image behind a committed database row.
*/
package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/exvault/exvault/internal/platform/apperr"
	"github.com/exvault/exvault/pkg/uuidv7"
)

// imagesDir is the subdirectory of the data dir holding exercise images.
const imagesDir = "images"

// Store writes and resolves exercise image files.
type Store struct {
	dataDir string
}

// New creates a store rooted at dataDir, creating the images directory if
// needed.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, imagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create images directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// Save writes PNG bytes under a fresh UUID and returns the relative path
// recorded in the database, e.g. "images/0190b7e4-....png".
func (store *Store) Save(data []byte) (string, error) {
	relativePath := filepath.Join(imagesDir, uuidv7.New()+".png")
	absolutePath := filepath.Join(store.dataDir, relativePath)

	temp, err := os.CreateTemp(filepath.Dir(absolutePath), ".upload-*")
	if err != nil {
		return "", apperr.SaveError("Image file could not be created", err)
	}
	tempName := temp.Name()

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempName)
		return "", apperr.SaveError("Image file could not be written", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return "", apperr.SaveError("Image file could not be written", err)
	}
	if err := os.Rename(tempName, absolutePath); err != nil {
		os.Remove(tempName)
		return "", apperr.SaveError("Image file could not be written", err)
	}

	return filepath.ToSlash(relativePath), nil
}

// Read returns the PNG bytes for a stored relative path.
func (store *Store) Read(relativePath string) ([]byte, error) {
	absolutePath, err := store.resolve(relativePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absolutePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("Image")
		}
		return nil, apperr.Internal(err)
	}
	return data, nil
}

// Delete removes a stored image. A missing file is not an error; rows can
// outlive files after a partial restore and deletion should still succeed.
func (store *Store) Delete(relativePath string) error {
	absolutePath, err := store.resolve(relativePath)
	if err != nil {
		return err
	}

	if err := os.Remove(absolutePath); err != nil && !os.IsNotExist(err) {
		return apperr.Internal(err)
	}
	return nil
}

// resolve maps a stored relative path to an absolute one, rejecting
// anything that escapes the data directory.
func (store *Store) resolve(relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", apperr.ValidationError("Invalid image path")
	}
	return filepath.Join(store.dataDir, cleaned), nil
}

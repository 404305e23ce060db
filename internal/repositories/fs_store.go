package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilesystemStore keeps session blobs as files in one directory. File
// names are the SHA-256 of the session ID, so arbitrary IDs can never
// escape the directory or collide with path syntax.
type FilesystemStore struct {
	dir string
}

// NewFilesystemStore creates the directory if needed and returns a
// store over it.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating session store directory %s: %w", dir, err)
	}
	return &FilesystemStore{dir: dir}, nil
}

func (s *FilesystemStore) path(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".bin")
}

// Put writes the blob through a temporary file so a crash mid-write
// never leaves a truncated session behind.
func (s *FilesystemStore) Put(ctx context.Context, sessionID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(sessionID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing session file: %w", err)
	}
	return nil
}

func (s *FilesystemStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return data, nil
}

func (s *FilesystemStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking session file: %w", err)
	}
	return true, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(sessionID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting session file: %w", err)
	}
	return nil
}

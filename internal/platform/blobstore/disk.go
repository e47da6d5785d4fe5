package blobstore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskStore persists blobs as files under a base directory. Keys never
// contain path separators, so stored files cannot escape the directory.
type DiskStore struct {
	dir     string
	maxSize int64
}

// NewDiskStore creates the base directory if needed and returns a
// DiskStore writing into it.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

func (s *DiskStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.ContainsAny(key, `/\`) {
		return "", ErrBlobNotFound
	}
	return filepath.Join(s.dir, key), nil
}

func (s *DiskStore) Save(_ context.Context, fileName string, content io.Reader) (*Blob, error) {
	if err := ValidateFileName(fileName); err != nil {
		return nil, err
	}

	data, err := readCapped(content, s.maxSize)
	if err != nil {
		return nil, err
	}

	key := newKey(fileName)
	dest, err := s.path(key)
	if err != nil {
		return nil, err
	}

	// Write to a temp file first so a partial write never becomes visible.
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("storing blob: %w", err)
	}

	h := sha256.Sum256(data)
	return &Blob{
		Key:       key,
		FileName:  fileName,
		Size:      int64(len(data)),
		Hash:      fmt.Sprintf("%x", h),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *DiskStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("opening blob: %w", err)
	}
	return f, nil
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

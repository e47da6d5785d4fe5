// Package blobstore provides file storage for uploaded medical record
// documents. It defines the Store interface, a thread-safe in-memory
// implementation for tests and development, and a disk-backed
// implementation used in production.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound        = errors.New("blob not found")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedFileType = errors.New("images, PDFs and documents only")
	ErrMissingFileName     = errors.New("file name is required")
)

// DefaultMaxFileSize is the upload size cap in bytes (10 MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// allowedExtensions lists the file extensions accepted for record uploads.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// contentTypes maps allowed extensions to the Content-Type served on
// download.
var contentTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ValidateFileName checks that the file name carries an allowed extension.
func ValidateFileName(name string) error {
	if name == "" {
		return ErrMissingFileName
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return ErrUnsupportedFileType
	}
	return nil
}

// ContentTypeFor returns the MIME type for a stored file name, falling
// back to application/octet-stream for anything unrecognized.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Blob describes a stored file.
type Blob struct {
	Key       string    `json:"key"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the contract for blob storage backends. Save validates the
// file name and size cap before persisting; the returned Blob.Key is the
// handle for later Open and Delete calls.
type Store interface {
	Save(ctx context.Context, fileName string, content io.Reader) (*Blob, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// readCapped reads the full content while enforcing the size limit.
func readCapped(content io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(content, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// newKey builds a storage key that keeps the original extension so the
// backing file remains identifiable on disk.
func newKey(fileName string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
}

// MemoryStore is a thread-safe, in-memory Store for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	maxSize int64
	blobs   map[string]memoryBlob
}

type memoryBlob struct {
	meta Blob
	data []byte
}

// NewMemoryStore returns a ready-to-use MemoryStore with the default
// size cap.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		maxSize: DefaultMaxFileSize,
		blobs:   make(map[string]memoryBlob),
	}
}

// WithMaxSize overrides the upload size cap. Useful in tests.
func (s *MemoryStore) WithMaxSize(n int64) *MemoryStore {
	s.maxSize = n
	return s
}

func (s *MemoryStore) Save(_ context.Context, fileName string, content io.Reader) (*Blob, error) {
	if err := ValidateFileName(fileName); err != nil {
		return nil, err
	}

	data, err := readCapped(content, s.maxSize)
	if err != nil {
		return nil, err
	}

	h := sha256.Sum256(data)
	meta := Blob{
		Key:       newKey(fileName),
		FileName:  fileName,
		Size:      int64(len(data)),
		Hash:      fmt.Sprintf("%x", h),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.blobs[meta.Key] = memoryBlob{meta: meta, data: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Len reports how many blobs are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}

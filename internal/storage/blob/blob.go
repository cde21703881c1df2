// Package blob stores uploaded artwork by content address.
package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/sha3"
)

var (
	// ErrUpload is returned when an upload cannot be stored.
	ErrUpload = errors.New("upload failed")
	// ErrNotFound is returned by Fetch for an unknown address.
	ErrNotFound = errors.New("blob not found")
)

// Uploader stores data and returns its content address.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// Store is an Uploader that can also read blobs back.
type Store interface {
	Uploader
	Fetch(ctx context.Context, address string) ([]byte, error)
	// Filename returns the name the blob at address was uploaded with.
	Filename(ctx context.Context, address string) (string, error)
}

// Address returns the content address of data: "0x" followed by the hex
// Keccak-256 digest.
func Address(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// ValidAddress reports whether s has the shape produced by Address.
func ValidAddress(s string) bool {
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// Memory is an in-process Store for standalone mode and tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	names map[string]string
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte), names: make(map[string]string)}
}

// Upload stores a copy of data under its content address.
func (m *Memory) Upload(_ context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", errors.Join(ErrUpload, errors.New("empty data"))
	}
	addr := Address(data)
	m.mu.Lock()
	m.blobs[addr] = append([]byte(nil), data...)
	m.names[addr] = filename
	m.mu.Unlock()
	return addr, nil
}

// Filename returns the name the blob at address was last uploaded with.
func (m *Memory) Filename(_ context.Context, address string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[address]
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

// Fetch returns a copy of the blob at address.
func (m *Memory) Fetch(_ context.Context, address string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[address]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for tests and embedding scenarios that
// keep payloads alongside their own state.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[Handle][]byte
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[Handle][]byte)}
}

func (s *MemStore) Put(ctx context.Context, key string, framed []byte, meta Metadata) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := Handle(uuid.NewString())
	cp := make([]byte, len(framed))
	copy(cp, framed)
	s.mu.Lock()
	s.blobs[h] = cp
	s.mu.Unlock()
	return h, nil
}

func (s *MemStore) Get(ctx context.Context, handle Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	blob, ok := s.blobs[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memstore: unknown handle %q", handle)
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Corrupt flips one bit of a stored payload. Test helper for exercising
// integrity verification.
func (s *MemStore) Corrupt(handle Handle, byteOffset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[handle]
	if !ok {
		return fmt.Errorf("memstore: unknown handle %q", handle)
	}
	if byteOffset < 0 || byteOffset >= len(blob) {
		return fmt.Errorf("memstore: offset %d out of range (len %d)", byteOffset, len(blob))
	}
	blob[byteOffset] ^= 0x01
	return nil
}

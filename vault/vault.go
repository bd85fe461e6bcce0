// Package vault defines the narrow persistence boundary the engine
// writes framed payloads through, plus the VaultRecord bookkeeping unit.
// The engine owns framing and integrity; a Store owns only bytes and is
// an opaque external collaborator (filesystem, blob column, object
// store).
package vault

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/envelope"
)

// Handle is an opaque reference a Store returns from Put and accepts in
// Get. Its contents are store-specific.
type Handle string

// Metadata is caller-supplied annotation carried on the record. The
// engine never interprets it.
type Metadata map[string]string

// Store is the persistence boundary. Implementations must be safe for
// concurrent use; Put and Get are the only operations the engine needs.
type Store interface {
	Put(ctx context.Context, key string, framed []byte, meta Metadata) (Handle, error)
	Get(ctx context.Context, handle Handle) ([]byte, error)
}

// VaultRecord is the persisted unit: everything needed to retrieve and
// verify one compressed block. Records are immutable once created;
// storing updated content creates a new record.
type VaultRecord struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name,omitempty"`
	Metadata    Metadata                  `json:"metadata,omitempty"`
	Chain       core.FoldingChain         `json:"chain"`
	Handle      Handle                    `json:"handle"`
	OriginalLen uint64                    `json:"original_len"`
	StoredLen   uint64                    `json:"stored_len"`
	Digest      [envelope.DigestSize]byte `json:"-"`
	DigestHex   string                    `json:"digest"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// SealDigest populates the JSON-friendly hex form from the raw digest.
func (r *VaultRecord) SealDigest() {
	r.DigestHex = hex.EncodeToString(r.Digest[:])
}

// ParseDigest restores the raw digest from its hex form after JSON
// decoding.
func (r *VaultRecord) ParseDigest() error {
	raw, err := hex.DecodeString(r.DigestHex)
	if err != nil || len(raw) != envelope.DigestSize {
		return fmt.Errorf("vault: invalid record digest %q", r.DigestHex)
	}
	copy(r.Digest[:], raw)
	return nil
}

// WriteRecordFile serializes a record to a JSON sidecar file. Used by
// the CLI; services embedding the engine usually keep records in their
// own catalog instead.
func WriteRecordFile(path string, rec *VaultRecord) error {
	rec.SealDigest()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("vault: write record file: %w", err)
	}
	return nil
}

// ReadRecordFile loads a record from its JSON sidecar.
func ReadRecordFile(path string) (*VaultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vault: read record file: %w", err)
	}
	var rec VaultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("vault: unmarshal record: %w", err)
	}
	if err := rec.ParseDigest(); err != nil {
		return nil, err
	}
	return &rec, nil
}

package vault

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/envelope"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()
	framed := []byte("framed payload bytes")

	handle, err := store.Put(ctx, "report.txt", framed, Metadata{"origin": "test"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, handle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, framed) {
		t.Error("payload did not survive the round trip")
	}
}

func TestFSStoreDistinctHandles(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()
	h1, err := store.Put(ctx, "same-key", []byte("one"), nil)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := store.Put(ctx, "same-key", []byte("two"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two puts under the same key returned the same handle")
	}
	one, err := store.Get(ctx, h1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(one, []byte("one")) {
		t.Error("first payload overwritten by second put")
	}
}

func TestFSStoreUnknownHandle(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if _, err := store.Get(context.Background(), Handle("no-such-handle.fold")); err == nil {
		t.Error("unknown handle returned no error")
	}
}

func TestFSStoreConfinesHandles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(filepath.Join(dir, "vault"))
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	// A traversal handle must resolve inside the store directory, where
	// nothing exists, not escape to the parent.
	if _, err := store.Get(context.Background(), Handle("../../etc/passwd")); err == nil {
		t.Error("traversal handle escaped the store directory")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"report.txt", "report_txt-"},
		{"", ""},
		{"../../evil", "______evil-"},
		{strings.Repeat("a", 100), strings.Repeat("a", 32) + "-"},
	}
	for _, tt := range tests {
		if got := sanitizeKey(tt.key); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestMemStoreCorrupt(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	handle, err := store.Put(ctx, "k", []byte{0x10, 0x20, 0x30}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Corrupt(handle, 1); err != nil {
		t.Fatalf("Corrupt: %v", err)
	}
	got, err := store.Get(ctx, handle)
	if err != nil {
		t.Fatal(err)
	}
	if got[1] != 0x21 {
		t.Errorf("byte 1 = %#x, want %#x", got[1], 0x21)
	}

	if err := store.Corrupt(handle, 99); err == nil {
		t.Error("out-of-range offset accepted")
	}
	if err := store.Corrupt(Handle("missing"), 0); err == nil {
		t.Error("unknown handle accepted")
	}
}

func TestMemStoreCopiesPayloads(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	original := []byte("immutable")
	handle, err := store.Put(ctx, "k", original, nil)
	if err != nil {
		t.Fatal(err)
	}
	original[0] = 'X'

	got, err := store.Get(ctx, handle)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 'i' {
		t.Error("caller mutation leaked into the store")
	}
}

func TestRecordFileRoundTrip(t *testing.T) {
	rec := &VaultRecord{
		ID:          "0c7a9e0a-1111-2222-3333-444455556666",
		Name:        "notes.md",
		Metadata:    Metadata{"owner": "ops"},
		Chain:       core.FoldingChain{core.CodecRLE, core.CodecHuffman},
		Handle:      Handle("notes_md-abc.fold"),
		OriginalLen: 1234,
		StoredLen:   222,
		Digest:      envelope.Digest([]byte("the original content")),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	path := filepath.Join(t.TempDir(), "rec.json")
	if err := WriteRecordFile(path, rec); err != nil {
		t.Fatalf("WriteRecordFile: %v", err)
	}
	got, err := ReadRecordFile(path)
	if err != nil {
		t.Fatalf("ReadRecordFile: %v", err)
	}

	if got.ID != rec.ID || got.Name != rec.Name || got.Handle != rec.Handle {
		t.Error("identity fields did not survive the round trip")
	}
	if !got.Chain.Equal(rec.Chain) {
		t.Errorf("Chain = %v, want %v", got.Chain, rec.Chain)
	}
	if got.Digest != rec.Digest {
		t.Error("digest did not survive the hex round trip")
	}
	if got.OriginalLen != rec.OriginalLen || got.StoredLen != rec.StoredLen {
		t.Error("size fields did not survive the round trip")
	}
}

func TestReadRecordFileBadDigest(t *testing.T) {
	rec := &VaultRecord{ID: "x", Chain: core.RawChain()}
	path := filepath.Join(t.TempDir(), "rec.json")
	if err := WriteRecordFile(path, rec); err != nil {
		t.Fatal(err)
	}

	// A record with a mangled digest field must not parse.
	data := []byte(`{"id":"x","chain":[0],"handle":"h","digest":"zz"}`)
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRecordFile(bad); err == nil {
		t.Error("record with invalid digest hex accepted")
	}
}

package envelope

import (
	"bytes"
	"testing"

	"github.com/INLOpen/foldvault/core"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	chain := core.FoldingChain{core.CodecRLE, core.CodecHuffman}
	payload := []byte("compressed bytes")
	digest := Digest([]byte("the original bytes"))

	framed, err := Encode(chain, 18, digest, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(framed) != Overhead(len(chain))+len(payload) {
		t.Errorf("frame length = %d, want %d", len(framed), Overhead(len(chain))+len(payload))
	}

	env, err := Decode(framed)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Version != FormatVersion {
		t.Errorf("Version = %d, want %d", env.Version, FormatVersion)
	}
	if !env.Chain.Equal(chain) {
		t.Errorf("Chain = %v, want %v", env.Chain, chain)
	}
	if env.OriginalLen != 18 {
		t.Errorf("OriginalLen = %d, want 18", env.OriginalLen)
	}
	if env.Digest != digest {
		t.Error("digest did not survive the round trip")
	}
	if !bytes.Equal(env.Payload, payload) {
		t.Error("payload did not survive the round trip")
	}
}

func TestEncodeRejectsInvalidChain(t *testing.T) {
	var digest [DigestSize]byte
	if _, err := Encode(core.FoldingChain{}, 0, digest, nil); err == nil {
		t.Error("empty chain accepted")
	}
	long := core.FoldingChain{core.CodecRLE, core.CodecRLE, core.CodecRLE, core.CodecRLE, core.CodecRLE}
	if _, err := Encode(long, 0, digest, nil); err == nil {
		t.Error("over-length chain accepted")
	}
}

func TestOverhead(t *testing.T) {
	// magic(8) + version(1) + chainLen(1) + originalLen(8) + payloadLen(8) +
	// digest(32) + one chain byte.
	if got := Overhead(1); got != 59 {
		t.Errorf("Overhead(1) = %d, want 59", got)
	}
	if got := MaxOverhead(); got != Overhead(core.MaxChainDepth) {
		t.Errorf("MaxOverhead() = %d, want %d", got, Overhead(core.MaxChainDepth))
	}
}

func TestDecodeCorruptFrames(t *testing.T) {
	digest := Digest([]byte("content"))
	framed, err := Encode(core.RawChain(), 7, digest, []byte("content"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"empty frame", func(b []byte) []byte { return nil }},
		{"too short", func(b []byte) []byte { return b[:5] }},
		{"bad magic", func(b []byte) []byte { b[0] ^= 0xFF; return b }},
		{"bad version", func(b []byte) []byte { b[8] = 99; return b }},
		{"zero chain length", func(b []byte) []byte { b[9] = 0; return b }},
		{"oversized chain length", func(b []byte) []byte { b[9] = 200; return b }},
		{"truncated payload", func(b []byte) []byte { return b[:len(b)-3] }},
		{"trailing garbage", func(b []byte) []byte { return append(b, 0xAA) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := make([]byte, len(framed))
			copy(cp, framed)
			_, err := Decode(tt.mutate(cp))
			if err == nil {
				t.Fatal("corrupt frame accepted")
			}
			if !core.IsCorruptHeader(err) {
				t.Errorf("error %v is not a CorruptHeaderError", err)
			}
		})
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	digest := Digest(nil)
	framed, err := Encode(core.RawChain(), 0, digest, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env, err := Decode(framed)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(env.Payload) != 0 {
		t.Errorf("Payload = %v, want empty", env.Payload)
	}
}

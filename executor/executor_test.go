package executor

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/INLOpen/foldvault/codecs"
	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/envelope"
)

func newExecutor(t *testing.T) (*Executor, *codecs.Registry) {
	t.Helper()
	reg, err := codecs.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return New(Options{Registry: reg}), reg
}

func decodeChain(t *testing.T, reg *codecs.Registry, chain core.FoldingChain, payload []byte) []byte {
	t.Helper()
	data := payload
	for i := len(chain) - 1; i >= 0; i-- {
		codec, err := reg.Get(chain[i])
		if err != nil {
			t.Fatalf("Get(%s): %v", chain[i], err)
		}
		out, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("Decode stage %s: %v", chain[i], err)
		}
		data = out
	}
	return data
}

func TestExecutePicksSmallestPayload(t *testing.T) {
	e, reg := newExecutor(t)
	content := bytes.Repeat([]byte{'a'}, 500)

	chains := []core.FoldingChain{
		{core.CodecRLE},
		{core.CodecRLE, core.CodecHuffman},
		{core.CodecRLEAlpha},
	}
	res := e.Execute(context.Background(), content, chains)
	if res.Outcome.Fallback {
		t.Fatal("fallback used although candidates beat the raw bound")
	}
	// RLE alone packs 500 identical bytes into two (count, value) pairs;
	// the Huffman stage only adds its table on top.
	if !res.Chain.Equal(chains[0]) {
		t.Errorf("winner = %s, want %s", res.Chain, chains[0])
	}
	if len(res.Payload) != 4 {
		t.Errorf("payload = %d bytes, want 4", len(res.Payload))
	}
	if got := decodeChain(t, reg, res.Chain, res.Payload); !bytes.Equal(got, content) {
		t.Error("winning payload does not decode back to the input")
	}
}

func TestExecuteFallbackOnIncompressibleInput(t *testing.T) {
	e, _ := newExecutor(t)
	rng := rand.New(rand.NewSource(11))
	content := make([]byte, 12)
	rng.Read(content)

	chains := []core.FoldingChain{
		{core.CodecHuffman},
		{core.CodecFlate},
		{core.CodecRLE, core.CodecHuffman},
	}
	res := e.Execute(context.Background(), content, chains)
	if !res.Outcome.Fallback {
		t.Fatal("expected raw fallback for tiny random input")
	}
	if !res.Chain.IsRaw() {
		t.Errorf("fallback chain = %s, want raw", res.Chain)
	}
	if !bytes.Equal(res.Payload, content) {
		t.Error("raw payload must be the original bytes")
	}
}

func TestExecuteSizeSafetyBound(t *testing.T) {
	e, _ := newExecutor(t)
	rng := rand.New(rand.NewSource(5))

	for _, size := range []int{0, 1, 16, 300, 4096} {
		content := make([]byte, size)
		rng.Read(content)
		res := e.Execute(context.Background(), content, []core.FoldingChain{
			{core.CodecFlate},
			{core.CodecRLE, core.CodecHuffman},
			{core.CodecLZ77, core.CodecHuffman},
		})
		stored := len(res.Payload) + envelope.Overhead(len(res.Chain))
		bound := size + envelope.Overhead(1)
		if stored > bound {
			t.Errorf("size %d: stored %d exceeds bound %d (chain %s)", size, stored, bound, res.Chain)
		}
	}
}

func TestExecuteNoCandidates(t *testing.T) {
	e, _ := newExecutor(t)
	content := []byte("some content")
	res := e.Execute(context.Background(), content, nil)
	if !res.Chain.IsRaw() || !res.Outcome.Fallback {
		t.Errorf("empty candidate list must fall back to raw, got %s", res.Chain)
	}
}

func TestExecuteDropsUnknownCodec(t *testing.T) {
	reg := codecs.NewRegistry(codecs.NewRLECodec())
	e := New(Options{Registry: reg})
	content := bytes.Repeat([]byte{'z'}, 400)

	res := e.Execute(context.Background(), content, []core.FoldingChain{
		{core.CodecZstd}, // not registered; dropped, not fatal
		{core.CodecRLE},
	})
	if !res.Chain.Equal(core.FoldingChain{core.CodecRLE}) {
		t.Errorf("winner = %s, want rle", res.Chain)
	}
}

func TestExecuteCanceledContext(t *testing.T) {
	e, _ := newExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	content := bytes.Repeat([]byte{'a'}, 500)
	res := e.Execute(ctx, content, []core.FoldingChain{{core.CodecRLE}})
	if !res.Chain.IsRaw() || !res.Outcome.Fallback {
		t.Error("canceled context must still produce the raw fallback")
	}
	if !bytes.Equal(res.Payload, content) {
		t.Error("fallback payload must be the original bytes")
	}
}

func TestExecuteOutcome(t *testing.T) {
	e, _ := newExecutor(t)
	content := bytes.Repeat([]byte{'a'}, 500)
	res := e.Execute(context.Background(), content, []core.FoldingChain{{core.CodecRLE}})

	if res.Outcome.InputSize != 500 {
		t.Errorf("InputSize = %d, want 500", res.Outcome.InputSize)
	}
	if res.Outcome.OutputSize != len(res.Payload) {
		t.Errorf("OutputSize = %d, want %d", res.Outcome.OutputSize, len(res.Payload))
	}
	if res.Outcome.Quality <= 0.9 {
		t.Errorf("Quality = %v, want > 0.9 for a 500:4 fold", res.Outcome.Quality)
	}
	if res.Outcome.Elapsed < 0 {
		t.Error("Elapsed must be non-negative")
	}
}

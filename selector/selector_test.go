package selector

import (
	"testing"
	"time"

	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/memory"
)

func allCodecs() []core.CodecType {
	out := make([]core.CodecType, 0, 15)
	for ct := core.CodecRLE; ct <= core.CodecXZ; ct++ {
		out = append(out, ct)
	}
	return out
}

func repetitiveStats() core.ContentStats {
	return core.ContentStats{
		Size:            500,
		Entropy:         0,
		RepetitionRatio: 1,
		PrintableRatio:  1,
		Class:           core.ClassText,
	}
}

func TestSelectRanksRunLengthForRepetitiveContent(t *testing.T) {
	mem, err := memory.New(memory.RateMedium)
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{Memory: mem, CodecSet: allCodecs()})

	cands := s.Select(repetitiveStats())
	if len(cands) != DefaultMaxCandidates {
		t.Fatalf("got %d candidates, want %d", len(cands), DefaultMaxCandidates)
	}
	first := cands[0].Chain
	if first[0] != core.CodecRLE && first[0] != core.CodecRLEAlpha {
		t.Errorf("top candidate %s does not lead with run-length", first)
	}
	for i := 1; i < len(cands); i++ {
		if cands[i].Confidence > cands[i-1].Confidence {
			t.Error("candidates not sorted by descending confidence")
		}
	}
}

func TestSelectDeterministic(t *testing.T) {
	mem, err := memory.New(memory.RateMedium)
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{Memory: mem, CodecSet: allCodecs()})
	stats := core.ContentStats{Entropy: 4.2, RepetitionRatio: 0.4, Class: core.ClassCode}

	a := s.Select(stats)
	b := s.Select(stats)
	if len(a) != len(b) {
		t.Fatalf("candidate counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Chain.Equal(b[i].Chain) || a[i].Confidence != b[i].Confidence {
			t.Errorf("candidate %d differs between identical selections", i)
		}
	}
}

func TestSelectFastPath(t *testing.T) {
	mem, err := memory.New(memory.RateFast)
	if err != nil {
		t.Fatal(err)
	}
	chain := core.FoldingChain{core.CodecRLE}
	// Train the memory until the chain's weight saturates near 1.
	perfect := core.NewCompressionOutcome(chain, 1000, 0, time.Millisecond, false)
	for i := 0; i < 20; i++ {
		mem.Observe(core.ClassText, perfect)
	}

	s := New(Options{Memory: mem, CodecSet: allCodecs()})
	cands := s.Select(repetitiveStats())
	if len(cands) != 1 {
		t.Fatalf("fast path returned %d candidates, want 1", len(cands))
	}
	if !cands[0].Chain.Equal(chain) {
		t.Errorf("fast path picked %s, want %s", cands[0].Chain, chain)
	}
	if cands[0].Confidence < DefaultConfidenceThreshold {
		t.Errorf("fast path confidence %v below threshold", cands[0].Confidence)
	}
}

func TestSelectRespectsMaxCandidates(t *testing.T) {
	mem, err := memory.New(memory.RateMedium)
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{Memory: mem, CodecSet: allCodecs(), MaxCandidates: 5})
	cands := s.Select(repetitiveStats())
	if len(cands) != 5 {
		t.Errorf("got %d candidates, want 5", len(cands))
	}
}

func TestSelectFiltersCuratedChainsByCodecSet(t *testing.T) {
	mem, err := memory.New(memory.RateMedium)
	if err != nil {
		t.Fatal(err)
	}
	// Flate is not in the set, so no curated chain containing it survives.
	s := New(Options{
		Memory:        mem,
		CodecSet:      []core.CodecType{core.CodecRLE, core.CodecHuffman},
		MaxCandidates: 100,
	})
	cands := s.Select(repetitiveStats())
	if len(cands) == 0 {
		t.Fatal("no candidates from a two-codec set")
	}
	for _, c := range cands {
		for _, ct := range c.Chain {
			if ct != core.CodecRLE && ct != core.CodecHuffman {
				t.Errorf("chain %s uses codec outside the enabled set", c.Chain)
			}
		}
	}
}

func TestSelectNeverProposesRaw(t *testing.T) {
	mem, err := memory.New(memory.RateMedium)
	if err != nil {
		t.Fatal(err)
	}
	set := append(allCodecs(), core.CodecRaw)
	s := New(Options{Memory: mem, CodecSet: set, MaxCandidates: 100})
	for _, c := range s.Select(repetitiveStats()) {
		for _, ct := range c.Chain {
			if ct == core.CodecRaw {
				t.Fatalf("raw codec proposed in chain %s", c.Chain)
			}
		}
	}
}

package core

import "strings"

// MaxChainDepth bounds how many codecs a folding chain may apply in
// sequence. The envelope stores the chain length in a single byte, but the
// practical bound is much lower: decode cost grows with every stage.
const MaxChainDepth = 4

// FoldingChain is an ordered, non-empty sequence of codecs applied
// sequentially during encode. Order is significant: stage N+1 consumes
// stage N's output, and decode replays the chain in reverse. The chain
// stored in a vault record is the single source of truth for inverting
// its payload.
type FoldingChain []CodecType

// RawChain is the guaranteed fallback pseudo-chain: a single identity
// stage, so the stored payload never exceeds the original bytes.
func RawChain() FoldingChain { return FoldingChain{CodecRaw} }

// Validate checks the structural invariants of a chain.
func (fc FoldingChain) Validate() error {
	if len(fc) == 0 {
		return ErrEmptyChain
	}
	if len(fc) > MaxChainDepth {
		return ErrChainTooLong
	}
	return nil
}

// IsRaw reports whether the chain is the identity fallback.
func (fc FoldingChain) IsRaw() bool {
	return len(fc) == 1 && fc[0] == CodecRaw
}

// Key returns a stable string identity for the chain, used as the
// pattern-memory key and for deterministic tie-breaking.
func (fc FoldingChain) Key() string {
	names := make([]string, len(fc))
	for i, ct := range fc {
		names[i] = ct.String()
	}
	return strings.Join(names, ">")
}

func (fc FoldingChain) String() string { return fc.Key() }

// Equal reports whether two chains apply the same codecs in the same order.
func (fc FoldingChain) Equal(other FoldingChain) bool {
	if len(fc) != len(other) {
		return false
	}
	for i := range fc {
		if fc[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy so callers cannot mutate a chain that
// has already been recorded.
func (fc FoldingChain) Clone() FoldingChain {
	out := make(FoldingChain, len(fc))
	copy(out, fc)
	return out
}

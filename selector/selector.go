// Package selector ranks candidate folding chains for a block of
// content. Ranking blends the learned weight from pattern memory with
// cheap content features from the analyzer, so a cold store still makes
// sensible choices and a warm one converges onto what actually worked.
package selector

import (
	"log/slog"
	"sort"

	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/memory"
)

const (
	// DefaultConfidenceThreshold gates the fast path: at or above it only
	// the top candidate is executed, skipping trial compression.
	DefaultConfidenceThreshold = 0.80
	// DefaultMaxCandidates bounds trial compression cost on the slow path.
	DefaultMaxCandidates = 3

	// Blend of learned weight vs. content features in the confidence
	// score. Feature weight is deliberately high enough that a cold
	// memory (all neutral priors) still differentiates candidates.
	weightShare  = 0.55
	featureShare = 0.45
)

// Candidate is one proposed chain with its confidence score.
type Candidate struct {
	Chain      core.FoldingChain
	Confidence float64
}

type Options struct {
	Memory              *memory.PatternMemory
	ConfidenceThreshold float64
	MaxCandidates       int
	// CodecSet lists the codecs eligible as single-stage chains and as
	// members of curated chains. Raw is excluded; it is the executor's
	// fallback, not a strategy.
	CodecSet []core.CodecType
	Curated  []core.FoldingChain
	Logger   *slog.Logger
}

type Selector struct {
	mem       *memory.PatternMemory
	threshold float64
	maxCand   int
	chains    []core.FoldingChain
	logger    *slog.Logger
}

// DefaultCuratedChains is the small set of known-good multi-stage
// chains. Every member must also appear in the codec set to be eligible.
func DefaultCuratedChains() []core.FoldingChain {
	return []core.FoldingChain{
		{core.CodecRLE, core.CodecHuffman},
		{core.CodecRLE, core.CodecHuffman, core.CodecFlate},
		{core.CodecRLEAlpha, core.CodecFlate},
		{core.CodecPattern, core.CodecFlate},
		{core.CodecPattern, core.CodecLZW, core.CodecFlate},
		{core.CodecLZ77, core.CodecHuffman},
	}
}

func New(opts Options) *Selector {
	s := &Selector{
		mem:       opts.Memory,
		threshold: opts.ConfidenceThreshold,
		maxCand:   opts.MaxCandidates,
		logger:    opts.Logger,
	}
	if s.threshold <= 0 {
		s.threshold = DefaultConfidenceThreshold
	}
	if s.maxCand <= 0 {
		s.maxCand = DefaultMaxCandidates
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "Selector")
	}

	allowed := make(map[core.CodecType]bool, len(opts.CodecSet))
	for _, ct := range opts.CodecSet {
		if ct != core.CodecRaw {
			allowed[ct] = true
		}
	}
	for _, ct := range opts.CodecSet {
		if ct != core.CodecRaw {
			s.chains = append(s.chains, core.FoldingChain{ct})
		}
	}
	curated := opts.Curated
	if curated == nil {
		curated = DefaultCuratedChains()
	}
	for _, chain := range curated {
		eligible := len(chain) > 0 && len(chain) <= core.MaxChainDepth
		for _, ct := range chain {
			if !allowed[ct] {
				eligible = false
				break
			}
		}
		if eligible {
			s.chains = append(s.chains, chain.Clone())
		}
	}
	return s
}

// Select returns the ranked candidates for the given content statistics.
// At or above the confidence threshold only the top candidate is
// returned (fast path); otherwise the top K are returned for trial
// compression. The ranking is fully deterministic for identical stats
// and memory state.
func (s *Selector) Select(stats core.ContentStats) []Candidate {
	candidates := make([]Candidate, 0, len(s.chains))
	for _, chain := range s.chains {
		weight := memory.NeutralPrior
		if s.mem != nil {
			weight = s.mem.Weight(stats.Class, chain)
		}
		conf := weightShare*weight + featureShare*featureScore(chain, stats)
		if conf > 1 {
			conf = 1
		}
		candidates = append(candidates, Candidate{Chain: chain, Confidence: conf})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if len(candidates[i].Chain) != len(candidates[j].Chain) {
			return len(candidates[i].Chain) < len(candidates[j].Chain)
		}
		return candidates[i].Chain.Key() < candidates[j].Chain.Key()
	})

	if len(candidates) == 0 {
		return nil
	}
	if candidates[0].Confidence >= s.threshold {
		s.logger.Debug("fast path selection",
			"chain", candidates[0].Chain.String(),
			"confidence", candidates[0].Confidence)
		return candidates[:1]
	}
	if len(candidates) > s.maxCand {
		candidates = candidates[:s.maxCand]
	}
	return candidates
}

// featureScore rates a chain against the content features, averaged over
// its stages so bloated chains are not rewarded for length.
func featureScore(chain core.FoldingChain, stats core.ContentStats) float64 {
	var sum float64
	for _, ct := range chain {
		sum += codecAffinity(ct, stats)
	}
	return sum / float64(len(chain))
}

func codecAffinity(ct core.CodecType, stats core.ContentStats) float64 {
	lowEntropy := 1 - stats.Entropy/8
	switch ct {
	case core.CodecRLE, core.CodecRLEAlpha:
		// Run-length lives and dies by repetition.
		return 0.3 + 0.7*stats.RepetitionRatio
	case core.CodecLZ77, core.CodecLZ78, core.CodecLZW,
		core.CodecFlate, core.CodecSnappy, core.CodecLZ4,
		core.CodecZstd, core.CodecXZ:
		return 0.4*stats.RepetitionRatio + 0.5*lowEntropy
	case core.CodecHuffman, core.CodecArithmetic,
		core.CodecGolomb, core.CodecTunstall:
		return 0.85 * lowEntropy
	case core.CodecPattern:
		switch stats.Class {
		case core.ClassMarkup:
			return 0.85
		case core.ClassCode:
			return 0.75
		case core.ClassText:
			return 0.5
		default:
			return 0.1
		}
	default:
		return 0
	}
}

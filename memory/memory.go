// Package memory holds the process-wide adaptive weight store that the
// strategy selector learns from. Despite the "neural" label in older
// documentation this is a plain exponential moving average per
// (content class, chain) key: weight ← weight·(1-α) + quality·α, with
// quality bounded to [0, 1] and a neutral prior of 0.5 on first use.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/caio/go-tdigest/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/INLOpen/foldvault/core"
)

// NeutralPrior is the weight assumed for a chain that has never been
// observed for a content class.
const NeutralPrior = 0.5

// LearningRate selects the EMA smoothing factor. The enumerated options
// mirror the configuration surface: fast adapts in a handful of trials,
// slow resists noisy outcomes.
type LearningRate string

const (
	RateFast   LearningRate = "fast"
	RateMedium LearningRate = "medium"
	RateSlow   LearningRate = "slow"
)

// Alpha returns the smoothing factor for the rate.
func (r LearningRate) Alpha() (float64, error) {
	switch r {
	case RateFast:
		return 0.5, nil
	case RateMedium:
		return 0.2, nil
	case RateSlow:
		return 0.05, nil
	default:
		return 0, fmt.Errorf("unknown learning rate %q", string(r))
	}
}

// Key identifies one weight entry.
type Key struct {
	Class core.ContentClass
	Chain string // FoldingChain.Key()
}

type entry struct {
	weight  float64
	trials  uint64
	quality *tdigest.TDigest // distribution of observed quality scores
}

const shardCount = 32

// shard serializes read-modify-write updates for the keys it owns while
// leaving other shards free to proceed.
type shard struct {
	mu      sync.RWMutex
	entries map[Key]*entry
}

// PatternMemory is the adaptive scoring state. Construct with New; the
// zero value is not usable.
type PatternMemory struct {
	alpha  float64
	shards [shardCount]*shard
}

func New(rate LearningRate) (*PatternMemory, error) {
	alpha, err := rate.Alpha()
	if err != nil {
		return nil, err
	}
	m := &PatternMemory{alpha: alpha}
	for i := range m.shards {
		m.shards[i] = &shard{entries: make(map[Key]*entry)}
	}
	return m, nil
}

func (m *PatternMemory) shardFor(k Key) *shard {
	h := xxhash.Sum64String(k.Chain) ^ uint64(k.Class)
	return m.shards[h%shardCount]
}

// Weight returns the current score for a (class, chain) key, or the
// neutral prior when the key has never been observed.
func (m *PatternMemory) Weight(class core.ContentClass, chain core.FoldingChain) float64 {
	k := Key{Class: class, Chain: chain.Key()}
	s := m.shardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[k]; ok {
		return e.weight
	}
	return NeutralPrior
}

// Observe feeds one compression outcome into the store. Updates to the
// same key are serialized by the shard lock; fallback outcomes are
// recorded too, so a chain that keeps losing to raw decays honestly.
func (m *PatternMemory) Observe(class core.ContentClass, outcome core.CompressionOutcome) {
	k := Key{Class: class, Chain: outcome.Chain.Key()}
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok {
		td, err := tdigest.New(tdigest.Compression(64))
		if err != nil {
			// Compression(64) is a valid option; this cannot happen.
			td = nil
		}
		e = &entry{weight: NeutralPrior, quality: td}
		s.entries[k] = e
	}
	e.weight = e.weight*(1-m.alpha) + outcome.Quality*m.alpha
	e.trials++
	if e.quality != nil {
		_ = e.quality.Add(outcome.Quality)
	}
}

// WeightStat is one row of a memory snapshot.
type WeightStat struct {
	Class         core.ContentClass
	Chain         string
	Weight        float64
	Trials        uint64
	MedianQuality float64
	P90Quality    float64
}

// Snapshot returns the current weights sorted by class then descending
// weight. It is a consistent view per shard, not across shards, which is
// all the stats surface needs.
func (m *PatternMemory) Snapshot() []WeightStat {
	var out []WeightStat
	for _, s := range m.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			ws := WeightStat{Class: k.Class, Chain: k.Chain, Weight: e.weight, Trials: e.trials}
			if e.quality != nil && e.quality.Count() > 0 {
				ws.MedianQuality = e.quality.Quantile(0.5)
				ws.P90Quality = e.quality.Quantile(0.9)
			}
			out = append(out, ws)
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Chain < out[j].Chain
	})
	return out
}

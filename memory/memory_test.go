package memory

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/foldvault/core"
)

func outcomeWithQuality(chain core.FoldingChain, quality float64) core.CompressionOutcome {
	// quality = 1 - out/in, so out = in * (1 - quality).
	in := 1000
	out := int(math.Round(float64(in) * (1 - quality)))
	return core.NewCompressionOutcome(chain, in, out, time.Millisecond, false)
}

func TestLearningRateAlpha(t *testing.T) {
	tests := []struct {
		rate  LearningRate
		alpha float64
	}{
		{RateFast, 0.5},
		{RateMedium, 0.2},
		{RateSlow, 0.05},
	}
	for _, tt := range tests {
		alpha, err := tt.rate.Alpha()
		require.NoError(t, err)
		assert.Equal(t, tt.alpha, alpha)
	}
	_, err := LearningRate("turbo").Alpha()
	assert.Error(t, err)
}

func TestWeightNeutralPrior(t *testing.T) {
	m, err := New(RateMedium)
	require.NoError(t, err)
	w := m.Weight(core.ClassText, core.FoldingChain{core.CodecRLE})
	assert.Equal(t, NeutralPrior, w)
}

func TestObserveEMA(t *testing.T) {
	chain := core.FoldingChain{core.CodecRLE, core.CodecHuffman}

	m, err := New(RateFast)
	require.NoError(t, err)
	m.Observe(core.ClassText, outcomeWithQuality(chain, 1.0))
	// 0.5*(1-0.5) + 1.0*0.5
	assert.InDelta(t, 0.75, m.Weight(core.ClassText, chain), 1e-9)

	m, err = New(RateMedium)
	require.NoError(t, err)
	m.Observe(core.ClassText, outcomeWithQuality(chain, 0.9))
	// 0.5*0.8 + 0.9*0.2
	assert.InDelta(t, 0.58, m.Weight(core.ClassText, chain), 1e-9)
}

func TestObserveConvergence(t *testing.T) {
	m, err := New(RateFast)
	require.NoError(t, err)
	chain := core.FoldingChain{core.CodecFlate}
	for i := 0; i < 100; i++ {
		m.Observe(core.ClassCode, outcomeWithQuality(chain, 0.9))
	}
	assert.InDelta(t, 0.9, m.Weight(core.ClassCode, chain), 1e-3,
		"weight should converge onto a steady quality signal")
}

func TestObserveFallbackDecays(t *testing.T) {
	m, err := New(RateFast)
	require.NoError(t, err)
	chain := core.RawChain()
	out := core.NewCompressionOutcome(chain, 100, 100, 0, true)
	require.Equal(t, 0.0, out.Quality)

	m.Observe(core.ClassBinary, out)
	assert.Less(t, m.Weight(core.ClassBinary, chain), NeutralPrior,
		"a zero-quality outcome must pull the weight below the prior")
}

func TestWeightsIsolatedByClass(t *testing.T) {
	m, err := New(RateFast)
	require.NoError(t, err)
	chain := core.FoldingChain{core.CodecRLE}
	m.Observe(core.ClassText, outcomeWithQuality(chain, 1.0))

	assert.Greater(t, m.Weight(core.ClassText, chain), NeutralPrior)
	assert.Equal(t, NeutralPrior, m.Weight(core.ClassBinary, chain),
		"observations for one class must not leak into another")
}

func TestSnapshot(t *testing.T) {
	m, err := New(RateFast)
	require.NoError(t, err)
	good := core.FoldingChain{core.CodecRLE}
	bad := core.FoldingChain{core.CodecGolomb}
	for i := 0; i < 10; i++ {
		m.Observe(core.ClassText, outcomeWithQuality(good, 0.9))
		m.Observe(core.ClassText, outcomeWithQuality(bad, 0.1))
	}

	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, good.Key(), snap[0].Chain, "higher weight sorts first within a class")
	assert.Equal(t, uint64(10), snap[0].Trials)
	assert.InDelta(t, 0.9, snap[0].MedianQuality, 0.05)
	assert.InDelta(t, 0.1, snap[1].MedianQuality, 0.05)
}

func TestObserveConcurrent(t *testing.T) {
	m, err := New(RateMedium)
	require.NoError(t, err)
	chain := core.FoldingChain{core.CodecFlate}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Observe(core.ClassText, outcomeWithQuality(chain, 0.8))
				_ = m.Weight(core.ClassText, chain)
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, uint64(800), snap[0].Trials, "no observation may be lost under contention")
	w := m.Weight(core.ClassText, chain)
	assert.Greater(t, w, 0.0)
	assert.LessOrEqual(t, w, 1.0)
}

// Package analyzer derives the content features that drive strategy
// selection: a Shannon entropy estimate, a repetition ratio, a coarse
// text/markup/code/binary classification, and a signature used as the
// pattern-memory key. None of it affects decode correctness; a bad
// classification or a signature collision only degrades learning.
package analyzer

import (
	"log/slog"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/INLOpen/foldvault/core"
)

// DefaultSampleSize bounds how much of the content feeds the repetition
// scan and the signature, so analysis stays O(1) for large blocks.
const DefaultSampleSize = 4096

// markupTokens and codeTokens are the known token sets for the coarse
// classifier. Hits are counted on the sampled prefix.
var markupTokens = []string{"</", "/>", "<div", "<span", "<html", "<body", "<?xml", "<!DOCTYPE", "<p>", "<a "}

var codeTokens = []string{"func ", "function ", "return ", "import ", "#include", "def ", "class ", "public ", "var ", "const ", "package ", "};", ") {", "=> "}

// histPool recycles histogram arrays across Analyze calls; concurrent
// compressions each grab their own.
var histPool = core.NewGenericPool(func() *[256]uint64 { return new([256]uint64) })

type Analyzer struct {
	sampleSize int
	logger     *slog.Logger
}

type Options struct {
	SampleSize int
	Logger     *slog.Logger
}

func New(opts Options) *Analyzer {
	a := &Analyzer{sampleSize: opts.SampleSize, logger: opts.Logger}
	if a.sampleSize <= 0 {
		a.sampleSize = DefaultSampleSize
	}
	if a.logger == nil {
		a.logger = slog.Default().With("component", "Analyzer")
	}
	return a
}

// Analyze computes the content statistics for a block. It never fails:
// degenerate input degrades to the binary classification with neutral
// features.
func (a *Analyzer) Analyze(data []byte) core.ContentStats {
	stats := core.ContentStats{Size: len(data), Class: core.ClassBinary}
	if len(data) == 0 {
		return stats
	}

	hist := histPool.Get()
	defer histPool.Put(hist)
	*hist = [256]uint64{}
	for _, b := range data {
		hist[b]++
	}
	stats.Entropy = shannonEntropy(hist, len(data))
	stats.PrintableRatio = printableRatio(hist, len(data))

	sample := data
	if len(sample) > a.sampleSize {
		sample = sample[:a.sampleSize]
	}
	stats.RepetitionRatio = repetitionRatio(sample)
	stats.Class = classify(sample, stats.PrintableRatio)
	stats.Signature = signature(sample, hist)

	a.logger.Debug("content analyzed",
		"size", stats.Size,
		"entropy", stats.Entropy,
		"repetition", stats.RepetitionRatio,
		"class", stats.Class.String())
	return stats
}

// shannonEntropy estimates bits per byte from the frequency histogram.
func shannonEntropy(hist *[256]uint64, total int) float64 {
	var entropy float64
	n := float64(total)
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func printableRatio(hist *[256]uint64, total int) float64 {
	var printable uint64
	for b := 32; b < 127; b++ {
		printable += hist[b]
	}
	printable += hist['\n'] + hist['\r'] + hist['\t']
	return float64(printable) / float64(total)
}

// repetitionRatio measures how much of the sample is covered by 4-grams
// seen earlier in it: 0 for all-distinct content, approaching 1 for a
// single repeated byte.
func repetitionRatio(sample []byte) float64 {
	if len(sample) < 4 {
		return 0
	}
	seen := make(map[uint32]struct{}, len(sample))
	var repeats int
	total := len(sample) - 3
	for i := 0; i < total; i++ {
		g := uint32(sample[i])<<24 | uint32(sample[i+1])<<16 | uint32(sample[i+2])<<8 | uint32(sample[i+3])
		if _, ok := seen[g]; ok {
			repeats++
		} else {
			seen[g] = struct{}{}
		}
	}
	return float64(repeats) / float64(total)
}

func countTokenHits(sample []byte, tokens []string) int {
	hits := 0
	s := string(sample)
	for _, tok := range tokens {
		hits += strings.Count(s, tok)
	}
	return hits
}

func classify(sample []byte, printable float64) core.ContentClass {
	if printable < 0.85 {
		return core.ClassBinary
	}
	markupHits := countTokenHits(sample, markupTokens)
	codeHits := countTokenHits(sample, codeTokens)
	// A couple of tags in a small sample is already a strong markup
	// signal; code keywords are more common in prose, so the bar is higher.
	if markupHits >= 2 && markupHits >= codeHits {
		return core.ClassMarkup
	}
	if codeHits >= 3 {
		return core.ClassCode
	}
	return core.ClassText
}

// signature hashes a bounded sample plus the frequency histogram. It is
// only a pattern-memory key, so xxhash's speed wins over a cryptographic
// hash here.
func signature(sample []byte, hist *[256]uint64) uint64 {
	d := xxhash.New()
	_, _ = d.Write(sample)
	var buf [8]byte
	for _, c := range hist {
		buf[0] = byte(c)
		buf[1] = byte(c >> 8)
		buf[2] = byte(c >> 16)
		buf[3] = byte(c >> 24)
		buf[4] = byte(c >> 32)
		buf[5] = byte(c >> 40)
		buf[6] = byte(c >> 48)
		buf[7] = byte(c >> 56)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

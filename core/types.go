package core

import (
	"fmt"
	"time"
)

// CodecType identifies one folding algorithm. The numeric code is written
// into the envelope chain descriptor, so values are stable and append-only.
type CodecType byte

const (
	CodecRaw        CodecType = 0
	CodecRLE        CodecType = 1
	CodecRLEAlpha   CodecType = 2
	CodecLZ77       CodecType = 3
	CodecLZ78       CodecType = 4
	CodecLZW        CodecType = 5
	CodecHuffman    CodecType = 6
	CodecArithmetic CodecType = 7
	CodecGolomb     CodecType = 8
	CodecTunstall   CodecType = 9
	CodecPattern    CodecType = 10
	CodecFlate      CodecType = 11
	CodecSnappy     CodecType = 12
	CodecLZ4        CodecType = 13
	CodecZstd       CodecType = 14
	CodecXZ         CodecType = 15
	// Add other types as needed; never renumber existing ones.
)

// String returns the string representation of the CodecType.
func (ct CodecType) String() string {
	switch ct {
	case CodecRaw:
		return "raw"
	case CodecRLE:
		return "rle"
	case CodecRLEAlpha:
		return "rle-alpha"
	case CodecLZ77:
		return "lz77"
	case CodecLZ78:
		return "lz78"
	case CodecLZW:
		return "lzw"
	case CodecHuffman:
		return "huffman"
	case CodecArithmetic:
		return "arithmetic"
	case CodecGolomb:
		return "golomb"
	case CodecTunstall:
		return "tunstall"
	case CodecPattern:
		return "pattern"
	case CodecFlate:
		return "flate"
	case CodecSnappy:
		return "snappy"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	case CodecXZ:
		return "xz"
	default:
		return "unknown"
	}
}

// ParseCodecType converts a config string (e.g. "huffman") back to its
// CodecType. Used by the config layer to resolve the enabled codec set.
func ParseCodecType(s string) (CodecType, error) {
	for ct := CodecRaw; ct <= CodecXZ; ct++ {
		if ct.String() == s {
			return ct, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

// Codec defines the interface for folding algorithms. Implementations must
// be stateless and pure: Encode is deterministic and total over all byte
// sequences (it may expand the input but never fails on it), and Decode is
// the exact left inverse of Encode for any bytes Encode can produce. Decode
// must return an error on malformed input, never silently wrong bytes.
type Codec interface {
	// Encode transforms the input data.
	Encode(data []byte) ([]byte, error)
	// Decode exactly inverts Encode.
	Decode(data []byte) ([]byte, error)
	// Type returns the CodecType identifier for this codec.
	Type() CodecType
}

// ContentClass is the coarse content classification produced by the analyzer.
// It is one half of the pattern-memory key.
type ContentClass byte

const (
	ClassBinary ContentClass = 0
	ClassText   ContentClass = 1
	ClassMarkup ContentClass = 2
	ClassCode   ContentClass = 3
)

func (c ContentClass) String() string {
	switch c {
	case ClassBinary:
		return "binary"
	case ClassText:
		return "text"
	case ClassMarkup:
		return "markup"
	case ClassCode:
		return "code"
	default:
		return "unknown"
	}
}

// ParseContentClass resolves a declared content-type hint ("text", "code",
// "markup", "binary") to a ContentClass. Unknown hints are not an error;
// the caller falls back to the analyzer's own classification.
func ParseContentClass(s string) (ContentClass, bool) {
	switch s {
	case "binary":
		return ClassBinary, true
	case "text":
		return ClassText, true
	case "markup", "html", "xml":
		return ClassMarkup, true
	case "code":
		return ClassCode, true
	default:
		return ClassBinary, false
	}
}

// ContentStats is the analyzer's verdict on a block of content. The
// Signature is used only as a pattern-memory key; collisions degrade
// learning quality, never decode correctness.
type ContentStats struct {
	Size            int
	Entropy         float64 // Shannon estimate in bits per byte, [0, 8].
	RepetitionRatio float64 // Fraction of repeated 4-grams, [0, 1].
	PrintableRatio  float64 // Fraction of printable ASCII bytes, [0, 1].
	Class           ContentClass
	Signature       uint64
}

// CompressionOutcome describes one finished folding run. It is both the
// caller-visible result and the training signal fed to pattern memory.
type CompressionOutcome struct {
	Chain      FoldingChain
	InputSize  int
	OutputSize int
	Ratio      float64 // OutputSize / InputSize; 0 for empty input.
	Quality    float64 // clamp(1 - Ratio) to [0, 1].
	Elapsed    time.Duration
	Fallback   bool // True when the raw pseudo-chain was used.
}

// NewCompressionOutcome derives the ratio and quality score from the raw
// sizes. Quality is bounded to [0, 1] so the weight update rule in the
// pattern memory stays bounded too.
func NewCompressionOutcome(chain FoldingChain, inputSize, outputSize int, elapsed time.Duration, fallback bool) CompressionOutcome {
	var ratio float64
	if inputSize > 0 {
		ratio = float64(outputSize) / float64(inputSize)
	}
	quality := 1.0 - ratio
	if quality < 0 {
		quality = 0
	} else if quality > 1 {
		quality = 1
	}
	return CompressionOutcome{
		Chain:      chain,
		InputSize:  inputSize,
		OutputSize: outputSize,
		Ratio:      ratio,
		Quality:    quality,
		Elapsed:    elapsed,
		Fallback:   fallback,
	}
}

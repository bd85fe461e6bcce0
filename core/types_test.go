package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseCodecTypeRoundTrip(t *testing.T) {
	for ct := CodecRaw; ct <= CodecXZ; ct++ {
		got, err := ParseCodecType(ct.String())
		if err != nil {
			t.Fatalf("ParseCodecType(%q): %v", ct.String(), err)
		}
		if got != ct {
			t.Errorf("ParseCodecType(%q) = %v, want %v", ct.String(), got, ct)
		}
	}
}

func TestParseCodecTypeUnknown(t *testing.T) {
	if _, err := ParseCodecType("brotli"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("ParseCodecType(brotli) = %v, want ErrUnknownCodec", err)
	}
}

func TestParseContentClass(t *testing.T) {
	tests := []struct {
		hint  string
		class ContentClass
		ok    bool
	}{
		{"text", ClassText, true},
		{"markup", ClassMarkup, true},
		{"html", ClassMarkup, true},
		{"xml", ClassMarkup, true},
		{"code", ClassCode, true},
		{"binary", ClassBinary, true},
		{"", ClassBinary, false},
		{"application/json", ClassBinary, false},
	}
	for _, tt := range tests {
		class, ok := ParseContentClass(tt.hint)
		if class != tt.class || ok != tt.ok {
			t.Errorf("ParseContentClass(%q) = (%v, %v), want (%v, %v)", tt.hint, class, ok, tt.class, tt.ok)
		}
	}
}

func TestNewCompressionOutcome(t *testing.T) {
	out := NewCompressionOutcome(FoldingChain{CodecRLE}, 100, 25, time.Millisecond, false)
	if out.Ratio != 0.25 {
		t.Errorf("Ratio = %v, want 0.25", out.Ratio)
	}
	if out.Quality != 0.75 {
		t.Errorf("Quality = %v, want 0.75", out.Quality)
	}

	// Expansion clamps quality to zero instead of going negative.
	out = NewCompressionOutcome(RawChain(), 100, 250, 0, true)
	if out.Quality != 0 {
		t.Errorf("Quality for expanded output = %v, want 0", out.Quality)
	}
	if !out.Fallback {
		t.Error("Fallback flag lost")
	}

	// Empty input never divides by zero.
	out = NewCompressionOutcome(RawChain(), 0, 0, 0, true)
	if out.Ratio != 0 {
		t.Errorf("Ratio for empty input = %v, want 0", out.Ratio)
	}
}

package codecs

import (
	"fmt"
	"sort"

	"github.com/INLOpen/foldvault/core"
)

// Registry resolves codec type codes to codec instances. Codecs are
// stateless and safe for concurrent use, so one registry serves a whole
// engine.
type Registry struct {
	codecs map[core.CodecType]core.Codec
}

// NewRegistry builds a registry over an explicit codec set. The raw
// codec is always included: it is the mandatory fallback stage.
func NewRegistry(list ...core.Codec) *Registry {
	r := &Registry{codecs: make(map[core.CodecType]core.Codec, len(list)+1)}
	r.codecs[core.CodecRaw] = NewRawCodec()
	for _, c := range list {
		r.codecs[c.Type()] = c
	}
	return r
}

// DefaultRegistry builds a registry over the full codec library with the
// default pattern vocabulary.
func DefaultRegistry() (*Registry, error) {
	zc, err := NewZstdCodec()
	if err != nil {
		return nil, fmt.Errorf("registry init: %w", err)
	}
	return NewRegistry(
		NewRLECodec(),
		NewRLEAlphaCodec(),
		NewLZ77Codec(),
		NewLZ78Codec(),
		NewLZWCodec(),
		NewHuffmanCodec(),
		NewArithmeticCodec(),
		NewGolombCodec(),
		NewTunstallCodec(),
		NewPatternCodec(DefaultVocabulary()),
		NewFlateCodec(),
		NewSnappyCodec(),
		NewLZ4Codec(),
		zc,
		NewXZCodec(),
	), nil
}

// Get returns the codec registered for the given type.
func (r *Registry) Get(ct core.CodecType) (core.Codec, error) {
	c, ok := r.codecs[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownCodec, ct)
	}
	return c, nil
}

// Has reports whether a codec is registered for the given type.
func (r *Registry) Has(ct core.CodecType) bool {
	_, ok := r.codecs[ct]
	return ok
}

// Types returns the registered codec types in ascending code order.
func (r *Registry) Types() []core.CodecType {
	out := make([]core.CodecType, 0, len(r.codecs))
	for ct := range r.codecs {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

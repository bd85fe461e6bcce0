package codecs

import (
	"github.com/INLOpen/foldvault/core"
)

// RawCodec implements the Codec interface without transforming the data.
// It is the guaranteed fallback stage: a chain of just this codec never
// expands the payload beyond the original bytes.
type RawCodec struct{}

var _ core.Codec = (*RawCodec)(nil)

func NewRawCodec() *RawCodec {
	return &RawCodec{}
}

func (c *RawCodec) Encode(data []byte) ([]byte, error) {
	return data, nil // Return data as is
}

func (c *RawCodec) Decode(data []byte) ([]byte, error) {
	return data, nil // Return data as is
}

func (c *RawCodec) Type() core.CodecType {
	return core.CodecRaw
}

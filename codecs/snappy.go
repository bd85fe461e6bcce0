package codecs

import (
	"fmt"

	"github.com/INLOpen/foldvault/core"
	"github.com/golang/snappy"
)

// SnappyCodec implements the Codec interface using Snappy block format.
type SnappyCodec struct{}

var _ core.Codec = (*SnappyCodec)(nil)

func NewSnappyCodec() *SnappyCodec {
	return &SnappyCodec{}
}

func (c *SnappyCodec) Encode(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (c *SnappyCodec) Decode(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode error: %w", err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func (c *SnappyCodec) Type() core.CodecType {
	return core.CodecSnappy
}

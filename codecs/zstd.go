package codecs

import (
	"fmt"

	"github.com/INLOpen/foldvault/core"
	"github.com/klauspost/compress/zstd"
)

// ZstdCodec implements the Codec interface using Zstandard. A single
// encoder/decoder pair is shared: EncodeAll/DecodeAll are safe for
// concurrent use, so trial compression from many goroutines needs no
// per-call construction.
type ZstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ core.Codec = (*ZstdCodec)(nil)

func NewZstdCodec() (*ZstdCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder init error: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(100*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder init error: %w", err)
	}
	return &ZstdCodec{enc: enc, dec: dec}, nil
}

func (c *ZstdCodec) Encode(data []byte) ([]byte, error) {
	return c.enc.EncodeAll(data, nil), nil
}

func (c *ZstdCodec) Decode(data []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode error: %w", err)
	}
	return out, nil
}

func (c *ZstdCodec) Type() core.CodecType {
	return core.CodecZstd
}

package codecs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/INLOpen/foldvault/core"
	"github.com/klauspost/compress/flate"
)

// FlateCodec is the generic deflate-style coder backed by
// klauspost/compress. It is the workhorse final stage of most curated
// chains: whatever structure the earlier stages expose, deflate's
// LZ+Huffman pass usually squeezes further.
type FlateCodec struct {
	level int
}

var _ core.Codec = (*FlateCodec)(nil)

func NewFlateCodec() *FlateCodec {
	return &FlateCodec{level: flate.BestCompression}
}

func (c *FlateCodec) Encode(data []byte) ([]byte, error) {
	buf := core.BufferPool.Get()
	defer core.BufferPool.Put(buf)

	fw, err := flate.NewWriter(buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("flate encode init error: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("flate encode write error: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("flate encode close error: %w", err)
	}

	// Copy out of the pooled buffer before it is reset and reused.
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (c *FlateCodec) Decode(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("flate decode error: %w", err)
	}
	return out, nil
}

func (c *FlateCodec) Type() core.CodecType {
	return core.CodecFlate
}

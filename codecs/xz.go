package codecs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/INLOpen/foldvault/core"
	"github.com/ulikunitz/xz"
)

// XZCodec implements the Codec interface using the xz container (LZMA2).
// Slowest of the dictionary family but with the deepest search; it earns
// its keep on large, highly structured inputs.
type XZCodec struct{}

var _ core.Codec = (*XZCodec)(nil)

func NewXZCodec() *XZCodec {
	return &XZCodec{}
}

func (c *XZCodec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz encode init error: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz encode write error: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz encode close error: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *XZCodec) Decode(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz decode init error: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz decode error: %w", err)
	}
	return out, nil
}

func (c *XZCodec) Type() core.CodecType {
	return core.CodecXZ
}

package codecs

import (
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

// RLECodec is the binary-oriented run-length codec: the output is a flat
// sequence of (count, value) pairs with counts in [1, 255]. It shines on
// long single-byte runs and roughly doubles anything without runs, which
// the executor's size check weeds out.
type RLECodec struct{}

var _ core.Codec = (*RLECodec)(nil)

func NewRLECodec() *RLECodec {
	return &RLECodec{}
}

func (c *RLECodec) Encode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	out := make([]byte, 0, len(data)/2+2)
	i := 0
	for i < len(data) {
		b := data[i]
		run := 1
		for i+run < len(data) && data[i+run] == b && run < 255 {
			run++
		}
		out = append(out, byte(run), b)
		i += run
	}
	return out, nil
}

func (c *RLECodec) Decode(data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("rle: truncated pair stream (len %d)", len(data))
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i += 2 {
		count := int(data[i])
		if count == 0 {
			return nil, fmt.Errorf("rle: zero run count at offset %d", i)
		}
		b := data[i+1]
		for j := 0; j < count; j++ {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *RLECodec) Type() core.CodecType {
	return core.CodecRLE
}

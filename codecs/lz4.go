package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
	lz4 "github.com/pierrec/lz4/v4"
)

const (
	lz4ModeStored = 0
	lz4ModeBlock  = 1
)

// LZ4Codec implements the Codec interface using LZ4 block compression.
// The pierrec block format does not record the uncompressed size, so a
// small header carries it: mode byte (stored/block) + originalLen uint64
// LE + payload. CompressBlock reporting "incompressible" (n == 0) falls
// back to stored mode, keeping Encode total over all inputs.
type LZ4Codec struct{}

var _ core.Codec = (*LZ4Codec)(nil)

func NewLZ4Codec() *LZ4Codec {
	return &LZ4Codec{}
}

func (c *LZ4Codec) Encode(data []byte) ([]byte, error) {
	header := make([]byte, 9)
	binary.LittleEndian.PutUint64(header[1:], uint64(len(data)))

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil || n == 0 {
		// Incompressible (or a block-level error): store verbatim.
		header[0] = lz4ModeStored
		return append(header, data...), nil
	}
	header[0] = lz4ModeBlock
	return append(header, dst[:n]...), nil
}

func (c *LZ4Codec) Decode(data []byte) ([]byte, error) {
	if len(data) < 9 {
		return nil, fmt.Errorf("lz4: truncated header (len %d)", len(data))
	}
	mode := data[0]
	origLen := binary.LittleEndian.Uint64(data[1:])
	body := data[9:]
	switch mode {
	case lz4ModeStored:
		if uint64(len(body)) != origLen {
			return nil, fmt.Errorf("lz4: stored length %d does not match header %d", len(body), origLen)
		}
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	case lz4ModeBlock:
		// A block sequence emits at most 255 output bytes per input
		// byte (run-length extension bytes), so anything beyond that
		// is a corrupt header rather than a real block.
		if origLen > uint64(len(body))*255+64 {
			return nil, fmt.Errorf("lz4: claimed length %d not achievable from a %d byte block", origLen, len(body))
		}
		dst := make([]byte, origLen)
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decode error: %w", err)
		}
		if uint64(n) != origLen {
			return nil, fmt.Errorf("lz4: decoded length %d does not match header %d", n, origLen)
		}
		return dst[:n], nil
	default:
		return nil, fmt.Errorf("lz4: invalid mode byte %d", mode)
	}
}

func (c *LZ4Codec) Type() core.CodecType {
	return core.CodecLZ4
}

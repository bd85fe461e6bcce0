package codecs

import (
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

// RLEAlphaCodec is the alphabet-oriented run-length codec. It uses
// PackBits-style packets: literal packets pass text through verbatim and
// only runs of three or more bytes are folded, so mixed prose with short
// bursts of repetition stays close to its original size.
//
// Control byte c:
//
//	0x00..0x7F  c+1 literal bytes follow
//	0x81..0xFF  the next byte repeats 257-c times (2..127 repeats)
//	0x80        never emitted; treated as malformed on decode
type RLEAlphaCodec struct{}

var _ core.Codec = (*RLEAlphaCodec)(nil)

func NewRLEAlphaCodec() *RLEAlphaCodec {
	return &RLEAlphaCodec{}
}

func (c *RLEAlphaCodec) Encode(data []byte) ([]byte, error) {
	n := len(data)
	out := make([]byte, 0, n+n/128+1)
	i := 0
	for i < n {
		// Measure the run at i.
		run := 1
		for i+run < n && data[i+run] == data[i] && run < 127 {
			run++
		}
		if run >= 3 {
			out = append(out, byte(257-run), data[i])
			i += run
			continue
		}
		// Gather literals until the next run of >= 3 or the packet is full.
		start := i
		for i < n && i-start < 128 {
			if i+2 < n && data[i] == data[i+1] && data[i] == data[i+2] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, data[start:i]...)
	}
	return out, nil
}

func (c *RLEAlphaCodec) Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	i := 0
	for i < len(data) {
		ctrl := data[i]
		i++
		switch {
		case ctrl == 0x80:
			return nil, fmt.Errorf("rle-alpha: invalid control byte 0x80 at offset %d", i-1)
		case ctrl < 0x80:
			n := int(ctrl) + 1
			if i+n > len(data) {
				return nil, fmt.Errorf("rle-alpha: truncated literal packet at offset %d", i-1)
			}
			out = append(out, data[i:i+n]...)
			i += n
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("rle-alpha: truncated run packet at offset %d", i-1)
			}
			rep := 257 - int(ctrl)
			for j := 0; j < rep; j++ {
				out = append(out, data[i])
			}
			i++
		}
	}
	return out, nil
}

func (c *RLEAlphaCodec) Type() core.CodecType {
	return core.CodecRLEAlpha
}

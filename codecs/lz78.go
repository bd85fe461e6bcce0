package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

// lz78MaxEntries caps the phrase dictionary so codes fit in a uint16.
const lz78MaxEntries = 1 << 16

// LZ78Codec implements classic LZ78: the stream is a sequence of
// (prefix code, next byte) tokens, where code 0 is the empty phrase.
//
// Layout: one header byte (1 when the final token carries a next byte,
// 0 when the input ended exactly on a dictionary phrase), followed by
// 3-byte tokens (code uint16 BE, byte); with header 0 the last token is
// 2 bytes (code only).
type LZ78Codec struct{}

var _ core.Codec = (*LZ78Codec)(nil)

func NewLZ78Codec() *LZ78Codec {
	return &LZ78Codec{}
}

func (c *LZ78Codec) Encode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	dict := make(map[string]uint16, 1024)
	nextCode := 1 // 0 is reserved for the empty phrase

	out := make([]byte, 1, len(data))
	out[0] = 1 // assume the final token has a symbol; patched below

	w := make([]byte, 0, 64)
	for _, b := range data {
		wc := append(w, b)
		if _, ok := dict[string(wc)]; ok {
			w = wc
			continue
		}
		var prefix uint16
		if len(w) > 0 {
			prefix = dict[string(w)]
		}
		out = binary.BigEndian.AppendUint16(out, prefix)
		out = append(out, b)
		if nextCode < lz78MaxEntries {
			dict[string(wc)] = uint16(nextCode)
			nextCode++
		}
		w = w[:0]
	}
	if len(w) > 0 {
		// Input ended mid-phrase: emit the matched prefix without a symbol.
		out[0] = 0
		out = binary.BigEndian.AppendUint16(out, dict[string(w)])
	}
	return out, nil
}

func (c *LZ78Codec) Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	header := data[0]
	rest := data[1:]
	var tailLen int
	switch header {
	case 1:
		if len(rest)%3 != 0 {
			return nil, fmt.Errorf("lz78: truncated token stream (len %d)", len(rest))
		}
	case 0:
		if len(rest)%3 != 2 {
			return nil, fmt.Errorf("lz78: malformed trailing token (len %d)", len(rest))
		}
		tailLen = 2
	default:
		return nil, fmt.Errorf("lz78: invalid header byte %d", header)
	}

	phrases := make([][]byte, 1, 1024)
	phrases[0] = []byte{}

	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(rest)-tailLen; i += 3 {
		code := binary.BigEndian.Uint16(rest[i:])
		if int(code) >= len(phrases) {
			return nil, fmt.Errorf("lz78: invalid phrase code %d at offset %d", code, i)
		}
		b := rest[i+2]
		phrase := make([]byte, 0, len(phrases[code])+1)
		phrase = append(phrase, phrases[code]...)
		phrase = append(phrase, b)
		out = append(out, phrase...)
		if len(phrases) < lz78MaxEntries {
			phrases = append(phrases, phrase)
		}
	}
	if tailLen > 0 {
		code := binary.BigEndian.Uint16(rest[len(rest)-2:])
		if code == 0 || int(code) >= len(phrases) {
			return nil, fmt.Errorf("lz78: invalid trailing phrase code %d", code)
		}
		out = append(out, phrases[code]...)
	}
	return out, nil
}

func (c *LZ78Codec) Type() core.CodecType {
	return core.CodecLZ78
}

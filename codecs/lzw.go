package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

// lzwMaxCodes caps the dictionary so every phrase code fits in a uint16.
// Once full, both sides stop adding entries, which keeps encoder and
// decoder dictionaries in lockstep without a reset marker.
const lzwMaxCodes = 1 << 16

// LZWCodec implements classic LZW with fixed 16-bit big-endian phrase
// codes. The first 256 codes are the single-byte phrases.
type LZWCodec struct{}

var _ core.Codec = (*LZWCodec)(nil)

func NewLZWCodec() *LZWCodec {
	return &LZWCodec{}
}

func (c *LZWCodec) Encode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	dict := make(map[string]uint16, 1024)
	for i := 0; i < 256; i++ {
		dict[string([]byte{byte(i)})] = uint16(i)
	}
	nextCode := 256

	out := make([]byte, 0, len(data))
	emit := func(code uint16) {
		out = binary.BigEndian.AppendUint16(out, code)
	}

	w := make([]byte, 0, 64)
	for _, b := range data {
		wc := append(w, b)
		if _, ok := dict[string(wc)]; ok {
			w = wc
			continue
		}
		emit(dict[string(w)])
		if nextCode < lzwMaxCodes {
			dict[string(wc)] = uint16(nextCode)
			nextCode++
		}
		w = append(w[:0], b)
	}
	emit(dict[string(w)])
	return out, nil
}

func (c *LZWCodec) Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("lzw: truncated code stream (len %d)", len(data))
	}

	table := make([][]byte, 256, 4096)
	for i := 0; i < 256; i++ {
		table[i] = []byte{byte(i)}
	}

	out := make([]byte, 0, len(data)*2)
	var prev []byte
	for i := 0; i < len(data); i += 2 {
		code := binary.BigEndian.Uint16(data[i:])
		var entry []byte
		switch {
		case int(code) < len(table):
			entry = table[code]
		case int(code) == len(table) && prev != nil:
			// The cScSc case: the phrase being defined is used immediately.
			entry = append(append([]byte{}, prev...), prev[0])
		default:
			return nil, fmt.Errorf("lzw: invalid code %d at offset %d", code, i)
		}
		out = append(out, entry...)
		if prev != nil && len(table) < lzwMaxCodes {
			phrase := make([]byte, 0, len(prev)+1)
			phrase = append(phrase, prev...)
			phrase = append(phrase, entry[0])
			table = append(table, phrase)
		}
		prev = entry
	}
	return out, nil
}

func (c *LZWCodec) Type() core.CodecType {
	return core.CodecLZW
}

package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

const (
	lz77MinMatch = 3
	lz77MaxMatch = 258
	lz77Window   = 1 << 16 // back-reference offsets fit in a uint16
)

// LZ77Codec is a greedy sliding-window matcher in the familiar
// flag-byte layout: each group of up to eight tokens is preceded by a
// flag byte whose set bits mark match tokens (offset uint16 BE, length
// byte storing length-3); clear bits mark single literal bytes.
type LZ77Codec struct{}

var _ core.Codec = (*LZ77Codec)(nil)

func NewLZ77Codec() *LZ77Codec {
	return &LZ77Codec{}
}

func lz77Key(data []byte, i int) uint32 {
	return uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
}

func (c *LZ77Codec) Encode(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return []byte{}, nil
	}

	head := make(map[uint32]int, 1024)
	out := make([]byte, 0, n/2+16)

	var flags byte
	var nflags int
	var group []byte
	flagged := func(isMatch bool) {
		if isMatch {
			flags |= 1 << uint(nflags)
		}
		nflags++
	}
	flushGroup := func() {
		out = append(out, flags)
		out = append(out, group...)
		flags, nflags, group = 0, 0, group[:0]
	}

	i := 0
	for i < n {
		matchLen, matchOff := 0, 0
		if i+lz77MinMatch <= n {
			if pos, ok := head[lz77Key(data, i)]; ok && i-pos < lz77Window {
				l := 0
				max := n - i
				if max > lz77MaxMatch {
					max = lz77MaxMatch
				}
				for l < max && data[pos+l] == data[i+l] {
					l++
				}
				if l >= lz77MinMatch {
					matchLen, matchOff = l, i-pos
				}
			}
		}

		if matchLen > 0 {
			flagged(true)
			group = binary.BigEndian.AppendUint16(group, uint16(matchOff))
			group = append(group, byte(matchLen-lz77MinMatch))
			for j := i; j < i+matchLen && j+lz77MinMatch <= n; j++ {
				head[lz77Key(data, j)] = j
			}
			i += matchLen
		} else {
			flagged(false)
			group = append(group, data[i])
			if i+lz77MinMatch <= n {
				head[lz77Key(data, i)] = i
			}
			i++
		}
		if nflags == 8 {
			flushGroup()
		}
	}
	if nflags > 0 {
		flushGroup()
	}
	return out, nil
}

func (c *LZ77Codec) Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	out := make([]byte, 0, len(data)*3)
	pos := 0
	for pos < len(data) {
		flags := data[pos]
		pos++
		if pos >= len(data) {
			return nil, fmt.Errorf("lz77: dangling flag byte at offset %d", pos-1)
		}
		for bit := 0; bit < 8 && pos < len(data); bit++ {
			if flags&(1<<uint(bit)) != 0 {
				if pos+3 > len(data) {
					return nil, fmt.Errorf("lz77: truncated match token at offset %d", pos)
				}
				off := int(binary.BigEndian.Uint16(data[pos:]))
				length := int(data[pos+2]) + lz77MinMatch
				pos += 3
				if off == 0 || off > len(out) {
					return nil, fmt.Errorf("lz77: invalid back-reference offset %d at output size %d", off, len(out))
				}
				// Copy byte by byte: matches may overlap their own output.
				src := len(out) - off
				for j := 0; j < length; j++ {
					out = append(out, out[src+j])
				}
			} else {
				out = append(out, data[pos])
				pos++
			}
		}
	}
	return out, nil
}

func (c *LZ77Codec) Type() core.CodecType {
	return core.CodecLZ77
}

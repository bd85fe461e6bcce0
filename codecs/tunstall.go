package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

const (
	// tunstallDictSize is the codebook capacity; codes are emitted as
	// 16-bit words, so compression needs an average phrase above two bytes.
	tunstallDictSize  = 4096
	tunstallFreqScale = 60000
	// tunstallMaxPhraseLen is the deepest phrase the codebook build can
	// produce: 256 roots plus 15 leaf expansions of net 255 entries each,
	// and every expansion extends a phrase by one byte.
	tunstallMaxPhraseLen = 16
)

// TunstallCodec is a variable-to-fixed coder: a codebook of byte phrases
// is grown from the quantized byte distribution by repeatedly expanding
// the most probable leaf, then the input is parsed into fixed-width
// phrase codes. Both sides rebuild the identical codebook from the
// transmitted frequency table.
//
// Layout: originalLen uint64 LE | 256 scaled frequencies uint16 LE |
// tailLen uint16 LE | phrase codes uint16 BE | tail bytes. The tail holds
// the final bytes when the input ends mid-phrase.
type TunstallCodec struct{}

var _ core.Codec = (*TunstallCodec)(nil)

func NewTunstallCodec() *TunstallCodec {
	return &TunstallCodec{}
}

type tunstallPhrase struct {
	bytes []byte
	prob  float64
}

// tunstallDict deterministically builds the codebook from a quantized
// frequency table. Laplace smoothing keeps every byte's probability
// positive so the parse below always makes progress.
func tunstallDict(freqs *[256]uint16) []tunstallPhrase {
	var total uint64
	for sym := 0; sym < 256; sym++ {
		total += uint64(freqs[sym])
	}
	var p [256]float64
	denom := float64(total) + 256
	for sym := 0; sym < 256; sym++ {
		p[sym] = (float64(freqs[sym]) + 1) / denom
	}

	phrases := make([]tunstallPhrase, 0, tunstallDictSize)
	for sym := 0; sym < 256; sym++ {
		phrases = append(phrases, tunstallPhrase{bytes: []byte{byte(sym)}, prob: p[sym]})
	}
	for len(phrases)+255 <= tunstallDictSize {
		best := 0
		for i := 1; i < len(phrases); i++ {
			if phrases[i].prob > phrases[best].prob {
				best = i
			}
		}
		parent := phrases[best]
		phrases = append(phrases[:best], phrases[best+1:]...)
		for sym := 0; sym < 256; sym++ {
			child := make([]byte, 0, len(parent.bytes)+1)
			child = append(child, parent.bytes...)
			child = append(child, byte(sym))
			phrases = append(phrases, tunstallPhrase{bytes: child, prob: parent.prob * p[sym]})
		}
	}
	return phrases
}

func tunstallScaleFreqs(data []byte) [256]uint16 {
	var counts [256]uint64
	for _, b := range data {
		counts[b]++
	}
	var freqs [256]uint16
	total := uint64(len(data))
	for sym := 0; sym < 256; sym++ {
		if counts[sym] == 0 {
			continue
		}
		f := counts[sym] * tunstallFreqScale / total
		if f == 0 {
			f = 1
		}
		freqs[sym] = uint16(f)
	}
	return freqs
}

func (c *TunstallCodec) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 8, len(data)+8+514)
	binary.LittleEndian.PutUint64(out, uint64(len(data)))
	if len(data) == 0 {
		return out, nil
	}

	freqs := tunstallScaleFreqs(data)
	for sym := 0; sym < 256; sym++ {
		out = binary.LittleEndian.AppendUint16(out, freqs[sym])
	}

	phrases := tunstallDict(&freqs)
	index := make(map[string]uint16, len(phrases))
	maxLen := 0
	for code, ph := range phrases {
		index[string(ph.bytes)] = uint16(code)
		if len(ph.bytes) > maxLen {
			maxLen = len(ph.bytes)
		}
	}

	codes := make([]byte, 0, len(data))
	var tail []byte
	i := 0
	for i < len(data) {
		// The codebook is prefix-free, so at most one length matches.
		matched := false
		limit := maxLen
		if rem := len(data) - i; rem < limit {
			limit = rem
		}
		for l := limit; l >= 1; l-- {
			if code, ok := index[string(data[i:i+l])]; ok {
				codes = binary.BigEndian.AppendUint16(codes, code)
				i += l
				matched = true
				break
			}
		}
		if !matched {
			// Input ended strictly inside a phrase; ship the remainder raw.
			tail = data[i:]
			break
		}
	}

	out = binary.LittleEndian.AppendUint16(out, uint16(len(tail)))
	out = append(out, codes...)
	out = append(out, tail...)
	return out, nil
}

func (c *TunstallCodec) Decode(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("tunstall: truncated header (len %d)", len(data))
	}
	origLen := binary.LittleEndian.Uint64(data)
	if origLen == 0 {
		if len(data) != 8 {
			return nil, fmt.Errorf("tunstall: trailing bytes after empty stream")
		}
		return []byte{}, nil
	}
	if len(data) < 8+512+2 {
		return nil, fmt.Errorf("tunstall: truncated codebook header (len %d)", len(data))
	}

	var freqs [256]uint16
	for sym := 0; sym < 256; sym++ {
		freqs[sym] = binary.LittleEndian.Uint16(data[8+2*sym:])
	}
	tailLen := int(binary.LittleEndian.Uint16(data[8+512:]))
	body := data[8+512+2:]
	if tailLen > len(body) {
		return nil, fmt.Errorf("tunstall: tail length %d exceeds body %d", tailLen, len(body))
	}
	codesBytes := body[:len(body)-tailLen]
	tail := body[len(body)-tailLen:]
	if len(codesBytes)%2 != 0 {
		return nil, fmt.Errorf("tunstall: truncated code stream (len %d)", len(codesBytes))
	}
	maxOut := uint64(len(codesBytes)/2)*tunstallMaxPhraseLen + uint64(tailLen)
	if origLen > maxOut {
		return nil, fmt.Errorf("tunstall: claimed length %d exceeds phrase capacity %d", origLen, maxOut)
	}

	phrases := tunstallDict(&freqs)
	out := make([]byte, 0, origLen)
	for i := 0; i < len(codesBytes); i += 2 {
		code := binary.BigEndian.Uint16(codesBytes[i:])
		if int(code) >= len(phrases) {
			return nil, fmt.Errorf("tunstall: invalid phrase code %d at offset %d", code, i)
		}
		out = append(out, phrases[code].bytes...)
	}
	out = append(out, tail...)
	if uint64(len(out)) != origLen {
		return nil, fmt.Errorf("tunstall: decoded length %d does not match original %d", len(out), origLen)
	}
	return out, nil
}

func (c *TunstallCodec) Type() core.CodecType {
	return core.CodecTunstall
}

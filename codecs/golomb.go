package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

// GolombCodec is a Golomb-Rice coder over raw byte values with a
// power-of-two divisor 2^k. The encoder picks the k in [0, 7] that
// minimizes the total bit count, so heavily low-value-skewed data (delta
// streams, sparse binaries) codes well while the worst case stays bounded.
//
// Layout: k byte | originalLen uint64 LE | per-byte unary quotient
// (q ones, one zero) followed by the k low remainder bits.
type GolombCodec struct{}

var _ core.Codec = (*GolombCodec)(nil)

func NewGolombCodec() *GolombCodec {
	return &GolombCodec{}
}

func (c *GolombCodec) Encode(data []byte) ([]byte, error) {
	// Pick k by exact cost; ties go to the smaller k for cheaper decode.
	bestK, bestCost := 0, ^uint64(0)
	var counts [256]uint64
	for _, b := range data {
		counts[b]++
	}
	for k := 0; k <= 7; k++ {
		var cost uint64
		for v := 0; v < 256; v++ {
			if counts[v] > 0 {
				cost += counts[v] * uint64((v>>uint(k))+1+k)
			}
		}
		if cost < bestCost {
			bestK, bestCost = k, cost
		}
	}

	out := make([]byte, 9, 9+len(data))
	out[0] = byte(bestK)
	binary.LittleEndian.PutUint64(out[1:], uint64(len(data)))
	if len(data) == 0 {
		return out, nil
	}

	w := &bitWriter{buf: out}
	for _, b := range data {
		q := int(b) >> uint(bestK)
		for j := 0; j < q; j++ {
			w.writeBit(1)
		}
		w.writeBit(0)
		w.writeBits(uint64(b), bestK)
	}
	return w.flush(), nil
}

func (c *GolombCodec) Decode(data []byte) ([]byte, error) {
	if len(data) < 9 {
		return nil, fmt.Errorf("golomb: truncated header (len %d)", len(data))
	}
	k := int(data[0])
	if k > 7 {
		return nil, fmt.Errorf("golomb: invalid parameter k=%d", k)
	}
	origLen := binary.LittleEndian.Uint64(data[1:])
	if origLen == 0 {
		if len(data) != 9 {
			return nil, fmt.Errorf("golomb: trailing bytes after empty stream")
		}
		return []byte{}, nil
	}

	// Every value costs at least the unary terminator plus k remainder
	// bits, which bounds any honest claimed length by the stream size.
	body := data[9:]
	if origLen > uint64(len(body))*8/uint64(k+1) {
		return nil, fmt.Errorf("golomb: claimed length %d exceeds stream capacity (k=%d, %d bytes)", origLen, k, len(body))
	}

	maxQuotient := 255 >> uint(k)
	r := &bitReader{data: body}
	out := make([]byte, 0, origLen)
	for uint64(len(out)) < origLen {
		q := 0
		for {
			b, err := r.readBit()
			if err != nil {
				return nil, fmt.Errorf("golomb: %w", err)
			}
			if b == 0 {
				break
			}
			q++
			if q > maxQuotient {
				return nil, fmt.Errorf("golomb: quotient overflow (k=%d)", k)
			}
		}
		rem, err := r.readBits(k)
		if err != nil {
			return nil, fmt.Errorf("golomb: %w", err)
		}
		v := q<<uint(k) | int(rem)
		if v > 255 {
			return nil, fmt.Errorf("golomb: decoded value %d out of byte range", v)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func (c *GolombCodec) Type() core.CodecType {
	return core.CodecGolomb
}

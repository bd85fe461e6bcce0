package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

// Register geometry for the integer arithmetic coder. 32-bit registers
// with 16-bit frequency totals keep every intermediate product inside a
// uint64 with room to spare.
const (
	arithTopValue  = uint64(1)<<32 - 1
	arithFirstQtr  = uint64(1) << 30
	arithHalf      = uint64(1) << 31
	arithThirdQtr  = arithHalf + arithFirstQtr
	arithFreqScale = 60000 // scaled frequency total stays well under 1<<16

	// arithMaxClaimedLen caps the header's claimed original length. A
	// folding block is memory-resident, so anything above this is a
	// corrupt header, not a real stream.
	arithMaxClaimedLen = uint64(1) << 31
	// arithAllocCap bounds the initial output allocation; the slice
	// grows as real symbols are decoded.
	arithAllocCap = uint64(64) << 10
)

// ArithmeticCodec is a static order-0 arithmetic coder in the classic
// Witten-Neal-Cleary formulation.
//
// Layout: originalLen uint64 LE | 256 scaled frequencies uint16 LE |
// MSB-first bit stream. The decoder treats end-of-stream as an endless
// run of zero bits, matching the encoder's implicit termination tail.
type ArithmeticCodec struct{}

var _ core.Codec = (*ArithmeticCodec)(nil)

func NewArithmeticCodec() *ArithmeticCodec {
	return &ArithmeticCodec{}
}

// arithScaleFreqs quantizes raw counts so the total fits the register
// geometry while every present symbol keeps a non-zero slot.
func arithScaleFreqs(data []byte) [256]uint16 {
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
		f := counts[sym] * arithFreqScale / total
		if f == 0 {
			f = 1
		}
		freqs[sym] = uint16(f)
	}
	return freqs
}

// arithCum builds the cumulative table; cum[257] holds 257 entries with
// cum[0]=0 and cum[256]=total.
func arithCum(freqs *[256]uint16) (cum [257]uint64, total uint64) {
	for sym := 0; sym < 256; sym++ {
		cum[sym+1] = cum[sym] + uint64(freqs[sym])
	}
	return cum, cum[256]
}

func (c *ArithmeticCodec) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 8, len(data)/2+8+512)
	binary.LittleEndian.PutUint64(out, uint64(len(data)))
	if len(data) == 0 {
		return out, nil
	}

	freqs := arithScaleFreqs(data)
	for sym := 0; sym < 256; sym++ {
		out = binary.LittleEndian.AppendUint16(out, freqs[sym])
	}
	cum, total := arithCum(&freqs)

	w := &bitWriter{buf: out}
	var pending int
	emit := func(bit int) {
		w.writeBit(bit)
		for ; pending > 0; pending-- {
			w.writeBit(1 - bit)
		}
	}

	low, high := uint64(0), arithTopValue
	for _, b := range data {
		span := high - low + 1
		high = low + span*cum[int(b)+1]/total - 1
		low = low + span*cum[b]/total
		for {
			if high < arithHalf {
				emit(0)
			} else if low >= arithHalf {
				emit(1)
				low -= arithHalf
				high -= arithHalf
			} else if low >= arithFirstQtr && high < arithThirdQtr {
				pending++
				low -= arithFirstQtr
				high -= arithFirstQtr
			} else {
				break
			}
			low <<= 1
			high = high<<1 | 1
		}
	}
	// Termination: disambiguate the final interval with one more bit.
	pending++
	if low < arithFirstQtr {
		emit(0)
	} else {
		emit(1)
	}
	return w.flush(), nil
}

func (c *ArithmeticCodec) Decode(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("arithmetic: truncated header (len %d)", len(data))
	}
	origLen := binary.LittleEndian.Uint64(data)
	if origLen == 0 {
		if len(data) != 8 {
			return nil, fmt.Errorf("arithmetic: trailing bytes after empty stream")
		}
		return []byte{}, nil
	}
	if origLen > arithMaxClaimedLen {
		return nil, fmt.Errorf("arithmetic: implausible claimed length %d", origLen)
	}
	if len(data) < 8+512 {
		return nil, fmt.Errorf("arithmetic: truncated frequency table (len %d)", len(data))
	}

	var freqs [256]uint16
	for sym := 0; sym < 256; sym++ {
		freqs[sym] = binary.LittleEndian.Uint16(data[8+2*sym:])
	}
	cum, total := arithCum(&freqs)
	if total == 0 {
		return nil, fmt.Errorf("arithmetic: empty frequency table for non-empty stream")
	}

	r := &bitReader{data: data[8+512:]}
	var value uint64
	for i := 0; i < 32; i++ {
		value = value<<1 | uint64(r.readBitOrZero())
	}

	capHint := origLen
	if capHint > arithAllocCap {
		capHint = arithAllocCap
	}
	out := make([]byte, 0, capHint)
	low, high := uint64(0), arithTopValue
	for uint64(len(out)) < origLen {
		// The register fill legitimately reads up to 32 bits past the
		// stream; needing more means the claimed length is a lie.
		if r.overrun > 32 {
			return nil, fmt.Errorf("arithmetic: bit stream exhausted after %d of %d symbols", len(out), origLen)
		}
		span := high - low + 1
		scaled := ((value-low+1)*total - 1) / span
		if scaled >= total {
			return nil, fmt.Errorf("arithmetic: value outside model range")
		}
		// Binary search the cumulative table for the symbol bracket.
		lo, hi := 0, 255
		for lo < hi {
			mid := (lo + hi) / 2
			if cum[mid+1] <= scaled {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		sym := lo
		if freqs[sym] == 0 {
			return nil, fmt.Errorf("arithmetic: decoded symbol %d has zero frequency", sym)
		}
		out = append(out, byte(sym))

		high = low + span*cum[sym+1]/total - 1
		low = low + span*cum[sym]/total
		for {
			if high < arithHalf {
				// nothing
			} else if low >= arithHalf {
				value -= arithHalf
				low -= arithHalf
				high -= arithHalf
			} else if low >= arithFirstQtr && high < arithThirdQtr {
				value -= arithFirstQtr
				low -= arithFirstQtr
				high -= arithFirstQtr
			} else {
				break
			}
			low <<= 1
			high = high<<1 | 1
			value = value<<1 | uint64(r.readBitOrZero())
		}
	}
	return out, nil
}

func (c *ArithmeticCodec) Type() core.CodecType {
	return core.CodecArithmetic
}

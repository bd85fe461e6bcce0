package codecs

import "fmt"

// bitWriter packs bits MSB-first into a byte slice. Shared by the
// entropy coders; trailing bits of the final byte are zero padding.
type bitWriter struct {
	buf  []byte
	cur  byte
	nbit int
}

func (w *bitWriter) writeBit(b int) {
	w.cur <<= 1
	if b != 0 {
		w.cur |= 1
	}
	w.nbit++
	if w.nbit == 8 {
		w.buf = append(w.buf, w.cur)
		w.cur, w.nbit = 0, 0
	}
}

// writeBits writes the low n bits of v, most significant first.
func (w *bitWriter) writeBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(int((v >> uint(i)) & 1))
	}
}

func (w *bitWriter) flush() []byte {
	if w.nbit > 0 {
		w.buf = append(w.buf, w.cur<<uint(8-w.nbit))
		w.cur, w.nbit = 0, 0
	}
	return w.buf
}

// bitReader reads bits MSB-first from a byte slice. overrun counts
// zero-fill reads past the end of the stream, so decoders that rely on
// the implicit zero tail can still detect a truncated or lying stream.
type bitReader struct {
	data    []byte
	pos     int
	bit     int
	overrun int
}

func (r *bitReader) readBit() (int, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("bit stream exhausted at byte %d", r.pos)
	}
	b := int(r.data[r.pos]>>uint(7-r.bit)) & 1
	r.bit++
	if r.bit == 8 {
		r.bit = 0
		r.pos++
	}
	return b, nil
}

// readBitOrZero reads the next bit, treating end-of-stream as an endless
// run of zeros. The arithmetic decoder relies on this: the encoder's
// termination sequence leaves the tail implicit.
func (r *bitReader) readBitOrZero() int {
	b, err := r.readBit()
	if err != nil {
		r.overrun++
		return 0
	}
	return b
}

func (r *bitReader) readBits(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(b)
	}
	return v, nil
}

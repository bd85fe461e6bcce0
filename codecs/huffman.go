package codecs

import (
	"container/heap"
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/foldvault/core"
)

// huffmanMaxCodeLen guards the canonical table. A length beyond 60 bits
// would need an input measured in tens of terabytes, so hitting the guard
// means the stream is malformed rather than merely unlucky.
const huffmanMaxCodeLen = 60

// HuffmanCodec is a static canonical Huffman coder.
//
// Layout: originalLen uint64 LE | 256 code-length bytes | MSB-first
// bit stream, zero-padded to a byte boundary. The canonical code
// assignment is derived from the lengths alone, so the table costs a
// fixed 256 bytes regardless of alphabet size.
type HuffmanCodec struct{}

var _ core.Codec = (*HuffmanCodec)(nil)

func NewHuffmanCodec() *HuffmanCodec {
	return &HuffmanCodec{}
}

type huffNode struct {
	weight uint64
	order  int // construction order, used as the deterministic tie-break
	symbol int // -1 for internal nodes
	left   *huffNode
	right  *huffNode
}

type huffHeap []*huffNode

func (h huffHeap) Len() int { return len(h) }
func (h huffHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].order < h[j].order
}
func (h huffHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x interface{}) { *h = append(*h, x.(*huffNode)) }
func (h *huffHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// huffmanLengths computes per-symbol code lengths from byte frequencies.
func huffmanLengths(freq *[256]uint64) ([256]byte, error) {
	var lengths [256]byte
	h := &huffHeap{}
	order := 0
	for sym := 0; sym < 256; sym++ {
		if freq[sym] > 0 {
			heap.Push(h, &huffNode{weight: freq[sym], order: order, symbol: sym})
			order++
		}
	}
	switch h.Len() {
	case 0:
		return lengths, nil
	case 1:
		lengths[(*h)[0].symbol] = 1
		return lengths, nil
	}
	for h.Len() > 1 {
		a := heap.Pop(h).(*huffNode)
		b := heap.Pop(h).(*huffNode)
		heap.Push(h, &huffNode{weight: a.weight + b.weight, order: order, symbol: -1, left: a, right: b})
		order++
	}
	root := (*h)[0]

	var walk func(n *huffNode, depth int) error
	walk = func(n *huffNode, depth int) error {
		if n.symbol >= 0 {
			if depth > huffmanMaxCodeLen {
				return fmt.Errorf("huffman: code length %d exceeds limit", depth)
			}
			lengths[n.symbol] = byte(depth)
			return nil
		}
		if err := walk(n.left, depth+1); err != nil {
			return err
		}
		return walk(n.right, depth+1)
	}
	if err := walk(root, 0); err != nil {
		return lengths, err
	}
	return lengths, nil
}

// canonicalCodes assigns canonical codes from lengths: symbols sorted by
// (length, symbol value) receive consecutive code values per length.
func canonicalCodes(lengths *[256]byte) (codes [256]uint64, maxLen int) {
	var count [huffmanMaxCodeLen + 1]int
	for sym := 0; sym < 256; sym++ {
		l := int(lengths[sym])
		if l > 0 {
			count[l]++
			if l > maxLen {
				maxLen = l
			}
		}
	}
	var firstCode [huffmanMaxCodeLen + 1]uint64
	var code uint64
	for l := 1; l <= maxLen; l++ {
		firstCode[l] = code
		code = (code + uint64(count[l])) << 1
	}
	var next [huffmanMaxCodeLen + 1]uint64
	copy(next[:], firstCode[:])
	for sym := 0; sym < 256; sym++ {
		l := int(lengths[sym])
		if l > 0 {
			codes[sym] = next[l]
			next[l]++
		}
	}
	return codes, maxLen
}

func (c *HuffmanCodec) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(len(data)))
	if len(data) == 0 {
		return out, nil
	}

	var freq [256]uint64
	for _, b := range data {
		freq[b]++
	}
	lengths, err := huffmanLengths(&freq)
	if err != nil {
		return nil, err
	}
	codes, _ := canonicalCodes(&lengths)

	out = append(out, lengths[:]...)
	w := &bitWriter{buf: out}
	for _, b := range data {
		w.writeBits(codes[b], int(lengths[b]))
	}
	return w.flush(), nil
}

func (c *HuffmanCodec) Decode(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("huffman: truncated header (len %d)", len(data))
	}
	origLen := binary.LittleEndian.Uint64(data)
	if origLen == 0 {
		if len(data) != 8 {
			return nil, fmt.Errorf("huffman: trailing bytes after empty stream")
		}
		return []byte{}, nil
	}
	if len(data) < 8+256 {
		return nil, fmt.Errorf("huffman: truncated length table (len %d)", len(data))
	}

	var lengths [256]byte
	copy(lengths[:], data[8:8+256])
	for sym := 0; sym < 256; sym++ {
		if int(lengths[sym]) > huffmanMaxCodeLen {
			return nil, fmt.Errorf("huffman: invalid code length %d for symbol %d", lengths[sym], sym)
		}
	}
	_, maxLen := canonicalCodes(&lengths)
	if maxLen == 0 {
		return nil, fmt.Errorf("huffman: empty code table for non-empty stream")
	}

	// Reject length tables that over-subscribe the code space (Kraft sum
	// above 1); the canonical assignment below would alias codes otherwise.
	// The running sum checks against the remaining budget before adding,
	// so adversarial tables cannot wrap it around.
	kraftBudget := uint64(1) << uint(maxLen)
	for sym := 0; sym < 256; sym++ {
		if l := int(lengths[sym]); l > 0 {
			slot := uint64(1) << uint(maxLen-l)
			if slot > kraftBudget {
				return nil, fmt.Errorf("huffman: invalid code length table")
			}
			kraftBudget -= slot
		}
	}

	// Every symbol costs at least one bit, which bounds any honest
	// claimed length by the stream size.
	bits := data[8+256:]
	if origLen > uint64(len(bits))*8 {
		return nil, fmt.Errorf("huffman: claimed length %d exceeds %d stream bits", origLen, len(bits)*8)
	}

	// Per-length symbol lists in canonical order.
	var count [huffmanMaxCodeLen + 1]int
	symbolsByLen := make([][]byte, maxLen+1)
	for l := 1; l <= maxLen; l++ {
		symbolsByLen[l] = []byte{}
	}
	for sym := 0; sym < 256; sym++ {
		l := int(lengths[sym])
		if l > 0 {
			count[l]++
			symbolsByLen[l] = append(symbolsByLen[l], byte(sym))
		}
	}
	var firstCode [huffmanMaxCodeLen + 1]uint64
	var code uint64
	for l := 1; l <= maxLen; l++ {
		firstCode[l] = code
		code = (code + uint64(count[l])) << 1
	}

	r := &bitReader{data: bits}
	out := make([]byte, 0, origLen)
	var cur uint64
	curLen := 0
	for uint64(len(out)) < origLen {
		b, err := r.readBit()
		if err != nil {
			return nil, fmt.Errorf("huffman: %w", err)
		}
		cur = cur<<1 | uint64(b)
		curLen++
		if curLen > maxLen {
			return nil, fmt.Errorf("huffman: no code matches bit sequence")
		}
		if count[curLen] > 0 && cur >= firstCode[curLen] && cur < firstCode[curLen]+uint64(count[curLen]) {
			out = append(out, symbolsByLen[curLen][cur-firstCode[curLen]])
			cur, curLen = 0, 0
		}
	}
	return out, nil
}

func (c *HuffmanCodec) Type() core.CodecType {
	return core.CodecHuffman
}

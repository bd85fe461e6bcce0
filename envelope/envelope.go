// Package envelope serializes the integrity-protected binary frame that
// wraps every folded payload. The frame is self-describing: the chain
// descriptor it carries is the single source of truth for inverting the
// payload, and the content digest is computed over the original
// uncompressed bytes so any corruption surfaces on decode.
package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/INLOpen/foldvault/core"
)

// Fixed-order frame fields, little-endian:
//
//	magic(8B) | version(1B) | chainLen(1B) | chainCodes(chainLen × 1B) |
//	originalLen(8B) | payloadLen(8B) | digest(32B) | payload(payloadLen B)
const (
	FormatVersion = 1
	DigestSize    = 32

	magicSize     = 8
	fixedOverhead = magicSize + 1 + 1 + 8 + 8 + DigestSize
)

var magic = [magicSize]byte{'F', 'O', 'L', 'D', 'V', 'L', 'T', FormatVersion}

// Overhead returns the framing cost in bytes for a chain of the given
// length. The executor uses it for the size-safety comparison.
func Overhead(chainLen int) int {
	return fixedOverhead + chainLen
}

// MaxOverhead is the largest possible framing cost; useful as a
// conservative bound when the chain is not yet known.
func MaxOverhead() int {
	return Overhead(core.MaxChainDepth)
}

// Digest computes the BLAKE2b-256 content digest stored in the frame.
func Digest(data []byte) [DigestSize]byte {
	return blake2b.Sum256(data)
}

// Envelope is the parsed form of a frame.
type Envelope struct {
	Version     byte
	Chain       core.FoldingChain
	OriginalLen uint64
	Digest      [DigestSize]byte
	Payload     []byte
}

// Encode serializes a frame. The digest must have been computed over the
// original uncompressed bytes, not the payload.
func Encode(chain core.FoldingChain, originalLen uint64, digest [DigestSize]byte, payload []byte) ([]byte, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, Overhead(len(chain))+len(payload))
	out = append(out, magic[:]...)
	out = append(out, FormatVersion)
	out = append(out, byte(len(chain)))
	for _, ct := range chain {
		out = append(out, byte(ct))
	}
	out = binary.LittleEndian.AppendUint64(out, originalLen)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = append(out, digest[:]...)
	out = append(out, payload...)
	return out, nil
}

// Decode parses a frame. Structural problems (bad magic, unsupported
// version, truncation, inconsistent lengths) are CorruptHeaderError;
// payload decoding and digest verification are the caller's job, since
// only the engine holds the codec registry.
func Decode(framed []byte) (*Envelope, error) {
	if len(framed) < magicSize+2 {
		return nil, &core.CorruptHeaderError{Reason: fmt.Sprintf("frame too short (%d bytes)", len(framed))}
	}
	if !bytes.Equal(framed[:magicSize], magic[:]) {
		return nil, &core.CorruptHeaderError{Reason: "bad magic marker"}
	}
	version := framed[magicSize]
	if version != FormatVersion {
		return nil, &core.CorruptHeaderError{Reason: fmt.Sprintf("unsupported format version %d", version)}
	}
	chainLen := int(framed[magicSize+1])
	if chainLen == 0 || chainLen > core.MaxChainDepth {
		return nil, &core.CorruptHeaderError{Reason: fmt.Sprintf("invalid chain length %d", chainLen)}
	}
	if len(framed) < Overhead(chainLen) {
		return nil, &core.CorruptHeaderError{Reason: "truncated header"}
	}

	pos := magicSize + 2
	chain := make(core.FoldingChain, chainLen)
	for i := 0; i < chainLen; i++ {
		chain[i] = core.CodecType(framed[pos+i])
	}
	pos += chainLen

	originalLen := binary.LittleEndian.Uint64(framed[pos:])
	payloadLen := binary.LittleEndian.Uint64(framed[pos+8:])
	pos += 16

	var digest [DigestSize]byte
	copy(digest[:], framed[pos:pos+DigestSize])
	pos += DigestSize

	if uint64(len(framed)-pos) != payloadLen {
		return nil, &core.CorruptHeaderError{Reason: fmt.Sprintf("payload length %d does not match header %d", len(framed)-pos, payloadLen)}
	}

	return &Envelope{
		Version:     version,
		Chain:       chain,
		OriginalLen: originalLen,
		Digest:      digest,
		Payload:     framed[pos:],
	}, nil
}

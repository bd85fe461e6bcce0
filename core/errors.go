package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural problems that need no extra context.
var (
	ErrEmptyChain   = errors.New("folding chain must not be empty")
	ErrChainTooLong = errors.New("folding chain exceeds maximum depth")
	ErrUnknownCodec = errors.New("unknown codec")
)

// CorruptHeaderError is a fatal decode error: the envelope header could not
// be parsed (bad magic, unsupported version, truncation, inconsistent
// lengths).
type CorruptHeaderError struct {
	Reason string
}

func (e *CorruptHeaderError) Error() string {
	return fmt.Sprintf("corrupt envelope header: %s", e.Reason)
}

// IntegrityMismatchError is a fatal decode error: the payload decoded, but
// the recovered bytes do not match the stored content digest, or a stage
// decoder rejected the payload outright. It signals tampering or bit rot;
// the engine never returns the partially-trusted bytes.
type IntegrityMismatchError struct {
	Reason string
	Err    error // Underlying stage decode error, if any.
}

func (e *IntegrityMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity mismatch: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("integrity mismatch: %s", e.Reason)
}

func (e *IntegrityMismatchError) Unwrap() error { return e.Err }

// EncodeFailureError wraps a codec encode error during candidate trial.
// It is non-fatal: the executor drops the candidate and moves on.
type EncodeFailureError struct {
	Codec CodecType
	Err   error
}

func (e *EncodeFailureError) Error() string {
	return fmt.Sprintf("codec %s encode failed: %v", e.Codec, e.Err)
}

func (e *EncodeFailureError) Unwrap() error { return e.Err }

// ChainRejectedError records that a candidate chain produced output at
// least as large as the input plus framing. Non-fatal: the executor falls
// back to the next candidate or the raw pseudo-chain.
type ChainRejectedError struct {
	Chain      FoldingChain
	InputSize  int
	OutputSize int
}

func (e *ChainRejectedError) Error() string {
	return fmt.Sprintf("chain %s rejected: output %d not smaller than input %d", e.Chain, e.OutputSize, e.InputSize)
}

// IsCorruptHeader checks if an error is a CorruptHeaderError.
func IsCorruptHeader(err error) bool {
	var che *CorruptHeaderError
	return errors.As(err, &che)
}

// IsIntegrityMismatch checks if an error is an IntegrityMismatchError.
func IsIntegrityMismatch(err error) bool {
	var ime *IntegrityMismatchError
	return errors.As(err, &ime)
}

// IsEncodeFailure checks if an error is an EncodeFailureError.
func IsEncodeFailure(err error) bool {
	var efe *EncodeFailureError
	return errors.As(err, &efe)
}

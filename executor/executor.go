// Package executor runs candidate folding chains and enforces the
// engine's size-safety guarantee: whatever happens during trial
// compression, the winning payload plus framing never exceeds the
// original bytes plus the minimal raw-chain frame.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/INLOpen/foldvault/codecs"
	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/envelope"
)

// DefaultBudget is the per-candidate execution budget. Codec stages are
// pure CPU with no blocking I/O, so the budget is checked at stage
// boundaries; a candidate that overruns is treated as a failed encode.
const DefaultBudget = 2 * time.Second

type Options struct {
	Registry *codecs.Registry
	Budget   time.Duration
	Logger   *slog.Logger
}

type Executor struct {
	registry *codecs.Registry
	budget   time.Duration
	logger   *slog.Logger
}

// Result is the outcome of executing one compression request. Payload is
// the bytes to frame; the outcome doubles as the pattern-memory signal.
type Result struct {
	Chain   core.FoldingChain
	Payload []byte
	Outcome core.CompressionOutcome
}

func New(opts Options) *Executor {
	e := &Executor{
		registry: opts.Registry,
		budget:   opts.Budget,
		logger:   opts.Logger,
	}
	if e.budget <= 0 {
		e.budget = DefaultBudget
	}
	if e.logger == nil {
		e.logger = slog.Default().With("component", "Executor")
	}
	return e
}

// runChain applies each codec's encode in order, feeding stage N's
// output to stage N+1. The context is consulted between stages.
func (e *Executor) runChain(ctx context.Context, chain core.FoldingChain, content []byte) ([]byte, error) {
	data := content
	for _, ct := range chain {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("chain %s exceeded execution budget: %w", chain, err)
		}
		codec, err := e.registry.Get(ct)
		if err != nil {
			return nil, err
		}
		out, err := codec.Encode(data)
		if err != nil {
			return nil, &core.EncodeFailureError{Codec: ct, Err: err}
		}
		data = out
	}
	return data, nil
}

// accepted reports whether a chain's payload actually saves space once
// framing is accounted for, measured against the raw-chain alternative.
func accepted(payloadLen, chainLen, originalLen int) bool {
	return payloadLen+envelope.Overhead(chainLen) < originalLen+envelope.Overhead(1)
}

// Execute runs the candidate chains and picks the smallest valid result,
// breaking ties toward fewer stages (cheaper decode). Candidates that
// error, time out, or fail to beat the raw bound are dropped; if none
// survive, the raw pseudo-chain is mandatory. Execute never fails.
func (e *Executor) Execute(ctx context.Context, content []byte, chains []core.FoldingChain) *Result {
	start := time.Now()

	type trial struct {
		payload []byte
		err     error
	}
	trials := make([]trial, len(chains))

	g := new(errgroup.Group)
	for i, chain := range chains {
		i, chain := i, chain
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, e.budget)
			defer cancel()
			payload, err := e.runChain(cctx, chain, content)
			trials[i] = trial{payload: payload, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in trials

	best := -1
	for i, t := range trials {
		if t.err != nil {
			e.logger.Debug("candidate dropped", "chain", chains[i].String(), "error", t.err)
			continue
		}
		if !accepted(len(t.payload), len(chains[i]), len(content)) {
			e.logger.Debug("candidate rejected",
				"chain", chains[i].String(),
				"input_size", len(content),
				"output_size", len(t.payload))
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		bi, ti := trials[best], t
		switch {
		case len(ti.payload) < len(bi.payload):
			best = i
		case len(ti.payload) == len(bi.payload) && len(chains[i]) < len(chains[best]):
			best = i
		case len(ti.payload) == len(bi.payload) && len(chains[i]) == len(chains[best]) &&
			chains[i].Key() < chains[best].Key():
			best = i
		}
	}

	elapsed := time.Since(start)
	if best < 0 {
		// Raw fallback: identity encode, so the stored payload is the
		// original bytes and size safety holds by construction.
		chain := core.RawChain()
		return &Result{
			Chain:   chain,
			Payload: content,
			Outcome: core.NewCompressionOutcome(chain, len(content), len(content), elapsed, true),
		}
	}
	chain := chains[best].Clone()
	return &Result{
		Chain:   chain,
		Payload: trials[best].payload,
		Outcome: core.NewCompressionOutcome(chain, len(content), len(trials[best].payload), elapsed, false),
	}
}

// Package engine wires the folding pipeline together: analyze, select,
// execute, frame, persist, learn. It is the only package the embedding
// application needs to import.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/INLOpen/foldvault/analyzer"
	"github.com/INLOpen/foldvault/codecs"
	"github.com/INLOpen/foldvault/config"
	"github.com/INLOpen/foldvault/core"
	"github.com/INLOpen/foldvault/envelope"
	"github.com/INLOpen/foldvault/executor"
	"github.com/INLOpen/foldvault/hooks"
	"github.com/INLOpen/foldvault/memory"
	"github.com/INLOpen/foldvault/selector"
	"github.com/INLOpen/foldvault/vault"
)

// Options configures a new Engine. Only Store is mandatory; everything
// else falls back to sensible defaults.
type Options struct {
	Config         *config.Config
	Store          vault.Store
	Registry       *codecs.Registry
	Memory         *memory.PatternMemory
	HookManager    hooks.HookManager
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
}

// CompressOptions carries the per-request annotations.
type CompressOptions struct {
	// Name is an advisory label (e.g. original filename) carried on the
	// record and used as the store key prefix.
	Name string
	// ContentTypeHint optionally declares the content class ("text",
	// "markup", "code", "binary"). Unknown hints are ignored in favor of
	// the analyzer's own classification.
	ContentTypeHint string
	Metadata        vault.Metadata
}

// Engine is the folding engine facade. Safe for concurrent use: the
// only shared mutable state is the pattern memory, which synchronizes
// internally.
type Engine struct {
	cfg       *config.Config
	store     vault.Store
	registry  *codecs.Registry
	analyzer  *analyzer.Analyzer
	selector  *selector.Selector
	executor  *executor.Executor
	memory    *memory.PatternMemory
	hooks     hooks.HookManager
	logger    *slog.Logger
	tracer    trace.Tracer
	selfCheck bool
}

// NewEngine validates the options and assembles the pipeline.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine: a vault store is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})).With("component", "FoldingEngine")
	}

	registry := opts.Registry
	if registry == nil {
		var err error
		registry, err = codecs.DefaultRegistry()
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	codecSet, err := cfg.CodecSet()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if codecSet == nil {
		codecSet = registry.Types()
	}
	for _, ct := range codecSet {
		if !registry.Has(ct) {
			return nil, fmt.Errorf("engine: codec %s enabled but not registered", ct)
		}
	}

	mem := opts.Memory
	if mem == nil {
		mem, err = memory.New(cfg.LearningRate())
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	budget, err := cfg.ExecutionBudget()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	hookMgr := opts.HookManager
	if hookMgr == nil {
		hookMgr = hooks.NewHookManager(logger)
	}

	e := &Engine{
		cfg:      cfg,
		store:    opts.Store,
		registry: registry,
		analyzer: analyzer.New(analyzer.Options{Logger: logger.With("component", "Analyzer")}),
		selector: selector.New(selector.Options{
			Memory:              mem,
			ConfidenceThreshold: cfg.Engine.Selector.ConfidenceThreshold,
			MaxCandidates:       cfg.Engine.Selector.MaxCandidates,
			CodecSet:            codecSet,
			Logger:              logger.With("component", "Selector"),
		}),
		executor: executor.New(executor.Options{
			Registry: registry,
			Budget:   budget,
			Logger:   logger.With("component", "Executor"),
		}),
		memory:    mem,
		hooks:     hookMgr,
		logger:    logger,
		selfCheck: cfg.Engine.SelfCheck,
	}
	if opts.TracerProvider != nil {
		e.tracer = opts.TracerProvider.Tracer("github.com/INLOpen/foldvault/engine")
	} else {
		e.tracer = noop.NewTracerProvider().Tracer("")
	}
	return e, nil
}

// Compress folds the content, frames it, persists it, and feeds the
// outcome back into pattern memory. It never fails for compression
// reasons: the raw fallback guarantees a valid result for any byte
// input. Errors come only from the store boundary, a vetoing pre-hook,
// or a failed post-persist self check.
func (e *Engine) Compress(ctx context.Context, content []byte, opts CompressOptions) (*vault.VaultRecord, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Compress")
	defer span.End()

	pre := hooks.PreCompressPayload{Name: &opts.Name, ContentTypeHint: &opts.ContentTypeHint, Size: len(content)}
	if err := e.hooks.Trigger(ctx, hooks.NewPreCompressEvent(pre)); err != nil {
		return nil, err
	}

	stats := e.analyzer.Analyze(content)
	if class, ok := core.ParseContentClass(opts.ContentTypeHint); ok {
		stats.Class = class
	}

	candidates := e.selector.Select(stats)
	chains := make([]core.FoldingChain, len(candidates))
	for i, c := range candidates {
		chains[i] = c.Chain
	}

	res := e.executor.Execute(ctx, content, chains)
	if res.Outcome.Fallback {
		_ = e.hooks.Trigger(ctx, hooks.NewPostFallbackEvent(hooks.PostFallbackPayload{
			Size:       len(content),
			Candidates: chains,
		}))
	}

	digest := envelope.Digest(content)
	framed, err := envelope.Encode(res.Chain, uint64(len(content)), digest, res.Payload)
	if err != nil {
		// Executor results always carry a valid chain; this is defensive
		// against a miswired custom registry.
		return nil, fmt.Errorf("engine: frame result: %w", err)
	}

	handle, err := e.store.Put(ctx, opts.Name, framed, opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("engine: persist framed payload: %w", err)
	}

	rec := &vault.VaultRecord{
		ID:          uuid.NewString(),
		Name:        opts.Name,
		Metadata:    opts.Metadata,
		Chain:       res.Chain,
		Handle:      handle,
		OriginalLen: uint64(len(content)),
		StoredLen:   uint64(len(framed)),
		Digest:      digest,
		CreatedAt:   time.Now().UTC(),
	}
	rec.SealDigest()

	if e.selfCheck {
		verified, err := e.Decompress(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("engine: post-persist self check: %w", err)
		}
		if !bytes.Equal(verified, content) {
			return nil, &core.IntegrityMismatchError{Reason: "self check recovered different bytes"}
		}
	}

	e.memory.Observe(stats.Class, res.Outcome)
	_ = e.hooks.Trigger(ctx, hooks.NewPostWeightUpdateEvent(hooks.PostWeightUpdatePayload{
		Class:   stats.Class,
		Chain:   res.Chain,
		Quality: res.Outcome.Quality,
	}))
	_ = e.hooks.Trigger(ctx, hooks.NewPostCompressEvent(hooks.PostCompressPayload{
		RecordID: rec.ID,
		Outcome:  res.Outcome,
	}))

	e.logger.Info("content folded",
		"record_id", rec.ID,
		"class", stats.Class.String(),
		"chain", res.Chain.String(),
		"input_size", len(content),
		"stored_size", len(framed),
		"fallback", res.Outcome.Fallback)
	return rec, nil
}

// Decompress retrieves and unfolds a record, verifying the content
// digest before returning anything. Failures are typed: a
// core.CorruptHeaderError for unparseable frames, a
// core.IntegrityMismatchError for payloads that decode wrongly or not
// at all. Partially recovered bytes are never returned.
func (e *Engine) Decompress(ctx context.Context, rec *vault.VaultRecord) ([]byte, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Decompress")
	defer span.End()
	start := time.Now()

	if err := e.hooks.Trigger(ctx, hooks.NewPreDecompressEvent(hooks.PreDecompressPayload{
		RecordID: rec.ID,
		Chain:    rec.Chain,
	})); err != nil {
		return nil, err
	}

	data, err := e.decompress(ctx, rec)
	_ = e.hooks.Trigger(ctx, hooks.NewPostDecompressEvent(hooks.PostDecompressPayload{
		RecordID: rec.ID,
		Size:     len(data),
		Duration: time.Since(start),
		Error:    err,
	}))
	return data, err
}

func (e *Engine) decompress(ctx context.Context, rec *vault.VaultRecord) ([]byte, error) {
	framed, err := e.store.Get(ctx, rec.Handle)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch framed payload: %w", err)
	}

	env, err := envelope.Decode(framed)
	if err != nil {
		return nil, err
	}
	if len(rec.Chain) > 0 && !env.Chain.Equal(rec.Chain) {
		return nil, &core.CorruptHeaderError{Reason: "envelope chain does not match record"}
	}

	// Walk the chain in reverse: the last encode stage is the first to
	// invert.
	data := env.Payload
	for i := len(env.Chain) - 1; i >= 0; i-- {
		codec, err := e.registry.Get(env.Chain[i])
		if err != nil {
			return nil, &core.CorruptHeaderError{Reason: fmt.Sprintf("chain references unknown codec %d", byte(env.Chain[i]))}
		}
		out, err := codec.Decode(data)
		if err != nil {
			return nil, &core.IntegrityMismatchError{Reason: fmt.Sprintf("stage %s failed to decode", env.Chain[i]), Err: err}
		}
		data = out
	}

	if uint64(len(data)) != env.OriginalLen {
		return nil, &core.IntegrityMismatchError{Reason: fmt.Sprintf("recovered %d bytes, expected %d", len(data), env.OriginalLen)}
	}
	if got := envelope.Digest(data); !bytes.Equal(got[:], env.Digest[:]) {
		return nil, &core.IntegrityMismatchError{Reason: "content digest mismatch"}
	}
	return data, nil
}

// MemorySnapshot exposes the current pattern-memory weights for
// monitoring and the CLI stats surface.
func (e *Engine) MemorySnapshot() []memory.WeightStat {
	return e.memory.Snapshot()
}

// Close drains asynchronous hook listeners.
func (e *Engine) Close() {
	e.hooks.Stop()
}

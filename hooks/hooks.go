// Package hooks provides the engine's lifecycle event system. Listeners
// observe (and, for pre-hooks, veto) compression and decompression
// operations without the engine knowing who is watching.
package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/INLOpen/foldvault/core"
)

// EventType defines the type of a hook event.
type EventType string

const (
	// Compression lifecycle events.
	EventPreCompress      EventType = "PreCompress"
	EventPostCompress     EventType = "PostCompress"
	EventPostFallback     EventType = "PostFallback"
	EventPostWeightUpdate EventType = "PostWeightUpdate"

	// Decompression lifecycle events.
	EventPreDecompress  EventType = "PreDecompress"
	EventPostDecompress EventType = "PostDecompress"
)

// HookManager defines the interface for managing and triggering hooks.
type HookManager interface {
	// Register adds a listener for a specific event type.
	Register(eventType EventType, listener HookListener)
	// Trigger fires all registered listeners for a given event.
	// Pre-hooks run synchronously and may cancel the operation by
	// returning an error; post-hooks run sync or async per listener.
	Trigger(ctx context.Context, event HookEvent) error
	// Stop waits for all asynchronous listeners to complete. Useful for graceful shutdown.
	Stop()
}

// HookEvent is the interface that all event objects must implement.
type HookEvent interface {
	// Type returns the type of the event.
	Type() EventType
	// Payload returns the data associated with the event.
	Payload() interface{}
}

// HookListener is the interface for hook subscribers.
type HookListener interface {
	// OnEvent handles the event. For Pre events a returned error cancels
	// the operation.
	OnEvent(ctx context.Context, event HookEvent) error
	// Priority orders listeners for one event; lower runs first.
	Priority() int
	// IsAsync requests asynchronous execution for Post events.
	IsAsync() bool
}

// BaseEvent provides a base implementation for HookEvent.
type BaseEvent struct {
	eventType EventType
	payload   interface{}
}

func (e *BaseEvent) Type() EventType      { return e.eventType }
func (e *BaseEvent) Payload() interface{} { return e.payload }

// PreCompressPayload contains the data for a PreCompress event. Fields
// are pointers so listeners can adjust the request before execution.
type PreCompressPayload struct {
	Name            *string
	ContentTypeHint *string
	Size            int
}

// NewPreCompressEvent creates a new event for before a block is compressed.
func NewPreCompressEvent(payload PreCompressPayload) HookEvent {
	return &BaseEvent{eventType: EventPreCompress, payload: payload}
}

// PostCompressPayload contains the data for a PostCompress event.
type PostCompressPayload struct {
	RecordID string
	Outcome  core.CompressionOutcome
}

// NewPostCompressEvent creates a new event for after a block is compressed.
func NewPostCompressEvent(payload PostCompressPayload) HookEvent {
	return &BaseEvent{eventType: EventPostCompress, payload: payload}
}

// PostFallbackPayload contains the data for a PostFallback event, fired
// when no candidate chain beat the raw bound.
type PostFallbackPayload struct {
	Size       int
	Candidates []core.FoldingChain
}

// NewPostFallbackEvent creates a new event for after a raw fallback.
func NewPostFallbackEvent(payload PostFallbackPayload) HookEvent {
	return &BaseEvent{eventType: EventPostFallback, payload: payload}
}

// PostWeightUpdatePayload contains the data for a PostWeightUpdate event.
type PostWeightUpdatePayload struct {
	Class   core.ContentClass
	Chain   core.FoldingChain
	Quality float64
}

// NewPostWeightUpdateEvent creates a new event for after pattern memory absorbs an outcome.
func NewPostWeightUpdateEvent(payload PostWeightUpdatePayload) HookEvent {
	return &BaseEvent{eventType: EventPostWeightUpdate, payload: payload}
}

// PreDecompressPayload contains the data for a PreDecompress event.
type PreDecompressPayload struct {
	RecordID string
	Chain    core.FoldingChain
}

// NewPreDecompressEvent creates a new event for before a record is decompressed.
func NewPreDecompressEvent(payload PreDecompressPayload) HookEvent {
	return &BaseEvent{eventType: EventPreDecompress, payload: payload}
}

// PostDecompressPayload contains the data for a PostDecompress event.
type PostDecompressPayload struct {
	RecordID string
	Size     int
	Duration time.Duration
	Error    error // The final error state of the decompress operation.
}

// NewPostDecompressEvent creates a new event for after a record is decompressed.
func NewPostDecompressEvent(payload PostDecompressPayload) HookEvent {
	return &BaseEvent{eventType: EventPostDecompress, payload: payload}
}

// listenerWithPriority wraps a listener with its priority for ordered dispatch.
type listenerWithPriority struct {
	listener HookListener
	priority int
}

// DefaultHookManager is a concrete implementation of HookManager.
type DefaultHookManager struct {
	// The map stores slices of listeners, kept sorted by priority.
	listeners map[EventType][]*listenerWithPriority
	mu        sync.RWMutex
	wg        sync.WaitGroup // For tracking async listeners
	logger    *slog.Logger
}

// NewHookManager creates a new DefaultHookManager.
func NewHookManager(logger *slog.Logger) HookManager {
	if logger == nil {
		// Default to a discard logger to prevent nil panics if no logger is provided.
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DefaultHookManager{
		listeners: make(map[EventType][]*listenerWithPriority),
		logger:    logger,
	}
}

// Register adds a listener for a specific event type, maintaining priority order.
func (m *DefaultHookManager) Register(eventType EventType, listener HookListener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := &listenerWithPriority{
		listener: listener,
		priority: listener.Priority(),
	}

	l := m.listeners[eventType]

	// Find the insertion index that keeps the slice sorted by priority.
	idx := sort.Search(len(l), func(i int) bool {
		return l[i].priority >= item.priority
	})

	l = append(l, nil)
	copy(l[idx+1:], l[idx:])
	l[idx] = item

	m.listeners[eventType] = l
}

// Trigger fires all registered listeners for a given event in priority order.
func (m *DefaultHookManager) Trigger(ctx context.Context, event HookEvent) error {
	m.mu.RLock()
	listeners, ok := m.listeners[event.Type()]
	m.mu.RUnlock()

	if !ok || len(listeners) == 0 {
		return nil
	}

	isPreHook := strings.HasPrefix(string(event.Type()), "Pre")

	for _, item := range listeners {
		isListenerAsync := item.listener.IsAsync()

		// Pre-hooks MUST be synchronous to allow for cancellation.
		// Post-hooks can be sync or async based on the listener's preference.
		if isPreHook || !isListenerAsync {
			if isPreHook && isListenerAsync {
				m.logger.Warn("Listener for Pre-hook requested async execution, but Pre-hooks are always synchronous.", "event", event.Type(), "priority", item.priority)
			}

			if err := item.listener.OnEvent(ctx, event); err != nil {
				if isPreHook {
					// For Pre-hooks, the error is critical and cancels the operation.
					return fmt.Errorf("pre-hook for event %s (priority %d) failed: %w", event.Type(), item.priority, err)
				}
				// For synchronous Post-hooks, we just log the error and continue.
				m.logger.Error("Error from synchronous post-hook listener", "event", event.Type(), "priority", item.priority, "error", err)
			}
		} else {
			m.wg.Add(1)
			go func(currentItem *listenerWithPriority) {
				defer m.wg.Done()
				if err := currentItem.listener.OnEvent(ctx, event); err != nil {
					m.logger.Error("Error from asynchronous post-hook listener", "event", event.Type(), "priority", currentItem.priority, "error", err)
				}
			}(item)
		}
	}
	return nil
}

// Stop waits for all asynchronous listeners to complete.
func (m *DefaultHookManager) Stop() {
	m.wg.Wait()
}

package hooks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/INLOpen/foldvault/core"
)

type recordingListener struct {
	mu       sync.Mutex
	calls    []string
	name     string
	priority int
	async    bool
	err      error
	sink     *recordingListener // shared call log, optional
}

func (l *recordingListener) OnEvent(ctx context.Context, event HookEvent) error {
	target := l
	if l.sink != nil {
		target = l.sink
	}
	target.mu.Lock()
	target.calls = append(target.calls, l.name)
	target.mu.Unlock()
	return l.err
}

func (l *recordingListener) Priority() int { return l.priority }
func (l *recordingListener) IsAsync() bool { return l.async }

func TestTriggerPriorityOrder(t *testing.T) {
	m := NewHookManager(nil)
	log := &recordingListener{}
	m.Register(EventPostCompress, &recordingListener{name: "third", priority: 30, sink: log})
	m.Register(EventPostCompress, &recordingListener{name: "first", priority: 10, sink: log})
	m.Register(EventPostCompress, &recordingListener{name: "second", priority: 20, sink: log})

	err := m.Trigger(context.Background(), NewPostCompressEvent(PostCompressPayload{RecordID: "r1"}))
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(log.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", log.calls, want)
	}
	for i := range want {
		if log.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, log.calls[i], want[i])
		}
	}
}

func TestPreHookVetoCancels(t *testing.T) {
	m := NewHookManager(nil)
	veto := errors.New("not today")
	m.Register(EventPreCompress, &recordingListener{name: "gate", priority: 1, err: veto})
	blocked := &recordingListener{name: "after", priority: 2}
	m.Register(EventPreCompress, blocked)

	name := "f"
	hint := ""
	err := m.Trigger(context.Background(), NewPreCompressEvent(PreCompressPayload{Name: &name, ContentTypeHint: &hint}))
	if err == nil {
		t.Fatal("veto error swallowed")
	}
	if !errors.Is(err, veto) {
		t.Errorf("error %v does not wrap the veto", err)
	}
	if len(blocked.calls) != 0 {
		t.Error("listener after the veto still ran")
	}
}

func TestPostHookErrorDoesNotCancel(t *testing.T) {
	m := NewHookManager(nil)
	m.Register(EventPostDecompress, &recordingListener{name: "fails", priority: 1, err: errors.New("boom")})
	after := &recordingListener{name: "after", priority: 2}
	m.Register(EventPostDecompress, after)

	err := m.Trigger(context.Background(), NewPostDecompressEvent(PostDecompressPayload{RecordID: "r"}))
	if err != nil {
		t.Fatalf("post-hook error leaked: %v", err)
	}
	if len(after.calls) != 1 {
		t.Error("listener after a failing post-hook did not run")
	}
}

type asyncCounter struct {
	count atomic.Int64
}

func (l *asyncCounter) OnEvent(ctx context.Context, event HookEvent) error {
	time.Sleep(5 * time.Millisecond)
	l.count.Add(1)
	return nil
}
func (l *asyncCounter) Priority() int { return 1 }
func (l *asyncCounter) IsAsync() bool { return true }

func TestAsyncPostHookAndStop(t *testing.T) {
	m := NewHookManager(nil)
	counter := &asyncCounter{}
	m.Register(EventPostCompress, counter)

	for i := 0; i < 5; i++ {
		if err := m.Trigger(context.Background(), NewPostCompressEvent(PostCompressPayload{})); err != nil {
			t.Fatalf("Trigger: %v", err)
		}
	}
	m.Stop()
	if got := counter.count.Load(); got != 5 {
		t.Errorf("async listener ran %d times, want 5", got)
	}
}

func TestEventPayloads(t *testing.T) {
	chain := core.FoldingChain{core.CodecRLE}
	ev := NewPostWeightUpdateEvent(PostWeightUpdatePayload{Class: core.ClassText, Chain: chain, Quality: 0.7})
	if ev.Type() != EventPostWeightUpdate {
		t.Errorf("Type = %v, want %v", ev.Type(), EventPostWeightUpdate)
	}
	payload, ok := ev.Payload().(PostWeightUpdatePayload)
	if !ok {
		t.Fatal("payload has the wrong concrete type")
	}
	if !payload.Chain.Equal(chain) || payload.Quality != 0.7 {
		t.Error("payload fields lost in transit")
	}
}

package core

import (
	"sync"
	"testing"
)

func TestGenericPool(t *testing.T) {
	pool := NewGenericPool(func() *[16]byte { return new([16]byte) })
	a := pool.Get()
	if a == nil {
		t.Fatal("Get returned nil")
	}
	a[0] = 0xAB
	pool.Put(a)
	b := pool.Get()
	if b == nil {
		t.Fatal("Get after Put returned nil")
	}
}

func TestBufferPoolReuse(t *testing.T) {
	bp := NewBufferPool(128)
	buf := bp.Get()
	buf.WriteString("scratch data")
	bp.Put(buf)

	again := bp.Get()
	if again.Len() != 0 {
		t.Error("pooled buffer not reset on Put")
	}
	if again.Cap() < 12 {
		t.Error("pooled buffer lost its capacity")
	}
}

func TestBufferPoolMetrics(t *testing.T) {
	bp := NewBufferPool(64)
	_, _, created, size := bp.GetMetrics()
	if created == 0 || size == 0 {
		t.Fatal("pre-warmed pool reports no buffers")
	}

	buf := bp.Get()
	hits, _, _, _ := bp.GetMetrics()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	bp.Put(buf)
}

func TestBufferPoolConcurrent(t *testing.T) {
	bp := NewBufferPool(32)
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				buf := bp.Get()
				buf.WriteString("x")
				bp.Put(buf)
			}
		}()
	}
	wg.Wait()
}

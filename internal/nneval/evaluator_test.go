package nneval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/nninput"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeBackend) EvaluateBatch(inputs []nninput.Input) []Output {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	out := make([]Output, len(inputs))
	for i := range inputs {
		out[i] = Output{Policy: []float32{0.5, 0.5}, Value: 0.1}
	}
	return out
}

func (f *fakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestInput(seed uint64) nninput.Input {
	h := board.NewHistory(9, 9)
	return nninput.Encode(h, core.Black, nninput.Params{}, &nninput.VCFInfo{})
}

func TestEvaluateReturnsOutput(t *testing.T) {
	backend := &fakeBackend{}
	svc := New(backend, Config{MaxBatchSize: 4, QueueCap: 16, CacheSizeLog2: 10})
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := svc.Evaluate(ctx, newTestInput(1))
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if out.Value != 0.1 {
		t.Fatalf("unexpected value: %v", out.Value)
	}
}

func TestEvaluateCachesRepeatedInput(t *testing.T) {
	backend := &fakeBackend{}
	svc := New(backend, Config{MaxBatchSize: 4, QueueCap: 16, CacheSizeLog2: 10})
	defer svc.Close()

	ctx := context.Background()
	in := newTestInput(1)

	if _, err := svc.Evaluate(ctx, in); err != nil {
		t.Fatalf("first Evaluate error: %v", err)
	}
	if _, err := svc.Evaluate(ctx, in); err != nil {
		t.Fatalf("second Evaluate error: %v", err)
	}
	if got := backend.Calls(); got != 1 {
		t.Fatalf("expected one backend call (second should cache-hit), got %d", got)
	}
}

func TestEvaluateRespectsCancellation(t *testing.T) {
	backend := &fakeBackend{}
	svc := New(backend, Config{MaxBatchSize: 1, QueueCap: 0, CacheSizeLog2: 10})
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Evaluate(ctx, newTestInput(2)); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestConcurrentEvaluateBatches(t *testing.T) {
	backend := &fakeBackend{}
	svc := New(backend, Config{MaxBatchSize: 8, QueueCap: 64, CacheSizeLog2: 10})
	defer svc.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := board.NewHistory(9, 9)
			in := nninput.Encode(h, core.White, nninput.Params{}, &nninput.VCFInfo{})
			if _, err := svc.Evaluate(context.Background(), in); err != nil {
				t.Errorf("Evaluate error: %v", err)
			}
		}()
	}
	wg.Wait()
}

// Package nneval implements the batching neural-network evaluator service
// (spec.md §4.4): a bounded request queue, a background batching loop that
// groups pending requests into one backend inference call, a bucketed
// cache keyed by input hash, and one-shot completion signaling per request.
//
// Grounded on the teacher's internal/engine/transposition.go for the
// power-of-two bucketed table layout (generalized from board.Move per
// chess position to a cached NN output per Gomoku input hash), and on
// internal/engine/worker.go's Lazy SMP worker-pool pattern (a stopFlag
// *atomic.Bool shared across goroutines, per-worker-like batch loop)
// adapted here into a single batching goroutine feeding many caller
// goroutines rather than many search workers feeding one shared table.
package nneval

import (
	"context"
	"sync"

	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/nninput"
)

// Output is a single position's network output (spec.md §3 "NN output"):
// a policy distribution over board cells plus a pass slot, and a scalar
// value estimate from the side-to-move's perspective.
type Output struct {
	Policy []float32 // length Board.Area()+1, last slot is the pass probability
	Value  float32   // in [-1, 1]
}

// NNBackend is the pluggable inference backend (spec.md §4.4: "the service
// owns batching/caching; a backend just runs a forward pass on a batch").
// internal/nneval/refbackend provides the sfnnue-ported reference
// implementation; other backends may wrap a remote/batched accelerator.
type NNBackend interface {
	EvaluateBatch(inputs []nninput.Input) []Output
}

// Config tunes the service's batching and cache behavior.
type Config struct {
	MaxBatchSize int // upper bound on positions per backend call
	QueueCap     int // bound on outstanding (uncached) requests
	CacheSizeLog2 int // cache size is 1<<CacheSizeLog2 buckets
}

// DefaultConfig matches spec.md §4.4's suggested defaults for a single
// mid-size board.
var DefaultConfig = Config{MaxBatchSize: 64, QueueCap: 1024, CacheSizeLog2: 18}

// request is one pending evaluation, fanned in from caller goroutines and
// fanned out by the batch loop.
type request struct {
	input nninput.Input
	done  chan Output // one-shot: buffered(1), receives exactly one send, never closed
}

// Service is the running evaluator: a queue, a cache, and a pool of batching
// goroutines (spec.md §4.4's "server threads"). Safe for concurrent use by
// many search workers.
type Service struct {
	backend NNBackend
	cache   *cache

	queue  chan request
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex // guards ctx/cancel/numThreads/batchSize/cacheLog2 against concurrent lifecycle calls
	numThreads int
	batchSize  int
	cacheLog2  int
	numGpusVal int
}

// New starts a Service backed by `backend`. Call Close to stop the batch
// loop.
func New(backend NNBackend, cfg Config) *Service {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultConfig.MaxBatchSize
	}
	if cfg.QueueCap <= 0 {
		cfg.QueueCap = DefaultConfig.QueueCap
	}
	if cfg.CacheSizeLog2 <= 0 {
		cfg.CacheSizeLog2 = DefaultConfig.CacheSizeLog2
	}

	s := &Service{
		backend:    backend,
		cache:      newCache(cfg.CacheSizeLog2),
		queue:      make(chan request, cfg.QueueCap),
		batchSize:  cfg.MaxBatchSize,
		cacheLog2:  cfg.CacheSizeLog2,
		numGpusVal: 1, // reference backend runs on CPU; reported as a single logical device
	}
	s.spawnServerThreads(1)
	return s
}

// Close stops every batch-loop goroutine and waits for them to drain.
func (s *Service) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	cancel()
	s.wg.Wait()
}

// clearCache discards every cached NN output, forcing subsequent Evaluate
// calls to go through the backend again. Grounded on the teacher's
// internal/engine.(*Engine).NewGame/TT-clear idiom (a fresh search needs a
// cache not polluted by a previous, unrelated position tree): replacing
// the bucket slice is cheaper than locking every atomic.Pointer individually.
func (s *Service) clearCache() {
	s.mu.Lock()
	log2 := s.cacheLog2
	s.mu.Unlock()
	s.cache.reset(log2)
}

// numGpus reports the number of accelerator devices the service dispatches
// to. The reference NNBackend is a pure-CPU quantized MLP (spec.md §4.4's
// domain-stack note: "raw tensor kernels" are out of scope), so this always
// reports 1 rather than probing real hardware, the same way the teacher's
// engine falls back to a single classical evaluator when NNUE/GPU support
// isn't compiled in.
func (s *Service) numGpus() int {
	return s.numGpusVal
}

// maxBatchSize reports the current per-backend-call batch size cap.
func (s *Service) maxBatchSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchSize
}

// setNumThreads resizes the batch-loop worker pool to len(list), one
// goroutine per entry (the values themselves are opaque thread/affinity
// hints, as in spec.md §4.4; this reference service doesn't pin threads to
// cores, it only uses the count). Grounded on internal/engine.NumWorkers's
// role sizing internal/engine.Engine.workers: killServerThreads followed by
// spawnServerThreads(len(list)), the same stop-then-resize sequence the
// teacher's Stop/search-restart path uses around its worker slice.
func (s *Service) setNumThreads(list []int) {
	s.killServerThreads()
	n := len(list)
	if n <= 0 {
		n = 1
	}
	s.spawnServerThreads(n)
}

// killServerThreads stops and waits for every running batch-loop goroutine,
// leaving the queue and cache intact so spawnServerThreads can resume
// draining it. Mirrors internal/engine.(*Engine).Stop's
// stopFlag.Store(true) + WaitGroup drain.
func (s *Service) killServerThreads() {
	s.mu.Lock()
	if s.numThreads == 0 {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.numThreads = 0
	s.mu.Unlock()
}

// spawnServerThreads starts n batch-loop goroutines sharing the service's
// queue and cache, replacing the context killServerThreads cancelled.
// Mirrors internal/engine.(*Engine)'s worker-slice construction (one
// goroutine per Worker, all reading off the same resultCh-style channel),
// generalized from one static pool to a resizable one.
func (s *Service) spawnServerThreads(n int) {
	if n <= 0 {
		n = 1
	}

	s.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel
	s.numThreads = n
	s.mu.Unlock()

	for i := 0; i < n; i++ {
		s.wg.Add(1)
		go s.batchLoop(ctx)
	}
}

// runCtx returns the context the currently-running batch-loop pool was
// spawned with, guarded against a concurrent setNumThreads swap.
func (s *Service) runCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Evaluate blocks until an Output is available for `in`, either from cache
// or from a batched backend call. Returns ctx.Err() if ctx is cancelled
// first (spec.md §4.4: "requests may be cancelled if the search that
// issued them is aborted").
func (s *Service) Evaluate(ctx context.Context, in nninput.Input) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if out, ok := s.cache.get(in.Hash); ok {
		return out, nil
	}

	runCtx := s.runCtx()
	req := request{input: in, done: make(chan Output, 1)}
	select {
	case s.queue <- req:
	case <-ctx.Done():
		return Output{}, ctx.Err()
	case <-runCtx.Done():
		return Output{}, runCtx.Err()
	}

	select {
	case out := <-req.done:
		return out, nil
	case <-ctx.Done():
		return Output{}, ctx.Err()
	case <-runCtx.Done():
		return Output{}, runCtx.Err()
	}
}

// batchLoop drains the queue into batches of up to batchSize and runs one
// backend call per batch, distributing outputs back to each request's
// one-shot channel and populating the cache. runCtx is the context this
// particular goroutine generation was spawned with; killServerThreads
// cancels it to retire the generation without touching a replacement's.
func (s *Service) batchLoop(runCtx context.Context) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		batchSize := s.batchSize
		s.mu.Unlock()

		var batch []request
		select {
		case r := <-s.queue:
			batch = append(batch, r)
		case <-runCtx.Done():
			return
		}

		// Opportunistically drain more without blocking, up to batchSize,
		// so concurrently-arriving requests from other search workers ride
		// the same backend call.
	drain:
		for len(batch) < batchSize {
			select {
			case r := <-s.queue:
				batch = append(batch, r)
			default:
				break drain
			}
		}

		inputs := make([]nninput.Input, len(batch))
		for i, r := range batch {
			inputs[i] = r.input
		}
		outputs := s.backend.EvaluateBatch(inputs)

		for i, r := range batch {
			out := outputs[i]
			s.cache.put(r.input.Hash, out)
			r.done <- out
		}
	}
}

// hashKey reduces a 128-bit input hash to the 64-bit key the cache indexes
// by, matching internal/vcf/transposition.go's Hash128.Mix() convention.
func hashKey(h core.Hash128) uint64 {
	return h.Mix()
}

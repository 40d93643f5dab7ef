package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/nneval"
	"github.com/hailam/chessplay/internal/nninput"
	"github.com/hailam/chessplay/internal/search"
	"github.com/hailam/chessplay/internal/timecontrol"
)

type fakeEvaluator struct {
	mu    sync.Mutex
	value float32
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, in nninput.Input) (nneval.Output, error) {
	select {
	case <-ctx.Done():
		return nneval.Output{}, ctx.Err()
	default:
	}
	n := in.Spatial.W*in.Spatial.H + 1
	policy := make([]float32, n)
	for i := range policy {
		policy[i] = 1
	}
	f.mu.Lock()
	v := f.value
	f.mu.Unlock()
	return nneval.Output{Policy: policy, Value: v}, nil
}

func newTestBot() *AsyncBot {
	h := board.NewHistory(9, 9)
	eval := &fakeEvaluator{value: 0.1}
	return NewAsyncBot(eval, search.Params{}, h, Config{NumWorkers: 4, RNGSeed: 1})
}

func TestGenMoveSynchronousReturnsLegalMoveAndAdvancesState(t *testing.T) {
	b := newTestBot()
	tc := timecontrol.Limits{MoveTime: 30 * time.Millisecond}

	move, ok := b.GenMoveSynchronous(core.Black, tc, 1.0)
	if !ok {
		t.Fatal("expected a legal move on an empty board")
	}

	b.mu.Lock()
	moveCount := b.history.Pos.MoveCount
	toMove := b.history.Pos.PlaToMove
	b.mu.Unlock()
	if moveCount != 1 {
		t.Fatalf("expected history to have advanced by one move, got MoveCount=%d", moveCount)
	}
	if toMove != core.White {
		t.Fatalf("expected White to move after Black's genMove, got %v", toMove)
	}
	_ = move
}

func TestMakeMoveRejectsWrongSideAndIllegalMove(t *testing.T) {
	b := newTestBot()
	loc := b.BoardLoc(0, 0)

	if b.MakeMove(loc, core.White) {
		t.Fatal("White should not be able to move first")
	}

	if !b.MakeMove(loc, core.Black) {
		t.Fatal("expected Black's first move at (0,0) to be legal")
	}
	if b.MakeMove(loc, core.White) {
		t.Fatal("re-playing an occupied cell should be rejected")
	}
}

func TestSetAvoidMoveUntilByLocBansRootMove(t *testing.T) {
	b := newTestBot()

	h := board.NewHistory(9, 9)
	banned := h.Pos.Board.Loc(4, 4)
	b.SetAvoidMoveUntilByLoc([]AvoidMove{{Move: banned, UntilPly: 100}}, nil)

	tc := timecontrol.Limits{MoveTime: 50 * time.Millisecond}
	move, ok := b.GenMoveSynchronous(core.Black, tc, 1.0)
	if !ok {
		t.Fatal("expected a legal move")
	}
	if move == banned {
		t.Fatal("blacklisted move should never be chosen while still within UntilPly")
	}
}

func TestGenMoveSynchronousWithAnalysisIncludesThePlayedMove(t *testing.T) {
	b := newTestBot()
	tc := timecontrol.Limits{MoveTime: 30 * time.Millisecond}

	move, analysis, ok := b.GenMoveSynchronousWithAnalysis(core.Black, tc, 1.0)
	if !ok {
		t.Fatal("expected a legal move")
	}
	found := false
	for _, ci := range analysis {
		if ci.Move == move {
			found = true
			if ci.Visits == 0 {
				t.Fatal("expected the played move to have nonzero visits in the pre-reparent snapshot")
			}
		}
	}
	if !found {
		t.Fatal("expected the analysis snapshot to include the move that was played")
	}
}

func TestGenMoveSynchronousAnalyzeFiresCallback(t *testing.T) {
	b := newTestBot()
	tc := timecontrol.Limits{MoveTime: 80 * time.Millisecond}

	var mu sync.Mutex
	calls := 0
	_, ok := b.GenMoveSynchronousAnalyze(core.Black, tc, 1.0, 10*time.Millisecond, func(infos []search.ChildInfo) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if !ok {
		t.Fatal("expected a legal move")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls == 0 {
		t.Fatal("expected at least one analysis callback to fire")
	}
}

func TestAnalyzeAsyncStopAndWaitDoesNotDeadlock(t *testing.T) {
	b := newTestBot()

	var mu sync.Mutex
	calls := 0
	b.AnalyzeAsync(core.Black, 1.0, 5*time.Millisecond, func(infos []search.ChildInfo) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	time.Sleep(40 * time.Millisecond)
	b.StopAndWait()

	mu.Lock()
	defer mu.Unlock()
	if calls == 0 {
		t.Fatal("expected at least one analysis callback before stopping")
	}
}

func TestClearSearchResetsTreeButKeepsPosition(t *testing.T) {
	b := newTestBot()
	tc := timecontrol.Limits{MoveTime: 30 * time.Millisecond}

	if _, ok := b.GenMoveSynchronous(core.Black, tc, 1.0); !ok {
		t.Fatal("expected a legal move")
	}
	if b.tree.RootVisits() == 0 {
		t.Fatal("expected nonzero visits after a search")
	}

	b.mu.Lock()
	moveCountBefore := b.history.Pos.MoveCount
	b.mu.Unlock()

	b.ClearSearch()
	if b.tree.RootVisits() != 0 {
		t.Fatalf("expected 0 visits after ClearSearch, got %d", b.tree.RootVisits())
	}

	b.mu.Lock()
	moveCountAfter := b.history.Pos.MoveCount
	b.mu.Unlock()
	if moveCountAfter != moveCountBefore {
		t.Fatal("ClearSearch should not change the position")
	}
}

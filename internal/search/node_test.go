package search

import (
	"sync"
	"testing"

	"github.com/hailam/chessplay/internal/core"
)

func TestBeginExpandWinsOnce(t *testing.T) {
	n := newLeaf(nil, nil, core.Black)

	won1, wait1 := n.beginExpand()
	if !won1 {
		t.Fatal("first beginExpand should win")
	}
	if wait1 != nil {
		t.Fatal("winner should get a nil wait channel")
	}

	won2, wait2 := n.beginExpand()
	if won2 {
		t.Fatal("second beginExpand should not win while the first is in flight")
	}
	if wait2 == nil {
		t.Fatal("loser should get a non-nil wait channel")
	}

	select {
	case <-wait2:
		t.Fatal("wait channel should not be closed before finishExpand")
	default:
	}

	n.finishExpand()

	select {
	case <-wait2:
	default:
		t.Fatal("wait channel should be closed after finishExpand")
	}
}

func TestBeginExpandAfterExpandedAlwaysLoses(t *testing.T) {
	n := newLeaf(nil, nil, core.Black)
	won, _ := n.beginExpand()
	if !won {
		t.Fatal("expected to win the claim")
	}
	n.mu.Lock()
	n.expanded = true
	n.mu.Unlock()
	n.finishExpand()

	won2, wait2 := n.beginExpand()
	if won2 {
		t.Fatal("an already-expanded node should never be claimed again")
	}
	if wait2 != nil {
		t.Fatal("an already-expanded node has nothing to wait on")
	}
}

func TestSelectChildPicksHighestPriorWhenUnvisited(t *testing.T) {
	n := newLeaf(nil, nil, core.Black)
	n.Edges = []*Edge{
		{Move: 1, Prior: 0.1},
		{Move: 2, Prior: 0.8},
		{Move: 3, Prior: 0.1},
	}
	atomicAddVisits(n, 1)

	e := n.selectChild()
	if e == nil || e.Move != 2 {
		t.Fatalf("expected the highest-prior edge to be selected, got %+v", e)
	}
	if e.virtualLoss != VirtualLossCount {
		t.Fatalf("selectChild should apply virtual loss, got %d", e.virtualLoss)
	}
}

func TestUndoVirtualLossReversesSelectChild(t *testing.T) {
	e := &Edge{Move: 1, Prior: 1}
	e.virtualLoss = VirtualLossCount
	undoVirtualLoss(e)
	if e.virtualLoss != 0 {
		t.Fatalf("expected virtual loss to return to 0, got %d", e.virtualLoss)
	}
}

func TestPuctScoreConcurrentReadsDontRace(t *testing.T) {
	e := &Edge{Move: 1, Prior: 0.5}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.mu.Lock()
			e.visits++
			e.winLossSum += 0.3
			e.mu.Unlock()
		}()
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = puctScore(10, e)
		}()
	}
	wg.Wait()
}

func atomicAddVisits(n *Node, delta int64) {
	n.visits += delta
}

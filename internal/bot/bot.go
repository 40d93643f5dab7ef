// Package bot implements the Async Bot (spec.md §4.6): a worker pool
// driving one internal/search.Tree, exposing the synchronous/streaming
// move-generation surface a protocol front end calls into. Grounded on the
// teacher's internal/engine/engine.go (Engine: worker array + shared
// atomic stop flag + time-deadline loop, SearchWithLimits's
// result-collection goroutine) retargeted from Lazy-SMP alpha-beta workers
// racing a transposition table to MCTS workers racing a search tree, and
// on skybrian-Gongo/multirobot.go for the "pool of identical workers
// driving one shared tree behind a synchronous genMove call" shape — the
// one stdlib-only repo in the pack doing exactly this for a board game.
package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/rules"
	"github.com/hailam/chessplay/internal/search"
	"github.com/hailam/chessplay/internal/timecontrol"
)

// AvoidMove bans a move at the root until the game has reached UntilPly
// moves played, per spec.md §4.6 "setAvoidMoveUntilByLoc": a per-color
// "do not play these moves until this move depth" list.
type AvoidMove struct {
	Move     board.Loc
	UntilPly int
}

// Limits caps a search by node count rather than (or in addition to) time;
// zero means unlimited (spec.md §4.6 "rootVisits < maxVisits AND
// rootPlayouts < maxPlayouts"). This port tracks playouts as synonymous
// with visits (every Descend either completes a playout or returns a
// terminal/cached value counted the same way by Tree.RootVisits), since no
// component distinguishes a transposition re-visit from a fresh rollout.
type Limits struct {
	MaxVisits   int64
	MaxPlayouts int64
}

// AnalysisCallback receives a ranked snapshot of the root's children,
// called periodically during a streaming search (spec.md §4.5 "Analysis
// output").
type AnalysisCallback func([]search.ChildInfo)

// AsyncBot owns one search tree and the worker pool that drives it. All
// public methods are safe for concurrent use; a second streaming call made
// while one is already running will race it (the caller is expected to
// stopAndWait first, matching the teacher's single-engine-instance-per-game
// assumption in internal/engine.
type AsyncBot struct {
	mu      sync.Mutex
	tree    *search.Tree
	params  search.Params
	history *board.History

	numWorkers int
	rngSeed    uint64

	nodeLimits Limits
	pvDepth    int

	avoidBlack []AvoidMove
	avoidWhite []AvoidMove

	stopFlag atomic.Bool

	// bg tracks an in-flight analyzeAsync/ponder search so stopAndWait can
	// cancel and join it.
	bgMu     sync.Mutex
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// Config bundles the construction-time knobs that would otherwise be a
// long NewAsyncBot argument list — numSearchThreads/nnCacheSizePowerOfTwo's
// search-side counterpart from spec.md §6's config table.
type Config struct {
	NumWorkers  int
	RNGSeed     uint64
	NodeLimits  Limits
	PVDepth     int // principal-variation length reported by Analyze; 0 defaults to 8
}

// NewAsyncBot builds a bot with a fresh tree rooted at h's current position.
func NewAsyncBot(eval search.Evaluator, params search.Params, h *board.History, cfg Config) *AsyncBot {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	if cfg.PVDepth <= 0 {
		cfg.PVDepth = 8
	}
	hc := cloneHistory(h)
	return &AsyncBot{
		tree:       search.NewTree(eval, params, hc, cfg.RNGSeed),
		params:     params,
		history:    hc,
		numWorkers: cfg.NumWorkers,
		rngSeed:    cfg.RNGSeed,
		nodeLimits: cfg.NodeLimits,
		pvDepth:    cfg.PVDepth,
	}
}

func cloneHistory(h *board.History) *board.History {
	clone := &board.History{Pos: h.Pos.Clone()}
	clone.Moves = append([]board.MoveRecord(nil), h.Moves...)
	return clone
}

// CurrentSideToMove reports whose turn it is in the bot's current position,
// for a protocol front end that needs to know who it's replying on behalf
// of without threading its own copy of the game state.
func (b *AsyncBot) CurrentSideToMove() core.Color {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Pos.PlaToMove
}

// BoardSize reports the board dimensions of the bot's current position.
func (b *AsyncBot) BoardSize() (w, h int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Pos.Board.W, b.history.Pos.Board.H
}

// BoardXY converts a Loc to (x,y) coordinates, for formatting replies.
func (b *AsyncBot) BoardXY(loc board.Loc) (x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Pos.Board.XY(loc)
}

// BoardLoc converts (x,y) coordinates to a Loc, for parsing protocol input.
func (b *AsyncBot) BoardLoc(x, y int) board.Loc {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.Pos.Board.Loc(x, y)
}

// Analyze snapshots the current tree's root children without running any
// further search — for a protocol front end's on-demand "what does the
// engine think right now" query (GTP's analyze family).
func (b *AsyncBot) Analyze() []search.ChildInfo {
	return b.tree.Analyze(b.pvDepth)
}

// SetPosition replaces the bot's position/history wholesale and rebuilds
// the tree from scratch (spec.md §4.6 "setPosition(player, board,
// history)") — used when a protocol front end hands over an externally
// constructed board (Gomocup's BOARD command), not reached by normal play.
func (b *AsyncBot) SetPosition(h *board.History) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = cloneHistory(h)
	b.tree.Rebuild(b.history)
}

// MakeMove plays loc for pla, updating both the authoritative history and
// the tree's root (spec.md §4.6 "makeMove(loc, player) -> bool"). Returns
// false without changing any state if the move is illegal or it isn't
// pla's turn.
func (b *AsyncBot) MakeMove(loc board.Loc, pla core.Color) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.history.Pos.PlaToMove != pla {
		return false
	}
	if rules.ClassifyMove(b.history.Pos, b.params.Renju, pla, loc) == rules.Illegal {
		return false
	}
	b.history.Play(pla, loc)
	b.tree.Reparent(loc)
	return true
}

// ClearSearch discards all search statistics but keeps the current
// position (spec.md §4.6 "clearSearch()").
func (b *AsyncBot) ClearSearch() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tree.Rebuild(b.history)
}

// SetAvoidMoveUntilByLoc installs the per-color root move blacklists
// (spec.md §4.6 "setAvoidMoveUntilByLoc"). Replaces any previously set
// lists entirely.
func (b *AsyncBot) SetAvoidMoveUntilByLoc(blacklistBlack, blacklistWhite []AvoidMove) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.avoidBlack = blacklistBlack
	b.avoidWhite = blacklistWhite
}

func (b *AsyncBot) bannedMovesLocked(pla core.Color) map[board.Loc]bool {
	var list []AvoidMove
	if pla == core.Black {
		list = b.avoidBlack
	} else {
		list = b.avoidWhite
	}
	if len(list) == 0 {
		return nil
	}
	moveCount := b.history.Pos.MoveCount
	banned := make(map[board.Loc]bool, len(list))
	for _, a := range list {
		if moveCount < a.UntilPly {
			banned[a.Move] = true
		}
	}
	return banned
}

// targetTime derives one genMove call's search duration from the clock
// state and searchFactor, a multiplier the caller uses to stretch
// (pondering, analysis) or compress (blitz panic mode) the recommended
// budget — clamped to the computed [Min, Max] regardless (spec.md §4.7).
func targetTime(lim timecontrol.Limits, moveCount, boardArea int, searchFactor float64) time.Duration {
	budget := timecontrol.Compute(lim, moveCount, boardArea)
	if searchFactor <= 0 {
		searchFactor = 1
	}
	t := time.Duration(float64(budget.Recommended) * searchFactor)
	if t < budget.Min {
		t = budget.Min
	}
	if t > budget.Max {
		t = budget.Max
	}
	return t
}

// runWorkers drives numWorkers goroutines descending the tree until ctx is
// done, the node limits are reached, or stopFlag is set, then blocks until
// they've all parked (spec.md §4.6 "Worker loop": "when a stop arrives,
// workers finish their current descent and backup, then park").
func (b *AsyncBot) runWorkers(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < b.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if b.stopFlag.Load() {
					return
				}
				select {
				case <-ctx.Done():
					return
				default:
				}
				if b.nodeLimits.MaxVisits > 0 && b.tree.RootVisits() >= b.nodeLimits.MaxVisits {
					return
				}
				if b.nodeLimits.MaxPlayouts > 0 && b.tree.RootVisits() >= b.nodeLimits.MaxPlayouts {
					return
				}
				if err := b.tree.Descend(ctx); err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()
}

// GenMoveSynchronous runs a time-bounded search and returns the selected
// move, playing it on both the history and the tree (spec.md §4.6
// "genMoveSynchronous(player, timeControls, searchFactor) -> Loc").
// Reports ok=false if the position has no legal moves.
func (b *AsyncBot) GenMoveSynchronous(pla core.Color, tc timecontrol.Limits, searchFactor float64) (board.Loc, bool) {
	move, _, ok := b.GenMoveSynchronousWithAnalysis(pla, tc, searchFactor)
	return move, ok
}

// GenMoveSynchronousWithAnalysis is GenMoveSynchronous plus the root
// analysis snapshot taken right after the search completes and before the
// tree is reparented onto the chosen move — the moment at which the
// returned move's own visits/winrate/PV are still present as one of the
// root's children, for callers (e.g. a gamelog writer) that want to record
// what the engine actually thought of the move it just played.
func (b *AsyncBot) GenMoveSynchronousWithAnalysis(pla core.Color, tc timecontrol.Limits, searchFactor float64) (board.Loc, []search.ChildInfo, bool) {
	move, ok := b.search(pla, tc, searchFactor, 0, nil)
	if !ok {
		return 0, nil, false
	}
	analysis := b.tree.Analyze(b.pvDepth)
	b.mu.Lock()
	b.history.Play(pla, move)
	b.tree.Reparent(move)
	b.mu.Unlock()
	return move, analysis, true
}

// GenMoveSynchronousAnalyze is GenMoveSynchronous plus a periodic analysis
// callback fired every interval for the search's duration (spec.md §4.6
// "genMoveSynchronousAnalyze(player, tc, sf, interval, callback)").
func (b *AsyncBot) GenMoveSynchronousAnalyze(pla core.Color, tc timecontrol.Limits, searchFactor float64, interval time.Duration, callback AnalysisCallback) (board.Loc, bool) {
	move, ok := b.search(pla, tc, searchFactor, interval, callback)
	if !ok {
		return 0, false
	}
	b.mu.Lock()
	b.history.Play(pla, move)
	b.tree.Reparent(move)
	b.mu.Unlock()
	return move, true
}

// search is the shared synchronous-search body behind both GenMove variants:
// bans expired-blacklist moves at the root, runs the worker pool for the
// computed budget (optionally snapshotting progress on a ticker), and picks
// the winner. It does not itself advance history/tree — callers that want
// the move played do so after inspecting the result.
func (b *AsyncBot) search(pla core.Color, tc timecontrol.Limits, searchFactor float64, interval time.Duration, callback AnalysisCallback) (board.Loc, bool) {
	b.mu.Lock()
	moveCount := b.history.Pos.MoveCount
	boardArea := b.history.Pos.Board.W * b.history.Pos.Board.H
	b.tree.SetRootBannedMoves(b.bannedMovesLocked(pla))
	b.mu.Unlock()

	target := targetTime(tc, moveCount, boardArea, searchFactor)

	b.stopFlag.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), target)
	defer cancel()

	var tickerDone chan struct{}
	if callback != nil && interval > 0 {
		tickerDone = make(chan struct{})
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					callback(b.tree.Analyze(b.pvDepth))
				case <-tickerDone:
					return
				}
			}
		}()
	}

	b.runWorkers(ctx)
	if tickerDone != nil {
		close(tickerDone)
	}
	if callback != nil {
		callback(b.tree.Analyze(b.pvDepth))
	}

	return b.tree.BestMove()
}

// AnalyzeAsync starts a background, open-ended search of the current
// position that runs until StopAndWait is called, snapshotting progress on
// callback every interval (spec.md §4.6 "analyzeAsync(player, sf,
// interval, callback)"). Unlike GenMove*, it never plays a move itself.
func (b *AsyncBot) AnalyzeAsync(pla core.Color, searchFactor float64, interval time.Duration, callback AnalysisCallback) {
	b.startBackground(pla, interval, callback)
}

// Ponder is AnalyzeAsync without a reporting callback, used to keep
// workers warming the current tree while waiting on an opponent
// (spec.md §4.6 "ponder(factor)").
func (b *AsyncBot) Ponder(factor float64) {
	b.startBackground(b.history.Pos.PlaToMove, 0, nil)
}

func (b *AsyncBot) startBackground(pla core.Color, interval time.Duration, callback AnalysisCallback) {
	b.mu.Lock()
	b.tree.SetRootBannedMoves(b.bannedMovesLocked(pla))
	b.mu.Unlock()

	b.bgMu.Lock()
	if b.bgCancel != nil {
		// A background search is already live; stop it first so we never
		// leak a worker pool driving a stale tree generation.
		b.bgCancel()
		b.bgWG.Wait()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.bgCancel = cancel
	b.bgMu.Unlock()

	b.stopFlag.Store(false)
	b.bgWG.Add(1)
	go func() {
		defer b.bgWG.Done()

		var tickerDone chan struct{}
		if callback != nil && interval > 0 {
			tickerDone = make(chan struct{})
			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						callback(b.tree.Analyze(b.pvDepth))
					case <-tickerDone:
						return
					}
				}
			}()
		}
		b.runWorkers(ctx)
		if tickerDone != nil {
			close(tickerDone)
		}
	}()
}

// StopAndWait cancels any in-flight background search and blocks until its
// workers have parked (spec.md §4.6 "stopAndWait()").
func (b *AsyncBot) StopAndWait() {
	b.stopFlag.Store(true)
	b.bgMu.Lock()
	cancel := b.bgCancel
	b.bgCancel = nil
	b.bgMu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.bgWG.Wait()
}

// Package protocol implements the line-oriented engine-manager protocols
// named in spec.md §6: a Gomocup-style front end and, optionally, a
// GTP-like one. Both translate lines to internal/bot.AsyncBot calls and
// format replies; no rule logic lives here. Grounded on
// internal/uci/uci.go's dispatch shape — bufio.Scanner over stdin,
// strings.Fields per line, a switch over the command word, synchronous
// Printf replies on stdout, info-ish diagnostics on stderr — retargeted
// from UCI's verbs to Gomocup's.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/bot"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/gamelog"
	"github.com/hailam/chessplay/internal/search"
	"github.com/hailam/chessplay/internal/timecontrol"
)

// DefaultBoardSize is used for a bare START with no N argument.
const DefaultBoardSize = 15

// Gomocup is a START/RESTART/BOARD/TURN/INFO/ABOUT/END line-protocol front
// end over an AsyncBot (spec.md §6's protocol table, exactly).
type Gomocup struct {
	newBot func(boardSize int) *bot.AsyncBot
	bot    *bot.AsyncBot

	mainTimeLeft time.Duration
	timeoutTurn  time.Duration

	name    string
	version string
	author  string
	country string

	// log is the optional per-move telemetry sink (off by default — the
	// host process only sets it when a log directory was configured).
	log    *gamelog.Log
	gameID string
	moveNo int

	// defaultMoveTime is the config-file maxTime fallback (spec.md §6
	// Config "maxTime"), used only until the manager's own INFO
	// time_left/timeout_turn messages arrive.
	defaultMoveTime time.Duration

	out io.Writer
	err io.Writer
}

// SetGameLog wires an optional gamelog.Log, tagging every future genMove
// record with gameID. Passing a nil log disables logging again.
func (g *Gomocup) SetGameLog(log *gamelog.Log, gameID string) {
	g.log = log
	g.gameID = gameID
	g.moveNo = 0
}

// SetDefaultMoveTime sets the fallback per-move time budget used before any
// clock INFO message has been received.
func (g *Gomocup) SetDefaultMoveTime(d time.Duration) {
	g.defaultMoveTime = d
}

// NewGomocup builds a Gomocup front end. newBot constructs a fresh
// AsyncBot for a given square board size — called on START/RESTART so the
// front end never hardcodes tree/evaluator construction itself.
func NewGomocup(name, version string, newBot func(boardSize int) *bot.AsyncBot) *Gomocup {
	return &Gomocup{
		newBot:  newBot,
		name:    name,
		version: version,
		out:     os.Stdout,
		err:     os.Stderr,
	}
}

// SetAboutFields sets the author/country fields reported by ABOUT, beyond
// the bare name/version Gomocup's minimal reply requires.
func (g *Gomocup) SetAboutFields(author, country string) {
	g.author = author
	g.country = country
}

// Run reads commands from r until END or EOF.
func (g *Gomocup) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !g.dispatch(scanner, line) {
			return
		}
	}
}

// dispatch handles one top-level command line, consuming further lines
// from scanner itself for multi-line commands like BOARD. Returns false
// once END has been processed.
func (g *Gomocup) dispatch(scanner *bufio.Scanner, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "START":
		g.handleStart(args)
	case "RESTART":
		g.handleRestart()
	case "BOARD":
		g.handleBoard(scanner)
	case "TURN":
		g.handleTurn(args)
	case "INFO":
		g.handleInfo(args)
	case "ABOUT":
		g.handleAbout()
	case "END":
		return false
	default:
		fmt.Fprintf(g.err, "UNKNOWN %s\n", line)
	}
	return true
}

func (g *Gomocup) handleStart(args []string) {
	size := DefaultBoardSize
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			size = n
		}
	}
	g.bot = g.newBot(size)
	fmt.Fprintln(g.out, "OK")
}

func (g *Gomocup) handleRestart() {
	if g.bot == nil {
		fmt.Fprintln(g.out, "ERROR no board started")
		return
	}
	w, _ := g.bot.BoardSize()
	g.bot = g.newBot(w)
	fmt.Fprintln(g.out, "OK")
}

// handleBoard consumes "x,y[,who]" lines until DONE, replays them, then
// generates and replies with the engine's move (spec.md §6 "BOARD":
// "Replay stones; engine then plays a move, reply x,y"). The who field
// (1 = the engine's own stone, 2 = the opponent's, Gomocup's my/opponent
// convention) is parsed but not used to assign colors: stones are replayed
// in file order, alternating from Black, and the engine answers for
// whichever color is to move after the replay.
func (g *Gomocup) handleBoard(scanner *bufio.Scanner) {
	if g.bot == nil {
		fmt.Fprintln(g.out, "ERROR no board started")
		return
	}

	type stone struct {
		x, y int
		mine bool
	}
	var stones []stone
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "DONE") {
			break
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errX != nil || errY != nil {
			continue
		}
		mine := false
		if len(parts) >= 3 {
			who, _ := strconv.Atoi(strings.TrimSpace(parts[2]))
			mine = who == 1
		}
		stones = append(stones, stone{x: x, y: y, mine: mine})
	}

	w, _ := g.bot.BoardSize()
	g.bot = g.newBot(w)

	// Black moved first, so the parity of replay order fixes colors
	// regardless of the mine/opponent tags — replay in file order,
	// alternating; the tags are not consulted.
	pla := core.Black
	for _, s := range stones {
		loc := g.bot.BoardLoc(s.x, s.y)
		g.bot.MakeMove(loc, pla)
		pla = pla.Opponent()
	}

	g.genAndReply(g.bot.CurrentSideToMove())
}

func (g *Gomocup) handleTurn(args []string) {
	if g.bot == nil || len(args) < 2 {
		fmt.Fprintln(g.out, "ERROR no board started")
		return
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		fmt.Fprintln(g.out, "ERROR bad coordinates")
		return
	}

	opp := g.bot.CurrentSideToMove()
	loc := g.bot.BoardLoc(x, y)
	if !g.bot.MakeMove(loc, opp) {
		fmt.Fprintln(g.out, "ERROR illegal move")
		return
	}

	g.genAndReply(g.bot.CurrentSideToMove())
}

func (g *Gomocup) genAndReply(pla core.Color) {
	tc := timecontrol.Limits{Remaining: g.mainTimeLeft}
	switch {
	case g.timeoutTurn > 0:
		tc.MoveTime = g.timeoutTurn
	case g.mainTimeLeft == 0 && g.defaultMoveTime > 0:
		tc.MoveTime = g.defaultMoveTime
	}

	loc, analysis, ok := g.bot.GenMoveSynchronousWithAnalysis(pla, tc, 1.0)
	if !ok {
		fmt.Fprintln(g.out, "ERROR no legal move")
		return
	}
	g.logMove(loc, analysis)
	x, y := g.bot.BoardXY(loc)
	fmt.Fprintf(g.out, "%d,%d\n", x, y)
}

// logMove appends one gamelog record for the move just played, if logging
// is configured. Best-effort: a logging failure never affects play, it's
// only reported on stderr.
func (g *Gomocup) logMove(loc board.Loc, analysis []search.ChildInfo) {
	if g.log == nil {
		return
	}
	var visits int64
	var winrate float64
	var pv []board.Loc
	if ci, ok := search.ChildInfoByMove(analysis, loc); ok {
		visits, winrate, pv = ci.Visits, ci.Winrate, ci.PV
	}
	g.moveNo++
	rec := gamelog.Record{
		Move:    loc,
		PV:      pv,
		Visits:  visits,
		Winrate: winrate,
	}
	if _, err := g.log.Append(g.gameID, rec); err != nil {
		fmt.Fprintf(g.err, "gamelog append failed: %v\n", err)
	}
}

func (g *Gomocup) handleInfo(args []string) {
	if len(args) < 2 {
		return
	}
	key := strings.ToLower(args[0])
	ms, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return
	}
	switch key {
	case "time_left":
		g.mainTimeLeft = time.Duration(ms) * time.Millisecond
	case "timeout_turn":
		g.timeoutTurn = time.Duration(ms) * time.Millisecond
	}
}

func (g *Gomocup) handleAbout() {
	fmt.Fprintf(g.out, "name=%q, version=%q, author=%q, country=%q\n", g.name, g.version, g.author, g.country)
}

package protocol

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/bot"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/timecontrol"
)

// GTP is the optional GTP-like front end spec.md §6 names as "not part of
// the core": play/genmove/boardsize/clear_board/kata-set-param/analyze,
// with GTP's "=" reply / "?" error prefixing; command ids are neither
// parsed nor echoed. Grounded on the same internal/uci/uci.go dispatch
// shape as Gomocup, adapted to GTP's prefixed reply convention instead of
// UCI's unprefixed one.
type GTP struct {
	newBot func(boardSize int) *bot.AsyncBot
	bot    *bot.AsyncBot
	size   int

	out io.Writer
}

// NewGTP builds a GTP front end with an initial default-size board.
func NewGTP(newBot func(boardSize int) *bot.AsyncBot) *GTP {
	g := &GTP{newBot: newBot, size: DefaultBoardSize, out: os.Stdout}
	g.bot = newBot(g.size)
	return g
}

// Run reads GTP commands from r until quit or EOF.
func (g *GTP) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "quit":
			g.reply(true, "")
			return
		case "boardsize":
			g.handleBoardsize(args)
		case "clear_board":
			g.bot = g.newBot(g.size)
			g.reply(true, "")
		case "play":
			g.handlePlay(args)
		case "genmove":
			g.handleGenmove(args)
		case "kata-set-param":
			// Accepted and ignored beyond acknowledging: this front end's
			// only tunables (rootPolicyTemperature, wideRootNoise,
			// playoutDoublingAdvantage) are set via internal/config at
			// process start, not mid-game over GTP.
			g.reply(true, "")
		case "analyze", "kata-analyze":
			g.handleAnalyze(args)
		default:
			g.reply(false, "unknown command")
		}
	}
}

func (g *GTP) reply(ok bool, msg string) {
	prefix := "="
	if !ok {
		prefix = "?"
	}
	fmt.Fprintf(g.out, "%s %s\n\n", prefix, msg)
}

func (g *GTP) handleBoardsize(args []string) {
	if len(args) != 1 {
		g.reply(false, "syntax error")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		g.reply(false, "unacceptable size")
		return
	}
	g.size = n
	g.bot = g.newBot(n)
	g.reply(true, "")
}

// parseGTPColor maps GTP's "b"/"w" (any case) to core.Black/core.White.
func parseGTPColor(s string) (core.Color, bool) {
	switch strings.ToLower(s) {
	case "b", "black":
		return core.Black, true
	case "w", "white":
		return core.White, true
	}
	return core.Empty, false
}

// parseGTPVertex parses GTP's letter-skip-'i' column + 1-based row
// notation (e.g. "D4") into (x,y).
func parseGTPVertex(s string, boardH int) (x, y int, ok bool) {
	s = strings.ToUpper(s)
	if len(s) < 2 {
		return 0, 0, false
	}
	col := s[0]
	if col > 'I' {
		col--
	}
	x = int(col - 'A')
	row, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, 0, false
	}
	y = boardH - row
	return x, y, true
}

func formatGTPVertex(x, y, boardH int) string {
	col := byte('A' + x)
	if col >= 'I' {
		col++
	}
	return fmt.Sprintf("%c%d", col, boardH-y)
}

func (g *GTP) handlePlay(args []string) {
	if len(args) != 2 {
		g.reply(false, "syntax error")
		return
	}
	pla, ok := parseGTPColor(args[0])
	if !ok {
		g.reply(false, "invalid color")
		return
	}
	if strings.EqualFold(args[1], "pass") {
		g.reply(true, "")
		return
	}
	_, h := g.bot.BoardSize()
	x, y, ok := parseGTPVertex(args[1], h)
	if !ok {
		g.reply(false, "invalid vertex")
		return
	}
	loc := g.bot.BoardLoc(x, y)
	if !g.bot.MakeMove(loc, pla) {
		g.reply(false, "illegal move")
		return
	}
	g.reply(true, "")
}

func (g *GTP) handleGenmove(args []string) {
	if len(args) != 1 {
		g.reply(false, "syntax error")
		return
	}
	pla, ok := parseGTPColor(args[0])
	if !ok {
		g.reply(false, "invalid color")
		return
	}
	loc, ok := g.bot.GenMoveSynchronous(pla, timecontrol.Limits{Infinite: false, MoveTime: 5 * time.Second}, 1.0)
	if !ok {
		g.reply(true, "pass")
		return
	}
	x, y := g.bot.BoardXY(loc)
	_, h := g.bot.BoardSize()
	g.reply(true, formatGTPVertex(x, y, h))
}

func (g *GTP) handleAnalyze(args []string) {
	// kata-analyze style streaming isn't wired to a real-time GTP output
	// loop here (this front end is explicitly the optional, non-core
	// surface spec.md §6 calls out) — acknowledge and run one synchronous
	// snapshot instead of a live stream.
	infos := g.bot.Analyze()
	var sb strings.Builder
	for _, ci := range infos {
		fmt.Fprintf(&sb, "info move %d visits %d winrate %.4f ", ci.Move, ci.Visits, (ci.Winrate+1)/2)
	}
	g.reply(true, sb.String())
}

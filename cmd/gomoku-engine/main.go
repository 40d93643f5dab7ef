// Command gomoku-engine is the process entry point: it wires config,
// evaluator, and search together and runs one of the line protocols in
// internal/protocol. Grounded on cmd/chessplay-uci/main.go's shape (flag
// parsing, ordered search-path lookup, warn-and-continue-on-missing-file),
// retargeted from NNUE weight-file discovery to this engine's config-file
// discovery, since spec.md §1 Non-goals excludes trained weights entirely
// (internal/nneval/refbackend seeds its weights deterministically instead
// of loading any).
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/bot"
	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/gamelog"
	"github.com/hailam/chessplay/internal/nneval"
	"github.com/hailam/chessplay/internal/nneval/refbackend"
	"github.com/hailam/chessplay/internal/protocol"
	"github.com/hailam/chessplay/internal/search"
)

var (
	configFlag   = flag.String("config", "", "path to a config file (overrides the search-path lookup)")
	protocolFlag = flag.String("protocol", "gomocup", "front end protocol: gomocup or gtp")
	renjuFlag    = flag.Bool("renju", false, "enable Renju opening/forbidden-move rules for Black")
	gamelogFlag  = flag.String("gamelog", "", "directory for optional per-move analysis logging (off if empty)")
	gameIDFlag   = flag.String("gameid", "game", "game id tag used for gamelog records")
	authorFlag   = flag.String("author", "", "author field reported in the Gomocup ABOUT reply")
	countryFlag  = flag.String("country", "", "country field reported in the Gomocup ABOUT reply")
)

func main() {
	flag.Parse()

	cfg := loadConfig()

	var gl *gamelog.Log
	dir := *gamelogFlag
	if dir == "" {
		dir = os.Getenv("GOMOKU_GAMELOG_DIR")
	}
	if dir != "" {
		l, err := gamelog.Open(dir)
		if err != nil {
			log.Printf("Warning: gamelog disabled: %v", err)
		} else {
			gl = l
			defer l.Close()
		}
	}

	newBot := func(size int) *bot.AsyncBot {
		return buildBot(cfg, size)
	}

	switch *protocolFlag {
	case "gtp":
		gtp := protocol.NewGTP(newBot)
		gtp.Run(os.Stdin)
	default:
		g := protocol.NewGomocup("gomoku-engine", "1.0", newBot)
		g.SetAboutFields(*authorFlag, *countryFlag)
		if gl != nil {
			g.SetGameLog(gl, *gameIDFlag)
		}
		g.SetDefaultMoveTime(cfg.MaxTime)
		g.Run(os.Stdin)
	}
}

// buildBot constructs a fresh AsyncBot for a size x size board, wiring a
// deterministic refbackend evaluator through internal/nneval's batching
// service (spec.md §4.4) and the tunables read from cfg.
func buildBot(cfg *config.Config, size int) *bot.AsyncBot {
	backend := refbackend.New(size, size, cfg.SearchRandSeed)
	svc := nneval.New(backend, nneval.Config{
		CacheSizeLog2: cfg.NNCacheSizePowerOfTwo,
	})

	h := board.NewHistory(size, size)
	params := search.Params{
		Renju:                    *renjuFlag,
		PlayoutDoublingAdvantage: cfg.PlayoutDoublingAdvantage,
		RootPolicyTemperature:    cfg.RootPolicyTemperature,
		WideRootNoise:            cfg.WideRootNoise,
	}

	return bot.NewAsyncBot(svc, params, h, bot.Config{
		NumWorkers: cfg.NumSearchThreads,
		RNGSeed:    cfg.SearchRandSeed,
		NodeLimits: bot.Limits{MaxVisits: cfg.MaxVisits, MaxPlayouts: cfg.MaxPlayouts},
	})
}

// loadConfig tries -config first, then an ordered set of standard
// locations, falling back to config.Default() with a warning — the same
// "warn and continue" style cmd/chessplay-uci/main.go uses for missing
// NNUE weights, since a missing config file is not fatal here either.
func loadConfig() *config.Config {
	if *configFlag != "" {
		return readConfigFile(*configFlag)
	}

	searchPaths := []string{
		"./gomoku.cfg",
		filepath.Join(getHomeDir(), ".gomoku-engine", "gomoku.cfg"),
	}
	for _, path := range searchPaths {
		if fileExists(path) {
			return readConfigFile(path)
		}
	}

	log.Printf("Warning: no config file found, using built-in defaults")
	return config.Default()
}

func readConfigFile(path string) *config.Config {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("Warning: could not open config %s: %v (using defaults)", path, err)
		return config.Default()
	}
	defer f.Close()

	cfg, err := config.Parse(f)
	if err != nil {
		log.Printf("Warning: could not parse config %s: %v (using defaults)", path, err)
		return config.Default()
	}
	log.Printf("Config loaded from %s", path)
	return cfg
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Spark Saga is a data-driven, turn-based RPG that runs in a terminal.
// Usage: sparksaga [--version] [--config <file>] [--data <dir>] [--seed <n>]
// [--locale <tag>] [--plain] [--script <file>]
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/cli"
	"github.com/nathoo/sparksaga/config"
	"github.com/nathoo/sparksaga/data"
	"github.com/nathoo/sparksaga/engine"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/logger"
	"github.com/nathoo/sparksaga/tui"
	"github.com/nathoo/sparksaga/ui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: sparksaga [--version] [--config <file>] [--data <dir>] [--seed <n>] [--locale <tag>] [--plain] [--script <file>]\n"

// tuiLogFile receives logs when the TUI owns the terminal and the config
// points logging at it.
const tuiLogFile = "sparksaga.log"

type flags struct {
	configPath string
	dataDir    string
	seed       string
	locale     string
	plain      bool
	script     string
}

func main() {
	var f flags
	args := os.Args[1:]
	value := func(i *int, name string) string {
		if *i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires a value\n", name)
			os.Exit(1)
		}
		*i++
		return args[*i]
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("sparksaga %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			f.plain = true
		case "--config":
			f.configPath = value(&i, "--config")
		case "--data":
			f.dataDir = value(&i, "--data")
		case "--seed":
			f.seed = value(&i, "--seed")
		case "--locale":
			f.locale = value(&i, "--locale")
		case "--script":
			f.script = value(&i, "--script")
		default:
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
	}

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return err
	}
	if err := applyFlags(&cfg, f); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	useTUI := f.script == "" && !f.plain && isTerminal()
	logCfg := logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding, OutputPath: cfg.Log.OutputPath}
	if useTUI && (logCfg.OutputPath == "" || logCfg.OutputPath == "stderr" || logCfg.OutputPath == "stdout") {
		logCfg.OutputPath = tuiLogFile
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	src, maps := sources(cfg)
	store, logs := loader.Load(context.Background(), src, loader.Options{
		ReferenceLocale: cfg.ReferenceLocale,
		Logger:          log,
	})
	if err := logs.Err(); err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	board := ui.NewBoard(log)
	eng := engine.New(store, engine.Options{
		Maps:        maps,
		MapName:     cfg.Map,
		Locale:      cfg.Locale,
		Seed:        seed,
		PlayerSpeed: cfg.Player.Speed,
		Surface:     board,
		Logger:      log,
	})
	now := time.Now()
	if err := eng.Start(cfg.StartScene, now); err != nil {
		return err
	}
	log.Info("boot", zap.Int64("seed", seed), zap.String("version", version), zap.Bool("tui", useTUI))

	// Script mode: open file, force plain, echo commands.
	if f.script != "" {
		script, err := os.Open(f.script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer script.Close()
		c := cli.New(eng, board, cfg.TickRate, now)
		c.In = script
		c.EchoInput = true
		c.Run()
		return nil
	}

	if !useTUI {
		cli.New(eng, board, cfg.TickRate, now).Run()
		return nil
	}
	return tui.Run(eng, board, cfg.TickRate, log)
}

func applyFlags(cfg *config.Config, f flags) error {
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.locale != "" {
		cfg.Locale = f.locale
	}
	if f.seed != "" {
		n, err := strconv.ParseInt(f.seed, 10, 64)
		if err != nil {
			return fmt.Errorf("--seed %q: %w", f.seed, err)
		}
		cfg.Seed = n
	}
	return nil
}

// sources picks the content source and the filesystem holding the maps.
// An empty data directory selects the embedded corpus.
func sources(cfg config.Config) (loader.Source, fs.FS) {
	switch {
	case cfg.DataDir == "":
		return loader.FSSource{FS: data.FS}, data.FS
	case cfg.DataFormat == "lua":
		return loader.LuaSource{Dir: cfg.DataDir}, os.DirFS(cfg.DataDir)
	default:
		return loader.DirSource(cfg.DataDir), os.DirFS(cfg.DataDir)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

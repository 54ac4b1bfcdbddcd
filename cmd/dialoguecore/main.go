// DialogueCore plays branching NPC conversations defined in Lua and YAML.
// Usage: dialoguecore [--version] [--plain] [--script <file>] [--trace]
//
//	[--validate] [--export <dir>] <game_directory>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/JasFreaq/RPG-Project-sub000/cli"
	"github.com/JasFreaq/RPG-Project-sub000/config"
	"github.com/JasFreaq/RPG-Project-sub000/engine"
	"github.com/JasFreaq/RPG-Project-sub000/engine/save"
	"github.com/JasFreaq/RPG-Project-sub000/loader"
	"github.com/JasFreaq/RPG-Project-sub000/logger"
	"github.com/JasFreaq/RPG-Project-sub000/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: dialoguecore [--version] [--plain] [--script <file>] [--trace] [--validate] [--export <dir>] <game_directory>"

func main() {
	plain := false
	trace := false
	validate := false
	var gameDir, scriptFile, exportDir string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("dialoguecore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--validate":
			validate = true
		case "--script", "--export":
			if i+1 >= len(args) {
				fatalf("%s requires a path", args[i])
			}
			if args[i] == "--script" {
				scriptFile = args[i+1]
			} else {
				exportDir = args[i+1]
			}
			i++
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fatalf("%s", usage)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("Error: %v", err)
	}

	interactive := scriptFile == "" && !plain && isatty.IsTerminal(os.Stdout.Fd())
	log, closeLog := setupLogger(cfg, interactive)
	defer closeLog()

	// Load and compile game content.
	defs, err := loader.Load(gameDir, log)
	if err != nil {
		fatalf("Error loading game: %v", err)
	}
	log = logger.WithGame(log, defs.Game.Title)

	if validate {
		report := loader.Validate(defs)
		for _, w := range report.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		fmt.Printf("%s: OK (%d NPCs, %d dialogues, %d warnings)\n",
			gameDir, len(defs.NPCs), len(defs.Dialogues), len(report.Warnings))
		return
	}

	if exportDir != "" {
		written, err := loader.Export(exportDir, defs)
		if err != nil {
			fatalf("Error exporting dialogues: %v", err)
		}
		for _, path := range written {
			fmt.Println(path)
		}
		return
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	eng, err := engine.New(defs, seed, log)
	if err != nil {
		log.Error("failed to start engine", "error", err)
		fatalf("Error starting engine: %v", err)
	}

	store, err := openStore(cfg, log)
	if err != nil {
		log.Error("failed to open save store", "redis", cfg.RedisURL != "", "error", err)
		fatalf("Error opening save store: %v", err)
	}
	if rs, ok := store.(*save.RedisStore); ok {
		defer rs.Close()
	}

	if !interactive {
		c := cli.New(eng, defs, store)
		c.Trace = trace
		if scriptFile != "" {
			f, err := os.Open(scriptFile)
			if err != nil {
				fatalf("Error opening script: %v", err)
			}
			defer f.Close()
			c.In = f
			c.EchoInput = true
		}
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c.Run()
		return
	}

	if err := tui.Run(eng, defs, store); err != nil {
		fatalf("Error: %v", err)
	}
}

// setupLogger sends logs to the configured file, otherwise to stderr for
// the plain CLI and nowhere for the TUI.
func setupLogger(cfg *config.Config, interactive bool) (*slog.Logger, func()) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fatalf("Error opening log file: %v", err)
		}
		return logger.Setup(cfg, f), func() { f.Close() }
	}
	if interactive {
		return logger.Discard(), func() {}
	}
	return logger.Setup(cfg, os.Stderr), func() {}
}

func openStore(cfg *config.Config, log *slog.Logger) (save.Store, error) {
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rs, err := save.NewRedisStore(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
	return save.NewFileStore(cfg.SaveDir), nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Package cmd routes the corpus CLI: embed a source into a collection,
// search it, inspect or reset its state.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/koopa0/corpus/internal/config"
	"github.com/koopa0/corpus/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.0.1"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the entry point for the corpus CLI: it parses the subcommand,
// initializes logging and configuration, and dispatches.
func Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return nil
	}

	// Version and help work even when configuration is invalid.
	switch args[0] {
	case "version", "--version", "-v":
		printVersion()
		return nil
	case "help", "--help", "-h":
		printHelp()
		return nil
	}

	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	switch args[0] {
	case "embed":
		return runEmbed(cfg, logger, args[1:])
	case "search":
		return runSearch(cfg, logger, args[1:])
	case "status":
		return runStatus(cfg, logger, args[1:])
	case "reset":
		return runReset(cfg, logger, args[1:])
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// initLogger builds the process logger. DEBUG in the environment enables
// debug level; logs go to stderr so command output stays clean on stdout.
func initLogger() log.Logger {
	return log.NewWithWriter(os.Stderr, log.Config{
		Level: logLevel(),
	})
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func printVersion() {
	fmt.Printf("corpus v%s\n", AppVersion)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
}

func printHelp() {
	fmt.Println("corpus - local embedding and retrieval for your documents")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  corpus embed [--dir PATH] [--resume]   Embed documents into the collection")
	fmt.Println("  corpus search <query> [--top-k N]      Search the collection")
	fmt.Println("  corpus status                          Show collection and checkpoint state")
	fmt.Println("  corpus reset [--wipe]                  Clear the checkpoint (--wipe also deletes records)")
	fmt.Println("  corpus version                         Show version information")
	fmt.Println("  corpus help                            Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key for embeddings")
	fmt.Println("  DEBUG              Optional: enable debug logging")
	fmt.Println("  CORPUS_DATA_DIR    Optional: override the data directory")
	fmt.Println("  CORPUS_COLLECTION  Optional: override the collection name")
}

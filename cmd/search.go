package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/koopa0/corpus/internal/config"
	"github.com/koopa0/corpus/internal/embed"
	"github.com/koopa0/corpus/internal/log"
	"github.com/koopa0/corpus/internal/search"
	"github.com/koopa0/corpus/internal/store"
)

// runSearch embeds the query and prints the top matching documents.
func runSearch(cfg *config.Config, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	topK := fs.Int("top-k", cfg.TopK, "maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: corpus search <query>")
	}

	st := store.New(cfg.CollectionDir(), logger.With("component", "store"))
	provider := embed.NewGoogleAI(cfg.EmbedderModel, cfg.Dimensions, logger.With("component", "embed"))

	ctx := context.Background()
	if err := provider.Init(ctx); err != nil {
		return err
	}
	defer func() {
		_ = provider.Close()
	}()

	engine := search.New(st, provider, logger.With("component", "search"))
	results, err := engine.Search(ctx, query,
		search.WithTopK(*topK),
		search.WithTimeout(time.Duration(cfg.SearchTimeoutSeconds)*time.Second),
	)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results. Run `corpus embed` to populate the collection.")
		return nil
	}

	for i, res := range results {
		fmt.Printf("%d. %s (score %.4f)\n", i+1, res.SourceName, res.Score)
		if res.SourcePath != "" {
			fmt.Printf("   %s\n", res.SourcePath)
		}
		fmt.Printf("   %s\n", snippet(res.Text, 200))
	}
	return nil
}

// snippet returns the first max characters of text on a single line.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

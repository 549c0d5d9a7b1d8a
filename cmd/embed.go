package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koopa0/corpus/internal/checkpoint"
	"github.com/koopa0/corpus/internal/config"
	"github.com/koopa0/corpus/internal/embed"
	"github.com/koopa0/corpus/internal/log"
	"github.com/koopa0/corpus/internal/pipeline"
	"github.com/koopa0/corpus/internal/source"
	"github.com/koopa0/corpus/internal/store"
)

// runEmbed executes an embedding pass over a directory tree.
func runEmbed(cfg *config.Config, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory tree to embed")
	resume := fs.Bool("resume", false, "resume from the last checkpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src := source.NewFileSource(*dir, nil, logger.With("component", "source"))
	provider := embed.NewGoogleAI(cfg.EmbedderModel, cfg.Dimensions, logger.With("component", "embed"))
	st := store.New(cfg.CollectionDir(), logger.With("component", "store"))
	tracker := checkpoint.NewTracker(cfg.CheckpointDir(), cfg.Collection, logger.With("component", "checkpoint"))

	sink := pipeline.NewChannelSink(256)
	runner := pipeline.NewRunner(src, provider, st, tracker,
		logger.With("component", "pipeline"),
		pipeline.WithCheckpointInterval(cfg.CheckpointInterval),
		pipeline.WithTextLimits(cfg.MinTextChars, cfg.MaxTextChars),
		pipeline.WithRateLimit(cfg.EmbedRate),
		pipeline.WithSink(sink),
	)

	// Ctrl-C checkpoints progress and exits instead of losing the run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sink.Events() {
			printEvent(ev)
		}
	}()

	res, err := runner.Run(ctx, *resume)
	stop()
	sink.Close()
	<-done

	if err != nil {
		if res != nil && ctx.Err() != nil {
			fmt.Printf("Interrupted after %d/%d documents; run `corpus embed --resume` to continue.\n",
				res.Embedded+res.Skipped+res.Failed, res.Total)
		}
		return err
	}

	fmt.Printf("Embedded %d, skipped %d, failed %d of %d documents in %s.\n",
		res.Embedded, res.Skipped, res.Failed, res.Total, res.Duration.Round(10*time.Millisecond))
	return nil
}

func printEvent(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventProcessing:
		fmt.Printf("  [%d/%d] %s\n", ev.Processed, ev.Total, ev.Document)
	case pipeline.EventError:
		fmt.Printf("  [%d/%d] %s: %v\n", ev.Processed, ev.Total, ev.Document, ev.Err)
	case pipeline.EventEmpty:
		fmt.Println("  source contains no documents")
	case pipeline.EventCompleted:
		fmt.Printf("  done: %d documents\n", ev.Total)
	}
}

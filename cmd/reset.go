package cmd

import (
	"flag"
	"fmt"

	"github.com/koopa0/corpus/internal/checkpoint"
	"github.com/koopa0/corpus/internal/config"
	"github.com/koopa0/corpus/internal/log"
	"github.com/koopa0/corpus/internal/store"
)

// runReset clears the checkpoint, and with --wipe also deletes every record
// and the manifest.
func runReset(cfg *config.Config, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	wipe := fs.Bool("wipe", false, "also delete all embedded records")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tracker := checkpoint.NewTracker(cfg.CheckpointDir(), cfg.Collection, logger.With("component", "checkpoint"))
	if err := tracker.Reset(); err != nil {
		return err
	}
	fmt.Printf("Checkpoint cleared for collection %q.\n", cfg.Collection)

	if *wipe {
		st := store.New(cfg.CollectionDir(), logger.With("component", "store"))
		if err := st.Wipe(); err != nil {
			return err
		}
		fmt.Printf("Collection %q wiped.\n", cfg.Collection)
	}
	return nil
}

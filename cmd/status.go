package cmd

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/koopa0/corpus/internal/checkpoint"
	"github.com/koopa0/corpus/internal/config"
	"github.com/koopa0/corpus/internal/log"
	"github.com/koopa0/corpus/internal/store"
)

// runStatus prints the collection manifest, record count, and checkpoint.
func runStatus(cfg *config.Config, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	st := store.New(cfg.CollectionDir(), logger.With("component", "store"))
	tracker := checkpoint.NewTracker(cfg.CheckpointDir(), cfg.Collection, logger.With("component", "checkpoint"))

	fmt.Printf("Collection: %s\n", cfg.Collection)
	fmt.Printf("Directory:  %s\n", st.Dir())

	count, err := st.Count()
	if err != nil {
		return err
	}
	fmt.Printf("Records:    %d\n", count)

	m, err := st.Manifest()
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Println("Manifest:   none (no completed run yet)")
	case err != nil:
		return err
	default:
		fmt.Printf("Manifest:   %d records, %d dimensions\n", m.Total, m.Dimensions)
	}

	cp, err := tracker.Load()
	if err != nil {
		return err
	}
	switch {
	case cp == nil:
		fmt.Println("Checkpoint: none")
	case cp.Complete:
		fmt.Printf("Checkpoint: complete, %d/%d processed at %s\n",
			cp.ProcessedCount, cp.TotalCount, cp.UpdatedAt.Format(time.RFC3339))
	default:
		fmt.Printf("Checkpoint: in progress, %d/%d processed at %s (resume with `corpus embed --resume`)\n",
			cp.ProcessedCount, cp.TotalCount, cp.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

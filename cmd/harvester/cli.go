package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/harvest"
	"github.com/bibcovers/cover-indexer/internal/logger"
)

// CLI is the harvester command line
type CLI struct {
	Config string `help:"Path to configuration file"`
	Env    string `help:"Path to environment files" default:"config/"`

	Harvest HarvestCmd `cmd:"" default:"withargs" help:"Reconcile vendor feeds and queue the changes"`
	Seed    SeedCmd    `cmd:"" help:"Create or refresh the vendor rows of every enabled adapter"`
	Status  StatusCmd  `cmd:"" help:"Print the last harvest summary per vendor"`
}

// HarvestCmd runs one harvest
type HarvestCmd struct {
	Vendor          []string `short:"v" help:"Harvest only these vendors (repeatable)"`
	Limit           int      `help:"Stop reading each feed after this many entries" default:"0"`
	WithSearchCache bool     `help:"Let the enricher reuse stored search material"`
}

// SeedCmd seeds vendor rows
type SeedCmd struct{}

// StatusCmd prints the recorded harvest summaries
type StatusCmd struct{}

func (c *HarvestCmd) Run(ctx context.Context, app *app) error {
	harvester, err := app.harvester(ctx)
	if err != nil {
		return err
	}

	summaries, err := harvester.Run(ctx, harvest.Options{
		Vendors:        c.Vendor,
		Limit:          c.Limit,
		UseSearchCache: c.WithSearchCache,
		Concurrency:    app.cfg.Worker.PoolSize,
		BatchSize:      app.cfg.BatchSize,
	})
	printSummaries(app.out, summaries)
	return err
}

func (c *SeedCmd) Run(ctx context.Context, app *app) error {
	st, err := app.store()
	if err != nil {
		return err
	}

	for _, a := range app.adapters() {
		vendor, err := st.EnsureVendor(ctx, a.Vendor())
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", a.Name(), err)
		}
		logger.InfoCtx(ctx, "Vendor seeded", logger.Vendor(vendor.ID, vendor.Name), zap.Int("rank", vendor.Rank))
	}
	return nil
}

func (c *StatusCmd) Run(ctx context.Context, app *app) error {
	st, err := app.store()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VENDOR\tLAST RUN")
	for _, a := range app.adapters() {
		value, err := st.GetKeyValue(ctx, harvest.LastRunKey(a.Name()))
		if err != nil {
			return fmt.Errorf("failed to read last run of %s: %w", a.Name(), err)
		}
		if value == "" {
			value = "never"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", a.Name(), value)
	}
	return w.Flush()
}

func printSummaries(out io.Writer, summaries []harvest.Summary) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VENDOR\tENTRIES\tSKIPPED\tINSERTED\tUPDATED\tUNCHANGED\tDELETED\tFAILED BATCHES\tDURATION\tERROR")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			s.Vendor, s.Entries, s.Skipped,
			s.Result.Inserted, s.Result.Updated, s.Result.Unchanged, s.Result.Deleted,
			s.FailedBatches, s.Duration.Round(time.Millisecond), s.Error)
	}
	_ = w.Flush()
}

package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibcovers/cover-indexer/internal/config"
	"github.com/bibcovers/cover-indexer/internal/harvest"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/reconcile"
)

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("harvester"),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

func TestHarvestCommandParsing(t *testing.T) {
	cli, ctx := parseCLI(t, "harvest", "-v", "saxo", "--vendor", "publizon", "--limit", "50", "--with-search-cache")

	assert.Equal(t, "harvest", ctx.Command())
	assert.Equal(t, []string{"saxo", "publizon"}, cli.Harvest.Vendor)
	assert.Equal(t, 50, cli.Harvest.Limit)
	assert.True(t, cli.Harvest.WithSearchCache)
	assert.Equal(t, "config/", cli.Env)
}

func TestHarvestIsDefaultCommand(t *testing.T) {
	cli, ctx := parseCLI(t, "--config", "harvester.yaml")

	assert.Equal(t, "harvest", ctx.Command())
	assert.Equal(t, "harvester.yaml", cli.Config)
	assert.Zero(t, cli.Harvest.Limit)
	assert.False(t, cli.Harvest.WithSearchCache)
}

func TestSeedAndStatusParsing(t *testing.T) {
	_, ctx := parseCLI(t, "seed")
	assert.Equal(t, "seed", ctx.Command())

	_, ctx = parseCLI(t, "status")
	assert.Equal(t, "status", ctx.Command())
}

func TestAdaptersFollowConfig(t *testing.T) {
	a := &app{cfg: &config.HarvesterConfig{
		Vendors: config.VendorsConfig{
			Saxo:       config.VendorConfig{Enabled: true, URL: "https://saxo.example/feed.xlsx", Rank: 2},
			ComicsPlus: config.VendorConfig{Enabled: true, URL: "https://comicsplus.example/titles"},
		},
	}}

	adapters := a.adapters()
	require.Len(t, adapters, 2)
	assert.Equal(t, vendors.SaxoID, adapters[0].ID())
	assert.Equal(t, 2, adapters[0].Vendor().Rank)
	assert.Equal(t, vendors.ComicsPlusID, adapters[1].ID())
}

func TestPrintSummaries(t *testing.T) {
	var out bytes.Buffer
	printSummaries(&out, []harvest.Summary{
		{Vendor: "saxo", Entries: 12, Result: reconcile.Result{Inserted: 10, Unchanged: 2}, Duration: 1500 * time.Millisecond},
		{Vendor: "publizon", Err: errors.New("already running"), Error: "already running"},
	})

	assert.Contains(t, out.String(), "saxo")
	assert.Contains(t, out.String(), "1.5s")
	assert.Contains(t, out.String(), "already running")
}

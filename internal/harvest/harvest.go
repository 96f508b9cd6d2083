package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/lock"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/reconcile"
	"github.com/bibcovers/cover-indexer/internal/store"
)

const (
	lastRunKeyPrefix   = "harvest:last_run:"
	defaultConcurrency = 2
)

// ErrUnknownVendor is returned when a requested vendor has no adapter
var ErrUnknownVendor = errors.New("unknown vendor")

// Options selects what a harvest run covers
type Options struct {
	// Vendors limits the run to these vendor names; empty runs every adapter
	Vendors []string
	// Limit stops reading a feed after this many entries; zero reads everything
	Limit int
	// UseSearchCache lets the enricher reuse stored material
	UseSearchCache bool
	// Concurrency is the number of vendors harvested at once
	Concurrency int
	// BatchSize bounds the batches handed to the engine; zero or above the engine bound uses the bound
	BatchSize int
}

// Summary is the outcome of one vendor harvest
type Summary struct {
	VendorID      int64            `json:"vendorId"`
	Vendor        string           `json:"vendor"`
	Entries       int              `json:"entries"`
	Skipped       int              `json:"skipped"`
	Result        reconcile.Result `json:"result"`
	FailedBatches int              `json:"failedBatches"`
	StartedAt     time.Time        `json:"startedAt"`
	Duration      time.Duration    `json:"duration"`
	Err           error            `json:"-"`
	Error         string           `json:"error,omitempty"`
}

// LastRunKey is the key-value store key holding the last summary of a vendor
func LastRunKey(vendor string) string {
	return lastRunKeyPrefix + vendor
}

// Harvester runs vendor adapters through the reconciliation engine
type Harvester struct {
	store    store.Store
	locker   lock.Locker
	engine   reconcile.Engine
	clock    adapter.Clock
	adapters []vendors.Adapter
}

// NewHarvester creates a harvester over the given adapters
func NewHarvester(st store.Store, locker lock.Locker, engine reconcile.Engine, clock adapter.Clock, adapters ...vendors.Adapter) *Harvester {
	return &Harvester{
		store:    st,
		locker:   locker,
		engine:   engine,
		clock:    clock,
		adapters: adapters,
	}
}

// Run harvests the selected vendors concurrently and returns one summary per vendor,
// in adapter order. The returned error joins the vendor failures.
func (h *Harvester) Run(ctx context.Context, opts Options) ([]Summary, error) {
	selected, err := h.selectAdapters(opts.Vendors)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	pool := pond.NewPool(concurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	summaries := make([]Summary, len(selected))
	group := pool.NewGroup()
	for i, a := range selected {
		group.Submit(func() {
			summaries[i] = h.harvestVendor(ctx, a, opts)
		})
	}
	if err := group.Wait(); err != nil {
		return summaries, err
	}

	var errs []error
	for _, s := range summaries {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Vendor, s.Err))
		}
	}
	return summaries, errors.Join(errs...)
}

func (h *Harvester) selectAdapters(names []string) ([]vendors.Adapter, error) {
	if len(names) == 0 {
		return h.adapters, nil
	}

	byName := make(map[string]vendors.Adapter, len(h.adapters))
	for _, a := range h.adapters {
		byName[a.Name()] = a
	}

	selected := make([]vendors.Adapter, 0, len(names))
	for _, name := range names {
		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVendor, name)
		}
		selected = append(selected, a)
	}
	return selected, nil
}

// harvestVendor runs one adapter under the vendor lock
func (h *Harvester) harvestVendor(ctx context.Context, a vendors.Adapter, opts Options) Summary {
	summary := Summary{
		VendorID:  a.ID(),
		Vendor:    a.Name(),
		StartedAt: h.clock.Now(),
	}
	vendorField := logger.Vendor(a.ID(), a.Name())

	summary.Err = h.locker.Run(ctx, fmt.Sprintf("vendor:%d", a.ID()), func(ctx context.Context) error {
		if _, err := h.store.EnsureVendor(ctx, a.Vendor()); err != nil {
			return fmt.Errorf("failed to seed vendor: %w", err)
		}

		logger.InfoCtx(ctx, "Harvest started", vendorField, zap.Int("limit", opts.Limit))

		b := newBatcher(h.engine, a, opts, &summary)
		err := a.Load(ctx, func(ctx context.Context, entry vendors.Entry) error {
			if opts.Limit > 0 && summary.Entries >= opts.Limit {
				return vendors.ErrStop
			}
			summary.Entries++
			b.add(ctx, entry)
			return nil
		})
		if err != nil && !errors.Is(err, vendors.ErrStop) {
			// entries read before the failure are still reconciled
			b.flushAll(ctx)
			return fmt.Errorf("failed to load feed: %w", err)
		}

		b.flushAll(ctx)
		return nil
	})
	summary.Duration = h.clock.Since(summary.StartedAt)

	if summary.Err != nil {
		summary.Error = summary.Err.Error()
		if errors.Is(summary.Err, lock.ErrAlreadyRunning) {
			logger.WarnCtx(ctx, "Harvest skipped, vendor already running", vendorField)
			return summary
		}
		logger.ErrorCtx(ctx, summary.Err, vendorField)
	} else {
		logger.InfoCtx(ctx, "Harvest finished",
			vendorField,
			zap.Int("entries", summary.Entries),
			zap.Int("skipped", summary.Skipped),
			zap.Int("inserted", summary.Result.Inserted),
			zap.Int("updated", summary.Result.Updated),
			zap.Int("unchanged", summary.Result.Unchanged),
			zap.Int("deleted", summary.Result.Deleted),
			zap.Int("failed_batches", summary.FailedBatches),
			zap.Duration("duration", summary.Duration))
	}

	h.recordLastRun(ctx, summary)
	return summary
}

func (h *Harvester) recordLastRun(ctx context.Context, summary Summary) {
	data, err := json.Marshal(summary)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to encode harvest summary", zap.Error(err))
		return
	}
	if err := h.store.SetKeyValue(ctx, LastRunKey(summary.Vendor), string(data)); err != nil {
		logger.WarnCtx(ctx, "Failed to record harvest summary", zap.String("vendor", summary.Vendor), zap.Error(err))
	}
}

// batcher buffers entries per identifier type and hands bounded batches to the engine
type batcher struct {
	engine         reconcile.Engine
	adapter        vendors.Adapter
	useSearchCache bool
	size           int
	summary        *Summary

	covers  map[domain.IdentifierType]domain.Batch
	deletes map[domain.IdentifierType][]string
}

func newBatcher(engine reconcile.Engine, a vendors.Adapter, opts Options, summary *Summary) *batcher {
	size := opts.BatchSize
	if size <= 0 || size > domain.MaxBatchSize {
		size = domain.MaxBatchSize
	}

	return &batcher{
		engine:         engine,
		adapter:        a,
		useSearchCache: opts.UseSearchCache,
		size:           size,
		summary:        summary,
		covers:         make(map[domain.IdentifierType]domain.Batch),
		deletes:        make(map[domain.IdentifierType][]string),
	}
}

// add buffers entry. Entries without an identifier, or covers without a URL, are
// skipped and counted so they cannot abort the batch they would land in.
func (b *batcher) add(ctx context.Context, entry vendors.Entry) {
	t := entry.IdentifierType

	if domain.NormalizeIdentifier(t, entry.Identifier) == "" || (!entry.Deleted && strings.TrimSpace(entry.URL) == "") {
		b.summary.Skipped++
		logger.DebugCtx(ctx, "Skipping incomplete feed entry",
			logger.Vendor(b.adapter.ID(), b.adapter.Name()),
			zap.String("identifier_type", string(t)),
			zap.String("identifier", entry.Identifier))
		return
	}

	if entry.Deleted {
		b.deletes[t] = append(b.deletes[t], entry.Identifier)
		if len(b.deletes[t]) >= b.size {
			b.flushDeletes(ctx, t)
		}
		return
	}

	if b.covers[t] == nil {
		b.covers[t] = make(domain.Batch, b.size)
	}
	b.covers[t][entry.Identifier] = entry.URL
	if len(b.covers[t]) >= b.size {
		b.flushCovers(ctx, t)
	}
}

func (b *batcher) flushAll(ctx context.Context) {
	for _, t := range sortedTypes(b.covers) {
		b.flushCovers(ctx, t)
	}
	for _, t := range sortedTypes(b.deletes) {
		b.flushDeletes(ctx, t)
	}
}

// flushCovers reconciles the buffered covers of one type. A failed batch is logged
// and counted; the run continues with the next batch.
func (b *batcher) flushCovers(ctx context.Context, t domain.IdentifierType) {
	batch := b.covers[t]
	delete(b.covers, t)
	if len(batch) == 0 {
		return
	}

	result, err := b.engine.Reconcile(ctx, reconcile.Request{
		VendorID:       b.adapter.ID(),
		VendorName:     b.adapter.Name(),
		IdentifierType: t,
		Batch:          batch,
		UseSearchCache: b.useSearchCache,
	})
	b.record(ctx, t, len(batch), result, err)
}

func (b *batcher) flushDeletes(ctx context.Context, t domain.IdentifierType) {
	identifiers := b.deletes[t]
	delete(b.deletes, t)
	if len(identifiers) == 0 {
		return
	}

	result, err := b.engine.ReconcileDeletes(ctx, b.adapter.ID(), b.adapter.Name(), t, identifiers)
	b.record(ctx, t, len(identifiers), result, err)
}

func (b *batcher) record(ctx context.Context, t domain.IdentifierType, size int, result reconcile.Result, err error) {
	b.summary.Result.Add(result)
	if err == nil {
		return
	}

	b.summary.FailedBatches++
	logger.ErrorCtx(ctx, fmt.Errorf("batch aborted: %w", err),
		logger.Vendor(b.adapter.ID(), b.adapter.Name()),
		zap.String("identifier_type", string(t)),
		zap.Int("batch", size))
}

func sortedTypes[V any](m map[domain.IdentifierType]V) []domain.IdentifierType {
	types := make([]domain.IdentifierType, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

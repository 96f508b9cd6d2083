package reconcile

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/metrics"
	"github.com/bibcovers/cover-indexer/internal/router"
	"github.com/bibcovers/cover-indexer/internal/store"
)

// Request is one bounded batch of vendor data to reconcile
type Request struct {
	VendorID       int64
	VendorName     string
	IdentifierType domain.IdentifierType
	Batch          domain.Batch
	UseSearchCache bool
}

// Result counts the identifiers per classification
type Result struct {
	Inserted  int
	Updated   int
	Unchanged int
	Deleted   int
}

// Add accumulates other into r
func (r *Result) Add(other Result) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
	r.Deleted += other.Deleted
}

// Engine reconciles vendor batches against the persisted Sources
//
//go:generate mockgen -source=engine.go -destination=../mocks/reconcile.go -package=mocks -mock_names=Engine=MockEngine
type Engine interface {
	// Reconcile upserts one batch and emits one vendor event per non-empty classification.
	// Rows are written before any event is emitted.
	Reconcile(ctx context.Context, req Request) (Result, error)
	// ReconcileDeletes emits a DELETE event for the identifiers that have a Source
	ReconcileDeletes(ctx context.Context, vendorID int64, vendorName string, identifierType domain.IdentifierType, identifiers []string) (Result, error)
}

type engine struct {
	store  store.Store
	router router.Router
}

// NewEngine creates a reconciliation engine
func NewEngine(st store.Store, r router.Router) Engine {
	return &engine{store: st, router: r}
}

func (e *engine) Reconcile(ctx context.Context, req Request) (Result, error) {
	batch, err := normalizeBatch(req.IdentifierType, req.Batch)
	if err != nil {
		return Result{}, err
	}
	if req.VendorID <= 0 {
		return Result{}, fmt.Errorf("%w: vendor id %d", domain.ErrInvalidBatch, req.VendorID)
	}

	existing, err := e.store.FindSources(ctx, req.VendorID, req.IdentifierType, batch.Identifiers())
	if err != nil {
		return Result{}, fmt.Errorf("failed to find sources: %w", err)
	}
	current := make(map[string]string, len(existing))
	for _, source := range existing {
		file := ""
		if source.OriginalFile != nil {
			file = *source.OriginalFile
		}
		current[source.MatchID] = file
	}

	var (
		inserts, updates []string
		rows             []store.UpsertSourceInput
		result           Result
	)
	for _, identifier := range sortedKeys(batch) {
		url := batch[identifier]
		file, found := current[identifier]
		switch {
		case !found:
			inserts = append(inserts, identifier)
		case file != url:
			updates = append(updates, identifier)
		default:
			result.Unchanged++
			continue
		}
		rows = append(rows, store.UpsertSourceInput{
			VendorID:     req.VendorID,
			MatchID:      identifier,
			MatchType:    req.IdentifierType,
			OriginalFile: url,
		})
	}

	if len(rows) > 0 {
		if err := e.store.UpsertSources(ctx, rows); err != nil {
			return Result{}, fmt.Errorf("failed to upsert sources: %w", err)
		}
	}

	if err := e.emit(ctx, req, domain.OperationInsert, inserts); err != nil {
		return result, err
	}
	result.Inserted = len(inserts)

	if err := e.emit(ctx, req, domain.OperationUpdate, updates); err != nil {
		return result, err
	}
	result.Updated = len(updates)

	logger.InfoCtx(ctx, "Batch reconciled",
		logger.Vendor(req.VendorID, req.VendorName),
		zap.String("identifier_type", string(req.IdentifierType)),
		zap.Int("batch", len(batch)),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged))

	return result, nil
}

func (e *engine) ReconcileDeletes(ctx context.Context, vendorID int64, vendorName string, identifierType domain.IdentifierType, identifiers []string) (Result, error) {
	if len(identifiers) > domain.MaxBatchSize {
		return Result{}, fmt.Errorf("%w: %d identifiers", domain.ErrBatchTooLarge, len(identifiers))
	}

	normalized := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		id = domain.NormalizeIdentifier(identifierType, id)
		if id == "" {
			return Result{}, fmt.Errorf("%w: empty identifier", domain.ErrInvalidBatch)
		}
		normalized = append(normalized, id)
	}
	if len(normalized) == 0 {
		return Result{}, nil
	}

	existing, err := e.store.FindSources(ctx, vendorID, identifierType, normalized)
	if err != nil {
		return Result{}, fmt.Errorf("failed to find sources: %w", err)
	}

	deletes := make([]string, 0, len(existing))
	for _, source := range existing {
		deletes = append(deletes, source.MatchID)
	}
	sort.Strings(deletes)

	req := Request{VendorID: vendorID, VendorName: vendorName, IdentifierType: identifierType}
	if err := e.emit(ctx, req, domain.OperationDelete, deletes); err != nil {
		return Result{}, err
	}

	logger.InfoCtx(ctx, "Deletes reconciled",
		logger.Vendor(vendorID, vendorName),
		zap.Int("requested", len(normalized)),
		zap.Int("deleted", len(deletes)))

	return Result{Deleted: len(deletes)}, nil
}

// emit dispatches one vendor event for a classification; empty partitions emit nothing
func (e *engine) emit(ctx context.Context, req Request, op domain.Operation, identifiers []string) error {
	if len(identifiers) == 0 {
		return nil
	}

	event := domain.VendorEvent{
		Operation:      op,
		IdentifierType: req.IdentifierType,
		Identifiers:    identifiers,
		VendorID:       req.VendorID,
	}
	if _, err := e.router.Dispatch(ctx, event, req.UseSearchCache); err != nil {
		return fmt.Errorf("failed to emit %s event: %w", op, err)
	}

	metrics.ObserveReconciled(req.VendorName, op, len(identifiers))
	return nil
}

// normalizeBatch enforces the batch bound and normalizes identifiers.
// Two raw identifiers normalizing to the same value keep the last URL in sorted raw order.
func normalizeBatch(t domain.IdentifierType, batch domain.Batch) (domain.Batch, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domain.ErrInvalidBatch)
	}
	if len(batch) > domain.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d identifiers", domain.ErrBatchTooLarge, len(batch))
	}
	if !domain.IsValidIdentifierType(t) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedIdentifierType, t)
	}

	out := make(domain.Batch, len(batch))
	for _, raw := range sortedKeys(batch) {
		id := domain.NormalizeIdentifier(t, raw)
		url := batch[raw]
		if id == "" || url == "" {
			return nil, fmt.Errorf("%w: identifier %q url %q", domain.ErrInvalidBatch, raw, url)
		}
		out[id] = url
	}
	return out, nil
}

func sortedKeys(batch domain.Batch) []string {
	keys := batch.Identifiers()
	sort.Strings(keys)
	return keys
}

package reconcile_test

import (
	"context"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	mockspkg "github.com/bibcovers/cover-indexer/internal/mocks"
	"github.com/bibcovers/cover-indexer/internal/reconcile"
	"github.com/bibcovers/cover-indexer/internal/store"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

const vendorID = int64(4)

func setupEngine(t *testing.T) (reconcile.Engine, *mockspkg.MockStore, *mockspkg.MockRouter) {
	ctrl := gomock.NewController(t)
	st := mockspkg.NewMockStore(ctrl)
	r := mockspkg.NewMockRouter(ctrl)

	return reconcile.NewEngine(st, r), st, r
}

func strPtr(s string) *string { return &s }

func request(batch domain.Batch) reconcile.Request {
	return reconcile.Request{
		VendorID:       vendorID,
		VendorName:     "saxo",
		IdentifierType: domain.IdentifierTypePID,
		Batch:          batch,
	}
}

func TestEngine_FreshBatchInsertsAll(t *testing.T) {
	e, st, r := setupEngine(t)

	st.EXPECT().
		FindSources(gomock.Any(), vendorID, domain.IdentifierTypePID, gomock.InAnyOrder([]string{"A", "B"})).
		Return(nil, nil)

	gomock.InOrder(
		st.EXPECT().
			UpsertSources(gomock.Any(), []store.UpsertSourceInput{
				{VendorID: vendorID, MatchID: "A", MatchType: domain.IdentifierTypePID, OriginalFile: "url1"},
				{VendorID: vendorID, MatchID: "B", MatchType: domain.IdentifierTypePID, OriginalFile: "url2"},
			}).
			Return(nil),
		r.EXPECT().
			Dispatch(gomock.Any(), domain.VendorEvent{
				Operation:      domain.OperationInsert,
				IdentifierType: domain.IdentifierTypePID,
				Identifiers:    []string{"A", "B"},
				VendorID:       vendorID,
			}, false).
			Return(2, nil),
	)

	result, err := e.Reconcile(context.Background(), request(domain.Batch{"A": "url1", "B": "url2"}))
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Inserted: 2}, result)
}

func TestEngine_RerunUpdatesChangedOnly(t *testing.T) {
	e, st, r := setupEngine(t)

	st.EXPECT().
		FindSources(gomock.Any(), vendorID, domain.IdentifierTypePID, gomock.Any()).
		Return([]schema.Source{
			{ID: 1, VendorID: vendorID, MatchID: "A", MatchType: "pid", OriginalFile: strPtr("url1")},
			{ID: 2, VendorID: vendorID, MatchID: "B", MatchType: "pid", OriginalFile: strPtr("url2")},
		}, nil)
	st.EXPECT().
		UpsertSources(gomock.Any(), []store.UpsertSourceInput{
			{VendorID: vendorID, MatchID: "A", MatchType: domain.IdentifierTypePID, OriginalFile: "url1b"},
		}).
		Return(nil)
	r.EXPECT().
		Dispatch(gomock.Any(), domain.VendorEvent{
			Operation:      domain.OperationUpdate,
			IdentifierType: domain.IdentifierTypePID,
			Identifiers:    []string{"A"},
			VendorID:       vendorID,
		}, false).
		Return(1, nil)

	result, err := e.Reconcile(context.Background(), request(domain.Batch{"A": "url1b", "B": "url2"}))
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Updated: 1, Unchanged: 1}, result)
}

func TestEngine_UnchangedBatchWritesNothing(t *testing.T) {
	e, st, _ := setupEngine(t)

	st.EXPECT().
		FindSources(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]schema.Source{{MatchID: "A", OriginalFile: strPtr("url1")}}, nil)

	result, err := e.Reconcile(context.Background(), request(domain.Batch{"A": "url1"}))
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Unchanged: 1}, result)
}

func TestEngine_ClearedOriginalIsUpdated(t *testing.T) {
	e, st, r := setupEngine(t)

	st.EXPECT().
		FindSources(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]schema.Source{{MatchID: "A"}}, nil)
	st.EXPECT().UpsertSources(gomock.Any(), gomock.Len(1)).Return(nil)
	r.EXPECT().Dispatch(gomock.Any(), gomock.Any(), true).Return(1, nil)

	req := request(domain.Batch{"A": "url1"})
	req.UseSearchCache = true
	result, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
}

func TestEngine_NormalizesIdentifiers(t *testing.T) {
	e, st, r := setupEngine(t)

	st.EXPECT().
		FindSources(gomock.Any(), vendorID, domain.IdentifierTypeISBN, []string{"9788702173277"}).
		Return(nil, nil)
	st.EXPECT().UpsertSources(gomock.Any(), gomock.Any()).Return(nil)
	r.EXPECT().
		Dispatch(gomock.Any(), gomock.Any(), false).
		DoAndReturn(func(_ context.Context, event domain.VendorEvent, _ bool) (int, error) {
			assert.Equal(t, []string{"9788702173277"}, event.Identifiers)
			return 1, nil
		})

	req := request(domain.Batch{" 978-87-02-17327-7 ": "url"})
	req.IdentifierType = domain.IdentifierTypeISBN
	_, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)
}

func TestEngine_RejectsInvalidBatches(t *testing.T) {
	oversized := make(domain.Batch, domain.MaxBatchSize+1)
	for i := 0; i <= domain.MaxBatchSize; i++ {
		oversized[string(rune('a'+i%26))+string(rune('0'+i/26))+"x"] = "url"
	}
	require.Len(t, oversized, domain.MaxBatchSize+1)

	tests := []struct {
		name    string
		batch   domain.Batch
		wantErr error
	}{
		{name: "oversized", batch: oversized, wantErr: domain.ErrBatchTooLarge},
		{name: "empty", batch: domain.Batch{}, wantErr: domain.ErrInvalidBatch},
		{name: "empty url", batch: domain.Batch{"A": ""}, wantErr: domain.ErrInvalidBatch},
		{name: "empty identifier", batch: domain.Batch{"  ": "url"}, wantErr: domain.ErrInvalidBatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no store or router expectations: nothing may be touched
			e, _, _ := setupEngine(t)

			_, err := e.Reconcile(context.Background(), request(tt.batch))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEngine_UpsertFailureEmitsNothing(t *testing.T) {
	e, st, _ := setupEngine(t)

	st.EXPECT().FindSources(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	st.EXPECT().UpsertSources(gomock.Any(), gomock.Any()).Return(assert.AnError)

	_, err := e.Reconcile(context.Background(), request(domain.Batch{"A": "url1"}))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEngine_DispatchFailurePropagates(t *testing.T) {
	e, st, r := setupEngine(t)

	st.EXPECT().FindSources(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	st.EXPECT().UpsertSources(gomock.Any(), gomock.Any()).Return(nil)
	r.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, assert.AnError)

	_, err := e.Reconcile(context.Background(), request(domain.Batch{"A": "url1"}))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEngine_ReconcileDeletes(t *testing.T) {
	e, st, r := setupEngine(t)

	st.EXPECT().
		FindSources(gomock.Any(), vendorID, domain.IdentifierTypePID, []string{"A", "B", "C"}).
		Return([]schema.Source{{MatchID: "C"}, {MatchID: "A"}}, nil)
	r.EXPECT().
		Dispatch(gomock.Any(), domain.VendorEvent{
			Operation:      domain.OperationDelete,
			IdentifierType: domain.IdentifierTypePID,
			Identifiers:    []string{"A", "C"},
			VendorID:       vendorID,
		}, false).
		Return(2, nil)

	result, err := e.ReconcileDeletes(context.Background(), vendorID, "saxo", domain.IdentifierTypePID, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{Deleted: 2}, result)
}

func TestEngine_ReconcileDeletes_NothingKnown(t *testing.T) {
	e, st, _ := setupEngine(t)

	st.EXPECT().FindSources(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	result, err := e.ReconcileDeletes(context.Background(), vendorID, "saxo", domain.IdentifierTypePID, []string{"A"})
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
}

func TestResult_Add(t *testing.T) {
	total := reconcile.Result{Inserted: 1}
	total.Add(reconcile.Result{Inserted: 2, Updated: 1, Unchanged: 4, Deleted: 3})
	assert.Equal(t, reconcile.Result{Inserted: 3, Updated: 1, Unchanged: 4, Deleted: 3}, total)
}

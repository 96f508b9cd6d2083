package processor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bibcovers/cover-indexer/internal/coverstore"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/processor"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

func newDeleter(m *testProcessorMocks) *processor.Deleter {
	return processor.NewDeleter(m.store, m.covers)
}

func TestDeleter_DeletesRowsThenCover(t *testing.T) {
	m := setupTestProcessor(t)
	d := newDeleter(m)
	msg := testMessage(domain.OperationDelete)

	gomock.InOrder(
		m.store.EXPECT().DeleteSource(gomock.Any(), msg.SourceKey()).
			Return(&schema.Image{ID: 31, ProviderAssetID: strPtr("asset-31")}, true, nil),
		m.covers.EXPECT().Remove(gomock.Any(), "asset-31").Return(nil),
		m.store.EXPECT().ClearPendingRemoval(gomock.Any(), msg.SourceKey()).Return(nil),
	)

	assert.Equal(t, domain.OutcomeAck, d.Handle(context.Background(), encode(t, msg)))
}

func TestDeleter_RedeliveryAfterCommitRemovesPendingCover(t *testing.T) {
	m := setupTestProcessor(t)
	d := newDeleter(m)
	msg := testMessage(domain.OperationDelete)

	// the first delivery committed the delete but never removed the cover
	gomock.InOrder(
		m.store.EXPECT().DeleteSource(gomock.Any(), msg.SourceKey()).Return(nil, false, nil),
		m.store.EXPECT().GetPendingRemoval(gomock.Any(), msg.SourceKey()).Return("asset-31", nil),
		m.covers.EXPECT().Remove(gomock.Any(), "asset-31").Return(nil).Times(1),
		m.store.EXPECT().ClearPendingRemoval(gomock.Any(), msg.SourceKey()).Return(nil),
	)

	assert.Equal(t, domain.OutcomeAck, d.Handle(context.Background(), encode(t, msg)))
}

func TestDeleter_CoverRemovalFailureRejectsAfterCommit(t *testing.T) {
	m := setupTestProcessor(t)
	d := newDeleter(m)
	msg := testMessage(domain.OperationDelete)

	// rows are deleted exactly once; nothing tries to restore them
	m.store.EXPECT().DeleteSource(gomock.Any(), msg.SourceKey()).
		Return(&schema.Image{ID: 31, ProviderAssetID: strPtr("asset-31")}, true, nil).
		Times(1)
	m.covers.EXPECT().Remove(gomock.Any(), "asset-31").Return(assert.AnError)
	// the pending removal stays recorded for the next delivery
	m.store.EXPECT().ClearPendingRemoval(gomock.Any(), gomock.Any()).Times(0)

	assert.Equal(t, domain.OutcomeReject, d.Handle(context.Background(), encode(t, msg)))
}

func TestDeleter_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		image      *schema.Image
		found      bool
		err        error
		pending    string
		pendingErr error
		removeErr  error
		remove     bool
		clearErr   error
		want       domain.Outcome
	}{
		{name: "already deleted", found: false, want: domain.OutcomeAck},
		{name: "source absent with pending cover", found: false, pending: "asset-9", remove: true, want: domain.OutcomeAck},
		{
			name:      "source absent, pending cover already gone",
			pending:   "asset-9",
			remove:    true,
			removeErr: coverstore.ErrNotFound,
			want:      domain.OutcomeAck,
		},
		{
			name:      "source absent, pending cover removal fails",
			pending:   "asset-9",
			remove:    true,
			removeErr: assert.AnError,
			want:      domain.OutcomeReject,
		},
		{name: "source absent, pending lookup fails", pendingErr: assert.AnError, want: domain.OutcomeRequeue},
		{name: "source without image", found: true, want: domain.OutcomeAck},
		{name: "transaction failure", err: assert.AnError, want: domain.OutcomeReject},
		{
			name:      "cover already gone",
			image:     &schema.Image{ID: 1, ProviderAssetID: strPtr("asset-1")},
			found:     true,
			remove:    true,
			removeErr: coverstore.ErrNotFound,
			want:      domain.OutcomeAck,
		},
		{
			name:     "clear failure is not fatal",
			image:    &schema.Image{ID: 1, ProviderAssetID: strPtr("asset-1")},
			found:    true,
			remove:   true,
			clearErr: assert.AnError,
			want:     domain.OutcomeAck,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := setupTestProcessor(t)
			d := newDeleter(m)
			msg := testMessage(domain.OperationDelete)

			m.store.EXPECT().DeleteSource(gomock.Any(), msg.SourceKey()).Return(tt.image, tt.found, tt.err)
			if !tt.found && tt.err == nil {
				m.store.EXPECT().GetPendingRemoval(gomock.Any(), msg.SourceKey()).Return(tt.pending, tt.pendingErr)
			}
			if tt.remove {
				m.covers.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(tt.removeErr)
				if tt.removeErr == nil || errors.Is(tt.removeErr, coverstore.ErrNotFound) {
					m.store.EXPECT().ClearPendingRemoval(gomock.Any(), msg.SourceKey()).Return(tt.clearErr)
				}
			}

			assert.Equal(t, tt.want, d.Handle(context.Background(), encode(t, msg)))
		})
	}
}

func TestDeleter_RejectsNonDelete(t *testing.T) {
	m := setupTestProcessor(t)
	assert.Equal(t, domain.OutcomeReject, newDeleter(m).Handle(context.Background(), encode(t, testMessage(domain.OperationInsert))))
}

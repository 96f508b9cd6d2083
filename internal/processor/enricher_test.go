package processor_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/processor"
	"github.com/bibcovers/cover-indexer/internal/search"
	"github.com/bibcovers/cover-indexer/internal/store"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

func newEnricher(m *testProcessorMocks) *processor.Enricher {
	return processor.NewEnricher(m.store, m.search, m.noHits, m.publisher)
}

func publishedSource() *schema.Source {
	source := testSource()
	source.ImageID = int64Ptr(31)
	source.Image = &schema.Image{
		ID:       31,
		ImageURL: strPtr("https://imagedelivery.net/hash/new-asset/public"),
		Width:    600,
		Height:   900,
		Format:   "jpg",
	}
	return source
}

func TestEnricher_Enriches(t *testing.T) {
	m := setupTestProcessor(t)
	e := newEnricher(m)
	msg := testMessage(domain.OperationInsert).WithImageID(31)
	source := publishedSource()
	material := &search.Material{Identifier: testIdentifier, IdentifierType: domain.IdentifierTypeISBN, Title: "Ternet Ninja"}

	m.store.EXPECT().GetSource(gomock.Any(), msg.SourceKey()).Return(source, nil)
	m.search.EXPECT().Search(gomock.Any(), testIdentifier, domain.IdentifierTypeISBN).Return(material, nil)
	m.store.EXPECT().
		UpsertSearch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input store.UpsertSearchInput) error {
			assert.Equal(t, source.ID, input.SourceID)
			assert.Equal(t, "https://imagedelivery.net/hash/new-asset/public", input.ImageURL)
			assert.Equal(t, 600, input.Width)
			assert.Contains(t, string(input.Material), "Ternet Ninja")
			return nil
		})
	m.publisher.EXPECT().
		Publish(gomock.Any(), messaging.TopicIndexReady, msg.DedupID(domain.StageEnrich), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ messaging.Topic, _ string, payload interface{}) error {
			event, ok := payload.(domain.IndexReadyEvent)
			require.True(t, ok)
			assert.Equal(t, int64(31), event.ImageID)
			assert.Equal(t, testIdentifier, event.Identifier)

			var decoded search.Material
			require.NoError(t, json.Unmarshal(event.Material, &decoded))
			assert.Equal(t, "Ternet Ninja", decoded.Title)
			return nil
		})

	assert.Equal(t, domain.OutcomeAck, e.Handle(context.Background(), encode(t, msg)))
}

func TestEnricher_UsesSearchCache(t *testing.T) {
	m := setupTestProcessor(t)
	e := newEnricher(m)
	msg := testMessage(domain.OperationUpdate).WithImageID(31).WithSearchCache(true)
	source := publishedSource()

	m.store.EXPECT().GetSource(gomock.Any(), msg.SourceKey()).Return(source, nil)
	m.store.EXPECT().GetSearch(gomock.Any(), source.ID).Return(&schema.Search{
		SourceID: source.ID,
		Material: datatypes.JSON(`{"title":"cached"}`),
	}, nil)
	// no search service call
	m.store.EXPECT().UpsertSearch(gomock.Any(), gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(gomock.Any(), messaging.TopicIndexReady, gomock.Any(), gomock.Any()).Return(nil)

	assert.Equal(t, domain.OutcomeAck, e.Handle(context.Background(), encode(t, msg)))
}

func TestEnricher_NoHitIsReportedAndRejected(t *testing.T) {
	m := setupTestProcessor(t)
	e := newEnricher(m)
	msg := testMessage(domain.OperationInsert).WithImageID(31)

	m.store.EXPECT().GetSource(gomock.Any(), msg.SourceKey()).Return(publishedSource(), nil)
	m.search.EXPECT().Search(gomock.Any(), testIdentifier, domain.IdentifierTypeISBN).Return(nil, nil)
	m.noHits.EXPECT().
		Report(gomock.Any(), []domain.NoHitItem{{IdentifierType: domain.IdentifierTypeISBN, Identifier: testIdentifier}}).
		Return(1, nil)

	assert.Equal(t, domain.OutcomeReject, e.Handle(context.Background(), encode(t, msg)))
}

func TestEnricher_SearchFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Outcome
	}{
		{name: "unauthorized", err: search.ErrUnauthorized, want: domain.OutcomeRequeue},
		{name: "unavailable", err: search.ErrUnavailable, want: domain.OutcomeRequeue},
		{name: "unsupported type", err: domain.ErrUnsupportedIdentifierType, want: domain.OutcomeReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := setupTestProcessor(t)
			e := newEnricher(m)
			msg := testMessage(domain.OperationInsert).WithImageID(31)

			m.store.EXPECT().GetSource(gomock.Any(), msg.SourceKey()).Return(publishedSource(), nil)
			m.search.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			assert.Equal(t, tt.want, e.Handle(context.Background(), encode(t, msg)))
		})
	}
}

func TestEnricher_RequiresLinkedImage(t *testing.T) {
	t.Run("no image id", func(t *testing.T) {
		m := setupTestProcessor(t)
		assert.Equal(t, domain.OutcomeReject, newEnricher(m).Handle(context.Background(), encode(t, testMessage(domain.OperationInsert))))
	})

	t.Run("image replaced since", func(t *testing.T) {
		m := setupTestProcessor(t)
		msg := testMessage(domain.OperationInsert).WithImageID(30)
		m.store.EXPECT().GetSource(gomock.Any(), msg.SourceKey()).Return(publishedSource(), nil)

		assert.Equal(t, domain.OutcomeReject, newEnricher(m).Handle(context.Background(), encode(t, msg)))
	})
}

func TestEnricher_IndexReadyFailureIsRequeued(t *testing.T) {
	m := setupTestProcessor(t)
	e := newEnricher(m)
	msg := testMessage(domain.OperationInsert).WithImageID(31)

	m.store.EXPECT().GetSource(gomock.Any(), msg.SourceKey()).Return(publishedSource(), nil)
	m.search.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(&search.Material{Title: "x"}, nil)
	m.store.EXPECT().UpsertSearch(gomock.Any(), gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(assert.AnError)

	assert.Equal(t, domain.OutcomeRequeue, e.Handle(context.Background(), encode(t, msg)))
}

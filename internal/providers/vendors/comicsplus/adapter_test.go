package comicsplus_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	mockspkg "github.com/bibcovers/cover-indexer/internal/mocks"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors/comicsplus"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func respond(body string) func(context.Context, string, interface{}, ...adapter.RequestOption) error {
	return func(_ context.Context, _ string, result interface{}, _ ...adapter.RequestOption) error {
		return json.Unmarshal([]byte(body), result)
	}
}

func TestAdapter_Load_Pages(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpClient := mockspkg.NewMockHTTPClient(ctrl)
	cfg := vendors.Config{DataServerURI: "https://api.comicsplus.example/v1/titles?format=json"}

	gomock.InOrder(
		httpClient.EXPECT().
			Get(gomock.Any(), "https://api.comicsplus.example/v1/titles?format=json&page=1&per_page=100", gomock.Any(), gomock.Any()).
			DoAndReturn(respond(`{"page":1,"total_pages":2,"titles":[
				{"isbn":"9788702173277","cover_url":"https://cdn.comicsplus.example/1.jpg"},
				{"isbn":"9788711321683","cover_url":""}
			]}`)),
		httpClient.EXPECT().
			Get(gomock.Any(), "https://api.comicsplus.example/v1/titles?format=json&page=2&per_page=100", gomock.Any(), gomock.Any()).
			DoAndReturn(respond(`{"page":2,"total_pages":2,"titles":[
				{"isbn":"978-87-00-63162-5","cover_url":"https://cdn.comicsplus.example/2.jpg"}
			]}`)),
	)

	var entries []vendors.Entry
	err := comicsplus.NewAdapter(httpClient, cfg).Load(context.Background(), func(_ context.Context, e vendors.Entry) error {
		entries = append(entries, e)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []vendors.Entry{
		{IdentifierType: domain.IdentifierTypeISBN, Identifier: "9788702173277", URL: "https://cdn.comicsplus.example/1.jpg"},
		{IdentifierType: domain.IdentifierTypeISBN, Identifier: "9788700631625", URL: "https://cdn.comicsplus.example/2.jpg"},
	}, entries)
}

func TestAdapter_Load_EmptyPageEnds(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpClient := mockspkg.NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(respond(`{"page":1,"total_pages":0,"titles":[]}`))

	err := comicsplus.NewAdapter(httpClient, vendors.Config{DataServerURI: "https://api.comicsplus.example/v1/titles"}).
		Load(context.Background(), func(context.Context, vendors.Entry) error { return nil })
	assert.NoError(t, err)
}

func TestAdapter_Load_PageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpClient := mockspkg.NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	err := comicsplus.NewAdapter(httpClient, vendors.Config{DataServerURI: "https://api.comicsplus.example/v1/titles"}).
		Load(context.Background(), func(context.Context, vendors.Entry) error { return nil })
	assert.ErrorIs(t, err, assert.AnError)
}

package processor_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	mockspkg "github.com/bibcovers/cover-indexer/internal/mocks"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// testProcessorMocks contains all the mocks the stages depend on
type testProcessorMocks struct {
	ctrl      *gomock.Controller
	store     *mockspkg.MockStore
	prober    *mockspkg.MockProber
	router    *mockspkg.MockRouter
	covers    *mockspkg.MockCoverStore
	search    *mockspkg.MockSearchClient
	noHits    *mockspkg.MockNoHitReporter
	publisher *mockspkg.MockPublisher
}

func setupTestProcessor(t *testing.T) *testProcessorMocks {
	ctrl := gomock.NewController(t)

	return &testProcessorMocks{
		ctrl:      ctrl,
		store:     mockspkg.NewMockStore(ctrl),
		prober:    mockspkg.NewMockProber(ctrl),
		router:    mockspkg.NewMockRouter(ctrl),
		covers:    mockspkg.NewMockCoverStore(ctrl),
		search:    mockspkg.NewMockSearchClient(ctrl),
		noHits:    mockspkg.NewMockNoHitReporter(ctrl),
		publisher: mockspkg.NewMockPublisher(ctrl),
	}
}

const (
	testVendorID   = int64(7)
	testIdentifier = "9788702173277"
	testFile       = "https://images.vendor.example/9788702173277.jpg"
)

func encode(t *testing.T, v interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func testMessage(op domain.Operation) domain.ProcessMessage {
	return domain.NewProcessMessage(op, domain.IdentifierTypeISBN, testIdentifier, testVendorID)
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func testSource() *schema.Source {
	return &schema.Source{
		ID:           11,
		VendorID:     testVendorID,
		MatchID:      testIdentifier,
		MatchType:    string(domain.IdentifierTypeISBN),
		OriginalFile: strPtr(testFile),
	}
}

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func ensureTestVendor(t *testing.T, store Store, id int64) *schema.Vendor {
	t.Helper()
	vendor, err := store.EnsureVendor(context.Background(), EnsureVendorInput{
		ID:   id,
		Name: fmt.Sprintf("vendor-%d", id),
		Rank: int(id),
	})
	require.NoError(t, err)
	return vendor
}

func buildUpsert(vendorID int64, identifier, url string) UpsertSourceInput {
	return UpsertSourceInput{
		VendorID:     vendorID,
		MatchID:      identifier,
		MatchType:    domain.IdentifierTypeISBN,
		OriginalFile: url,
	}
}

func sourceKey(vendorID int64, identifier string) domain.SourceKey {
	return domain.SourceKey{VendorID: vendorID, Identifier: identifier, IdentifierType: domain.IdentifierTypeISBN}
}

func mustGetSource(t *testing.T, store Store, key domain.SourceKey) *schema.Source {
	t.Helper()
	source, err := store.GetSource(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, source)
	return source
}

func countRows(t *testing.T, store Store, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, store.(*pgStore).db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

// =============================================================================
// Tests
// =============================================================================

func testVendors(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("ensure creates then refreshes", func(t *testing.T) {
		uri := "https://feeds.example.com/a"
		vendor, err := store.EnsureVendor(ctx, EnsureVendorInput{ID: 901, Name: "alpha", Rank: 3, DataServerURI: &uri})
		require.NoError(t, err)
		assert.Equal(t, int64(901), vendor.ID)

		_, err = store.EnsureVendor(ctx, EnsureVendorInput{ID: 901, Name: "alpha", Rank: 1})
		require.NoError(t, err)

		got, err := store.GetVendor(ctx, 901)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 1, got.Rank)
		assert.Nil(t, got.DataServerURI)
	})

	t.Run("missing vendor returns nil", func(t *testing.T) {
		got, err := store.GetVendor(ctx, 424242)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func testUpsertSourcesUniqueness(t *testing.T, store Store) {
	ctx := context.Background()
	vendor := ensureTestVendor(t, store, 11)

	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{
		buildUpsert(vendor.ID, "A", "https://img.example.com/a1.jpg"),
		buildUpsert(vendor.ID, "B", "https://img.example.com/b1.jpg"),
	}))
	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{
		buildUpsert(vendor.ID, "A", "https://img.example.com/a1.jpg"),
	}))

	sources, err := store.FindSources(ctx, vendor.ID, domain.IdentifierTypeISBN, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, sources, 2)
	assert.Equal(t, int64(1), countRows(t, store, &schema.Source{}, "vendor_id = ? AND match_id = ?", vendor.ID, "A"))

	t.Run("other identifier type is a distinct source", func(t *testing.T) {
		input := buildUpsert(vendor.ID, "A", "https://img.example.com/a-faust.jpg")
		input.MatchType = domain.IdentifierTypeFaust
		require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{input}))

		isbn, err := store.FindSources(ctx, vendor.ID, domain.IdentifierTypeISBN, []string{"A"})
		require.NoError(t, err)
		assert.Len(t, isbn, 1)
		assert.Equal(t, "https://img.example.com/a1.jpg", *isbn[0].OriginalFile)
	})
}

func testUpsertSourcesClearsFingerprint(t *testing.T, store Store) {
	ctx := context.Background()
	vendor := ensureTestVendor(t, store, 12)
	key := sourceKey(vendor.ID, "A")

	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{buildUpsert(vendor.ID, "A", "https://img.example.com/a1.jpg")}))
	source := mustGetSource(t, store, key)
	assert.False(t, source.HasFingerprint())

	modified := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateSourceFingerprint(ctx, source.ID, Fingerprint{ContentLength: 2048, LastModified: &modified}))

	source = mustGetSource(t, store, key)
	require.True(t, source.HasFingerprint())
	assert.Equal(t, int64(2048), *source.OriginalContentLength)
	assert.True(t, Fingerprint{ContentLength: 2048, LastModified: &modified}.Equal(source))

	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{buildUpsert(vendor.ID, "A", "https://img.example.com/a2.jpg")}))

	updated := mustGetSource(t, store, key)
	assert.Equal(t, source.ID, updated.ID)
	assert.Equal(t, "https://img.example.com/a2.jpg", *updated.OriginalFile)
	assert.False(t, updated.HasFingerprint())
	assert.Nil(t, updated.OriginalLastModified)
}

func testClearSourceOriginal(t *testing.T, store Store) {
	ctx := context.Background()
	vendor := ensureTestVendor(t, store, 13)
	key := sourceKey(vendor.ID, "A")

	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{buildUpsert(vendor.ID, "A", "https://img.example.com/a1.jpg")}))
	source := mustGetSource(t, store, key)
	require.NoError(t, store.UpdateSourceFingerprint(ctx, source.ID, Fingerprint{ContentLength: 10}))

	require.NoError(t, store.ClearSourceOriginal(ctx, source.ID))

	cleared := mustGetSource(t, store, key)
	assert.Nil(t, cleared.OriginalFile)
	assert.Nil(t, cleared.OriginalContentLength)
	assert.Nil(t, cleared.OriginalLastModified)
}

func testPublishImage(t *testing.T, store Store) {
	ctx := context.Background()
	vendor := ensureTestVendor(t, store, 14)
	key := sourceKey(vendor.ID, "A")

	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{buildUpsert(vendor.ID, "A", "https://img.example.com/a1.jpg")}))
	source := mustGetSource(t, store, key)

	placeholder, err := store.PublishImage(ctx, PublishImageInput{
		SourceID:        source.ID,
		ImageURL:        "https://cdn.example.com/placeholder/public",
		Format:          "png",
		ProviderAssetID: "placeholder-asset",
		AutoGenerated:   true,
	})
	require.NoError(t, err)
	require.NotZero(t, placeholder.ID)

	linked := mustGetSource(t, store, key)
	require.NotNil(t, linked.ImageID)
	require.NotNil(t, linked.Image)
	assert.True(t, linked.Image.AutoGenerated)

	published, err := store.PublishImage(ctx, PublishImageInput{
		SourceID:        source.ID,
		ImageURL:        "https://cdn.example.com/real/public",
		Width:           600,
		Height:          900,
		Size:            40960,
		Format:          "jpeg",
		ProviderAssetID: "real-asset",
	})
	require.NoError(t, err)
	assert.Equal(t, placeholder.ID, published.ID)

	replaced := mustGetSource(t, store, key)
	require.NotNil(t, replaced.Image)
	assert.False(t, replaced.Image.AutoGenerated)
	assert.Equal(t, "real-asset", *replaced.Image.ProviderAssetID)
	assert.Equal(t, 600, replaced.Image.Width)
	assert.Equal(t, int64(1), countRows(t, store, &schema.Image{}, "id = ?", published.ID))

	t.Run("unknown source", func(t *testing.T) {
		_, err := store.PublishImage(ctx, PublishImageInput{SourceID: 987654321, ImageURL: "x", ProviderAssetID: "y"})
		assert.ErrorIs(t, err, domain.ErrSourceNotFound)
	})
}

func testUpsertSearch(t *testing.T, store Store) {
	ctx := context.Background()
	vendor := ensureTestVendor(t, store, 15)
	key := sourceKey(vendor.ID, "A")

	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{buildUpsert(vendor.ID, "A", "https://img.example.com/a1.jpg")}))
	source := mustGetSource(t, store, key)

	input := UpsertSearchInput{
		SourceID:       source.ID,
		Identifier:     "A",
		IdentifierType: domain.IdentifierTypeISBN,
		ImageURL:       "https://cdn.example.com/a/public",
		ImageFormat:    "jpeg",
		Width:          100,
		Height:         150,
		Material:       datatypes.JSON(`{"title":"first"}`),
	}
	require.NoError(t, store.UpsertSearch(ctx, input))

	input.Material = datatypes.JSON(`{"title":"second"}`)
	require.NoError(t, store.UpsertSearch(ctx, input))

	assert.Equal(t, int64(1), countRows(t, store, &schema.Search{}, "source_id = ?", source.ID))

	search, err := store.GetSearch(ctx, source.ID)
	require.NoError(t, err)
	require.NotNil(t, search)
	assert.JSONEq(t, `{"title":"second"}`, string(search.Material))

	missing, err := store.GetSearch(ctx, source.ID+1000)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func testDeleteSource(t *testing.T, store Store) {
	ctx := context.Background()
	vendor := ensureTestVendor(t, store, 16)
	key := sourceKey(vendor.ID, "A")

	require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{buildUpsert(vendor.ID, "A", "https://img.example.com/a1.jpg")}))
	source := mustGetSource(t, store, key)
	image, err := store.PublishImage(ctx, PublishImageInput{
		SourceID:        source.ID,
		ImageURL:        "https://cdn.example.com/a/public",
		Format:          "jpeg",
		ProviderAssetID: "asset-a",
	})
	require.NoError(t, err)
	require.NoError(t, store.UpsertSearch(ctx, UpsertSearchInput{
		SourceID:       source.ID,
		Identifier:     "A",
		IdentifierType: domain.IdentifierTypeISBN,
		ImageURL:       "https://cdn.example.com/a/public",
		ImageFormat:    "jpeg",
	}))

	removed, found, err := store.DeleteSource(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, removed)
	assert.Equal(t, image.ID, removed.ID)
	assert.Equal(t, "asset-a", *removed.ProviderAssetID)

	got, err := store.GetSource(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(0), countRows(t, store, &schema.Search{}, "source_id = ?", source.ID))
	assert.Equal(t, int64(0), countRows(t, store, &schema.Image{}, "id = ?", image.ID))

	pending, err := store.GetPendingRemoval(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "asset-a", pending)

	t.Run("already deleted keeps the pending removal", func(t *testing.T) {
		removed, found, err := store.DeleteSource(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, removed)

		pending, err := store.GetPendingRemoval(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "asset-a", pending)
	})

	t.Run("clear pending removal", func(t *testing.T) {
		require.NoError(t, store.ClearPendingRemoval(ctx, key))

		pending, err := store.GetPendingRemoval(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, pending)

		// clearing twice is harmless
		assert.NoError(t, store.ClearPendingRemoval(ctx, key))
	})

	t.Run("source without image records nothing", func(t *testing.T) {
		other := sourceKey(vendor.ID, "B")
		require.NoError(t, store.UpsertSources(ctx, []UpsertSourceInput{buildUpsert(vendor.ID, "B", "https://img.example.com/b1.jpg")}))

		removed, found, err := store.DeleteSource(ctx, other)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Nil(t, removed)

		pending, err := store.GetPendingRemoval(ctx, other)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestPendingRemovalKey(t *testing.T) {
	key := domain.SourceKey{VendorID: 3, Identifier: "9788702173277", IdentifierType: domain.IdentifierTypeISBN}
	assert.Equal(t, "cover:pending_removal:3:isbn:9788702173277", PendingRemovalKey(key))
}

func testKeyValueStore(t *testing.T, store Store) {
	ctx := context.Background()

	value, err := store.GetKeyValue(ctx, "harvest:last_run:saxo")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetKeyValue(ctx, "harvest:last_run:saxo", "2024-05-01T10:00:00Z"))
	require.NoError(t, store.SetKeyValue(ctx, "harvest:last_run:saxo", "2024-05-02T10:00:00Z"))

	value, err = store.GetKeyValue(ctx, "harvest:last_run:saxo")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02T10:00:00Z", value)
}

func TestFingerprintEqual(t *testing.T) {
	length := int64(100)
	modified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	other := modified.Add(time.Hour)

	assert.False(t, Fingerprint{ContentLength: 100}.Equal(nil))
	assert.False(t, Fingerprint{ContentLength: 100}.Equal(&schema.Source{}))
	assert.True(t, Fingerprint{ContentLength: 100}.Equal(&schema.Source{OriginalContentLength: &length}))
	assert.False(t, Fingerprint{ContentLength: 101}.Equal(&schema.Source{OriginalContentLength: &length}))
	assert.True(t, Fingerprint{ContentLength: 100, LastModified: &modified}.Equal(&schema.Source{OriginalContentLength: &length, OriginalLastModified: &modified}))
	assert.False(t, Fingerprint{ContentLength: 100, LastModified: &other}.Equal(&schema.Source{OriginalContentLength: &length, OriginalLastModified: &modified}))
	assert.False(t, Fingerprint{ContentLength: 100}.Equal(&schema.Source{OriginalContentLength: &length, OriginalLastModified: &modified}))
}

// RunStoreTests runs every store test against the store returned by initDB
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"Vendors", testVendors},
		{"UpsertSourcesUniqueness", testUpsertSourcesUniqueness},
		{"UpsertSourcesClearsFingerprint", testUpsertSourcesClearsFingerprint},
		{"ClearSourceOriginal", testClearSourceOriginal},
		{"PublishImage", testPublishImage},
		{"UpsertSearch", testUpsertSearch},
		{"DeleteSource", testDeleteSource},
		{"KeyValueStore", testKeyValueStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}

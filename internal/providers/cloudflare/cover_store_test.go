package cloudflare_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"testing"

	cf "github.com/cloudflare/cloudflare-go"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/coverstore"
	"github.com/bibcovers/cover-indexer/internal/logger"
	mockspkg "github.com/bibcovers/cover-indexer/internal/mocks"
	"github.com/bibcovers/cover-indexer/internal/providers/cloudflare"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

const sourceURL = "https://images.vendor.example/covers/9788702173277.png"

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func setupCoverStore(t *testing.T, cfg cloudflare.Config) (coverstore.Provider, *mockspkg.MockCloudflareClient, *mockspkg.MockHTTPClient) {
	ctrl := gomock.NewController(t)
	cfClient := mockspkg.NewMockCloudflareClient(ctrl)
	httpClient := mockspkg.NewMockHTTPClient(ctrl)

	return cloudflare.NewCoverStore(cfClient, httpClient, cfg), cfClient, httpClient
}

func TestCoverStore_Upload_Success(t *testing.T) {
	store, cfClient, httpClient := setupCoverStore(t, cloudflare.Config{AccountID: "acc", Variant: "public"})
	data := pngBytes(t, 120, 180)

	httpClient.EXPECT().
		GetStream(gomock.Any(), sourceURL).
		Return(io.NopCloser(bytes.NewReader(data)), nil)

	cfClient.EXPECT().
		UploadImage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rc *cf.ResourceContainer, params cf.UploadImageParams) (cf.Image, error) {
			assert.Equal(t, "acc", rc.Identifier)
			assert.Equal(t, "covers/9788702173277.png", params.Name)
			assert.Equal(t, "9788702173277", params.Metadata["identifier"])
			assert.Equal(t, "7", params.Metadata["vendor_id"])
			return cf.Image{
				ID: "img-1",
				Variants: []string{
					"https://imagedelivery.net/hash/img-1/thumbnail",
					"https://imagedelivery.net/hash/img-1/public",
				},
			}, nil
		})

	result, err := store.Upload(context.Background(), sourceURL, "covers", "9788702173277", map[string]string{"vendor_id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "https://imagedelivery.net/hash/img-1/public", result.URL)
	assert.Equal(t, "img-1", result.AssetID)
	assert.Equal(t, 120, result.Width)
	assert.Equal(t, 180, result.Height)
	assert.Equal(t, int64(len(data)), result.Size)
	assert.Equal(t, "png", result.Format)
}

func TestCoverStore_Upload_SourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     cloudflare.Config
		body    []byte
		dlErr   error
		wantErr error
	}{
		{
			name:    "remote not found",
			dlErr:   &adapter.StatusError{StatusCode: http.StatusNotFound},
			wantErr: coverstore.ErrNotFound,
		},
		{
			name:    "remote gone",
			dlErr:   &adapter.StatusError{StatusCode: http.StatusGone},
			wantErr: coverstore.ErrNotFound,
		},
		{
			name:    "too large",
			cfg:     cloudflare.Config{MaxImageSize: 16},
			body:    bytes.Repeat([]byte{0xff}, 64),
			wantErr: coverstore.ErrFileTooLarge,
		},
		{
			name:    "not an image",
			body:    []byte("<html><body>gone fishing</body></html>"),
			wantErr: coverstore.ErrInvalidImage,
		},
		{
			name:    "empty body",
			body:    []byte{},
			wantErr: coverstore.ErrInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, httpClient := setupCoverStore(t, tt.cfg)

			if tt.dlErr != nil {
				httpClient.EXPECT().GetStream(gomock.Any(), sourceURL).Return(nil, tt.dlErr)
			} else {
				httpClient.EXPECT().GetStream(gomock.Any(), sourceURL).Return(io.NopCloser(bytes.NewReader(tt.body)), nil)
			}

			result, err := store.Upload(context.Background(), sourceURL, "covers", "9788702173277", nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}

func TestCoverStore_Upload_ServerErrorIsNotClassified(t *testing.T) {
	store, _, httpClient := setupCoverStore(t, cloudflare.Config{})

	httpClient.EXPECT().
		GetStream(gomock.Any(), sourceURL).
		Return(nil, &adapter.StatusError{StatusCode: http.StatusBadGateway})

	_, err := store.Upload(context.Background(), sourceURL, "covers", "9788702173277", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, coverstore.ErrNotFound)
	assert.NotErrorIs(t, err, coverstore.ErrUnauthorized)
	assert.Equal(t, http.StatusBadGateway, adapter.StatusCode(err))
}

func TestCoverStore_Upload_SelfHosted(t *testing.T) {
	store, _, _ := setupCoverStore(t, cloudflare.Config{})

	_, err := store.Upload(context.Background(), "https://imagedelivery.net/hash/img-1/public", "covers", "1", nil)
	assert.ErrorIs(t, err, coverstore.ErrInvalidImage)
}

func TestCoverStore_Remove(t *testing.T) {
	store, cfClient, _ := setupCoverStore(t, cloudflare.Config{AccountID: "acc"})

	cfClient.EXPECT().DeleteImage(gomock.Any(), gomock.Any(), "img-1").Return(nil)
	assert.NoError(t, store.Remove(context.Background(), "img-1"))

	cfClient.EXPECT().DeleteImage(gomock.Any(), gomock.Any(), "img-2").Return(assert.AnError)
	err := store.Remove(context.Background(), "img-2")
	assert.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, cloudflare.CLOUDFLARE_PROVIDER_NAME, store.Name())
}

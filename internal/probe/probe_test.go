package probe_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibcovers/cover-indexer/internal/logger"
	mockspkg "github.com/bibcovers/cover-indexer/internal/mocks"
	"github.com/bibcovers/cover-indexer/internal/probe"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

const fileURL = "https://images.vendor.example/9788702173277.jpg"

func response(status int, length int64, header map[string]string) *http.Response {
	resp := &http.Response{
		StatusCode:    status,
		ContentLength: length,
		Header:        http.Header{},
		Body:          io.NopCloser(strings.NewReader("")),
	}
	for k, v := range header {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestProber_Probe_Head(t *testing.T) {
	lastModified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		resp       *http.Response
		err        error
		wantStatus probe.Status
		wantLength int64
		wantLM     *time.Time
	}{
		{
			name:       "present with fingerprint",
			resp:       response(http.StatusOK, 2048, map[string]string{"Last-Modified": lastModified.Format(http.TimeFormat)}),
			wantStatus: probe.StatusPresent,
			wantLength: 2048,
			wantLM:     &lastModified,
		},
		{
			name:       "present without last modified",
			resp:       response(http.StatusOK, 10, nil),
			wantStatus: probe.StatusPresent,
			wantLength: 10,
		},
		{
			name:       "not found",
			resp:       response(http.StatusNotFound, -1, nil),
			wantStatus: probe.StatusAbsent,
			wantLength: -1,
		},
		{
			name:       "gone",
			resp:       response(http.StatusGone, -1, nil),
			wantStatus: probe.StatusAbsent,
			wantLength: -1,
		},
		{
			name:       "server error",
			resp:       response(http.StatusBadGateway, -1, nil),
			wantStatus: probe.StatusTransient,
			wantLength: -1,
		},
		{
			name:       "rate limited",
			resp:       response(http.StatusTooManyRequests, -1, nil),
			wantStatus: probe.StatusTransient,
			wantLength: -1,
		},
		{
			name:       "network error",
			err:        assert.AnError,
			wantStatus: probe.StatusTransient,
			wantLength: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			httpClient := mockspkg.NewMockHTTPClient(ctrl)
			p := probe.NewProber(httpClient)

			httpClient.EXPECT().Head(gomock.Any(), fileURL).Return(tt.resp, tt.err)

			result := p.Probe(context.Background(), fileURL)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantLength, result.ContentLength)
			if tt.wantLM == nil {
				assert.Nil(t, result.LastModified)
			} else {
				require.NotNil(t, result.LastModified)
				assert.True(t, tt.wantLM.Equal(*result.LastModified))
			}
		})
	}
}

func TestProber_Probe_RangeFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpClient := mockspkg.NewMockHTTPClient(ctrl)
	p := probe.NewProber(httpClient)

	httpClient.EXPECT().Head(gomock.Any(), fileURL).Return(response(http.StatusMethodNotAllowed, -1, nil), nil)
	httpClient.EXPECT().
		GetResponse(gomock.Any(), fileURL, gomock.Any()).
		Return(response(http.StatusPartialContent, 1, map[string]string{"Content-Range": "bytes 0-0/4096"}), nil)

	result := p.Probe(context.Background(), fileURL)
	assert.Equal(t, probe.StatusPresent, result.Status)
	assert.Equal(t, int64(4096), result.ContentLength)
}

func TestProber_Probe_UnknownLengthFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpClient := mockspkg.NewMockHTTPClient(ctrl)
	p := probe.NewProber(httpClient)

	httpClient.EXPECT().Head(gomock.Any(), fileURL).Return(response(http.StatusOK, -1, nil), nil)
	httpClient.EXPECT().
		GetResponse(gomock.Any(), fileURL, gomock.Any()).
		Return(response(http.StatusPartialContent, 1, map[string]string{"Content-Range": "bytes 0-0/*"}), nil)

	result := p.Probe(context.Background(), fileURL)
	assert.Equal(t, probe.StatusPresent, result.Status)
	assert.Equal(t, int64(-1), result.ContentLength)
}

func TestProber_Probe_InvalidURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := probe.NewProber(mockspkg.NewMockHTTPClient(ctrl))

	result := p.Probe(context.Background(), "ftp://vendor.example/file.jpg")
	assert.Equal(t, probe.StatusAbsent, result.Status)
}

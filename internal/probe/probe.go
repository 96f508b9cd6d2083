package probe

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/logger"
)

// Status is the availability of a remote file
type Status string

const (
	// StatusPresent indicates the file is served
	StatusPresent Status = "present"
	// StatusAbsent indicates the vendor no longer serves the file
	StatusAbsent Status = "absent"
	// StatusTransient indicates a temporary error that should be retried
	StatusTransient Status = "transient"
)

// Result is the outcome of probing a remote file
type Result struct {
	Status Status
	// ContentLength is -1 when the server did not report a length
	ContentLength int64
	LastModified  *time.Time
	StatusCode    int
	Err           error
}

// Prober fetches the fingerprint of a remote file without downloading it
//
//go:generate mockgen -source=probe.go -destination=../mocks/probe.go -package=mocks -mock_names=Prober=MockProber
type Prober interface {
	Probe(ctx context.Context, url string) Result
}

type prober struct {
	httpClient adapter.HTTPClient
}

// NewProber creates a HEAD based prober
func NewProber(httpClient adapter.HTTPClient) Prober {
	return &prober{httpClient: httpClient}
}

// Probe sends a HEAD request. Servers that refuse HEAD or omit the length are
// asked for the first byte with a ranged GET, whose Content-Range carries the total size.
func (p *prober) Probe(ctx context.Context, url string) Result {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return Result{Status: StatusAbsent, ContentLength: -1}
	}

	resp, err := p.httpClient.Head(ctx, url)
	if err != nil {
		return Result{Status: StatusTransient, ContentLength: -1, Err: err}
	}
	closeBody(ctx, resp)

	result := classify(resp)
	if result.Status == StatusPresent && result.ContentLength >= 0 {
		return result
	}
	if result.Status == StatusTransient || result.StatusCode == http.StatusNotFound || result.StatusCode == http.StatusGone {
		return result
	}

	logger.DebugCtx(ctx, "HEAD probe inconclusive, trying GET with Range",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode))

	return p.probeWithRange(ctx, url)
}

func (p *prober) probeWithRange(ctx context.Context, url string) Result {
	resp, err := p.httpClient.GetResponse(ctx, url, adapter.WithHeader("Range", "bytes=0-0"))
	if err != nil {
		return Result{Status: StatusTransient, ContentLength: -1, Err: err}
	}
	closeBody(ctx, resp)

	result := classify(resp)
	if resp.StatusCode == http.StatusPartialContent {
		result.ContentLength = totalFromContentRange(resp.Header.Get("Content-Range"))
	}
	return result
}

func classify(resp *http.Response) Result {
	result := Result{
		ContentLength: resp.ContentLength,
		StatusCode:    resp.StatusCode,
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Status = StatusPresent
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if t, err := http.ParseTime(lm); err == nil {
				t = t.UTC()
				result.LastModified = &t
			}
		}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		result.Status = StatusTransient
	default:
		result.Status = StatusAbsent
	}

	return result
}

// totalFromContentRange parses "bytes 0-0/12345"; returns -1 when the total is unknown
func totalFromContentRange(header string) int64 {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return -1
	}
	total, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return total
}

func closeBody(ctx context.Context, resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	if err := resp.Body.Close(); err != nil {
		logger.WarnCtx(ctx, "Failed to close probe response body", zap.Error(err))
	}
}
